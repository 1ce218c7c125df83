// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package github scaffolds the per-team GitHub resources: one team with push
// access, one private-by-convention repository, and optionally a Pivotal
// Tracker webhook.
package github
