// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package aws wraps the AWS SDK behind the administrative operations the
// commands need: per-team account provisioning, stack cleanup, purging, and
// template verification/upload.
package aws
