// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package policy builds the IAM policy documents granted to the course group
// and to individual team users.
package policy
