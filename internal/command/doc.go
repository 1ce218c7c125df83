// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package command wires the scaladm subcommands: AWS team provisioning and
// teardown, CloudFormation template generation, and GitHub scaffolding. Each
// subcommand lives in its own file as a builder/action pair.
package command
