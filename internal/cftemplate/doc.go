// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package cftemplate assembles the CloudFormation templates teams launch
// their stacks from. A Builder holds the feature toggles (multi-instance,
// memcached, puma) and produces a deterministic JSON document.
package cftemplate
