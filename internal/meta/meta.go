// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"context"

	"github.com/scaladm/scaladm/internal/config"
)

// Meta contains runtime metadata shared by commands. It carries the CLI
// arguments, loaded configuration, and context.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context
}
