// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/config"
	"github.com/scaladm/scaladm/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {

	// The arg[1] immediately following the binary (arg[0]) is the scaladm
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// A missing config file is fine; every key has a flag or built-in default.
	cfg, _ := config.Load() //nolint
	cfg.Namespace = ns
	config.Config.Namespace = ns

	meta := meta.Meta{
		Args:    args,
		Config:  cfg,
		Context: ctx,
	}

	app := &cli.Command{
		Name:  "scaladm",
		Usage: "Scalable Internet Services course administration",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "scaladm version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		awsCommandBuilder(meta),
		awsCleanupCommandBuilder(meta),
		awsGroupsCommandBuilder(meta),
		awsPurgeCommandBuilder(meta),
		awsUpdateAllCommandBuilder(meta),
		cftemplateCommandBuilder(meta),
		cftemplateUpdateAllCommandBuilder(meta),
		ghCommandBuilder(meta),
		completionCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
