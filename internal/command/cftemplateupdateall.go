// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/cftemplate"
	"github.com/scaladm/scaladm/internal/meta"
)

// cftemplateUpdateAllCommandAction is the action handler for the
// "cftemplate-update-all" subcommand. It regenerates every
// memcached/multi/puma combination, validating and optionally uploading
// each.
func cftemplateUpdateAllCommandAction(ctx context.Context, cmd *cli.Command) error {
	admin := lazyAdmin(ctx, cmd)

	teams, err := templateTeams(ctx, admin)
	if err != nil {
		return err
	}

	for i := 0; i < 8; i++ {
		builder := &cftemplate.Builder{
			AMI:       cmd.String("app-ami"),
			Memcached: i&1 != 0,
			Puma:      i&2 != 0,
			Multi:     i&4 != 0,
			Teams:     teams,
		}

		body, err := builder.Generate()
		if err != nil {
			return err
		}
		fmt.Printf("Generated: %s\n", builder.Name())

		if err := checkAndUpload(ctx, cmd, builder.Name(), body, admin); err != nil {
			return err
		}
	}
	return nil
}

// cftemplateUpdateAllCommandBuilder constructs the cli.Command for
// "cftemplate-update-all", wiring metadata, flags, and action handlers.
func cftemplateUpdateAllCommandBuilder(meta meta.Meta) *cli.Command {
	return (&AdminCommandBuilder{
		Name:      "cftemplate-update-all",
		Usage:     "regenerate every stack template combination",
		UsageText: "scaladm cftemplate-update-all [options]",
		Flags:     newTemplateFlags("cftemplate-update-all", meta.Config.Source),
		Action:    cftemplateUpdateAllCommandAction,
		Meta:      meta,
	}).Build()
}
