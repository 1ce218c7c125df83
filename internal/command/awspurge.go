// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/meta"
)

// awsPurgeCommandAction is the action handler for the "aws-purge"
// subcommand. It removes every AWS artifact for each listed team.
func awsPurgeCommandAction(ctx context.Context, cmd *cli.Command) error {
	teams, err := TeamArgs(cmd)
	if err != nil {
		return err
	}

	admin, err := NewAdminFromFlags(ctx, cmd)
	if err != nil {
		return err
	}

	for _, team := range teams {
		if err := admin.Purge(ctx, team); err != nil {
			return err
		}
	}
	return nil
}

// awsPurgeCommandBuilder constructs the cli.Command for "aws-purge", wiring
// metadata, flags, and action handlers.
func awsPurgeCommandBuilder(meta meta.Meta) *cli.Command {
	return (&AdminCommandBuilder{
		Name:      "aws-purge",
		Usage:     "remove team AWS accounts and settings",
		UsageText: "scaladm aws-purge TEAM... [options]",
		Flags: []cli.Flag{
			NewGroupFlag("aws-purge", meta.Config.Source),
			NewProfileFlag("aws-purge", meta.Config.Source),
			NewRegionFlag("aws-purge", meta.Config.Source),
		},
		Action: awsPurgeCommandAction,
		Meta:   meta,
	}).Build()
}
