// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/meta"
)

// awsCommandAction is the action handler for the "aws" subcommand. It
// provisions (or re-applies) the AWS account and settings for each listed
// team.
func awsCommandAction(ctx context.Context, cmd *cli.Command) error {
	teams, err := TeamArgs(cmd)
	if err != nil {
		return err
	}

	admin, err := NewAdminFromFlags(ctx, cmd)
	if err != nil {
		return err
	}

	for _, team := range teams {
		if err := admin.Configure(ctx, team); err != nil {
			return err
		}
	}
	return nil
}

// awsCommandBuilder constructs the cli.Command for "aws", wiring metadata,
// flags, and action handlers.
func awsCommandBuilder(meta meta.Meta) *cli.Command {
	return (&AdminCommandBuilder{
		Name:      "aws",
		Usage:     "provision or update team AWS accounts",
		UsageText: "scaladm aws TEAM... [options]",
		Flags: []cli.Flag{
			NewGroupFlag("aws", meta.Config.Source),
			NewProfileFlag("aws", meta.Config.Source),
			NewRegionFlag("aws", meta.Config.Source),
		},
		Action: awsCommandAction,
		Meta:   meta,
	}).Build()
}
