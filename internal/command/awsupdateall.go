// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/log"
	"github.com/scaladm/scaladm/internal/meta"
)

// awsUpdateAllCommandAction is the action handler for the "aws-update-all"
// subcommand. It re-applies the team configuration for every team discovered
// from the security group listing.
func awsUpdateAllCommandAction(ctx context.Context, cmd *cli.Command) error {
	admin, err := NewAdminFromFlags(ctx, cmd)
	if err != nil {
		return err
	}

	groups, err := admin.TeamSecurityGroups(ctx)
	if err != nil {
		return err
	}
	log.Debugf("updating %d teams", len(groups))

	for _, group := range groups {
		if err := admin.Configure(ctx, group.Team); err != nil {
			return err
		}
	}
	return nil
}

// awsUpdateAllCommandBuilder constructs the cli.Command for
// "aws-update-all", wiring metadata, flags, and action handlers.
func awsUpdateAllCommandBuilder(meta meta.Meta) *cli.Command {
	return (&AdminCommandBuilder{
		Name:      "aws-update-all",
		Usage:     "re-apply the configuration of every team",
		UsageText: "scaladm aws-update-all [options]",
		Flags: []cli.Flag{
			NewGroupFlag("aws-update-all", meta.Config.Source),
			NewProfileFlag("aws-update-all", meta.Config.Source),
			NewRegionFlag("aws-update-all", meta.Config.Source),
		},
		Action: awsUpdateAllCommandAction,
		Meta:   meta,
	}).Build()
}
