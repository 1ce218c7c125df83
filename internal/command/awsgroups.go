// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/meta"
)

// groupsColumns fixes the column order for the security group listing.
var groupsColumns = []string{"team", "sg"}

// awsGroupsCommandAction is the action handler for the "aws-groups"
// subcommand. It lists the team security groups.
func awsGroupsCommandAction(ctx context.Context, cmd *cli.Command) error {
	admin, err := NewAdminFromFlags(ctx, cmd)
	if err != nil {
		return err
	}

	groups, err := admin.TeamSecurityGroups(ctx)
	if err != nil {
		return err
	}
	return EmitJSONSlice(groups, groupsColumns, cmd)
}

// awsGroupsCommandBuilder constructs the cli.Command for "aws-groups",
// wiring metadata, flags, and action handlers.
func awsGroupsCommandBuilder(meta meta.Meta) *cli.Command {
	return (&AdminCommandBuilder{
		Name:      "aws-groups",
		Usage:     "list team security groups",
		UsageText: "scaladm aws-groups [options]",
		Flags: []cli.Flag{
			NewProfileFlag("aws-groups", meta.Config.Source),
			NewRegionFlag("aws-groups", meta.Config.Source),
		},
		Action: awsGroupsCommandAction,
		Meta:   meta,
	}).Build()
}
