// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/github"
	"github.com/scaladm/scaladm/internal/meta"
)

// ghCommandAction is the action handler for the "gh" subcommand. It
// scaffolds the GitHub team and repository and invites the listed users.
func ghCommandAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("a TEAM and at least one USER are required")
	}
	team := NormalizeTeam(args[0])
	users := args[1:]

	scaffolder, err := github.NewScaffolder(github.Options{
		Organization: cmd.String("org"),
	})
	if err != nil {
		return err
	}

	return scaffolder.ConfigureTeam(ctx, team, users)
}

// ghCommandBuilder constructs the cli.Command for "gh", wiring metadata,
// flags, and action handlers.
func ghCommandBuilder(meta meta.Meta) *cli.Command {
	return (&AdminCommandBuilder{
		Name:      "gh",
		Usage:     "scaffold the GitHub team and repository",
		UsageText: "scaladm gh TEAM USER... [options]",
		Flags: []cli.Flag{
			NewOrgFlag("gh", meta.Config.Source),
		},
		Action: ghCommandAction,
		Meta:   meta,
	}).Build()
}
