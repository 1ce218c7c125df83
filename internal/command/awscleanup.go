// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/config"
	"github.com/scaladm/scaladm/internal/meta"
)

// cleanupColumns fixes the column order for the dry-run stack listing.
var cleanupColumns = []string{"name", "status", "created"}

// awsCleanupCommandAction is the action handler for the "aws-cleanup"
// subcommand. It deletes CloudFormation stacks older than the cutoff, or
// just lists them with --dry-run.
func awsCleanupCommandAction(ctx context.Context, cmd *cli.Command) error {
	admin, err := NewAdminFromFlags(ctx, cmd)
	if err != nil {
		return err
	}

	maxAge := time.Duration(cmd.Int("age")) * time.Hour
	dryRun := cmd.Bool("dry-run")

	stacks, err := admin.Cleanup(ctx, maxAge, dryRun)
	if err != nil {
		return err
	}

	if !dryRun {
		return nil
	}

	rows := make([]map[string]string, 0, len(stacks))
	for _, stack := range stacks {
		rows = append(rows, map[string]string{
			"name":    stack.Name,
			"status":  stack.Status,
			"created": humanize.Time(stack.Created),
		})
	}
	return EmitJSONSlice(rows, cleanupColumns, cmd)
}

// awsCleanupCommandBuilder constructs the cli.Command for "aws-cleanup",
// wiring metadata, flags, and action handlers.
func awsCleanupCommandBuilder(meta meta.Meta) *cli.Command {
	// The cutoff default can be pinned in the config file.
	defaultAge, _ := config.GetInt("aws.cleanup_hours", 8)

	return (&AdminCommandBuilder{
		Name:      "aws-cleanup",
		Usage:     "delete stacks older than the cutoff",
		UsageText: "scaladm aws-cleanup [options]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "age",
				Usage: "stack age cutoff in hours",
				Value: defaultAge,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "list deletion candidates without deleting",
				HideDefault: true,
			},
			NewProfileFlag("aws-cleanup", meta.Config.Source),
			NewRegionFlag("aws-cleanup", meta.Config.Source),
		},
		Action: awsCleanupCommandAction,
		Meta:   meta,
	}).Build()
}
