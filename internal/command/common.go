// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/aws"
	"github.com/scaladm/scaladm/internal/meta"
	"github.com/scaladm/scaladm/internal/output"
)

// AdminCommandBuilder constructs a cli.Command for the scaladm subcommands
// using a consistent pattern. It accepts the command name, usage text,
// optional UsageText, custom flags, the action handler, and meta. The builder
// automatically wires metadata, applies global flags, and sets up validators.
type AdminCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Commands  []*cli.Command
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (acb *AdminCommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      acb.Name,
		Usage:     acb.Usage,
		UsageText: acb.UsageText,
		Metadata: map[string]any{
			"meta": acb.Meta,
		},
		Flags:    append(acb.Flags, NewGlobalFlags(acb.Name)...),
		Commands: acb.Commands,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: acb.Action,
	}
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// NormalizeTeam maps a user-supplied team name to its canonical form: outer
// whitespace trimmed and inner spaces replaced by hyphens. The result names
// the IAM user, keypair, security group and GitHub team/repository.
func NormalizeTeam(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
}

// TeamArgs returns the normalized positional team names, requiring at least
// one.
func TeamArgs(cmd *cli.Command) ([]string, error) {
	raw := cmd.Args().Slice()
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one TEAM argument is required")
	}

	teams := make([]string, 0, len(raw))
	for _, name := range raw {
		team := NormalizeTeam(name)
		if team == "" {
			return nil, fmt.Errorf("blank team name")
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// NewAdminFromFlags builds the AWS façade from the command's flags.
func NewAdminFromFlags(ctx context.Context, cmd *cli.Command) (*aws.Admin, error) {
	return aws.NewAdmin(ctx, aws.AdminOptions{
		Group:   cmd.String("group"),
		Profile: cmd.String("profile"),
		Region:  cmd.String("region"),
	})
}

// EmitJSONSlice marshals a slice as JSON and passes it to the common output
// routine with a fixed column order.
func EmitJSONSlice(results any, columns []string, cmd *cli.Command) error {
	var raw bytes.Buffer
	if err := json.NewEncoder(&raw).Encode(results); err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	output.Spit(raw, columns, cmd, os.Stdout)
	return nil
}
