// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/aws"
	"github.com/scaladm/scaladm/internal/cftemplate"
	"github.com/scaladm/scaladm/internal/config"
	"github.com/scaladm/scaladm/internal/meta"
)

// lazyAdmin defers building the AWS façade until a step actually needs it,
// so fully offline generation (--no-test without --upload) never touches
// credentials.
func lazyAdmin(ctx context.Context, cmd *cli.Command) func() (*aws.Admin, error) {
	var admin *aws.Admin
	return func() (*aws.Admin, error) {
		if admin != nil {
			return admin, nil
		}
		var err error
		admin, err = NewAdminFromFlags(ctx, cmd)
		return admin, err
	}
}

// templateTeams resolves the team map: the config file when it pins one, the
// live security group listing otherwise. The config key is read with its
// full path so every template command sees the same map.
func templateTeams(ctx context.Context, admin func() (*aws.Admin, error)) (map[string]string, error) {
	if teams, err := config.GetStringMap("cftemplate.teams"); err == nil && len(teams) > 0 {
		return teams, nil
	}

	a, err := admin()
	if err != nil {
		return nil, err
	}
	groups, err := a.TeamSecurityGroups(ctx)
	if err != nil {
		return nil, err
	}

	teams := make(map[string]string, len(groups))
	for _, group := range groups {
		teams[group.Team] = group.ID
	}
	return teams, nil
}

// checkAndUpload validates the rendered template unless --no-test and
// uploads it when --upload.
func checkAndUpload(ctx context.Context, cmd *cli.Command, name string, body []byte, admin func() (*aws.Admin, error)) error {
	if !cmd.Bool("no-test") {
		a, err := admin()
		if err != nil {
			return err
		}
		if err := a.VerifyTemplate(ctx, body); err != nil {
			return err
		}
	}

	if cmd.Bool("upload") {
		bucket := cmd.String("bucket")
		if bucket == "" {
			return fmt.Errorf("--upload requires a bucket")
		}
		a, err := admin()
		if err != nil {
			return err
		}
		if err := a.UploadTemplate(ctx, bucket, name, body); err != nil {
			return err
		}
	}

	return nil
}

// cftemplateCommandAction is the action handler for the "cftemplate"
// subcommand. It renders one stack template to stdout, validates it and
// optionally uploads it.
func cftemplateCommandAction(ctx context.Context, cmd *cli.Command) error {
	admin := lazyAdmin(ctx, cmd)

	builder := &cftemplate.Builder{
		AMI:       cmd.String("app-ami"),
		Memcached: cmd.Bool("memcached"),
		Multi:     cmd.Bool("multi"),
		Puma:      cmd.Bool("puma"),
	}

	// Every mode needs the team map: it backs the TeamName whitelist, not
	// just the multi-mode Teams mapping.
	teams, err := templateTeams(ctx, admin)
	if err != nil {
		return err
	}
	builder.Teams = teams

	body, err := builder.Generate()
	if err != nil {
		return err
	}
	_, _ = os.Stdout.Write(body)

	return checkAndUpload(ctx, cmd, builder.Name(), body, admin)
}

// tsungCommandAction renders the load generator template.
func tsungCommandAction(ctx context.Context, cmd *cli.Command) error {
	admin := lazyAdmin(ctx, cmd)

	builder := &cftemplate.TsungBuilder{AMI: cmd.String("app-ami")}
	body, err := builder.Generate()
	if err != nil {
		return err
	}
	_, _ = os.Stdout.Write(body)

	return checkAndUpload(ctx, cmd, builder.Name(), body, admin)
}

// newTemplateFlags returns the flags shared by the template commands.
func newTemplateFlags(ns, source string) []cli.Flag {
	ami := &cli.StringFlag{
		Name:  "app-ami",
		Usage: "AMI to boot app servers from",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SCALADM_AMI"),
		),
		Value: cftemplate.DefaultAMI,
	}

	return []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, source, ami),
		&cli.BoolFlag{
			Name:        "no-test",
			Usage:       "skip template validation",
			HideDefault: true,
		},
		&cli.BoolFlag{
			Name:        "upload",
			Usage:       "upload the rendered template to the course bucket",
			HideDefault: true,
		},
		NewBucketFlag(ns, source),
		NewProfileFlag(ns, source),
		NewRegionFlag(ns, source),
	}
}

// cftemplateCommandBuilder constructs the cli.Command for "cftemplate",
// wiring metadata, flags, action handlers and the tsung subcommand.
func cftemplateCommandBuilder(meta meta.Meta) *cli.Command {
	return (&AdminCommandBuilder{
		Name:      "cftemplate",
		Usage:     "generate a stack template",
		UsageText: "scaladm cftemplate [tsung] [options]",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:        "memcached",
				Usage:       "add a dedicated memcached instance",
				HideDefault: true,
			},
			&cli.BoolFlag{
				Name:        "multi",
				Usage:       "load balanced app servers with a standalone database",
				HideDefault: true,
			},
			&cli.BoolFlag{
				Name:        "puma",
				Usage:       "serve the app with puma",
				HideDefault: true,
			},
		}, newTemplateFlags("cftemplate", meta.Config.Source)...),
		Action: cftemplateCommandAction,
		Commands: []*cli.Command{
			{
				Name:      "tsung",
				Usage:     "generate the load generator template",
				UsageText: "scaladm cftemplate tsung [options]",
				Metadata: map[string]any{
					"meta": meta,
				},
				Flags:  newTemplateFlags("cftemplate", meta.Config.Source),
				Action: tsungCommandAction,
			},
		},
		Meta: meta,
	}).Build()
}
