// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/aws"
	"github.com/scaladm/scaladm/internal/github"
)

// NewGlobalFlags returns the output-rendering flags shared by every
// subcommand that emits a result set.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.IntFlag{
			Name:  "padding",
			Usage: "spacing between table columns",
			Value: 2,
		},
		&cli.BoolFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Value:   false,
		},
	}

	return
}

// NewProfileFlag constructs the "profile" flag, optionally namespaced to a
// command and config file. params[1] is the config file.
func NewProfileFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:    "profile",
		Aliases: []string{"p"},
		Usage:   "AWS credentials profile to act as",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SCALADM_PROFILE"),
		),
		Value: aws.DefaultProfile,
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

// NewRegionFlag constructs the "region" flag, optionally namespaced to a
// command and config file. params[1] is the config file.
func NewRegionFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:    "region",
		Aliases: []string{"r"},
		Usage:   "AWS region the course runs in",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SCALADM_REGION"),
			cli.EnvVar("AWS_REGION"),
		),
		Value: aws.DefaultRegion,
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

// NewGroupFlag constructs the "group" flag naming the shared IAM group,
// optionally namespaced to a command and config file. params[1] is the
// config file.
func NewGroupFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:  "group",
		Usage: "IAM group every team user joins",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SCALADM_GROUP"),
		),
		Value: aws.DefaultGroup,
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

// NewOrgFlag constructs the "org" flag naming the GitHub organization,
// optionally namespaced to a command and config file. params[1] is the
// config file.
func NewOrgFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:  "org",
		Usage: "GitHub organization holding the course repositories",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SCALADM_ORG"),
		),
		Value: github.DefaultOrganization,
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

// NewBucketFlag constructs the "bucket" flag naming the S3 bucket rendered
// templates are uploaded to, optionally namespaced to a command and config
// file. params[1] is the config file.
func NewBucketFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:  "bucket",
		Usage: "S3 bucket to upload rendered templates to",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SCALADM_BUCKET"),
		),
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config
// file sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}
