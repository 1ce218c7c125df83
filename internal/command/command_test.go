// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/meta"
)

func TestNormalizeTeam(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Gradr", "Gradr"},
		{"  Gradr  ", "Gradr"},
		{"Team Awesome", "Team-Awesome"},
		{" a b c ", "a-b-c"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeTeam(tt.in))
	}
}

func TestTeamArgs(t *testing.T) {
	run := func(args ...string) ([]string, error) {
		var teams []string
		var teamsErr error
		cmd := &cli.Command{
			Name: "aws",
			Action: func(_ context.Context, cmd *cli.Command) error {
				teams, teamsErr = TeamArgs(cmd)
				return nil
			},
		}
		require.NoError(t, cmd.Run(context.Background(),
			append([]string{"aws"}, args...)))
		return teams, teamsErr
	}

	teams, err := run("Gradr", " Team Awesome ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gradr", "Team-Awesome"}, teams)

	_, err = run()
	assert.Error(t, err)

	_, err = run("   ")
	assert.Error(t, err)
}

func TestGetMeta(t *testing.T) {
	assert.Equal(t, meta.Meta{}, GetMeta(nil))
	assert.Equal(t, meta.Meta{}, GetMeta(&cli.Command{}))

	m := meta.Meta{Args: []string{"scaladm", "aws"}}
	cmd := &cli.Command{Metadata: map[string]any{"meta": m}}
	assert.Equal(t, m, GetMeta(cmd))

	cmd = &cli.Command{Metadata: map[string]any{"meta": "wrong type"}}
	assert.Equal(t, meta.Meta{}, GetMeta(cmd))
}

func TestOutputValidator(t *testing.T) {
	for _, valid := range []string{"text", "json", "raw", "yaml"} {
		assert.NoError(t, OutputValidator(valid))
	}
	assert.Error(t, OutputValidator("xml"))
	assert.Error(t, OutputValidator(""))
}

// runProfileFlag resolves the profile flag for the given namespace and args.
func runProfileFlag(t *testing.T, ns string, args ...string) string {
	t.Helper()

	var got string
	cmd := &cli.Command{
		Name:  ns,
		Flags: []cli.Flag{NewProfileFlag(ns, "testdata/scaladm.yaml")},
		Action: func(_ context.Context, cmd *cli.Command) error {
			got = cmd.String("profile")
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(),
		append([]string{ns}, args...)))
	return got
}

func TestProfileFlagFromConfigFile(t *testing.T) {
	// From the namespaced config key.
	assert.Equal(t, "course-admin", runProfileFlag(t, "aws"))

	// An explicit flag wins over the config file.
	assert.Equal(t, "other", runProfileFlag(t, "aws", "--profile", "other"))
}

func TestProfileFlagFallbackKey(t *testing.T) {
	// No gh.profile key, so the unnamespaced key applies.
	assert.Equal(t, "fallback-profile", runProfileFlag(t, "gh"))
}

func TestInitApp(t *testing.T) {
	app, err := InitApp(context.Background(), []string{"scaladm", "aws-groups"})
	require.NoError(t, err)
	assert.Equal(t, "scaladm", app.Name)

	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{
		"aws", "aws-cleanup", "aws-groups", "aws-purge", "aws-update-all",
		"cftemplate", "cftemplate-update-all", "gh", "completion",
	}, names)

	// Flags come out sorted for --help.
	for _, cmd := range app.Commands {
		for i := 1; i < len(cmd.Flags); i++ {
			assert.LessOrEqual(t, cmd.Flags[i-1].Names()[0], cmd.Flags[i].Names()[0],
				"flags of %s not sorted", cmd.Name)
		}
	}
}

func TestInitAppMetadata(t *testing.T) {
	app, err := InitApp(context.Background(), []string{"scaladm", "aws"})
	require.NoError(t, err)

	for _, cmd := range app.Commands {
		m := GetMeta(cmd)
		assert.Equal(t, []string{"scaladm", "aws"}, m.Args, "command %s", cmd.Name)
	}
}

func TestCftemplateHasTsungSubcommand(t *testing.T) {
	cmd := cftemplateCommandBuilder(meta.Meta{})
	require.Len(t, cmd.Commands, 1)
	assert.Equal(t, "tsung", cmd.Commands[0].Name)
}
