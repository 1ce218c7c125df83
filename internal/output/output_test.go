// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

const groupsJSON = `[{"team":"Compete","sg":"sg-1"},{"team":"Gradr","sg":"sg-2"}]`

// runSpit drives Spit through a command so the output flags resolve the same
// way they do in production.
func runSpit(t *testing.T, raw string, columns []string, args ...string) string {
	t.Helper()

	var buf bytes.Buffer
	cmd := &cli.Command{
		Name: "test",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Value: "text"},
			&cli.BoolFlag{Name: "color"},
			&cli.BoolFlag{Name: "titles", Value: true},
			&cli.IntFlag{Name: "padding", Value: 2},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var in bytes.Buffer
			in.WriteString(raw)
			Spit(in, columns, cmd, &buf)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(),
		append([]string{"test"}, args...)))
	return buf.String()
}

func TestSpitRaw(t *testing.T) {
	out := runSpit(t, groupsJSON, []string{"team", "sg"}, "--output", "raw")
	assert.Equal(t, groupsJSON, out)
}

func TestSpitJSON(t *testing.T) {
	out := runSpit(t, groupsJSON, []string{"team", "sg"}, "--output", "json")
	assert.JSONEq(t, groupsJSON, out)
}

func TestSpitYAML(t *testing.T) {
	out := runSpit(t, groupsJSON, []string{"team", "sg"}, "--output", "yaml")
	assert.Contains(t, out, "team: Compete")
	assert.Contains(t, out, "sg: sg-2")
}

func TestSpitTable(t *testing.T) {
	out := runSpit(t, groupsJSON, []string{"team", "sg"})
	assert.Contains(t, out, "team")
	assert.Contains(t, out, "Compete")
	assert.Contains(t, out, "sg-2")
}

func TestSpitTableNoTitles(t *testing.T) {
	out := runSpit(t, groupsJSON, []string{"team", "sg"}, "--titles=false")
	assert.NotContains(t, out, "team")
	assert.Contains(t, out, "Gradr")
}

func TestSpitEmptyDataset(t *testing.T) {
	out := runSpit(t, "[]", []string{"team", "sg"})
	assert.Empty(t, out)
}

func TestSpitMissingColumn(t *testing.T) {
	out := runSpit(t, `[{"team":"Gradr"}]`, []string{"team", "sg"})
	assert.Contains(t, out, "Gradr")
	assert.Contains(t, out, "-")
}

func TestInterfaceToString(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{"string", "hello", "hello"},
		{"int", 42, "42"},
		{"float", float64(7), "7"},
		{"bool", true, "true"},
		{"nil", nil, ""},
		{"slice", []string{"a", "b"}, `["a","b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InterfaceToString(tt.value))
		})
	}
}

func TestInterfaceToStringEmptyValue(t *testing.T) {
	assert.Equal(t, "-", InterfaceToString(nil, "-"))
	assert.Equal(t, "-", InterfaceToString("", "-"))
}
