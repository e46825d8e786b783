package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const surveysFile = `[
  {"id":"s1","events":[
    {"id":"a","trigger":"pageView"},
    {"id":"b","trigger":"click","urls":[{"url":"/pricing","rule":"exact"}]},
    {"id":"c","trigger":"click","urls":[{"url":"/blog","rule":"startsWith"},{"url":"/x","rule":"regex"}]}
  ]},
  {"id":"s2","events":[{"id":"z","trigger":"exitIntent","urls":[{"url":"/cart","rule":"contains"}]}]}
]`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "surveys.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resolveArgs(file, page, survey, trigger string, group bool) []string {
	g := "--group=false"
	if group {
		g = "--group=true"
	}
	return []string{"resolve", "--file", file, "--page", page, "--survey=" + survey, "--trigger=" + trigger, g}
}

func TestResolveCommand(t *testing.T) {
	file := writeFile(t, surveysFile)

	tests := []struct {
		name     string
		args     []string
		contains []string
		absent   []string
		wantErr  bool
	}{
		{
			name:     "active list",
			args:     resolveArgs(file, "https://shop.test/pricing?x=1", "s1", "", false),
			contains: []string{`"id": "a"`, `"id": "b"`},
			absent:   []string{`"id": "c"`},
		},
		{
			name:     "grouped",
			args:     resolveArgs(file, "/blog/post", "s1", "", true),
			contains: []string{`"pageView"`, `"click"`, `"id": "c"`},
		},
		{
			name:     "first by trigger",
			args:     resolveArgs(file, "/pricing", "s1", "click", false),
			contains: []string{`"id": "b"`},
			absent:   []string{`"id": "a"`},
		},
		{
			name:     "nothing active",
			args:     resolveArgs(file, "/home", "s2", "", false),
			contains: []string{"no active events on /home"},
		},
		{
			name:    "ambiguous file",
			args:    resolveArgs(file, "/home", "", "", false),
			wantErr: true,
		},
		{
			name:    "unknown survey",
			args:    resolveArgs(file, "/home", "nope", "", false),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestResolveCommand_SingleObject(t *testing.T) {
	file := writeFile(t, `{"id":"solo","events":[{"id":"e","trigger":"scrollDepth","urls":[{"url":"/docs","rule":"notContains"}]}]}`)

	out, err := execute(t, resolveArgs(file, "/home", "", "", false)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "e"`)
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "--file", writeFile(t, surveysFile))
	require.NoError(t, err)
	assert.Contains(t, out, "s1: ok (3 events, 1 unknown rules)")
	assert.Contains(t, out, "s2: ok (1 events, 0 unknown rules)")

	_, err = execute(t, "validate", "--file", writeFile(t, `[{"id":"bad","events":[{"trigger":"click"}]}]`))
	assert.Error(t, err)

	_, err = execute(t, "validate", "--file", writeFile(t, `{not json`))
	assert.Error(t, err)
}
