package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootListsSubcommands(t *testing.T) {
	var out bytes.Buffer
	cmd := NewMCPSQLCommand(strings.NewReader(""), &out, &out)
	cmd.SetArgs([]string{"--help"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, sub := range []string{"shell", "query", "tools", "version", "--mcp.config-file", "--scan.cache-store"} {
		if !strings.Contains(out.String(), sub) {
			t.Errorf("help does not mention %s", sub)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewMCPSQLCommand(strings.NewReader(""), &out, &out)
	cmd.SetArgs([]string{"version", "--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "v") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestOptionsFromEnvironment(t *testing.T) {
	t.Setenv("MCPSQL_LOG_LEVEL", "shout")
	var out bytes.Buffer
	cmd := NewMCPSQLCommand(strings.NewReader(""), &out, &out)
	cmd.SetArgs([]string{"version"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "shout") {
		t.Fatalf("Execute() = %v, want invalid level error", err)
	}
}
