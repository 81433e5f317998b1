//go:build sqlite_vtable || vtable

package shell

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/util"
	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/options"
)

// runShell feeds script to a non-interactive shell with no MCP servers
// configured.
func runShell(t *testing.T, opts *options.Options, script string) (string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	o := &Options{
		Output:    util.FormatTable,
		factory:   util.NewFactory(opts),
		IOStreams: util.IOStreams{In: strings.NewReader(script), Out: &out, ErrOut: &errOut},
	}
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String(), errOut.String()
}

func testOptions(t *testing.T) *options.Options {
	dir := t.TempDir()
	opts := options.NewOptions()
	opts.MCPOptions.ConfigFile = filepath.Join(dir, "mcp.json")
	opts.MCPOptions.Watch = false
	opts.ShellOptions.HistoryFile = filepath.Join(dir, "history.db")
	return opts
}

func TestShellSession(t *testing.T) {
	opts := testOptions(t)
	out, errOut := runShell(t, opts, strings.Join([]string{
		"SELECT 1 + 1 AS two;",
		"SELECT 'multi'",
		"  AS line;",
		"SELECT name FROM mcp_list_tools;",
		".servers",
		".output json",
		"SELECT mcp_version() AS v;",
		".history",
		".bogus",
		"SELECT 'tail' AS t",
	}, "\n"))

	for _, want := range []string{"two", "2", "multi", "No servers in", `"v": "v`, "SELECT 1 + 1 AS two", `"t": "tail"`} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
	for _, want := range []string{"not connected", "unknown command .bogus"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}
}

func TestShellQuitStopsReading(t *testing.T) {
	opts := testOptions(t)
	opts.ShellOptions.HistoryFile = ""
	out, _ := runShell(t, opts, ".quit\nSELECT 'after' AS a;\n")
	if strings.Contains(out, "after") {
		t.Fatalf("statement after .quit ran:\n%s", out)
	}

	_, errOut := runShell(t, opts, ".history\n")
	if !strings.Contains(errOut, "history is disabled") {
		t.Fatalf("stderr = %q", errOut)
	}
}
