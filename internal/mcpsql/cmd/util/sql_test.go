package util

import (
	"fmt"
	"testing"
)

func TestScanStatements(t *testing.T) {
	cases := []struct {
		script string
		stmts  []string
		rest   string
	}{
		{"SELECT 1;", []string{"SELECT 1"}, ""},
		{"SELECT 1; SELECT 2", []string{"SELECT 1"}, " SELECT 2"},
		{"SELECT ';' ;", []string{"SELECT ';'"}, ""},
		{`SELECT text FROM mcp_call_tool('echo', '{"text":"a;b"}');`, []string{`SELECT text FROM mcp_call_tool('echo', '{"text":"a;b"}')`}, ""},
		{"SELECT 1 -- trailing; comment\n;", []string{"SELECT 1 -- trailing; comment"}, ""},
		{"SELECT /* ; */ 2;", []string{"SELECT /* ; */ 2"}, ""},
		{"SELECT [a;b] FROM t;", []string{"SELECT [a;b] FROM t"}, ""},
		{"SELECT 'open;", nil, "SELECT 'open;"},
		{";;", nil, ""},
	}
	for _, tc := range cases {
		stmts, rest := ScanStatements(tc.script)
		if fmt.Sprintf("%q", stmts) != fmt.Sprintf("%q", tc.stmts) || rest != tc.rest {
			t.Errorf("ScanStatements(%q) = %q, %q; want %q, %q", tc.script, stmts, rest, tc.stmts, tc.rest)
		}
	}
}

func TestSplitStatementsKeepsTail(t *testing.T) {
	got := SplitStatements("SELECT 1; SELECT 2 ")
	if len(got) != 2 || got[1] != "SELECT 2" {
		t.Fatalf("SplitStatements = %q", got)
	}
}

func TestAbbrev(t *testing.T) {
	if got := Abbrev("SELECT\n  name\nFROM t", 40); got != "SELECT name FROM t" {
		t.Fatalf("Abbrev = %q", got)
	}
	if got := Abbrev("abcdefghij", 6); got != "abc..." {
		t.Fatalf("Abbrev = %q", got)
	}
}
