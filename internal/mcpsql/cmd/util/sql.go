package util

import (
	"context"
	"database/sql"
	"strings"
)

// SplitStatements splits script at semicolons that end a statement. A
// trailing statement without a semicolon is returned as the last element.
func SplitStatements(script string) []string {
	stmts, rest := ScanStatements(script)
	if strings.TrimSpace(rest) != "" {
		stmts = append(stmts, strings.TrimSpace(rest))
	}
	return stmts
}

// ScanStatements returns the complete statements in script and the
// unterminated remainder. Semicolons inside quotes, identifiers and comments
// do not end a statement.
func ScanStatements(script string) (stmts []string, rest string) {
	start := 0
	var quote byte
	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '[':
			quote = ']'
		case c == '-' && i+1 < len(script) && script[i+1] == '-':
			nl := strings.IndexByte(script[i:], '\n')
			if nl < 0 {
				i = len(script)
			} else {
				i += nl
			}
		case c == '/' && i+1 < len(script) && script[i+1] == '*':
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				i = len(script)
			} else {
				i += end + 3
			}
		case c == ';':
			if stmt := strings.TrimSpace(script[start:i]); stmt != "" {
				stmts = append(stmts, stmt)
			}
			start = i + 1
		}
	}
	if start < len(script) {
		rest = script[start:]
	}
	return stmts, rest
}

// Execute runs one statement and reads its result set. Statements without
// result columns yield an empty ResultSet.
func Execute(ctx context.Context, db *sql.DB, stmt string) (*ResultSet, error) {
	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return ReadRows(rows)
}

// Abbrev shortens s to at most n runes on one line.
func Abbrev(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
