//go:build sqlite_vtable || vtable

package sqlite

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/vtab"
)

// tempStore keeps cached catalogs in TEMP tables of the owning connection.
type tempStore struct {
	conn *sqlite3.SQLiteConn
}

var _ vtab.RelationStore = (*tempStore)(nil)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *tempStore) CreateRelation(name string, columns []string) error {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = quoteIdent(c) + " TEXT"
	}
	stmt := fmt.Sprintf("CREATE TEMP TABLE %s (%s)", quoteIdent(name), strings.Join(cols, ", "))
	if _, err := s.conn.Exec(stmt, nil); err != nil {
		return err
	}
	return nil
}

func (s *tempStore) InsertRow(name string, values []any) error {
	args := make([]driver.Value, len(values))
	marks := make([]string, len(values))
	for i, v := range values {
		args[i] = v
		marks[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO temp.%s VALUES (%s)", quoteIdent(name), strings.Join(marks, ", "))
	_, err := s.conn.Exec(stmt, args)
	return err
}

func (s *tempStore) ScanRelation(name string) (vtab.RowScanner, error) {
	rows, err := s.conn.Query(fmt.Sprintf("SELECT * FROM temp.%s ORDER BY rowid", quoteIdent(name)), nil)
	if err != nil {
		return nil, err
	}
	return &rowScanner{rows: rows}, nil
}

func (s *tempStore) DropRelation(name string) error {
	_, err := s.conn.Exec(fmt.Sprintf("DROP TABLE IF EXISTS temp.%s", quoteIdent(name)), nil)
	return err
}

type rowScanner struct {
	rows driver.Rows
	buf  []driver.Value
}

func (r *rowScanner) Next(dest []any) error {
	if len(r.buf) != len(dest) {
		r.buf = make([]driver.Value, len(dest))
	}
	if err := r.rows.Next(r.buf); err != nil {
		return err
	}
	for i, v := range r.buf {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		dest[i] = v
	}
	return nil
}

func (r *rowScanner) Close() error {
	return r.rows.Close()
}
