package util

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/gosuri/uitable"

	"github.com/kiosk404/sqlite-mcp/pkg/utils/json"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// NullText is printed for SQL NULL in tables.
const NullText = "NULL"

// ResultSet is a fully read query result.
type ResultSet struct {
	Columns []string
	Rows    [][]*string
}

// ReadRows drains rows into a ResultSet and closes them.
func ReadRows(rows *sql.Rows) (*ResultSet, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	rs := &ResultSet{Columns: cols}
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make([]*string, len(cols))
		for i, v := range vals {
			if v.Valid {
				s := v.String
				row[i] = &s
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, rows.Err()
}

// PrintTable renders rs as an aligned table. maxWidth bounds each column;
// zero leaves columns unbounded.
func PrintTable(w io.Writer, rs *ResultSet, maxWidth uint) error {
	if len(rs.Columns) == 0 {
		return nil
	}
	table := uitable.New()
	table.Separator = "  "
	if maxWidth > 0 {
		table.MaxColWidth = maxWidth
		table.Wrap = true
	}

	header := make([]any, len(rs.Columns))
	for i, c := range rs.Columns {
		header[i] = c
	}
	table.AddRow(header...)
	for _, row := range rs.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = NullText
			} else {
				cells[i] = *v
			}
		}
		table.AddRow(cells...)
	}
	if _, err := fmt.Fprintln(w, table); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(rs.Rows))
	return err
}

// PrintJSON renders rs as a JSON array of objects, NULL as null.
func PrintJSON(w io.Writer, rs *ResultSet) error {
	out := make([]map[string]*string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		obj := make(map[string]*string, len(row))
		for i, v := range row {
			obj[rs.Columns[i]] = v
		}
		out = append(out, obj)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// Print renders rs in format. Results without columns print nothing.
func Print(w io.Writer, rs *ResultSet, format string, maxWidth uint) error {
	if len(rs.Columns) == 0 {
		return nil
	}
	switch format {
	case FormatJSON:
		return PrintJSON(w, rs)
	case FormatTable, "":
		return PrintTable(w, rs, maxWidth)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
