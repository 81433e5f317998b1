//go:build sqlite_vtable || vtable

package sqlite

import (
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/vtab"
)

// BoundModuleName is the module for pre-bound invocations:
//
//	CREATE VIRTUAL TABLE temp.nav USING mcp_call_tool_bound(browser_navigate, '{"url":"https://example.com"}');
const BoundModuleName = "mcp_call_tool_bound"

// module adapts vtab.NewTable to sqlite3.Module.
type module struct {
	state *connState
	kind  vtab.Kind
}

func (m *module) Create(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	return m.Connect(c, args)
}

// Connect declares the schema and creates the table. args holds the module
// name, the database name and the table name, followed by module arguments.
func (m *module) Connect(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	if err := c.DeclareVTab(m.kind.Schema()); err != nil {
		return nil, fmt.Errorf("declare %s: %w", m.kind, err)
	}
	var moduleArgs []string
	if len(args) > 3 {
		moduleArgs = args[3:]
	}
	t, err := vtab.NewTable(m.kind, m.state.backend, moduleArgs)
	if err != nil {
		return nil, err
	}
	return &table{t: t}, nil
}

func (m *module) DestroyModule() {
	m.state.release()
}

// eponymousModule makes the table usable without CREATE VIRTUAL TABLE,
// including table-valued function syntax.
type eponymousModule struct {
	*module
}

func (eponymousModule) EponymousOnlyModule() {}

type table struct {
	t *vtab.Table
}

// BestIndex plans a scan. go-sqlite3 numbers filter arguments in constraint
// order, so IdxStr carries the roles in that order.
func (t *table) BestIndex(cst []sqlite3.InfoConstraint, ob []sqlite3.InfoOrderBy) (*sqlite3.IndexResult, error) {
	info := &vtab.IndexInfo{Constraints: make([]vtab.Constraint, len(cst))}
	for i, c := range cst {
		info.Constraints[i] = vtab.Constraint{Column: c.Column, Op: vtab.Op(c.Op), Usable: c.Usable}
	}
	if err := t.t.BestIndex(info); err != nil {
		return nil, err
	}

	used := make([]bool, len(cst))
	for i, u := range info.Usage {
		used[i] = u.ArgvIndex > 0
	}
	return &sqlite3.IndexResult{
		Used:          used,
		IdxNum:        info.IdxNum,
		IdxStr:        info.ConstraintOrderRoles(),
		EstimatedCost: info.EstimatedCost,
		EstimatedRows: float64(info.EstimatedRows),
	}, nil
}

func (t *table) Open() (sqlite3.VTabCursor, error) {
	c, err := t.t.Open()
	if err != nil {
		return nil, err
	}
	return &cursor{c: c}, nil
}

func (t *table) Disconnect() error {
	return t.t.Disconnect()
}

func (t *table) Destroy() error {
	return t.t.Disconnect()
}

type cursor struct {
	c vtab.Cursor
}

func (c *cursor) Filter(idxNum int, idxStr string, vals []any) error {
	return c.c.Filter(idxNum, idxStr, vals)
}

func (c *cursor) Next() error {
	return c.c.Next()
}

func (c *cursor) EOF() bool {
	return c.c.EOF()
}

func (c *cursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	v, err := c.c.Column(col)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		ctx.ResultNull()
	case string:
		ctx.ResultText(x)
	default:
		ctx.ResultText(fmt.Sprint(x))
	}
	return nil
}

func (c *cursor) Rowid() (int64, error) {
	return c.c.Rowid()
}

func (c *cursor) Close() error {
	return c.c.Close()
}
