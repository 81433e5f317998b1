package vtab

import (
	"context"

	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

// freshCursor performs one remote call per scan and yields one row per
// content item of the result.
type freshCursor struct {
	table *Table
	state State

	call   Invocation
	result *CallResult
	index  int
	count  int
}

func newFreshCursor(t *Table) *freshCursor {
	return &freshCursor{table: t}
}

func (c *freshCursor) Filter(idxNum int, idxStr string, args []any) error {
	c.result = nil
	c.index, c.count = 0, 0
	c.state = StateInit

	call, err := c.table.resolveInvocation(idxNum, idxStr, args)
	if err != nil {
		c.state = StateError
		return err
	}
	c.call = call
	c.state = StateFetching

	b := c.table.backend
	ctx, cancel := context.WithTimeout(context.Background(), b.Options.CallTimeout)
	defer cancel()

	res, err := b.Fetch.InvokeFresh(ctx, call.Name, call.Arguments)
	if err != nil {
		c.state = StateError
		return err
	}
	c.result = &res
	c.count = res.ContentCount()
	logger.Debug("[VTab] %s(%s) returned %d content items", KindCallToolFresh, call.Name, c.count)

	if c.count == 0 {
		c.finish()
		return nil
	}
	c.state = StateHasRow
	return nil
}

func (c *freshCursor) Next() error {
	if c.state != StateHasRow {
		return nil
	}
	c.index++
	if c.index >= c.count {
		c.finish()
	}
	return nil
}

func (c *freshCursor) finish() {
	c.state = StateEOF
	c.result = nil
}

func (c *freshCursor) EOF() bool {
	return c.state != StateHasRow
}

func (c *freshCursor) Column(col int) (any, error) {
	if c.state != StateHasRow || c.result == nil {
		return nil, nil
	}
	if col == ColText {
		return nullable(c.result.ContentText(c.index)), nil
	}
	return invocationColumn(c.call, col), nil
}

func (c *freshCursor) Rowid() (int64, error) {
	return int64(c.index), nil
}

func (c *freshCursor) Close() error {
	c.result = nil
	return nil
}
