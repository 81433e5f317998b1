package vtab

import (
	"time"

	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

// streamCursor serves both streaming kinds from a stream handle.
type streamCursor struct {
	table   *Table
	streams Streamer
	opts    Options

	state   State
	handle  HandleID
	row     *Event
	emitted int64
	rowid   int64
	call    Invocation
	closed  bool
}

func newStreamCursor(t *Table) *streamCursor {
	return &streamCursor{
		table:   t,
		streams: t.backend.Streams,
		opts:    t.backend.Options,
	}
}

func (c *streamCursor) Filter(idxNum int, idxStr string, args []any) error {
	c.release()
	c.state = StateInit
	c.emitted = 0
	c.rowid = 0
	c.call = Invocation{}

	var (
		id  HandleID
		err error
	)
	if c.table.kind.Invocation() {
		c.call, err = c.table.resolveInvocation(idxNum, idxStr, args)
		if err != nil {
			return c.fail(err)
		}
		id, err = c.streams.StartInvocation(c.call.Name, c.call.Arguments)
	} else {
		id, err = c.streams.StartEnumeration()
	}
	if err != nil {
		return c.fail(err)
	}
	if id == 0 {
		return c.fail(ErrStartFailed)
	}
	c.handle = id
	return c.fetch()
}

func (c *streamCursor) Next() error {
	if c.state != StateHasRow {
		return nil
	}
	return c.fetch()
}

func (c *streamCursor) fetch() error {
	c.row = nil
	c.state = StateFetching

	ev, ok := c.streams.AwaitNext(c.handle, c.timeout())
	st, err := translate(ev, ok)
	switch st {
	case stepRow:
		c.row = &ev
		c.rowid = c.emitted
		c.emitted++
		c.state = StateHasRow
		return nil
	case stepFail:
		return c.fail(err)
	default:
		c.state = StateEOF
		c.release()
		logger.Debug("[VTab] %s scan finished after %d rows", c.table.kind, c.emitted)
		return nil
	}
}

func (c *streamCursor) timeout() time.Duration {
	if !c.table.kind.Invocation() {
		return c.opts.ListPollTimeout
	}
	if c.emitted == 0 {
		return c.opts.CallFirstTimeout
	}
	return c.opts.CallNextTimeout
}

func (c *streamCursor) fail(err error) error {
	c.state = StateError
	c.release()
	logger.Debug("[VTab] %s scan failed: %v", c.table.kind, err)
	return err
}

// release returns the handle and the row buffer. Safe to call repeatedly.
func (c *streamCursor) release() {
	if c.handle != 0 {
		c.streams.Release(c.handle)
		c.handle = 0
	}
	c.row = nil
}

func (c *streamCursor) EOF() bool {
	return c.state != StateHasRow
}

func (c *streamCursor) Column(col int) (any, error) {
	if c.state != StateHasRow || c.row == nil {
		return nil, nil
	}
	if c.table.kind.Invocation() {
		if col == ColText {
			return nullable(c.row.Data, true), nil
		}
		return invocationColumn(c.call, col), nil
	}
	if col < 0 || col >= len(ToolColumns) {
		return nil, nil
	}
	return nullable(Tool(c.row.Data).Field(ToolColumns[col])), nil
}

func (c *streamCursor) Rowid() (int64, error) {
	return c.rowid, nil
}

func (c *streamCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.release()
	return nil
}
