package vtab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

// snapshotRelationPrefix names the ephemeral relation of a cached table.
const snapshotRelationPrefix = "mcp_tools_cache_"

// snapshot is the per-table catalog materialization. It is filled by the
// first scan and kept until the table disconnects.
type snapshot struct {
	name      string
	backend   *Backend
	created   bool
	populated bool
}

func newSnapshot(id uuid.UUID, b *Backend) *snapshot {
	return &snapshot{
		name:    snapshotRelationPrefix + strings.ReplaceAll(id.String(), "-", ""),
		backend: b,
	}
}

// ensure fills the relation on first use. ok is false when the catalog could
// not be fetched and the failure policy swallows it.
func (s *snapshot) ensure() (ok bool, err error) {
	if s.populated {
		return true, nil
	}

	opts := s.backend.Options
	ctx, cancel := context.WithTimeout(context.Background(), opts.CallTimeout)
	defer cancel()

	cat, err := s.backend.Fetch.FetchCatalog(ctx)
	if err != nil {
		if opts.CatalogFailure == CatalogFailureError {
			return false, err
		}
		logger.Warn("[VTab] %s: %v; returning no rows", KindListToolsCached, err)
		return false, nil
	}

	store := s.backend.Store
	if err := store.CreateRelation(s.name, ToolColumns); err != nil {
		return false, fmt.Errorf("create snapshot %s: %w", s.name, err)
	}
	s.created = true

	for i := 0; i < cat.Len(); i++ {
		tool := cat.Tool(i)
		row := make([]any, len(ToolColumns))
		for j, col := range ToolColumns {
			row[j] = nullable(tool.Field(col))
		}
		if err := store.InsertRow(s.name, row); err != nil {
			s.drop()
			return false, fmt.Errorf("populate snapshot %s: %w", s.name, err)
		}
	}
	s.populated = true
	logger.Debug("[VTab] snapshot %s populated with %d tools", s.name, cat.Len())
	return true, nil
}

func (s *snapshot) drop() {
	if !s.created {
		return
	}
	if err := s.backend.Store.DropRelation(s.name); err != nil {
		logger.Warn("[VTab] drop snapshot %s: %v", s.name, err)
	}
	s.created = false
	s.populated = false
}

// snapshotCursor scans the cached catalog relation.
type snapshotCursor struct {
	table *Table
	state State
	scan  RowScanner
	row   []any
	rowid int64
}

func newSnapshotCursor(t *Table) *snapshotCursor {
	return &snapshotCursor{table: t}
}

func (c *snapshotCursor) Filter(_ int, _ string, _ []any) error {
	c.closeScan()
	c.state = StateFetching
	c.rowid = -1

	ok, err := c.table.cache.ensure()
	if err != nil {
		c.state = StateError
		return err
	}
	if !ok {
		c.state = StateEOF
		return nil
	}

	scan, err := c.table.backend.Store.ScanRelation(c.table.cache.name)
	if err != nil {
		c.state = StateError
		return err
	}
	c.scan = scan
	return c.advance()
}

func (c *snapshotCursor) advance() error {
	row := make([]any, len(ToolColumns))
	if err := c.scan.Next(row); err != nil {
		c.closeScan()
		if errors.Is(err, io.EOF) {
			c.state = StateEOF
			return nil
		}
		c.state = StateError
		return err
	}
	c.row = row
	c.rowid++
	c.state = StateHasRow
	return nil
}

func (c *snapshotCursor) Next() error {
	if c.state != StateHasRow {
		return nil
	}
	return c.advance()
}

func (c *snapshotCursor) EOF() bool {
	return c.state != StateHasRow
}

func (c *snapshotCursor) Column(col int) (any, error) {
	if c.state != StateHasRow || col < 0 || col >= len(c.row) {
		return nil, nil
	}
	v, ok := textOf(c.row[col])
	return nullable(v, ok), nil
}

func (c *snapshotCursor) Rowid() (int64, error) {
	return c.rowid, nil
}

func (c *snapshotCursor) closeScan() {
	if c.scan != nil {
		_ = c.scan.Close()
		c.scan = nil
	}
	c.row = nil
}

// Close releases the scan only; the relation lives until Disconnect.
func (c *snapshotCursor) Close() error {
	c.closeScan()
	return nil
}
