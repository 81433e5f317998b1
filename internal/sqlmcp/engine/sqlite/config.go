// Package sqlite registers the MCP virtual tables and SQL functions with
// mattn/go-sqlite3. go-sqlite3 only compiles its virtual table API under
// the sqlite_vtable build tag; without it Register reports
// ErrVTabUnsupported.
package sqlite

import (
	"errors"
	"time"

	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/service/mcp"
	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/vtab"
)

// DefaultDriverName is the database/sql driver name used by Register.
const DefaultDriverName = "sqlite3_mcp"

// Snapshot stores.
const (
	CacheStoreTemp   = "temp"
	CacheStoreMemory = "memory"
)

var (
	ErrVTabUnsupported = errors.New("binary built without the sqlite_vtable tag: MCP virtual tables are unavailable")
	ErrDriverExists    = errors.New("sql driver already registered")
)

// Config describes a driver registration.
type Config struct {
	// DriverName defaults to DefaultDriverName.
	DriverName string
	// Session returns the session new connections start with. It may be nil
	// or return nil; mcp_connect() attaches a session later.
	Session func() *mcp.Session
	Options vtab.Options
	// CacheStore selects where cached catalogs live: TEMP tables of the
	// connection ("temp") or process memory ("memory").
	CacheStore string
	// ConnectTimeout bounds mcp_connect().
	ConnectTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.DriverName == "" {
		c.DriverName = DefaultDriverName
	}
	if c.Options == (vtab.Options{}) {
		c.Options = vtab.DefaultOptions()
	}
	if c.CacheStore == "" {
		c.CacheStore = CacheStoreTemp
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 30 * time.Second
	}
}
