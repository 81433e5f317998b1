//go:build sqlite_vtable || vtable

package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-sqlite3"

	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/service/mcp"
	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/vtab"
	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

var (
	registerMu sync.Mutex
	registered = map[string]bool{}
)

// Register installs a database/sql driver whose connections expose the MCP
// tables and functions. It returns the driver name.
func Register(cfg Config) (string, error) {
	cfg.setDefaults()

	registerMu.Lock()
	defer registerMu.Unlock()
	if registered[cfg.DriverName] {
		return "", fmt.Errorf("%w: %s", ErrDriverExists, cfg.DriverName)
	}

	sql.Register(cfg.DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return attach(conn, cfg)
		},
	})
	registered[cfg.DriverName] = true
	logger.Info("[SQLite] driver %q registered (cache store %s)", cfg.DriverName, cfg.CacheStore)
	return cfg.DriverName, nil
}

// connState is the per-connection backend shared by all modules of one
// connection. It is torn down when the last module is destroyed.
type connState struct {
	conn    *sqlite3.SQLiteConn
	cfg     Config
	ref     *mcp.SessionRef
	backend *vtab.Backend
	refs    atomic.Int32
}

func attach(conn *sqlite3.SQLiteConn, cfg Config) error {
	var initial *mcp.Session
	if cfg.Session != nil {
		initial = cfg.Session()
	}

	st := &connState{
		conn: conn,
		cfg:  cfg,
		ref:  mcp.NewSessionRef(initial),
	}

	var store vtab.RelationStore
	switch cfg.CacheStore {
	case CacheStoreMemory:
		store = vtab.NewMemoryStore()
	default:
		store = &tempStore{conn: conn}
	}
	st.backend = vtab.NewBackend(st.ref, store, cfg.Options)

	for _, kind := range vtab.Kinds {
		if err := st.createModule(kind.ModuleName(), kind, true); err != nil {
			return err
		}
	}
	if err := st.createModule(BoundModuleName, vtab.KindCallToolFresh, false); err != nil {
		return err
	}
	return st.registerFunctions()
}

func (st *connState) createModule(name string, kind vtab.Kind, eponymous bool) error {
	base := &module{state: st, kind: kind}
	var m sqlite3.Module = base
	if eponymous {
		m = &eponymousModule{base}
	}
	st.refs.Add(1)
	if err := st.conn.CreateModule(name, m); err != nil {
		return fmt.Errorf("create module %s: %w", name, err)
	}
	return nil
}

func (st *connState) release() {
	if st.refs.Add(-1) != 0 {
		return
	}
	if err := st.backend.Close(); err != nil {
		logger.Warn("[SQLite] closing stream registry: %v", err)
	}
	st.ref.Close()
	logger.Debug("[SQLite] connection state released")
}
