package util

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/config"
	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/engine/sqlite"
	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/options"
	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/service/mcp"
	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

// Factory builds what commands need from the global options.
type Factory interface {
	// Config validates the options and returns the running configuration.
	Config() (*config.Config, error)
	// Environment connects the configured MCP server and opens the database.
	// watch enables reloading of the MCP configuration file.
	Environment(ctx context.Context, watch bool) (*Environment, error)
}

type factory struct {
	opts *options.Options
}

// The driver is registered once per process. New SQL connections take their
// session from the current environment.
var (
	driverOnce sync.Once
	driverName string
	driverErr  error

	current atomic.Pointer[Environment]
)

// NewFactory returns a Factory over opts. opts may be filled in later, up to
// the first call of a Factory method.
func NewFactory(opts *options.Options) Factory {
	return &factory{opts: opts}
}

func (f *factory) Config() (*config.Config, error) {
	return config.CreateConfigFromOptions(f.opts)
}

func register(cfg *config.Config) (string, error) {
	driverOnce.Do(func() {
		driverName, driverErr = sqlite.Register(cfg.DriverConfig(func() *mcp.Session {
			if env := current.Load(); env != nil {
				return env.Session()
			}
			return nil
		}))
	})
	return driverName, driverErr
}

func (f *factory) Environment(ctx context.Context, watch bool) (*Environment, error) {
	cfg, err := f.Config()
	if err != nil {
		return nil, err
	}
	driver, err := register(cfg)
	if err != nil {
		return nil, err
	}

	mcpCfg, err := cfg.MCPConfig()
	if err != nil {
		return nil, err
	}
	env := &Environment{Config: cfg, driver: driver}
	mcpCfg.Watch = watch && mcpCfg.Watch
	mcpCfg.OnReload = env.onReload

	module, err := mcpCfg.Complete().New(ctx)
	if err != nil {
		return nil, err
	}
	env.Module = module

	server, err := cfg.SelectServer(module.Manager.ServerNames())
	if err != nil {
		module.Close()
		return nil, err
	}
	env.server.Store(server)

	current.Store(env)
	if err := env.open(); err != nil {
		current.CompareAndSwap(env, nil)
		module.Close()
		return nil, err
	}
	return env, nil
}

// Environment is a connected MCP module plus the database bound to it.
type Environment struct {
	Config *config.Config
	Module *mcp.Module

	driver   string
	server   atomic.Value
	reloaded atomic.Bool

	mu sync.Mutex
	db *sql.DB
}

// Server is the name of the selected server, or "" when none is configured.
func (e *Environment) Server() string {
	s, _ := e.server.Load().(string)
	return s
}

// Session returns the session of the selected server, or nil.
func (e *Environment) Session() *mcp.Session {
	name := e.Server()
	if name == "" || e.Module == nil {
		return nil
	}
	s, _ := e.Module.Manager.Session(name)
	return s
}

// DB returns the open database. Its single connection is bound to the
// selected server.
func (e *Environment) DB() *sql.DB {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db
}

func (e *Environment) open() error {
	db, err := sql.Open(e.driver, e.Config.ShellOptions.Database)
	if err != nil {
		return fmt.Errorf("open %s: %w", e.Config.ShellOptions.Database, err)
	}
	// Every statement must see the same connection: TEMP relations, bound
	// tables and mcp_connect() are per connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("open %s: %w", e.Config.ShellOptions.Database, err)
	}

	e.mu.Lock()
	prev := e.db
	e.db = db
	e.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	return nil
}

// Use selects another configured server and reopens the database.
func (e *Environment) Use(name string) error {
	if _, ok := e.Module.Manager.Session(name); !ok {
		return fmt.Errorf("server %q is not configured", name)
	}
	e.server.Store(name)
	return e.open()
}

func (e *Environment) onReload(err error) {
	if err == nil && e.Module != nil {
		server, selErr := e.Config.SelectServer(e.Module.Manager.ServerNames())
		if selErr != nil {
			logger.Warn("[Shell] keeping server %q: %v", e.Server(), selErr)
		} else {
			e.server.Store(server)
		}
	}
	e.reloaded.Store(true)
}

// Refresh reopens the database if the MCP configuration was reloaded since
// the last call, so the next statement runs against the new session. It
// reports whether it reopened.
func (e *Environment) Refresh() (bool, error) {
	if !e.reloaded.Swap(false) {
		return false, nil
	}
	return true, e.open()
}

// Close closes the database and the MCP module.
func (e *Environment) Close() error {
	e.mu.Lock()
	db := e.db
	e.db = nil
	e.mu.Unlock()

	var errs []error
	if db != nil {
		errs = append(errs, db.Close())
	}
	if e.Module != nil {
		errs = append(errs, e.Module.Close())
	}
	return errors.Join(errs...)
}
