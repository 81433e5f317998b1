package mcp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

// managerImpl is the default implementation of Manager.
type managerImpl struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// Ensure managerImpl implements Manager.
var _ Manager = (*managerImpl)(nil)

func newManager(cfg *MCPConfig) *managerImpl {
	m := &managerImpl{
		sessions: make(map[string]*Session, len(cfg.MCPServers)),
	}
	for name, srvCfg := range cfg.MCPServers {
		m.sessions[name] = NewSession(name, srvCfg)
	}
	return m
}

// Initialize connects to all configured MCP servers concurrently.
// Individual server failures are logged but don't prevent other servers from connecting.
func (m *managerImpl) Initialize(ctx context.Context) error {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	if len(sessions) == 0 {
		logger.Info("[MCP] no MCP servers configured, skipping initialization")
		return nil
	}

	logger.Info("[MCP] initializing %d MCP servers...", len(sessions))
	errs := connectAll(ctx, sessions)

	connected := 0
	for _, s := range sessions {
		if s.Status() == ServerStatusConnected {
			connected++
		}
	}
	logger.Info("[MCP] initialization complete: %d/%d servers connected", connected, len(sessions))

	if len(errs) > 0 && connected == 0 {
		return fmt.Errorf("[MCP] all servers failed to connect (%d errors): %w", len(errs), errs[0])
	}
	return nil
}

func connectAll(ctx context.Context, sessions []*Session) []error {
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var errs []error

	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if err := s.Connect(ctx); err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
				logger.Warn("[MCP] server %q failed to connect: %v", s.Name(), err)
			}
		}(s)
	}
	wg.Wait()
	return errs
}

func (m *managerImpl) Session(serverName string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[serverName]
	return s, ok
}

// Reconnect re-establishes the connection to a specific server.
func (m *managerImpl) Reconnect(ctx context.Context, serverName string) error {
	s, ok := m.Session(serverName)
	if !ok {
		return fmt.Errorf("[MCP] server %q not found", serverName)
	}
	return s.Reconnect(ctx)
}

func (m *managerImpl) Reload(ctx context.Context, cfg *MCPConfig) error {
	cfg.SetDefaults()

	m.mu.Lock()
	var stale, fresh []*Session
	for name, s := range m.sessions {
		next, ok := cfg.MCPServers[name]
		if !ok || !s.config.Equal(next) {
			stale = append(stale, s)
			delete(m.sessions, name)
		}
	}
	for name, srvCfg := range cfg.MCPServers {
		if _, ok := m.sessions[name]; ok {
			continue
		}
		s := NewSession(name, srvCfg)
		m.sessions[name] = s
		fresh = append(fresh, s)
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	errs := connectAll(ctx, fresh)
	logger.Info("[MCP] configuration reloaded: %d closed, %d (re)connected, %d failed", len(stale), len(fresh)-len(errs), len(errs))
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// ServerNames returns the names of all configured servers in sorted order.
func (m *managerImpl) ServerNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// ServerStatus returns the status of a specific server.
func (m *managerImpl) ServerStatus(serverName string) ServerStatus {
	s, ok := m.Session(serverName)
	if !ok {
		return ServerStatusDisconnected
	}
	return s.Status()
}

// Close closes all MCP server connections.
func (m *managerImpl) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions {
		s.Close()
	}
	logger.Info("[MCP] all servers closed")
	return nil
}
