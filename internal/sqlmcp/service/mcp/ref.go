package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/vtab"
)

// SessionRef points at the session one SQL connection talks to. The target
// can be replaced at runtime (mcp_connect); sessions installed as owned are
// closed when replaced or when the ref is closed.
type SessionRef struct {
	mu      sync.RWMutex
	session *Session
	owned   bool
}

var _ vtab.Remote = (*SessionRef)(nil)

// NewSessionRef returns a ref to s, which may be nil. The ref does not own s.
func NewSessionRef(s *Session) *SessionRef {
	return &SessionRef{session: s}
}

// Session returns the current target, or nil.
func (r *SessionRef) Session() *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session
}

// Swap installs s as the target and closes the previous target if owned.
func (r *SessionRef) Swap(s *Session, owned bool) {
	r.mu.Lock()
	prev, prevOwned := r.session, r.owned
	r.session, r.owned = s, owned
	r.mu.Unlock()

	if prev != nil && prevOwned && prev != s {
		prev.Close()
	}
}

// Close detaches the target, closing it if owned.
func (r *SessionRef) Close() {
	r.Swap(nil, false)
}

func (r *SessionRef) current() (*Session, error) {
	s := r.Session()
	if s == nil {
		return nil, fmt.Errorf("[MCP] no session: %w", vtab.ErrNotConnected)
	}
	return s, nil
}

func (r *SessionRef) Ready() error {
	s, err := r.current()
	if err != nil {
		return err
	}
	return s.Ready()
}

func (r *SessionRef) ListTools(ctx context.Context, emit func(tool string) bool) error {
	s, err := r.current()
	if err != nil {
		return err
	}
	return s.ListTools(ctx, emit)
}

func (r *SessionRef) CallTool(ctx context.Context, name, arguments string, emit func(text string) bool) error {
	s, err := r.current()
	if err != nil {
		return err
	}
	return s.CallTool(ctx, name, arguments, emit)
}

func (r *SessionRef) ToolsJSON(ctx context.Context) (string, error) {
	s, err := r.current()
	if err != nil {
		return "", err
	}
	return s.ToolsJSON(ctx)
}

func (r *SessionRef) CallToolJSON(ctx context.Context, name, arguments string) (string, error) {
	s, err := r.current()
	if err != nil {
		return "", err
	}
	return s.CallToolJSON(ctx, name, arguments)
}
