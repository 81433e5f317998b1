package mcp

import (
	"context"
)

// Manager owns one Session per server of an MCPConfig. SQL connections look
// sessions up by server name; the Session objects themselves are replaced
// when Reload changes a server's configuration.
type Manager interface {
	// Initialize connects every configured server concurrently. It fails
	// only when no server could connect.
	Initialize(ctx context.Context) error

	// Session looks up the session of a configured server.
	Session(serverName string) (*Session, bool)

	// Reconnect re-runs the handshake of one server on its existing Session.
	Reconnect(ctx context.Context, serverName string) error

	// Reload diffs cfg against the running servers: removed or changed
	// servers are closed, new or changed ones get a fresh Session.
	Reload(ctx context.Context, cfg *MCPConfig) error

	ServerNames() []string

	// ServerStatus reports Disconnected for unknown servers.
	ServerStatus(serverName string) ServerStatus

	Close() error
}
