package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/server"
)

// TransportInProcess names sessions bound to a server in the same process.
const TransportInProcess = "inprocess"

// NewInProcessSession connects a session directly to srv, without a
// subprocess or network hop. Used to embed tool servers and in tests.
func NewInProcessSession(ctx context.Context, name string, srv *server.MCPServer) (*Session, error) {
	cli, err := client.NewInProcessClient(srv)
	if err != nil {
		return nil, fmt.Errorf("[MCP] server %q: failed to create in-process client: %w", name, err)
	}
	if err := cli.Start(ctx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("[MCP] server %q: failed to start in-process client: %w", name, err)
	}

	s := NewSession(name, &ServerConfig{Transport: TransportInProcess})
	if err := s.ConnectClient(ctx, cli, TransportInProcess); err != nil {
		return nil, err
	}
	return s, nil
}
