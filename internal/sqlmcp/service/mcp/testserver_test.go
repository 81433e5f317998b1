package mcp

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// newTestServer builds a tool server with an echo tool, a listing tool
// that returns several content items and a tool that always fails.
func newTestServer(extraTools int, opts ...server.ServerOption) *server.MCPServer {
	opts = append([]server.ServerOption{server.WithToolCapabilities(false)}, opts...)
	srv := server.NewMCPServer("test-server", "1.2.3", opts...)

	srv.AddTool(mcp.NewTool("echo",
		mcp.WithDescription("Echo the input text"),
		mcp.WithString("text", mcp.Required(), mcp.Description("text to echo")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(req.GetString("text", "")), nil
	})

	srv.AddTool(mcp.NewTool("list_dir",
		mcp.WithDescription("List a directory"),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{Content: []mcp.Content{
			mcp.NewTextContent("a.txt"),
			mcp.NewTextContent("b.txt"),
			mcp.NewTextContent("c.txt"),
		}}, nil
	})

	srv.AddTool(mcp.NewTool("fail"), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("boom"), nil
	})

	for i := 0; i < extraTools; i++ {
		srv.AddTool(mcp.NewTool(fmt.Sprintf("extra_%02d", i)), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		})
	}
	return srv
}

func newTestSession(t *testing.T, srv *server.MCPServer) *Session {
	t.Helper()
	s, err := NewInProcessSession(context.Background(), "test", srv)
	if err != nil {
		t.Fatalf("NewInProcessSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func toolNames(t *testing.T, s *Session) []string {
	t.Helper()
	var names []string
	err := s.ListTools(context.Background(), func(tool string) bool {
		i := strings.Index(tool, `"name":"`)
		if i < 0 {
			t.Fatalf("tool without name: %s", tool)
		}
		rest := tool[i+len(`"name":"`):]
		names = append(names, rest[:strings.Index(rest, `"`)])
		return true
	})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	return names
}
