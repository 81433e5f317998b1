package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/vtab"
	"github.com/kiosk404/sqlite-mcp/pkg/logger"
	"github.com/kiosk404/sqlite-mcp/pkg/utils/json"
)

// eachTool walks the paginated catalog, applying the tool filter. It stops
// when fn returns false.
func (s *Session) eachTool(ctx context.Context, fn func(mcp.Tool) bool) error {
	cli, err := s.connected()
	if err != nil {
		return err
	}

	allowed := make(map[string]bool, len(s.config.ToolFilter))
	for _, name := range s.config.ToolFilter {
		allowed[name] = true
	}

	var cursor mcp.Cursor
	for page := 1; ; page++ {
		req := mcp.ListToolsRequest{}
		req.Params.Cursor = cursor

		res, err := cli.ListTools(ctx, req)
		if err != nil {
			return fmt.Errorf("[MCP] server %q: tools/list page %d: %w", s.name, page, err)
		}
		for _, tool := range res.Tools {
			if len(allowed) > 0 && !allowed[tool.Name] {
				continue
			}
			if !fn(tool) {
				return nil
			}
		}
		if res.NextCursor == "" || res.NextCursor == cursor {
			return nil
		}
		cursor = res.NextCursor
		logger.Debug("[MCP] server %q: fetching tools page %d", s.name, page+1)
	}
}

// ListTools emits each tool as JSON, page by page.
func (s *Session) ListTools(ctx context.Context, emit func(tool string) bool) error {
	var encErr error
	err := s.eachTool(ctx, func(tool mcp.Tool) bool {
		raw, err := json.MarshalString(tool)
		if err != nil {
			encErr = fmt.Errorf("encode tool %q: %w", tool.Name, err)
			return false
		}
		return emit(raw)
	})
	if err != nil {
		return err
	}
	return encErr
}

// ToolsJSON returns the whole catalog as {"tools": [...]}.
func (s *Session) ToolsJSON(ctx context.Context) (string, error) {
	tools := make([]mcp.Tool, 0)
	if err := s.eachTool(ctx, func(tool mcp.Tool) bool {
		tools = append(tools, tool)
		return true
	}); err != nil {
		return "", err
	}
	return json.MarshalString(map[string]any{"tools": tools})
}

func (s *Session) call(ctx context.Context, name, arguments string) (*mcp.CallToolResult, error) {
	cli, err := s.connected()
	if err != nil {
		return nil, err
	}
	args, err := vtab.NormalizeArguments(arguments)
	if err != nil {
		return nil, err
	}
	params := map[string]any{}
	if err := json.UnmarshalString(args, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", vtab.ErrInvalidArguments, err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = params

	res, err := cli.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("[MCP] server %q: tools/call %s: %w", s.name, name, err)
	}
	return res, nil
}

// CallTool invokes a tool and emits the text of each content item. A result
// the tool flags as an error is returned as a vtab.RemoteError.
func (s *Session) CallTool(ctx context.Context, name, arguments string, emit func(text string) bool) error {
	res, err := s.call(ctx, name, arguments)
	if err != nil {
		return err
	}
	raw, err := json.MarshalString(res)
	if err != nil {
		return fmt.Errorf("encode result of %s: %w", name, err)
	}
	parsed, err := vtab.ParseCallResult(raw)
	if err != nil {
		return err
	}
	if parsed.IsError() {
		return &vtab.RemoteError{Message: parsed.ErrorText()}
	}
	for i := 0; i < parsed.ContentCount(); i++ {
		text, ok := parsed.ContentText(i)
		if !ok {
			continue
		}
		if !emit(text) {
			return nil
		}
	}
	return nil
}

// CallToolJSON invokes a tool and returns its result object as JSON.
func (s *Session) CallToolJSON(ctx context.Context, name, arguments string) (string, error) {
	res, err := s.call(ctx, name, arguments)
	if err != nil {
		return "", err
	}
	return json.MarshalString(res)
}
