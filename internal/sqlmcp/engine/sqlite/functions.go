//go:build sqlite_vtable || vtable

package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/service/mcp"
	"github.com/kiosk404/sqlite-mcp/pkg/logger"
	"github.com/kiosk404/sqlite-mcp/pkg/utils/json"
	"github.com/kiosk404/sqlite-mcp/pkg/version"
)

func (st *connState) registerFunctions() error {
	funcs := []struct {
		name string
		impl any
		pure bool
	}{
		{"mcp_version", st.mcpVersion, true},
		{"mcp_connect", st.mcpConnect, false},
		{"mcp_disconnect", st.mcpDisconnect, false},
		{"mcp_status", st.mcpStatus, false},
		{"mcp_list_tools_json", st.mcpListToolsJSON, false},
		{"mcp_call_tool_json", st.mcpCallToolJSON, false},
	}
	for _, f := range funcs {
		if err := st.conn.RegisterFunc(f.name, f.impl, f.pure); err != nil {
			return fmt.Errorf("register %s(): %w", f.name, err)
		}
	}
	return nil
}

func (st *connState) mcpVersion() string {
	return version.GitVersion
}

// mcpConnect implements mcp_connect(url [, headers_json [, legacy_sse]]).
// It replaces this connection's session and returns a JSON status.
func (st *connState) mcpConnect(url string, opts ...any) string {
	cfg := &mcp.ServerConfig{Transport: mcp.TransportStreamableHTTP, URL: strings.TrimSpace(url)}

	if len(opts) > 0 {
		if raw := argText(opts[0]); raw != "" {
			if err := json.UnmarshalString(raw, &cfg.Headers); err != nil {
				return mcp.ErrorJSON(fmt.Sprintf("headers must be a JSON object of strings: %v", err))
			}
		}
	}
	if len(opts) > 1 && truthy(opts[1]) {
		cfg.Transport = mcp.TransportSSE
	}
	if len(opts) > 2 {
		return mcp.ErrorJSON("mcp_connect takes at most 3 arguments")
	}

	ctx, cancel := context.WithTimeout(context.Background(), st.cfg.ConnectTimeout)
	defer cancel()

	s := mcp.NewSession(cfg.URL, cfg)
	if err := s.Connect(ctx); err != nil {
		logger.Warn("[SQLite] mcp_connect(%s): %v", cfg.URL, err)
		return mcp.ErrorJSON(err.Error())
	}
	st.ref.Swap(s, true)
	return s.StatusJSON()
}

func (st *connState) mcpDisconnect() string {
	st.ref.Close()
	return `{"status":"disconnected"}`
}

func (st *connState) mcpStatus() string {
	s := st.ref.Session()
	if s == nil {
		return mcp.ErrorJSON("not connected")
	}
	return s.StatusJSON()
}

func (st *connState) mcpListToolsJSON() string {
	ctx, cancel := context.WithTimeout(context.Background(), st.cfg.Options.CallTimeout)
	defer cancel()

	raw, err := st.ref.ToolsJSON(ctx)
	if err != nil {
		return mcp.ErrorJSON(err.Error())
	}
	return raw
}

func (st *connState) mcpCallToolJSON(name, arguments any) string {
	ctx, cancel := context.WithTimeout(context.Background(), st.cfg.Options.CallTimeout)
	defer cancel()

	toolName := argText(name)
	if toolName == "" {
		return mcp.ErrorJSON("tool name is required")
	}
	raw, err := st.ref.CallToolJSON(ctx, toolName, argText(arguments))
	if err != nil {
		return mcp.ErrorJSON(err.Error())
	}
	return `{"result":` + raw + `}`
}

func argText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		b, err := strconv.ParseBool(x)
		if err == nil {
			return b
		}
		n, err := strconv.ParseInt(x, 10, 64)
		return err == nil && n != 0
	default:
		return false
	}
}
