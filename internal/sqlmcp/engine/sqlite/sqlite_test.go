//go:build sqlite_vtable || vtable

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpsvc "github.com/kiosk404/sqlite-mcp/internal/sqlmcp/service/mcp"
	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/vtab"
)

var driverSeq atomic.Int64

func newToolServer() *server.MCPServer {
	srv := server.NewMCPServer("sql-test", "0.9.0", server.WithToolCapabilities(false))
	srv.AddTool(mcp.NewTool("echo",
		mcp.WithDescription("Echo the input text"),
		mcp.WithString("text", mcp.Required()),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(req.GetString("text", "")), nil
	})
	srv.AddTool(mcp.NewTool("list_dir"), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{Content: []mcp.Content{
			mcp.NewTextContent("a.txt"),
			mcp.NewTextContent("b.txt"),
			mcp.NewTextContent("c.txt"),
		}}, nil
	})
	srv.AddTool(mcp.NewTool("fail"), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("boom"), nil
	})
	return srv
}

// openDB registers a fresh driver bound to session and opens a single
// connection database.
func openDB(t *testing.T, session *mcpsvc.Session, store string) *sql.DB {
	t.Helper()
	name, err := Register(Config{
		DriverName: fmt.Sprintf("sqlite3_mcp_test_%d", driverSeq.Add(1)),
		Session:    func() *mcpsvc.Session { return session },
		CacheStore: store,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	db, err := sql.Open(name, ":memory:")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func inProcessSession(t *testing.T, srv *server.MCPServer) *mcpsvc.Session {
	t.Helper()
	s, err := mcpsvc.NewInProcessSession(context.Background(), "test", srv)
	if err != nil {
		t.Fatalf("NewInProcessSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func queryStrings(t *testing.T, db *sql.DB, query string, args ...any) []string {
	t.Helper()
	rows, err := db.Query(query, args...)
	if err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, v.String)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	return out
}

// queryErr runs query to completion and returns the first error, whether
// it surfaces at prepare time or while stepping.
func queryErr(db *sql.DB, query string) error {
	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

func TestListToolsTable(t *testing.T) {
	db := openDB(t, inProcessSession(t, newToolServer()), CacheStoreTemp)

	got := queryStrings(t, db, "SELECT name FROM mcp_list_tools ORDER BY name")
	if strings.Join(got, ",") != "echo,fail,list_dir" {
		t.Fatalf("names = %v", got)
	}
	desc := queryStrings(t, db, "SELECT description FROM mcp_list_tools WHERE name = 'echo'")
	if len(desc) != 1 || desc[0] != "Echo the input text" {
		t.Fatalf("description = %v", desc)
	}
	schema := queryStrings(t, db, "SELECT json_extract(inputSchema, '$.required[0]') FROM mcp_list_tools WHERE name = 'echo'")
	if len(schema) != 1 || schema[0] != "text" {
		t.Fatalf("inputSchema required = %v", schema)
	}
}

func TestCallToolTable(t *testing.T) {
	db := openDB(t, inProcessSession(t, newToolServer()), CacheStoreTemp)

	got := queryStrings(t, db, `SELECT text FROM mcp_call_tool WHERE tool_name = 'echo' AND arguments = '{"text":"hi"}'`)
	if len(got) != 1 || got[0] != "hi" {
		t.Fatalf("WHERE form = %v", got)
	}
	got = queryStrings(t, db, `SELECT text FROM mcp_call_tool('echo', '{"text":"tvf"}')`)
	if len(got) != 1 || got[0] != "tvf" {
		t.Fatalf("table-valued form = %v", got)
	}
	got = queryStrings(t, db, `SELECT text FROM mcp_call_tool('list_dir', '{}')`)
	if strings.Join(got, ",") != "a.txt,b.txt,c.txt" {
		t.Fatalf("chunks = %v", got)
	}
}

func TestCallToolErrors(t *testing.T) {
	db := openDB(t, inProcessSession(t, newToolServer()), CacheStoreTemp)

	if err := queryErr(db, "SELECT text FROM mcp_call_tool"); err == nil {
		t.Fatal("unconstrained invocation succeeded")
	}

	err := queryErr(db, `SELECT text FROM mcp_call_tool('fail', '{}')`)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestCallToolRespond(t *testing.T) {
	db := openDB(t, inProcessSession(t, newToolServer()), CacheStoreTemp)

	rows, err := db.Query(`SELECT rowid, text FROM mcp_call_tool_respond('list_dir', '{}')`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var got []string
	for rows.Next() {
		var id int64
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, fmt.Sprintf("%d:%s", id, text))
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if strings.Join(got, ",") != "0:a.txt,1:b.txt,2:c.txt" {
		t.Fatalf("rows = %v", got)
	}
}

func TestCallToolBoundModule(t *testing.T) {
	db := openDB(t, inProcessSession(t, newToolServer()), CacheStoreTemp)

	if _, err := db.Exec(`CREATE VIRTUAL TABLE temp.hello USING mcp_call_tool_bound(echo, '{"text":"bound"}')`); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 2; i++ {
		got := queryStrings(t, db, "SELECT text FROM hello")
		if len(got) != 1 || got[0] != "bound" {
			t.Fatalf("scan %d = %v", i, got)
		}
	}
	got := queryStrings(t, db, "SELECT tool_name FROM hello")
	if len(got) != 1 || got[0] != "echo" {
		t.Fatalf("tool_name = %v", got)
	}
}

func TestListToolsRespondIsCached(t *testing.T) {
	for _, store := range []string{CacheStoreTemp, CacheStoreMemory} {
		t.Run(store, func(t *testing.T) {
			srv := newToolServer()
			db := openDB(t, inProcessSession(t, srv), store)

			first := queryStrings(t, db, "SELECT name FROM mcp_list_tools_respond ORDER BY name")
			srv.AddTool(mcp.NewTool("late"), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText("late"), nil
			})
			second := queryStrings(t, db, "SELECT name FROM mcp_list_tools_respond ORDER BY name")
			if strings.Join(first, ",") != "echo,fail,list_dir" || strings.Join(first, ",") != strings.Join(second, ",") {
				t.Fatalf("first = %v, second = %v", first, second)
			}

			live := queryStrings(t, db, "SELECT name FROM mcp_list_tools WHERE name = 'late'")
			if len(live) != 1 {
				t.Fatalf("streaming table missed the new tool: %v", live)
			}

			temp := queryStrings(t, db, "SELECT name FROM sqlite_temp_master WHERE name LIKE 'mcp_tools_cache_%'")
			wantTemp := 0
			if store == CacheStoreTemp {
				wantTemp = 1
			}
			if len(temp) != wantTemp {
				t.Fatalf("temp relations = %v", temp)
			}
		})
	}
}

func TestWithoutSession(t *testing.T) {
	db := openDB(t, nil, CacheStoreTemp)

	if err := queryErr(db, "SELECT name FROM mcp_list_tools"); err == nil {
		t.Fatal("streaming enumeration without a session succeeded")
	} else if !strings.Contains(err.Error(), vtab.ErrNotConnected.Error()) {
		t.Fatalf("err = %v", err)
	}
	if got := queryStrings(t, db, "SELECT name FROM mcp_list_tools_respond"); len(got) != 0 {
		t.Fatalf("cached enumeration rows = %v", got)
	}
	status := queryStrings(t, db, "SELECT mcp_status()")
	if len(status) != 1 || !strings.Contains(status[0], `"error"`) {
		t.Fatalf("mcp_status() = %v", status)
	}
}

func TestScalarFunctions(t *testing.T) {
	db := openDB(t, inProcessSession(t, newToolServer()), CacheStoreTemp)

	if v := queryStrings(t, db, "SELECT mcp_version()"); len(v) != 1 || v[0] == "" {
		t.Fatalf("mcp_version() = %v", v)
	}
	tools := queryStrings(t, db, "SELECT json_array_length(mcp_list_tools_json(), '$.tools')")
	if len(tools) != 1 || tools[0] != "3" {
		t.Fatalf("tool count = %v", tools)
	}
	text := queryStrings(t, db, `SELECT json_extract(mcp_call_tool_json('echo', '{"text":"json"}'), '$.result.content[0].text')`)
	if len(text) != 1 || text[0] != "json" {
		t.Fatalf("call result = %v", text)
	}
	errs := queryStrings(t, db, "SELECT json_extract(mcp_call_tool_json(NULL, '{}'), '$.error')")
	if len(errs) != 1 || errs[0] == "" {
		t.Fatalf("missing name = %v", errs)
	}
}

func TestConnectOverStreamableHTTP(t *testing.T) {
	ts := httptest.NewServer(server.NewStreamableHTTPServer(newToolServer()))
	defer ts.Close()

	db := openDB(t, nil, CacheStoreTemp)

	status := queryStrings(t, db, "SELECT mcp_connect(?, ?)", ts.URL+"/mcp", `{"X-Test":"1"}`)
	if len(status) != 1 || !strings.Contains(status[0], `"status":"connected"`) || !strings.Contains(status[0], `"streamable-http"`) {
		t.Fatalf("mcp_connect() = %v", status)
	}

	got := queryStrings(t, db, `SELECT text FROM mcp_call_tool('echo', '{"text":"remote"}')`)
	if len(got) != 1 || got[0] != "remote" {
		t.Fatalf("remote call = %v", got)
	}

	if v := queryStrings(t, db, "SELECT mcp_disconnect()"); len(v) != 1 || !strings.Contains(v[0], "disconnected") {
		t.Fatalf("mcp_disconnect() = %v", v)
	}
	if err := queryErr(db, "SELECT name FROM mcp_list_tools"); err == nil {
		t.Fatal("enumeration after disconnect succeeded")
	}
}

func TestConnectRejectsBadHeaders(t *testing.T) {
	db := openDB(t, nil, CacheStoreTemp)
	got := queryStrings(t, db, "SELECT mcp_connect('http://127.0.0.1:1/mcp', '[1,2]')")
	if len(got) != 1 || !strings.Contains(got[0], "headers") {
		t.Fatalf("mcp_connect() = %v", got)
	}
}
