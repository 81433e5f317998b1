// Package vtab adapts a remote MCP tool service to a SQL engine's virtual
// table interface. It knows nothing about a particular engine: the engine
// binding translates its own planner and cursor callbacks into IndexInfo,
// Table and Cursor calls.
//
// Four table kinds are provided:
//
//	mcp_list_tools          streaming enumeration of the remote tool catalog
//	mcp_call_tool           streaming invocation, one row per text chunk
//	mcp_list_tools_respond  catalog materialized once per table instance
//	mcp_call_tool_respond   fresh invocation per scan, one row per content item
//
// The streaming kinds read from a Registry of stream handles fed by
// goroutines that drive the Remote. Each handle is a bounded channel; the
// cursor blocks on it with a per-kind timeout, and a timeout ends the scan.
package vtab
