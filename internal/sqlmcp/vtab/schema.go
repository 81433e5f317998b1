package vtab

import (
	"fmt"
	"strings"
)

// Kind selects one of the four table behaviours.
type Kind int

const (
	KindListTools Kind = iota
	KindCallTool
	KindListToolsCached
	KindCallToolFresh
)

// Kinds lists every table kind in registration order.
var Kinds = []Kind{KindListTools, KindCallTool, KindListToolsCached, KindCallToolFresh}

// ToolColumns are the columns of the enumeration tables, in order.
var ToolColumns = []string{"name", "title", "description", "inputSchema", "outputSchema", "annotations"}

// Invocation table columns.
const (
	ColText      = 0
	ColToolName  = 1
	ColArguments = 2
)

var invocationColumns = []string{"text", "tool_name", "arguments"}

func (k Kind) String() string {
	return k.ModuleName()
}

// ModuleName is the name the kind is registered under.
func (k Kind) ModuleName() string {
	switch k {
	case KindListTools:
		return "mcp_list_tools"
	case KindCallTool:
		return "mcp_call_tool"
	case KindListToolsCached:
		return "mcp_list_tools_respond"
	case KindCallToolFresh:
		return "mcp_call_tool_respond"
	default:
		return fmt.Sprintf("mcp_unknown_%d", int(k))
	}
}

// Invocation reports whether the kind calls a tool rather than listing them.
func (k Kind) Invocation() bool {
	return k == KindCallTool || k == KindCallToolFresh
}

// Streaming reports whether the kind reads from a stream handle.
func (k Kind) Streaming() bool {
	return k == KindListTools || k == KindCallTool
}

func (k Kind) Columns() []string {
	if k.Invocation() {
		return invocationColumns
	}
	return ToolColumns
}

// Schema is the CREATE TABLE statement declared to the engine.
func (k Kind) Schema() string {
	if k.Invocation() {
		return "CREATE TABLE x(text TEXT, tool_name TEXT HIDDEN, arguments TEXT HIDDEN)"
	}
	cols := make([]string, len(ToolColumns))
	for i, c := range ToolColumns {
		cols[i] = c + " TEXT"
	}
	return "CREATE TABLE x(" + strings.Join(cols, ", ") + ")"
}

// UnquoteModuleArg strips one level of SQL quoting from a module argument
// as written in CREATE VIRTUAL TABLE ... USING module(arg, ...).
func UnquoteModuleArg(arg string) string {
	arg = strings.TrimSpace(arg)
	if len(arg) < 2 {
		return arg
	}
	q := arg[0]
	if (q != '\'' && q != '"') || arg[len(arg)-1] != q {
		return arg
	}
	inner := arg[1 : len(arg)-1]
	return strings.ReplaceAll(inner, string([]byte{q, q}), string(q))
}
