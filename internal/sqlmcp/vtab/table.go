package vtab

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

// Cursor is one scan over a table.
type Cursor interface {
	Filter(idxNum int, idxStr string, args []any) error
	Next() error
	EOF() bool
	// Column returns nil for NULL or a string.
	Column(col int) (any, error)
	Rowid() (int64, error)
	Close() error
}

// Invocation is a tool name with its JSON arguments.
type Invocation struct {
	Name      string
	Arguments string
}

// Table is one connected table instance.
type Table struct {
	id      uuid.UUID
	kind    Kind
	backend *Backend
	bound   *Invocation
	cache   *snapshot
}

// NewTable connects a table of the given kind. Invocation kinds accept
// module arguments (name[, arguments]) that pre-bind every scan.
func NewTable(kind Kind, backend *Backend, moduleArgs []string) (*Table, error) {
	t := &Table{
		id:      uuid.New(),
		kind:    kind,
		backend: backend,
	}

	if len(moduleArgs) > 0 {
		if !kind.Invocation() {
			return nil, fmt.Errorf("%s takes no arguments", kind.ModuleName())
		}
		if len(moduleArgs) > 2 {
			return nil, fmt.Errorf("%s takes at most 2 arguments (tool_name, arguments), got %d", kind.ModuleName(), len(moduleArgs))
		}
		inv := Invocation{Name: UnquoteModuleArg(moduleArgs[0])}
		if len(moduleArgs) == 2 {
			inv.Arguments = UnquoteModuleArg(moduleArgs[1])
		}
		if inv.Name == "" {
			return nil, fmt.Errorf("%s: %w", kind.ModuleName(), ErrMissingArguments)
		}
		args, err := NormalizeArguments(inv.Arguments)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind.ModuleName(), err)
		}
		inv.Arguments = args
		t.bound = &inv
	}

	if kind == KindListToolsCached {
		t.cache = newSnapshot(t.id, backend)
	}

	logger.Debug("[VTab] connected %s table %s", kind, t.id)
	return t, nil
}

func (t *Table) ID() uuid.UUID { return t.id }
func (t *Table) Kind() Kind    { return t.kind }

// Bound returns the pre-bound invocation, if any.
func (t *Table) Bound() (Invocation, bool) {
	if t.bound == nil {
		return Invocation{}, false
	}
	return *t.bound, true
}

// BestIndex plans a scan.
func (t *Table) BestIndex(info *IndexInfo) error {
	switch t.kind {
	case KindListTools:
		PlanEnumeration(info, CostStreamList)
	case KindListToolsCached:
		PlanEnumeration(info, CostSnapshotScan)
	default:
		PlanInvocation(info, t.bound != nil)
	}
	return nil
}

// Open creates a cursor.
func (t *Table) Open() (Cursor, error) {
	switch t.kind {
	case KindListTools, KindCallTool:
		return newStreamCursor(t), nil
	case KindListToolsCached:
		return newSnapshotCursor(t), nil
	case KindCallToolFresh:
		return newFreshCursor(t), nil
	default:
		return nil, fmt.Errorf("unknown table kind %d", t.kind)
	}
}

// Disconnect drops the snapshot relation of a cached table.
func (t *Table) Disconnect() error {
	if t.cache != nil {
		t.cache.drop()
	}
	logger.Debug("[VTab] disconnected %s table %s", t.kind, t.id)
	return nil
}

// SnapshotName returns the ephemeral relation name of a cached table.
func (t *Table) SnapshotName() string {
	if t.cache == nil {
		return ""
	}
	return t.cache.name
}

// resolveInvocation returns the tool call of one scan, from the pre-binding
// or from the filter arguments of a bound plan.
func (t *Table) resolveInvocation(idxNum int, idxStr string, args []any) (Invocation, error) {
	if t.bound != nil {
		return *t.bound, nil
	}
	if idxNum != PlanBound {
		return Invocation{}, ErrInvalidPlan
	}

	var inv Invocation
	var haveName, haveArgs bool
	for i, role := range SplitRoles(idxStr) {
		if i >= len(args) {
			break
		}
		v, ok := textOf(args[i])
		if !ok {
			continue
		}
		switch role {
		case RoleToolName:
			inv.Name, haveName = v, v != ""
		case RoleArguments:
			inv.Arguments, haveArgs = v, true
		}
	}
	if !haveName || !haveArgs {
		return Invocation{}, ErrMissingArguments
	}
	return inv, nil
}

// textOf renders a filter argument as text. NULL is not a value.
func textOf(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return strings.TrimSpace(fmt.Sprint(x)), true
	}
}

// nullable maps an empty or absent value to NULL.
func nullable(s string, ok bool) any {
	if !ok || s == "" {
		return nil
	}
	return s
}
