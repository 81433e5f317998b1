package vtab

// State is the lifecycle of a cursor.
//
//	INIT -> FETCHING -> HAS_ROW -> FETCHING ... -> EOF
//
// ERROR is entered when a scan fails and absorbs further Next calls.
type State uint8

const (
	StateInit State = iota
	StateFetching
	StateHasRow
	StateEOF
	StateError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateFetching:
		return "FETCHING"
	case StateHasRow:
		return "HAS_ROW"
	case StateEOF:
		return "EOF"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// invocationColumn returns the hidden-column value of an invocation row.
func invocationColumn(inv Invocation, col int) any {
	switch col {
	case ColToolName:
		return nullable(inv.Name, true)
	case ColArguments:
		return nullable(inv.Arguments, true)
	default:
		return nil
	}
}
