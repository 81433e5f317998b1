package vtab

import (
	"sort"
	"strings"

	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

// Op is a constraint operator, numbered as SQLite numbers them.
type Op uint8

const (
	OpEQ        Op = 2
	OpGT        Op = 4
	OpLE        Op = 8
	OpLT        Op = 16
	OpGE        Op = 32
	OpMatch     Op = 64
	OpLike      Op = 65
	OpGlob      Op = 66
	OpRegexp    Op = 67
	OpNE        Op = 68
	OpIsNot     Op = 69
	OpIsNotNull Op = 70
	OpIsNull    Op = 71
	OpIs        Op = 72
	OpLimit     Op = 73
	OpOffset    Op = 74

	// OpFunction marks a function-style argument (table-valued function
	// syntax) passed through an overloaded function constraint.
	OpFunction Op = 150
)

// Constraint is one WHERE term offered to the planner.
type Constraint struct {
	Column int
	Op     Op
	Usable bool
}

// Usage is the planner's decision for one constraint. ArgvIndex is 1-based;
// zero means the constraint is not consumed.
type Usage struct {
	ArgvIndex int
	Omit      bool
}

// IndexInfo is the planner's input and output. Usage has one entry per
// constraint once planned. IdxStr lists argument roles in argv order.
type IndexInfo struct {
	Constraints   []Constraint
	Usage         []Usage
	IdxNum        int
	IdxStr        string
	EstimatedCost float64
	EstimatedRows int64
}

// Plan identifiers carried in IdxNum.
const (
	PlanInvalid = 0
	PlanBound   = 1
)

// Estimated costs.
const (
	CostBound        = 100
	CostInvalid      = 1_000_000
	CostStreamList   = 10
	CostSnapshotScan = 1000
)

// Argument roles listed in IdxStr.
const (
	RoleToolName  = "tool_name"
	RoleArguments = "arguments"
	RoleIgnored   = "-"
)

const roleSep = ","

// PlanEnumeration plans a catalog scan. No constraint is consumed; the
// engine filters rows itself.
func PlanEnumeration(info *IndexInfo, cost float64) {
	info.Usage = make([]Usage, len(info.Constraints))
	info.IdxNum = PlanInvalid
	info.IdxStr = ""
	info.EstimatedCost = cost
	info.EstimatedRows = 100
}

// PlanInvocation binds the hidden tool_name and arguments columns.
//
// A function-style constraint wins and is consumed first; equality
// constraints on hidden columns it does not already cover follow it. Without
// one, equality on both hidden columns gives a two-argument plan. A table
// with pre-bound arguments needs no constraint at all. Anything else is an
// invalid plan priced so the engine avoids it.
func PlanInvocation(info *IndexInfo, prebound bool) {
	info.Usage = make([]Usage, len(info.Constraints))
	info.IdxStr = ""

	if prebound {
		info.IdxNum = PlanBound
		info.EstimatedCost = CostBound
		info.EstimatedRows = 25
		return
	}

	var funcs []int
	eq := map[int]int{}
	for i, c := range info.Constraints {
		if !c.Usable {
			continue
		}
		switch {
		case c.Op == OpFunction:
			funcs = append(funcs, i)
		case c.Op == OpEQ && (c.Column == ColToolName || c.Column == ColArguments):
			if _, seen := eq[c.Column]; !seen {
				eq[c.Column] = i
			}
		}
	}

	var roles []string
	assign := func(i int) {
		roles = append(roles, roleOf(info.Constraints[i].Column))
		info.Usage[i] = Usage{ArgvIndex: len(roles), Omit: true}
	}

	switch {
	case len(funcs) > 0:
		covered := map[int]bool{}
		for _, i := range funcs {
			assign(i)
			covered[info.Constraints[i].Column] = true
		}
		for _, col := range []int{ColToolName, ColArguments} {
			if i, ok := eq[col]; ok && !covered[col] {
				assign(i)
			}
		}
	case len(eq) == 2:
		assign(eq[ColToolName])
		assign(eq[ColArguments])
	default:
		info.IdxNum = PlanInvalid
		info.EstimatedCost = CostInvalid
		info.EstimatedRows = CostInvalid
		logger.Debug("[VTab] no usable tool_name/arguments constraint among %d", len(info.Constraints))
		return
	}

	info.IdxNum = PlanBound
	info.IdxStr = strings.Join(roles, roleSep)
	info.EstimatedCost = CostBound
	info.EstimatedRows = 25
	logger.Debug("[VTab] bound invocation plan %q", info.IdxStr)
}

func roleOf(col int) string {
	switch col {
	case ColToolName:
		return RoleToolName
	case ColArguments:
		return RoleArguments
	default:
		return RoleIgnored
	}
}

// SplitRoles parses an IdxStr produced by the planner.
func SplitRoles(idxStr string) []string {
	if idxStr == "" {
		return nil
	}
	return strings.Split(idxStr, roleSep)
}

// ConstraintOrderRoles returns the roles of the consumed constraints in
// constraint order rather than argv order, for engines that hand filter
// arguments over in the order constraints were offered.
func (info *IndexInfo) ConstraintOrderRoles() string {
	roles := SplitRoles(info.IdxStr)
	type used struct{ pos, argv int }
	var us []used
	for i, u := range info.Usage {
		if u.ArgvIndex > 0 {
			us = append(us, used{pos: i, argv: u.ArgvIndex})
		}
	}
	sort.Slice(us, func(a, b int) bool { return us[a].pos < us[b].pos })

	out := make([]string, 0, len(us))
	for _, u := range us {
		role := RoleIgnored
		if u.argv-1 < len(roles) {
			role = roles[u.argv-1]
		}
		out = append(out, role)
	}
	return strings.Join(out, roleSep)
}
