package vtab

import (
	"errors"
)

var (
	// ErrInvalidPlan is returned by Filter when the planner could not bind
	// the hidden tool_name/arguments columns.
	ErrInvalidPlan = errors.New("tool_name and arguments must be constrained with '=' or passed as table arguments")
	// ErrMissingArguments is returned when a bound plan delivers no usable
	// tool name or arguments value.
	ErrMissingArguments = errors.New("missing tool_name or arguments")
	// ErrInvalidArguments is returned when the arguments text is not a JSON object.
	ErrInvalidArguments = errors.New("arguments must be a JSON object")
	ErrNotConnected     = errors.New("not connected to an MCP server")
	ErrStartFailed      = errors.New("failed to start remote stream")
	ErrRegistryClosed   = errors.New("stream registry closed")
	ErrCatalogFetch     = errors.New("failed to fetch tool catalog")
	ErrInvoke           = errors.New("tool invocation failed")
	ErrRelationExists   = errors.New("relation already exists")
	ErrNoSuchRelation   = errors.New("no such relation")
)

// RemoteError carries the message of an Error event delivered by a stream.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "mcp: " + e.Message
}
