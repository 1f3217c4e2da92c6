package service

import "fmt"

// ValidationError reports a missing or malformed tool argument. The caller
// supplied something unusable; nothing was sent upstream.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

// UnknownToolError reports a tool name outside the fixed tool set. The
// requested name is carried for diagnostics.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}
