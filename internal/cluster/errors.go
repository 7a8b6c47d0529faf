package cluster

import "fmt"

// InvalidSpecError reports malformed input. It is raised before any node is
// constructed.
type InvalidSpecError struct {
	Field  string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid cluster spec: %s", e.Reason)
	}
	return fmt.Sprintf("invalid cluster spec: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *InvalidSpecError {
	return &InvalidSpecError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
