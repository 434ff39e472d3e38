package loader

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSchema marks a structurally malformed schema document.
	ErrSchema = errors.New("schema error")
	// ErrCircularDependency marks a resolution pass that converged with
	// definitions still pending.
	ErrCircularDependency = errors.New("circular dependency")
	// ErrDuplicateType marks a redefinition of an existing TypeKey.
	ErrDuplicateType = errors.New("duplicate type")
)

// CircularDependencyError reports the definitions left pending after the
// fixed-point resolver stopped making progress: a genuine cycle, or a
// reference to a type that was never defined.
type CircularDependencyError struct {
	Pending []string // type names, sorted
}

func (e *CircularDependencyError) Error() string {
	names := append([]string(nil), e.Pending...)
	sort.Strings(names)
	return fmt.Sprintf("Unable to resolve dependencies for the following types: %s", strings.Join(names, ", "))
}

func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

// SchemaError reports a malformed schema document with its location context.
type SchemaError struct {
	Context string
	Reason  string
}

func (e *SchemaError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("invalid schema: %s", e.Reason)
	}
	return fmt.Sprintf("invalid schema at %s: %s", e.Context, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }
