package sig

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the grammar. Typed errors below wrap these so callers
// can branch with errors.Is while tests match on message substrings.
var (
	ErrInvalidSignature = errors.New("invalid type signature")
	ErrInvalidMapFormat = errors.New("invalid map type format")
	ErrInvalidMapKey    = errors.New("invalid map key type")
	ErrUnknownType      = errors.New("unknown type")
)

// UnknownTypeError reports an identifier that is neither a primitive nor a
// registered type or enumeration. Hints lists the namespaces that do contain
// a same-named symbol, for the "did you mean" suggestion.
type UnknownTypeError struct {
	Name  string
	Hints []string
}

func (e *UnknownTypeError) Error() string {
	msg := fmt.Sprintf("Type '%s' is not a valid primitive, enumeration, or known type name.", e.Name)
	if len(e.Hints) > 0 {
		hints := append([]string(nil), e.Hints...)
		sort.Strings(hints)
		msg += fmt.Sprintf(" Did you mean one of: %s?", strings.Join(hints, ", "))
	}
	return msg
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// MapFormatError reports a map signature with no top-level comma separating
// the key and value types.
type MapFormatError struct {
	Raw string
}

func (e *MapFormatError) Error() string {
	return fmt.Sprintf("Invalid map type format: '%s'. Expected map[KeyType, ValueType].", e.Raw)
}

func (e *MapFormatError) Unwrap() error { return ErrInvalidMapFormat }

// MapKeyError reports a map key type outside the allowed set.
type MapKeyError struct {
	Key string
}

func (e *MapKeyError) Error() string {
	return fmt.Sprintf("Invalid map key type: '%s'. Map keys must be str, int, or an enumeration.", e.Key)
}

func (e *MapKeyError) Unwrap() error { return ErrInvalidMapKey }

// SignatureError reports a malformed signature string.
type SignatureError struct {
	Raw    string
	Reason string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("Invalid type signature '%s': %s.", e.Raw, e.Reason)
}

func (e *SignatureError) Unwrap() error { return ErrInvalidSignature }
