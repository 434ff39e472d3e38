// Package registry holds the process-wide mapping from (type name, namespace)
// to resolved record types and enumerations, plus the uniqueness index
// consulted during validation. A Registry is not safe for concurrent use;
// callers serialize load and validate sequences.
package registry

import (
	"fmt"
	"sort"

	"github.com/yasl-lang/yaql/internal/sig"
)

// DefaultNamespace groups unqualified definitions.
const DefaultNamespace = "default"

// TypeKey uniquely identifies a record type or enumeration.
type TypeKey struct {
	Name      string
	Namespace string
}

func (k TypeKey) String() string {
	if k.Namespace == "" || k.Namespace == DefaultNamespace {
		return k.Name
	}
	return k.Namespace + "." + k.Name
}

// Presence states whether a field must appear in a document.
type Presence string

const (
	PresenceOptional Presence = "optional"
	PresenceRequired Presence = "required"
)

// Field is one property of a resolved record type.
type Field struct {
	Name     string
	Raw      string // declared signature string, preserved verbatim
	Type     sig.Signature
	Presence Presence
	Unique   bool
	Default  any
	Desc     string
}

// Required reports whether the field must be present.
func (f Field) Required() bool { return f.Presence == PresenceRequired }

// RecordType is a fully resolved record-type descriptor. It is owned by the
// Registry and immutable after registration; reload goes through ClearCaches.
type RecordType struct {
	Name      string
	Namespace string
	Fields    []Field // declaration order
	// Nested marks implementation-internal types generated for inline
	// property definitions; they are excluded from export and SQL tables.
	Nested bool
	Desc   string
}

// Key returns the TypeKey of the record type.
func (t *RecordType) Key() TypeKey { return TypeKey{Name: t.Name, Namespace: t.Namespace} }

// FieldByName returns the named field, or false when absent.
func (t *RecordType) FieldByName(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Enum is a named set of string literals scoped to a namespace.
type Enum struct {
	Name      string
	Namespace string
	Values    []string
	Desc      string
}

// Key returns the TypeKey of the enumeration.
func (e *Enum) Key() TypeKey { return TypeKey{Name: e.Name, Namespace: e.Namespace} }

// Contains reports whether v is a member of the enumeration.
func (e *Enum) Contains(v string) bool {
	for _, m := range e.Values {
		if m == v {
			return true
		}
	}
	return false
}

type uniqueKey struct {
	typeName  string
	fieldName string
	namespace string
}

// Registry is the schema registry. The zero value is not usable; construct
// with New.
type Registry struct {
	types  map[TypeKey]*RecordType
	enums  map[TypeKey]*Enum
	unique map[uniqueKey]map[string]bool
}

// New returns an empty registry.
func New() *Registry {
	r := &Registry{}
	r.ClearCaches()
	return r
}

var defaultRegistry = New()

// Default returns the shared process-wide registry used by the CLI and
// engine. Tests construct their own instances with New.
func Default() *Registry { return defaultRegistry }

// RegisterType stores a resolved record type. Registering a second resolved
// type under the same key is rejected.
func (r *Registry) RegisterType(t *RecordType) error {
	key := t.Key()
	if _, exists := r.types[key]; exists {
		return fmt.Errorf("registering type: type '%s' is already defined", key)
	}
	r.types[key] = t
	return nil
}

// RegisterEnum stores an enumeration, rejecting duplicates.
func (r *Registry) RegisterEnum(e *Enum) error {
	key := e.Key()
	if _, exists := r.enums[key]; exists {
		return fmt.Errorf("registering enum: enumeration '%s' is already defined", key)
	}
	r.enums[key] = e
	return nil
}

// GetType looks up a record type: exact namespace first, then the default
// namespace fallback. It never searches other namespaces.
func (r *Registry) GetType(name, namespace, defaultNS string) *RecordType {
	if t, ok := r.types[TypeKey{Name: name, Namespace: namespace}]; ok {
		return t
	}
	if defaultNS != "" && defaultNS != namespace {
		if t, ok := r.types[TypeKey{Name: name, Namespace: defaultNS}]; ok {
			return t
		}
	}
	return nil
}

// GetEnum mirrors GetType for enumerations.
func (r *Registry) GetEnum(name, namespace, defaultNS string) *Enum {
	if e, ok := r.enums[TypeKey{Name: name, Namespace: namespace}]; ok {
		return e
	}
	if defaultNS != "" && defaultNS != namespace {
		if e, ok := r.enums[TypeKey{Name: name, Namespace: defaultNS}]; ok {
			return e
		}
	}
	return nil
}

// HasType implements sig.Resolver.
func (r *Registry) HasType(name, namespace, defaultNS string) bool {
	return r.GetType(name, namespace, defaultNS) != nil
}

// HasEnum implements sig.Resolver.
func (r *Registry) HasEnum(name, namespace, defaultNS string) bool {
	return r.GetEnum(name, namespace, defaultNS) != nil
}

// NamespacesWithSymbol returns every namespace holding a type or enumeration
// named name, sorted. This feeds the "did you mean" diagnostic only.
func (r *Registry) NamespacesWithSymbol(name string) []string {
	seen := map[string]bool{}
	for key := range r.types {
		if key.Name == name {
			seen[key.Namespace] = true
		}
	}
	for key := range r.enums {
		if key.Name == name {
			seen[key.Namespace] = true
		}
	}
	out := make([]string, 0, len(seen))
	for ns := range seen {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Types returns a snapshot of all registered record types.
func (r *Registry) Types() map[TypeKey]*RecordType {
	out := make(map[TypeKey]*RecordType, len(r.types))
	for k, v := range r.types {
		out[k] = v
	}
	return out
}

// Enums returns a snapshot of all registered enumerations.
func (r *Registry) Enums() map[TypeKey]*Enum {
	out := make(map[TypeKey]*Enum, len(r.enums))
	for k, v := range r.enums {
		out[k] = v
	}
	return out
}

// UniqueValueExists reports whether value was already recorded for the given
// unique field within the current registry lifetime.
func (r *Registry) UniqueValueExists(typeName, fieldName string, value any, namespace string) bool {
	set := r.unique[uniqueKey{typeName: typeName, fieldName: fieldName, namespace: namespace}]
	if set == nil {
		return false
	}
	return set[uniqueString(value)]
}

// RecordUniqueValue records a value for a unique field. Values inserted by
// one record are visible to every later record in the same load.
func (r *Registry) RecordUniqueValue(typeName, fieldName string, value any, namespace string) {
	key := uniqueKey{typeName: typeName, fieldName: fieldName, namespace: namespace}
	set := r.unique[key]
	if set == nil {
		set = map[string]bool{}
		r.unique[key] = set
	}
	set[uniqueString(value)] = true
}

// ClearCaches resets the registry to empty: types, enums, and the uniqueness
// index. Required for test isolation and schema reload.
func (r *Registry) ClearCaches() {
	r.types = map[TypeKey]*RecordType{}
	r.enums = map[TypeKey]*Enum{}
	r.unique = map[uniqueKey]map[string]bool{}
}

// uniqueString folds a scalar into its index key. Uniqueness is only
// meaningful on scalar-typed fields, so formatting is stable.
func uniqueString(v any) string {
	return fmt.Sprintf("%v", v)
}
