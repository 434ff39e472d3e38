package registry

import "strings"

// RefTarget is the resolved destination of a ref[...] path: a record type
// and, when the path names one, the field whose unique values the reference
// points at.
type RefTarget struct {
	Type  *RecordType
	Field string // "" for a type-only reference
}

// ResolveRefTarget resolves a dotted ref path against the registry. The
// preferred reading treats the last segment as a field of the type named by
// the second-to-last segment (any remaining prefix is the namespace); when
// that does not name an existing type and field, the whole path is read as a
// namespace-qualified type. Unqualified lookups happen in namespace with the
// default-namespace fallback.
func (r *Registry) ResolveRefTarget(path, namespace string) (RefTarget, bool) {
	segs := strings.Split(path, ".")

	if len(segs) >= 2 {
		typeName := segs[len(segs)-2]
		fieldName := segs[len(segs)-1]
		lookupNS := strings.Join(segs[:len(segs)-2], ".")
		if lookupNS == "" {
			lookupNS = namespace
		}
		if t := r.GetType(typeName, lookupNS, DefaultNamespace); t != nil {
			if _, ok := t.FieldByName(fieldName); ok {
				return RefTarget{Type: t, Field: fieldName}, true
			}
		}
	}

	typeName := segs[len(segs)-1]
	lookupNS := strings.Join(segs[:len(segs)-1], ".")
	if lookupNS == "" {
		lookupNS = namespace
	}
	if t := r.GetType(typeName, lookupNS, DefaultNamespace); t != nil {
		return RefTarget{Type: t}, true
	}
	return RefTarget{}, false
}
