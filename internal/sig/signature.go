// Package sig implements the YASL type-signature grammar: primitives,
// list suffixes, map[K, V] containers, ref[Path] pointers, and user-defined
// type or enumeration names, optionally namespace-qualified.
package sig

import (
	"fmt"
	"strings"
)

// PrimitiveKind identifies one of the fixed YASL primitive types.
type PrimitiveKind string

const (
	KindInt      PrimitiveKind = "int"
	KindStr      PrimitiveKind = "str"
	KindBool     PrimitiveKind = "bool"
	KindFloat    PrimitiveKind = "float"
	KindDate     PrimitiveKind = "date"
	KindDatetime PrimitiveKind = "datetime"
	KindPath     PrimitiveKind = "path"
	KindURL      PrimitiveKind = "url"
	KindAny      PrimitiveKind = "any"
	// KindType marks a property whose value is itself a type signature.
	KindType PrimitiveKind = "type"
)

// primitives is the closed set of valid primitive names (case-sensitive).
var primitives = map[PrimitiveKind]bool{
	KindInt: true, KindStr: true, KindBool: true, KindFloat: true,
	KindDate: true, KindDatetime: true, KindPath: true, KindURL: true,
	KindAny: true, KindType: true,
}

// IsPrimitive reports whether name exactly matches a primitive type name.
func IsPrimitive(name string) bool {
	return primitives[PrimitiveKind(name)]
}

// Signature is the parsed form of a type-signature string. It is a closed
// variant: Primitive, List, Map, Ref, or Named. String returns the exact
// source text the signature was parsed from, so signatures round-trip.
type Signature interface {
	fmt.Stringer
	sig()
}

// Primitive is a built-in scalar type such as int or datetime.
type Primitive struct {
	Kind PrimitiveKind
	raw  string
}

func (Primitive) sig() {}

func (p Primitive) String() string {
	if p.raw != "" {
		return p.raw
	}
	return string(p.Kind)
}

// List is a signature with a [] suffix; Elem may be any signature.
type List struct {
	Elem Signature
	raw  string
}

func (List) sig() {}

func (l List) String() string {
	if l.raw != "" {
		return l.raw
	}
	return l.Elem.String() + "[]"
}

// Map is a map[K, V] signature. Key is restricted to str, int, or an
// enumeration name; Value is any signature.
type Map struct {
	Key   Signature
	Value Signature
	raw   string
}

func (Map) sig() {}

func (m Map) String() string {
	if m.raw != "" {
		return m.raw
	}
	return fmt.Sprintf("map[%s, %s]", m.Key, m.Value)
}

// Ref is a ref[Path] signature. Target is the opaque dotted path; its
// existence is checked against the registry at resolution and validation
// time, never by the grammar.
type Ref struct {
	Target string
	raw    string
}

func (Ref) sig() {}

func (r Ref) String() string {
	if r.raw != "" {
		return r.raw
	}
	return fmt.Sprintf("ref[%s]", r.Target)
}

// Named is a user-defined type or enumeration name, with an optional
// namespace qualifier parsed from dotted form (auth.Credentials).
type Named struct {
	Name      string
	Namespace string // "" when unqualified
	raw       string
}

func (Named) sig() {}

func (n Named) String() string {
	if n.raw != "" {
		return n.raw
	}
	if n.Namespace != "" {
		return n.Namespace + "." + n.Name
	}
	return n.Name
}

// Walk calls fn for s and every signature nested inside it.
func Walk(s Signature, fn func(Signature)) {
	fn(s)
	switch v := s.(type) {
	case List:
		Walk(v.Elem, fn)
	case Map:
		Walk(v.Key, fn)
		Walk(v.Value, fn)
	}
}

// NamedRefs returns every Named node in s, in source order. These are the
// user-type and enumeration dependencies of the signature.
func NamedRefs(s Signature) []Named {
	var out []Named
	Walk(s, func(n Signature) {
		if named, ok := n.(Named); ok {
			out = append(out, named)
		}
	})
	return out
}

// RefTargets returns the target path of every Ref node in s.
func RefTargets(s Signature) []string {
	var out []string
	Walk(s, func(n Signature) {
		if ref, ok := n.(Ref); ok {
			out = append(out, ref.Target)
		}
	})
	return out
}

// SplitQualified splits a dotted identifier into its namespace prefix and
// final name segment. A bare identifier returns ("", name).
func SplitQualified(ident string) (namespace, name string) {
	idx := strings.LastIndex(ident, ".")
	if idx < 0 {
		return "", ident
	}
	return ident[:idx], ident[idx+1:]
}
