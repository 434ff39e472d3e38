package sig

import (
	"strings"
)

// Resolver answers symbol-existence questions during strict parsing. The
// registry implements it; tests use lightweight fakes.
type Resolver interface {
	// HasType reports whether a record type with the given name exists in
	// namespace, falling back to defaultNS when namespace misses.
	HasType(name, namespace, defaultNS string) bool
	// HasEnum mirrors HasType for enumeration definitions.
	HasEnum(name, namespace, defaultNS string) bool
	// NamespacesWithSymbol returns every namespace containing a type or
	// enumeration with the given name. Used only for diagnostics.
	NamespacesWithSymbol(name string) []string
}

// Options controls parsing behavior.
type Options struct {
	// Permissive skips existence checks on user-defined names so schema
	// documents may forward-reference types defined later in the same load.
	Permissive bool
	// Namespace is the namespace of the declaring context; unqualified
	// names resolve here first.
	Namespace string
	// DefaultNamespace is tried when Namespace misses.
	DefaultNamespace string
}

// Parse parses and validates a raw type-signature string. In strict mode
// (Permissive false) user-defined names must resolve against res; permissive
// mode only checks grammatical shape. The returned signature's String method
// reproduces raw exactly.
func Parse(raw string, res Resolver, opts Options) (Signature, error) {
	s := strings.TrimSpace(raw)

	// List suffix binds last: map[str, int][] is a list of maps. The
	// remainder must be bracket-balanced so empty containers (ref[], map[])
	// reach their own branches instead of parsing as lists of 'ref'/'map'.
	if strings.HasSuffix(s, "[]") && bracketBalanced(s[:len(s)-2]) {
		elem, err := Parse(s[:len(s)-2], res, opts)
		if err != nil {
			return nil, err
		}
		return List{Elem: elem, raw: raw}, nil
	}

	if strings.HasPrefix(s, "map[") && strings.HasSuffix(s, "]") {
		return parseMap(raw, s, res, opts)
	}

	if strings.HasPrefix(s, "ref[") && strings.HasSuffix(s, "]") {
		target := s[len("ref[") : len(s)-1]
		if strings.TrimSpace(target) == "" {
			return nil, &SignatureError{Raw: raw, Reason: "ref requires a target path"}
		}
		// Target existence is the resolver's and validator's concern; the
		// grammar treats the path as opaque.
		return Ref{Target: strings.TrimSpace(target), raw: raw}, nil
	}

	if IsPrimitive(s) {
		return Primitive{Kind: PrimitiveKind(s), raw: raw}, nil
	}

	return parseNamed(raw, s, res, opts)
}

// parseMap parses map[K, V]. The key must be str, int, or an enumeration
// name; the value is recursively validated with its own errors propagating,
// so map[str,] fails as an invalid (empty) value type, not as a map-format
// error.
func parseMap(raw, s string, res Resolver, opts Options) (Signature, error) {
	content := s[len("map[") : len(s)-1]
	keyRaw, valueRaw, found := splitTopLevel(content)
	if !found {
		return nil, &MapFormatError{Raw: s}
	}

	key := strings.TrimSpace(keyRaw)
	var keySig Signature
	switch {
	case key == string(KindStr) || key == string(KindInt):
		keySig = Primitive{Kind: PrimitiveKind(key), raw: key}
	case isIdentifier(key) && !IsPrimitive(key):
		ns, name := SplitQualified(key)
		if !opts.Permissive && !res.HasEnum(name, lookupNS(ns, opts), opts.DefaultNamespace) {
			return nil, &MapKeyError{Key: key}
		}
		keySig = Named{Name: name, Namespace: ns, raw: key}
	default:
		return nil, &MapKeyError{Key: key}
	}

	valueSig, err := Parse(strings.TrimSpace(valueRaw), res, opts)
	if err != nil {
		return nil, err
	}
	return Map{Key: keySig, Value: valueSig, raw: raw}, nil
}

// parseNamed handles user-defined type and enumeration names, optionally
// namespace-qualified.
func parseNamed(raw, s string, res Resolver, opts Options) (Signature, error) {
	if !isIdentifier(s) {
		return nil, &UnknownTypeError{Name: s}
	}

	ns, name := SplitQualified(s)
	if opts.Permissive {
		return Named{Name: name, Namespace: ns, raw: raw}, nil
	}

	lookup := lookupNS(ns, opts)
	if res.HasType(name, lookup, opts.DefaultNamespace) || res.HasEnum(name, lookup, opts.DefaultNamespace) {
		return Named{Name: name, Namespace: ns, raw: raw}, nil
	}
	return nil, &UnknownTypeError{Name: s, Hints: res.NamespacesWithSymbol(name)}
}

// lookupNS picks the namespace a name resolves in: its explicit qualifier if
// present, else the declaring context's namespace.
func lookupNS(qualifier string, opts Options) string {
	if qualifier != "" {
		return qualifier
	}
	return opts.Namespace
}

// bracketBalanced reports whether every '[' in s is closed by a matching
// ']' with no close before its open.
func bracketBalanced(s string) bool {
	depth := 0
	for _, c := range s {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// splitTopLevel splits s on the first comma outside any bracket nesting.
func splitTopLevel(s string) (left, right string, found bool) {
	depth := 0
	for i, c := range s {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// isIdentifier reports whether s is a dotted identifier: one or more
// [A-Za-z_][A-Za-z0-9_]* segments joined by single dots.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			return false
		}
		for i, c := range seg {
			switch {
			case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			case c >= '0' && c <= '9':
				if i == 0 {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}
