// Package loader parses raw schema documents into pending type definitions
// and resolves them into registry-owned record types. Resolution is a
// fixed-point worklist: every pass promotes each pending definition whose
// dependencies already resolve, and a pass that promotes nothing with
// definitions left over is an unresolvable dependency chain.
package loader

import (
	"fmt"
	"sort"

	"github.com/yasl-lang/yaql/internal/diag"
	"github.com/yasl-lang/yaql/internal/registry"
	"github.com/yasl-lang/yaql/internal/sig"
)

// pendingProp is a property of a not-yet-resolved type definition.
type pendingProp struct {
	name     string
	raw      string
	sig      sig.Signature
	presence registry.Presence
	unique   bool
	def      any
	desc     string
}

// pendingType is a declared type awaiting resolution of its dependencies.
type pendingType struct {
	key    registry.TypeKey
	props  []pendingProp
	nested bool
	desc   string
}

// Loader builds pending definitions from schema documents and resolves them
// against a registry.
type Loader struct {
	reg *registry.Registry
	rep *diag.Reporter
}

// New returns a loader targeting reg, reporting diagnostics to rep.
func New(reg *registry.Registry, rep *diag.Reporter) *Loader {
	if rep == nil {
		rep = diag.Nop()
	}
	return &Loader{reg: reg, rep: rep}
}

// LoadSchema parses one or more schema documents and resolves every type
// definition they declare, returning the newly resolved TypeKeys sorted by
// name. Enumerations resolve immediately; types go through the multi-pass
// resolver. A failed load registers nothing beyond enumerations and types
// promoted in earlier completed passes; pending definitions are discarded.
func (l *Loader) LoadSchema(docs ...map[string]any) ([]registry.TypeKey, error) {
	var pending []*pendingType
	for i, doc := range docs {
		p, err := l.parseDocument(doc, i)
		if err != nil {
			l.rep.Failf("%v", err)
			return nil, err
		}
		pending = append(pending, p...)
	}

	keys, err := l.resolve(pending)
	if err != nil {
		l.rep.Failf("%v", err)
		return nil, err
	}

	l.rep.Debugf("schema load resolved %d type(s)", len(keys))
	return keys, nil
}

// CheckSchema reports whether the documents form a structurally valid,
// fully resolvable schema set.
func (l *Loader) CheckSchema(docs ...map[string]any) bool {
	_, err := l.LoadSchema(docs...)
	if err != nil {
		return false
	}
	l.rep.Successf("schema validation successful")
	return true
}

// parseDocument parses one {metadata?, definitions: ...} tree into pending
// type definitions, registering enumerations as it goes.
func (l *Loader) parseDocument(doc map[string]any, index int) ([]*pendingType, error) {
	defs, ok := doc["definitions"]
	if !ok {
		return nil, &SchemaError{Context: fmt.Sprintf("document %d", index+1), Reason: "missing 'definitions' section"}
	}
	defsMap, ok := defs.(map[string]any)
	if !ok {
		return nil, &SchemaError{Context: fmt.Sprintf("document %d", index+1), Reason: "'definitions' must be a mapping of namespaces"}
	}

	var pending []*pendingType
	for _, ns := range sortedKeys(defsMap) {
		body, ok := defsMap[ns].(map[string]any)
		if !ok {
			return nil, &SchemaError{Context: "namespace " + ns, Reason: "namespace body must be a mapping"}
		}

		if enums, ok := body["enums"]; ok {
			if err := l.parseEnums(ns, enums); err != nil {
				return nil, err
			}
		}
		if types, ok := body["types"]; ok {
			p, err := l.parseTypes(ns, types, pending)
			if err != nil {
				return nil, err
			}
			pending = append(pending, p...)
		}
	}
	return pending, nil
}

// parseEnums registers every enumeration in the namespace. Both the list
// shorthand (Color: [red, green]) and the mapping form with a values key are
// accepted.
func (l *Loader) parseEnums(ns string, raw any) error {
	enums, ok := raw.(map[string]any)
	if !ok {
		return &SchemaError{Context: "namespace " + ns, Reason: "'enums' must be a mapping"}
	}

	for _, name := range sortedKeys(enums) {
		e := &registry.Enum{Name: name, Namespace: ns}
		switch body := enums[name].(type) {
		case []any:
			values, err := stringList(body)
			if err != nil {
				return &SchemaError{Context: enumContext(ns, name), Reason: err.Error()}
			}
			e.Values = values
		case map[string]any:
			rawValues, ok := body["values"].([]any)
			if !ok {
				return &SchemaError{Context: enumContext(ns, name), Reason: "enumeration requires a 'values' list"}
			}
			values, err := stringList(rawValues)
			if err != nil {
				return &SchemaError{Context: enumContext(ns, name), Reason: err.Error()}
			}
			e.Values = values
			e.Desc, _ = body["description"].(string)
		default:
			return &SchemaError{Context: enumContext(ns, name), Reason: "enumeration must be a list of values or a mapping"}
		}

		if err := l.reg.RegisterEnum(e); err != nil {
			return fmt.Errorf("%w: %v", ErrDuplicateType, err)
		}
	}
	return nil
}

// parseTypes builds pending definitions for every type in the namespace.
func (l *Loader) parseTypes(ns string, raw any, sibling []*pendingType) ([]*pendingType, error) {
	types, ok := raw.(map[string]any)
	if !ok {
		return nil, &SchemaError{Context: "namespace " + ns, Reason: "'types' must be a mapping"}
	}

	var out []*pendingType
	for _, name := range sortedKeys(types) {
		body, ok := types[name].(map[string]any)
		if !ok {
			return nil, &SchemaError{Context: typeContext(ns, name), Reason: "type definition must be a mapping"}
		}

		key := registry.TypeKey{Name: name, Namespace: ns}
		if l.reg.GetType(name, ns, "") != nil || containsKey(sibling, key) || containsKey(out, key) {
			return nil, fmt.Errorf("%w: type '%s' is already defined", ErrDuplicateType, key)
		}

		p := &pendingType{key: key}
		p.desc, _ = body["description"].(string)

		props, ok := body["properties"].(map[string]any)
		if !ok {
			return nil, &SchemaError{Context: typeContext(ns, name), Reason: "type definition requires a 'properties' mapping"}
		}

		for _, propName := range sortedKeys(props) {
			nested, err := l.parseProperty(p, ns, name, propName, props[propName])
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
		out = append(out, p)
	}
	return out, nil
}

// parseProperty parses a single property definition onto p. A property
// declared with an inline 'properties' mapping instead of a type string
// produces an implementation-internal nested record type named
// Parent_prop, which is returned for resolution alongside the top-level
// definitions but tagged nested-only.
func (l *Loader) parseProperty(p *pendingType, ns, typeName, propName string, raw any) ([]*pendingType, error) {
	ctx := fmt.Sprintf("%s.%s", typeContext(ns, typeName), propName)

	body, ok := raw.(map[string]any)
	if !ok {
		return nil, &SchemaError{Context: ctx, Reason: "property definition must be a mapping"}
	}

	prop := pendingProp{name: propName, presence: registry.PresenceOptional}
	var nested []*pendingType

	if inline, ok := body["properties"].(map[string]any); ok {
		// Inline nested type.
		nestedName := typeName + "_" + propName
		np := &pendingType{key: registry.TypeKey{Name: nestedName, Namespace: ns}, nested: true}
		for _, innerName := range sortedKeys(inline) {
			more, err := l.parseProperty(np, ns, nestedName, innerName, inline[innerName])
			if err != nil {
				return nil, err
			}
			nested = append(nested, more...)
		}
		nested = append(nested, np)

		prop.raw = nestedName
		prop.sig = sig.Named{Name: nestedName}
	} else {
		rawType, ok := body["type"].(string)
		if !ok || rawType == "" {
			return nil, &SchemaError{Context: ctx, Reason: "property requires a 'type' string"}
		}
		// Permissive parse: user-type targets may be defined later in the
		// same load (forward references across types and files).
		parsed, err := sig.Parse(rawType, l.reg, sig.Options{
			Permissive:       true,
			Namespace:        ns,
			DefaultNamespace: registry.DefaultNamespace,
		})
		if err != nil {
			return nil, fmt.Errorf("invalid schema at %s: %w", ctx, err)
		}
		prop.raw = rawType
		prop.sig = parsed
	}

	if presence, ok := body["presence"]; ok {
		s, _ := presence.(string)
		switch s {
		case "required":
			prop.presence = registry.PresenceRequired
		case "optional":
			prop.presence = registry.PresenceOptional
		default:
			return nil, &SchemaError{Context: ctx, Reason: fmt.Sprintf("presence must be 'required' or 'optional', got '%v'", presence)}
		}
	}
	if unique, ok := body["unique"]; ok {
		b, ok := unique.(bool)
		if !ok {
			return nil, &SchemaError{Context: ctx, Reason: "'unique' must be a boolean"}
		}
		prop.unique = b
	}
	prop.def = body["default"]
	prop.desc, _ = body["description"].(string)

	p.props = append(p.props, prop)
	return nested, nil
}

func enumContext(ns, name string) string { return fmt.Sprintf("enum %s.%s", ns, name) }
func typeContext(ns, name string) string { return fmt.Sprintf("type %s.%s", ns, name) }

func containsKey(pending []*pendingType, key registry.TypeKey) bool {
	for _, p := range pending {
		if p.key == key {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringList(raw []any) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("values must be strings, got %T", v)
		}
		out = append(out, s)
	}
	return out, nil
}
