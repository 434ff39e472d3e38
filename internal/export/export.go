// Package export serializes the registry's resolved schema back into YASL
// document form. Declared signature strings are emitted verbatim and
// nested-only types are excluded, so a stored schema reloads to the same
// top-level registry contents.
package export

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/yasl-lang/yaql/internal/registry"
)

// SchemaYAML renders every top-level type and enumeration in reg as a YASL
// schema document. Namespaces, types, enumerations, and properties are
// emitted in sorted order.
func SchemaYAML(reg *registry.Registry) ([]byte, error) {
	byNS := map[string]*nsBody{}

	for key, rt := range reg.Types() {
		if rt.Nested {
			continue
		}
		ns := bodyFor(byNS, key.Namespace)
		ns.types = append(ns.types, rt)
	}
	for key, e := range reg.Enums() {
		ns := bodyFor(byNS, key.Namespace)
		ns.enums = append(ns.enums, e)
	}

	defs := mappingNode()
	for _, ns := range sortedNS(byNS) {
		defs.Content = append(defs.Content, scalarNode(ns), byNS[ns].node())
	}

	root := mappingNode()
	root.Content = append(root.Content, scalarNode("definitions"), defs)

	out, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("exporting schema: %w", err)
	}
	return out, nil
}

type nsBody struct {
	types []*registry.RecordType
	enums []*registry.Enum
}

func bodyFor(m map[string]*nsBody, ns string) *nsBody {
	b := m[ns]
	if b == nil {
		b = &nsBody{}
		m[ns] = b
	}
	return b
}

func sortedNS(m map[string]*nsBody) []string {
	out := make([]string, 0, len(m))
	for ns := range m {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

func (b *nsBody) node() *yaml.Node {
	body := mappingNode()

	if len(b.enums) > 0 {
		sort.Slice(b.enums, func(i, j int) bool { return b.enums[i].Name < b.enums[j].Name })
		enums := mappingNode()
		for _, e := range b.enums {
			enums.Content = append(enums.Content, scalarNode(e.Name), enumNode(e))
		}
		body.Content = append(body.Content, scalarNode("enums"), enums)
	}

	if len(b.types) > 0 {
		sort.Slice(b.types, func(i, j int) bool { return b.types[i].Name < b.types[j].Name })
		types := mappingNode()
		for _, rt := range b.types {
			types.Content = append(types.Content, scalarNode(rt.Name), typeNode(rt))
		}
		body.Content = append(body.Content, scalarNode("types"), types)
	}

	return body
}

func enumNode(e *registry.Enum) *yaml.Node {
	n := mappingNode()
	if e.Desc != "" {
		n.Content = append(n.Content, scalarNode("description"), scalarNode(e.Desc))
	}
	values := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range e.Values {
		values.Content = append(values.Content, scalarNode(v))
	}
	n.Content = append(n.Content, scalarNode("values"), values)
	return n
}

func typeNode(rt *registry.RecordType) *yaml.Node {
	n := mappingNode()
	if rt.Desc != "" {
		n.Content = append(n.Content, scalarNode("description"), scalarNode(rt.Desc))
	}

	props := mappingNode()
	fields := append([]registry.Field(nil), rt.Fields...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	for _, f := range fields {
		props.Content = append(props.Content, scalarNode(f.Name), fieldNode(f))
	}
	n.Content = append(n.Content, scalarNode("properties"), props)
	return n
}

func fieldNode(f registry.Field) *yaml.Node {
	n := mappingNode()
	n.Content = append(n.Content, scalarNode("type"), scalarNode(f.Raw))
	if f.Required() {
		n.Content = append(n.Content, scalarNode("presence"), scalarNode("required"))
	}
	if f.Unique {
		n.Content = append(n.Content, scalarNode("unique"), boolNode(true))
	}
	if f.Default != nil {
		def := &yaml.Node{}
		if err := def.Encode(f.Default); err == nil {
			n.Content = append(n.Content, scalarNode("default"), def)
		}
	}
	if f.Desc != "" {
		n.Content = append(n.Content, scalarNode("description"), scalarNode(f.Desc))
	}
	return n
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func scalarNode(s string) *yaml.Node {
	n := &yaml.Node{}
	_ = n.Encode(s)
	return n
}

func boolNode(b bool) *yaml.Node {
	n := &yaml.Node{}
	_ = n.Encode(b)
	return n
}
