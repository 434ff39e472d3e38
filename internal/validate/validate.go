// Package validate checks parsed data documents against resolved record
// types: field presence, type conformance (including nested records, lists,
// maps, refs, and type-valued fields), and uniqueness constraints. A batch
// of documents validates all-or-nothing; diagnostics go to the reporting
// sink and the caller receives either the materialized records or nil.
package validate

import (
	"fmt"

	"github.com/yasl-lang/yaql/internal/diag"
	"github.com/yasl-lang/yaql/internal/registry"
	"github.com/yasl-lang/yaql/internal/sig"
)

// Document is one parsed YAML-style document paired with the line of its
// root node for diagnostics. Line provenance never reaches exported or
// persisted data.
type Document struct {
	Fields map[string]any
	Line   int
}

// Record is a validated instance of a record type. Records are owned by the
// caller; the registry keeps no reference to them.
type Record struct {
	Type   *registry.RecordType
	Values map[string]any
	Line   int
}

// Get returns the value of the named field, or nil when unset.
func (r *Record) Get(name string) any { return r.Values[name] }

// Validator validates documents against the registry.
type Validator struct {
	reg *registry.Registry
	rep *diag.Reporter
}

// New returns a validator over reg, reporting to rep.
func New(reg *registry.Registry, rep *diag.Reporter) *Validator {
	if rep == nil {
		rep = diag.Nop()
	}
	return &Validator{reg: reg, rep: rep}
}

// Validate validates every document against the named record type
// (namespace-qualified or bare; inferred per document when empty). The batch
// is all-or-nothing: the first hard failure emits a ❌ diagnostic and
// returns nil with the error. Full success emits the "data validation
// successful" line.
func (v *Validator) Validate(docs []Document, typeName string) ([]*Record, error) {
	records := make([]*Record, 0, len(docs))
	for i, doc := range docs {
		rt, err := v.targetType(doc, typeName)
		if err != nil {
			v.rep.Failf("document %d (line %d): %v", i+1, doc.Line, err)
			return nil, err
		}

		rec, err := v.validateRecord(rt, doc.Fields)
		if err != nil {
			v.rep.Failf("validation failed for '%s' (line %d): %v", rt.Key(), doc.Line, err)
			return nil, err
		}
		rec.Line = doc.Line
		records = append(records, rec)
		v.rep.Debugf("validated '%s' document at line %d", rt.Key(), doc.Line)
	}

	v.rep.Successf("data validation successful")
	return records, nil
}

// targetType resolves the record type a document validates against.
func (v *Validator) targetType(doc Document, typeName string) (*registry.RecordType, error) {
	if typeName != "" {
		ns, name := sig.SplitQualified(typeName)
		if ns == "" {
			ns = registry.DefaultNamespace
		}
		rt := v.reg.GetType(name, ns, registry.DefaultNamespace)
		if rt == nil {
			hints := v.reg.NamespacesWithSymbol(name)
			if len(hints) > 0 {
				return nil, fmt.Errorf("%w: %v", ErrUnknownTargetType,
					&sig.UnknownTypeError{Name: typeName, Hints: hints})
			}
			return nil, fmt.Errorf("%w: no type named '%s' is registered", ErrUnknownTargetType, typeName)
		}
		return rt, nil
	}
	return v.inferType(doc)
}

// inferType picks the single top-level type whose fields cover the
// document's keys and whose required fields all appear in it.
func (v *Validator) inferType(doc Document) (*registry.RecordType, error) {
	var matches []*registry.RecordType
	for _, rt := range v.reg.Types() {
		if rt.Nested {
			continue
		}
		if typeCovers(rt, doc.Fields) {
			matches = append(matches, rt)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, fmt.Errorf("%w: no registered type matches the document", ErrUnknownTargetType)
	default:
		names := make([]string, len(matches))
		for i, rt := range matches {
			names[i] = rt.Key().String()
		}
		return nil, fmt.Errorf("%w: document matches multiple types: %v", ErrAmbiguousTargetType, names)
	}
}

func typeCovers(rt *registry.RecordType, fields map[string]any) bool {
	for key := range fields {
		if _, ok := rt.FieldByName(key); !ok {
			return false
		}
	}
	for _, f := range rt.Fields {
		if f.Required() {
			if _, ok := fields[f.Name]; !ok {
				return false
			}
		}
	}
	return true
}

// validateRecord walks the type's fields. Per field the checks run
// presence, then conformance, then uniqueness, short-circuiting on the
// first failure. Ref-bearing fields validate after every other field of the
// record, so a self-referential record (child: ref[Node.id] next to a
// unique id) sees its own unique values in the index. Document keys with no
// matching field are ignored.
func (v *Validator) validateRecord(rt *registry.RecordType, fields map[string]any) (*Record, error) {
	rec := &Record{Type: rt, Values: map[string]any{}}

	var deferred []registry.Field
	for _, f := range rt.Fields {
		if len(sig.RefTargets(f.Type)) > 0 {
			deferred = append(deferred, f)
			continue
		}
		if err := v.validateField(rt, rec, f, fields); err != nil {
			return nil, err
		}
	}
	for _, f := range deferred {
		if err := v.validateField(rt, rec, f, fields); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (v *Validator) validateField(rt *registry.RecordType, rec *Record, f registry.Field, fields map[string]any) error {
	value, present := fields[f.Name]
	if !present || value == nil {
		if f.Required() {
			return &MissingFieldError{Field: f.Name}
		}
		if f.Default != nil {
			rec.Values[f.Name] = f.Default
		}
		return nil
	}

	typed, err := v.checkValue(f.Type, value, rt.Namespace, f.Name)
	if err != nil {
		return err
	}

	if f.Unique {
		if v.reg.UniqueValueExists(rt.Name, f.Name, typed, rt.Namespace) {
			return &DuplicateValueError{Field: f.Name, Value: typed}
		}
		v.reg.RecordUniqueValue(rt.Name, f.Name, typed, rt.Namespace)
	}

	rec.Values[f.Name] = typed
	return nil
}
