package validate

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/yasl-lang/yaql/internal/registry"
	"github.com/yasl-lang/yaql/internal/sig"
)

const dateLayout = "2006-01-02"

// checkValue validates value against the signature and returns the
// materialized (typed) value. ns is the namespace of the declaring type;
// path names the field for diagnostics, extended through containers
// (items.id, data.key1).
func (v *Validator) checkValue(s sig.Signature, value any, ns, path string) (any, error) {
	switch t := s.(type) {
	case sig.Primitive:
		return v.checkPrimitive(t, value, ns, path)
	case sig.List:
		return v.checkList(t, value, ns, path)
	case sig.Map:
		return v.checkMap(t, value, ns, path)
	case sig.Ref:
		return v.checkRef(t, value, ns, path)
	case sig.Named:
		return v.checkNamed(t, value, ns, path)
	default:
		return nil, &TypeMismatchError{Field: path, Declared: s.String(), Value: value}
	}
}

func (v *Validator) checkPrimitive(p sig.Primitive, value any, ns, path string) (any, error) {
	fail := func(reason string) (any, error) {
		return nil, &TypeMismatchError{Field: path, Declared: string(p.Kind), Value: value, Reason: reason}
	}

	switch p.Kind {
	case sig.KindAny:
		return value, nil

	case sig.KindInt:
		switch n := value.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case uint64:
			return int(n), nil
		}
		return fail(fmt.Sprintf("expected int, got '%v'", value))

	case sig.KindFloat:
		switch n := value.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return fail(fmt.Sprintf("expected float, got '%v'", value))

	case sig.KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return fail(fmt.Sprintf("expected bool, got '%v'", value))

	case sig.KindStr, sig.KindPath:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fail(fmt.Sprintf("expected %s, got '%v'", p.Kind, value))

	case sig.KindURL:
		s, ok := value.(string)
		if !ok {
			return fail(fmt.Sprintf("expected url, got '%v'", value))
		}
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" {
			return fail(fmt.Sprintf("'%v' is not a valid url", value))
		}
		return s, nil

	case sig.KindDate:
		switch d := value.(type) {
		case time.Time:
			return d, nil
		case string:
			parsed, err := time.Parse(dateLayout, d)
			if err != nil {
				return fail(fmt.Sprintf("'%v' is not a valid date (expected YYYY-MM-DD)", value))
			}
			return parsed, nil
		}
		return fail(fmt.Sprintf("expected date, got '%v'", value))

	case sig.KindDatetime:
		switch d := value.(type) {
		case time.Time:
			return d, nil
		case string:
			parsed, err := time.Parse(time.RFC3339, d)
			if err != nil {
				return fail(fmt.Sprintf("'%v' is not a valid datetime (expected RFC 3339)", value))
			}
			return parsed, nil
		}
		return fail(fmt.Sprintf("expected datetime, got '%v'", value))

	case sig.KindType:
		// The value is itself a type signature, validated strictly against
		// the live registry so namespace mistakes get the did-you-mean hint.
		s, ok := value.(string)
		if !ok {
			return fail(fmt.Sprintf("expected a type signature string, got '%v'", value))
		}
		if _, err := sig.Parse(s, v.reg, sig.Options{
			Namespace:        ns,
			DefaultNamespace: registry.DefaultNamespace,
		}); err != nil {
			return nil, &TypeMismatchError{Field: path, Declared: "type", Value: value, Reason: err.Error()}
		}
		return s, nil
	}

	return fail(fmt.Sprintf("unsupported primitive '%s'", p.Kind))
}

func (v *Validator) checkList(l sig.List, value any, ns, path string) (any, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, &TypeMismatchError{Field: path, Declared: l.String(), Value: value,
			Reason: fmt.Sprintf("expected a list, got '%v'", value)}
	}
	out := make([]any, 0, len(items))
	for i, item := range items {
		typed, err := v.checkValue(l.Elem, item, ns, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, typed)
	}
	return out, nil
}

func (v *Validator) checkMap(m sig.Map, value any, ns, path string) (any, error) {
	entries, ok := value.(map[string]any)
	if !ok {
		return nil, &TypeMismatchError{Field: path, Declared: m.String(), Value: value,
			Reason: fmt.Sprintf("expected a mapping, got '%v'", value)}
	}

	out := make(map[string]any, len(entries))
	for key, raw := range entries {
		if err := v.checkMapKey(m.Key, key, ns, path); err != nil {
			return nil, err
		}
		typed, err := v.checkValue(m.Value, raw, ns, path+"."+key)
		if err != nil {
			return nil, err
		}
		out[key] = typed
	}
	return out, nil
}

// checkMapKey validates one map key against the key signature: int keys
// must parse as integers, enum keys must be members of the enumeration.
func (v *Validator) checkMapKey(keySig sig.Signature, key, ns, path string) error {
	switch k := keySig.(type) {
	case sig.Primitive:
		if k.Kind == sig.KindInt {
			if _, err := strconv.Atoi(key); err != nil {
				return &TypeMismatchError{Field: path, Declared: "int", Value: key,
					Reason: fmt.Sprintf("map key '%s' is not an int", key)}
			}
		}
		return nil
	case sig.Named:
		lookupNS := k.Namespace
		if lookupNS == "" {
			lookupNS = ns
		}
		enum := v.reg.GetEnum(k.Name, lookupNS, registry.DefaultNamespace)
		if enum == nil {
			return &TypeMismatchError{Field: path, Declared: k.String(), Value: key,
				Reason: fmt.Sprintf("enumeration '%s' is not registered", k.String())}
		}
		if !enum.Contains(key) {
			return &TypeMismatchError{Field: path, Declared: k.String(), Value: key,
				Reason: fmt.Sprintf("map key '%s' is not a member of enumeration '%s'", key, k.String())}
		}
		return nil
	}
	return &TypeMismatchError{Field: path, Declared: keySig.String(), Value: key,
		Reason: "unsupported map key signature"}
}

// checkRef validates a ref[...] value: the target path must resolve against
// the registry and the value must have been recorded in the uniqueness index
// for the target type and field, by this load or an earlier one.
func (v *Validator) checkRef(r sig.Ref, value any, ns, path string) (any, error) {
	target, ok := v.reg.ResolveRefTarget(r.Target, ns)
	if !ok || target.Field == "" {
		return nil, &DanglingReferenceError{Target: r.Target, Value: value}
	}
	if !v.reg.UniqueValueExists(target.Type.Name, target.Field, value, target.Type.Namespace) {
		return nil, &DanglingReferenceError{Target: r.Target, Value: value}
	}
	return value, nil
}

// checkNamed validates a user-type or enumeration value. Record values
// recurse into the full validation procedure; nested uniqueness constraints
// write into the same registry-level index.
func (v *Validator) checkNamed(n sig.Named, value any, ns, path string) (any, error) {
	lookupNS := n.Namespace
	if lookupNS == "" {
		lookupNS = ns
	}

	if enum := v.reg.GetEnum(n.Name, lookupNS, registry.DefaultNamespace); enum != nil {
		s, ok := value.(string)
		if !ok || !enum.Contains(s) {
			return nil, &TypeMismatchError{Field: path, Declared: n.String(), Value: value,
				Reason: fmt.Sprintf("value '%v' is not a member of enumeration '%s'", value, n.String())}
		}
		return s, nil
	}

	rt := v.reg.GetType(n.Name, lookupNS, registry.DefaultNamespace)
	if rt == nil {
		return nil, &TypeMismatchError{Field: path, Declared: n.String(), Value: value,
			Reason: (&sig.UnknownTypeError{Name: n.String(), Hints: v.reg.NamespacesWithSymbol(n.Name)}).Error()}
	}

	fields, ok := value.(map[string]any)
	if !ok {
		return nil, &TypeMismatchError{Field: path, Declared: n.String(), Value: value,
			Reason: fmt.Sprintf("expected a '%s' mapping, got '%v'", n.String(), value)}
	}

	rec, err := v.validateRecord(rt, fields)
	if err != nil {
		return nil, fmt.Errorf("in nested '%s' at '%s': %w", rt.Key(), path, err)
	}
	return rec.Values, nil
}
