package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yasl-lang/yaql/internal/registry"
	"github.com/yasl-lang/yaql/internal/sig"
)

// resolve runs the fixed-point promotion loop over the pending definitions.
// Each pass promotes every definition whose dependencies resolve against the
// registry; promotions made earlier in a pass are visible to later ones, so
// an already-ordered chain resolves in a single pass and a reversed chain of
// N types needs at most N passes. The loop stops on the first pass that
// promotes nothing.
func (l *Loader) resolve(pending []*pendingType) ([]registry.TypeKey, error) {
	// Redefinition across documents of one load is an error before any
	// promotion mutates the registry.
	seen := map[registry.TypeKey]bool{}
	for _, p := range pending {
		if seen[p.key] {
			return nil, fmt.Errorf("%w: type '%s' is already defined", ErrDuplicateType, p.key)
		}
		seen[p.key] = true
	}

	byKey := map[registry.TypeKey]*pendingType{}
	for _, p := range pending {
		byKey[p.key] = p
	}

	var resolved []registry.TypeKey
	remaining := append([]*pendingType(nil), pending...)

	for len(remaining) > 0 {
		promoted := 0
		var next []*pendingType

		for _, p := range remaining {
			if !l.resolvable(p, byKey) {
				next = append(next, p)
				continue
			}
			if err := l.promote(p); err != nil {
				return nil, err
			}
			resolved = append(resolved, p.key)
			promoted++
			l.rep.Debugf("resolved type %s", p.key)
		}

		if promoted == 0 {
			names := make([]string, 0, len(next))
			for _, p := range next {
				names = append(names, p.key.Name)
			}
			sort.Strings(names)
			return nil, &CircularDependencyError{Pending: names}
		}
		remaining = next
	}

	sort.Slice(resolved, func(i, j int) bool {
		if resolved[i].Namespace != resolved[j].Namespace {
			return resolved[i].Namespace < resolved[j].Namespace
		}
		return resolved[i].Name < resolved[j].Name
	})
	return resolved, nil
}

// resolvable reports whether every user-type and ref-target dependency of
// the pending definition exists in the registry. Ref targets may also name a
// definition in the same load's pending set (including the definition
// itself, so self-referential types like Node{child: ref[Node.id]} promote);
// the validator defers ref fields at runtime for the same reason.
func (l *Loader) resolvable(p *pendingType, pending map[registry.TypeKey]*pendingType) bool {
	for _, prop := range p.props {
		for _, named := range sig.NamedRefs(prop.sig) {
			ns := named.Namespace
			if ns == "" {
				ns = p.key.Namespace
			}
			if l.reg.HasType(named.Name, ns, registry.DefaultNamespace) {
				continue
			}
			if l.reg.HasEnum(named.Name, ns, registry.DefaultNamespace) {
				continue
			}
			return false
		}
		for _, target := range sig.RefTargets(prop.sig) {
			if _, ok := l.reg.ResolveRefTarget(target, p.key.Namespace); ok {
				continue
			}
			if l.refPendingResolvable(target, p.key.Namespace, pending) {
				continue
			}
			return false
		}
	}
	return true
}

// refPendingResolvable mirrors registry.ResolveRefTarget against the pending
// set: the preferred type-plus-field reading first, then the type-only
// fallback.
func (l *Loader) refPendingResolvable(target, namespace string, pending map[registry.TypeKey]*pendingType) bool {
	segs := strings.Split(target, ".")

	if len(segs) >= 2 {
		typeName := segs[len(segs)-2]
		fieldName := segs[len(segs)-1]
		lookupNS := strings.Join(segs[:len(segs)-2], ".")
		if lookupNS == "" {
			lookupNS = namespace
		}
		if pendingHasField(pending, typeName, lookupNS, fieldName) {
			return true
		}
	}

	typeName := segs[len(segs)-1]
	lookupNS := strings.Join(segs[:len(segs)-1], ".")
	if lookupNS == "" {
		lookupNS = namespace
	}
	if _, ok := pending[registry.TypeKey{Name: typeName, Namespace: lookupNS}]; ok {
		return true
	}
	_, ok := pending[registry.TypeKey{Name: typeName, Namespace: registry.DefaultNamespace}]
	return ok
}

func pendingHasField(pending map[registry.TypeKey]*pendingType, typeName, namespace, fieldName string) bool {
	for _, ns := range []string{namespace, registry.DefaultNamespace} {
		p, ok := pending[registry.TypeKey{Name: typeName, Namespace: ns}]
		if !ok {
			continue
		}
		for _, prop := range p.props {
			if prop.name == fieldName {
				return true
			}
		}
	}
	return false
}

// promote generates the concrete record type for a pending definition and
// registers it.
func (l *Loader) promote(p *pendingType) error {
	rt := &registry.RecordType{
		Name:      p.key.Name,
		Namespace: p.key.Namespace,
		Nested:    p.nested,
		Desc:      p.desc,
	}
	for _, prop := range p.props {
		rt.Fields = append(rt.Fields, registry.Field{
			Name:     prop.name,
			Raw:      prop.raw,
			Type:     prop.sig,
			Presence: prop.presence,
			Unique:   prop.unique,
			Default:  prop.def,
			Desc:     prop.desc,
		})
	}
	return l.reg.RegisterType(rt)
}
