package sig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver is a test double for registry lookups.
type fakeResolver struct {
	types map[string][]string // name -> namespaces containing it
	enums map[string][]string
}

func (f *fakeResolver) HasType(name, namespace, defaultNS string) bool {
	return hasIn(f.types, name, namespace, defaultNS)
}

func (f *fakeResolver) HasEnum(name, namespace, defaultNS string) bool {
	return hasIn(f.enums, name, namespace, defaultNS)
}

func (f *fakeResolver) NamespacesWithSymbol(name string) []string {
	var out []string
	out = append(out, f.types[name]...)
	out = append(out, f.enums[name]...)
	return out
}

func hasIn(m map[string][]string, name, namespace, defaultNS string) bool {
	for _, ns := range m[name] {
		if ns == namespace || ns == defaultNS {
			return true
		}
	}
	return false
}

func emptyResolver() *fakeResolver {
	return &fakeResolver{types: map[string][]string{}, enums: map[string][]string{}}
}

func TestParse_Primitives(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"int", "str", "bool", "float", "date", "datetime", "path", "url", "any", "type"} {
		got, err := Parse(name, emptyResolver(), Options{})
		require.NoError(t, err, name)
		assert.Equal(t, name, got.String())
		prim, ok := got.(Primitive)
		require.True(t, ok)
		assert.Equal(t, PrimitiveKind(name), prim.Kind)
	}
}

func TestParse_Lists(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		raw string
	}{
		"int list":        {raw: "int[]"},
		"str list":        {raw: "str[]"},
		"list of lists":   {raw: "int[][]"},
		"list of maps":    {raw: "map[str, int][]"},
		"list of refs":    {raw: "ref[Target.field][]"},
		"primitive types": {raw: "type[]"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.raw, emptyResolver(), Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.raw, got.String())
			_, ok := got.(List)
			assert.True(t, ok)
		})
	}
}

func TestParse_MapsValid(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		raw string
	}{
		"str int":      {raw: "map[str, int]"},
		"str str":      {raw: "map[str, str]"},
		"int bool":     {raw: "map[int, bool]"},
		"no space":     {raw: "map[str,int]"},
		"value list":   {raw: "map[str, int[]]"},
		"nested map":   {raw: "map[str, map[int, str]]"},
		"value is ref": {raw: "map[str, ref[model.name]]"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.raw, emptyResolver(), Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.raw, got.String())
			_, ok := got.(Map)
			assert.True(t, ok)
		})
	}
}

func TestParse_MapErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		raw     string
		wantErr string
	}{
		"bool key":      {raw: "map[bool, int]", wantErr: "Invalid map key type"},
		"float key":     {raw: "map[float, int]", wantErr: "Invalid map key type"},
		"missing comma": {raw: "map[str int]", wantErr: "Invalid map type format"},
		// map[str,] parses as key "str", value "": the recursive value check
		// rejects the empty signature, not the map-format check.
		"empty value":   {raw: "map[str,]", wantErr: "Type '' is not a valid primitive"},
		"unknown value": {raw: "map[str, Unknown]", wantErr: "Type 'Unknown' is not a valid primitive"},
		// Empty content is a format error, not a list of the type 'map'.
		"empty map": {raw: "map[]", wantErr: "Invalid map type format"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.raw, emptyResolver(), Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_MapErrorKinds(t *testing.T) {
	t.Parallel()

	_, err := Parse("map[bool, int]", emptyResolver(), Options{})
	assert.ErrorIs(t, err, ErrInvalidMapKey)

	_, err = Parse("map[str int]", emptyResolver(), Options{})
	assert.ErrorIs(t, err, ErrInvalidMapFormat)

	_, err = Parse("map[str,]", emptyResolver(), Options{})
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = Parse("map[]", emptyResolver(), Options{Permissive: true})
	assert.ErrorIs(t, err, ErrInvalidMapFormat)
}

func TestParse_Refs(t *testing.T) {
	t.Parallel()

	got, err := Parse("ref[SomeTarget]", emptyResolver(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "ref[SomeTarget]", got.String())
	assert.Equal(t, "SomeTarget", got.(Ref).Target)

	got, err = Parse("ref[Namespace.Target]", emptyResolver(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Namespace.Target", got.(Ref).Target)

	// An empty target is a shape error in both modes; the trailing [] must
	// not read as a list of the user type 'ref'.
	_, err = Parse("ref[]", emptyResolver(), Options{})
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Contains(t, err.Error(), "ref requires a target path")

	_, err = Parse("ref[]", emptyResolver(), Options{Permissive: true})
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParse_UserTypes(t *testing.T) {
	t.Parallel()

	res := &fakeResolver{
		types: map[string][]string{"MyType": {"default"}},
		enums: map[string][]string{"MyEnum": {"default"}},
	}
	opts := Options{DefaultNamespace: "default"}

	got, err := Parse("MyType", res, opts)
	require.NoError(t, err)
	assert.Equal(t, "MyType", got.String())

	got, err = Parse("MyEnum", res, opts)
	require.NoError(t, err)
	assert.Equal(t, "MyEnum", got.String())

	_, err = Parse("Missing", res, opts)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestParse_NamespaceHint(t *testing.T) {
	t.Parallel()

	res := &fakeResolver{
		types: map[string][]string{"SecretType": {"hidden_ns"}},
		enums: map[string][]string{},
	}

	_, err := Parse("SecretType", res, Options{DefaultNamespace: "default"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean one of: hidden_ns")
}

func TestParse_NamespaceHintSorted(t *testing.T) {
	t.Parallel()

	res := &fakeResolver{
		types: map[string][]string{"Dup": {"zeta", "alpha"}},
		enums: map[string][]string{"Dup": {"mid"}},
	}

	_, err := Parse("Dup", res, Options{DefaultNamespace: "default"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean one of: alpha, mid, zeta")
}

func TestParse_QualifiedNames(t *testing.T) {
	t.Parallel()

	res := &fakeResolver{
		types: map[string][]string{"Credentials": {"auth"}},
		enums: map[string][]string{},
	}

	got, err := Parse("auth.Credentials", res, Options{DefaultNamespace: "default"})
	require.NoError(t, err)
	named, ok := got.(Named)
	require.True(t, ok)
	assert.Equal(t, "Credentials", named.Name)
	assert.Equal(t, "auth", named.Namespace)

	// Unqualified lookup misses and names the owning namespace.
	_, err = Parse("Credentials", res, Options{DefaultNamespace: "default"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean one of: auth")
}

func TestParse_Permissive(t *testing.T) {
	t.Parallel()

	// Forward references: names need not exist yet.
	got, err := Parse("NotYetDefined", emptyResolver(), Options{Permissive: true})
	require.NoError(t, err)
	assert.Equal(t, "NotYetDefined", got.String())

	got, err = Parse("map[Color, str]", emptyResolver(), Options{Permissive: true})
	require.NoError(t, err)
	assert.Equal(t, "Color", got.(Map).Key.(Named).Name)

	// Shape errors still fail in permissive mode.
	_, err = Parse("map[str int]", emptyResolver(), Options{Permissive: true})
	assert.ErrorIs(t, err, ErrInvalidMapFormat)

	_, err = Parse("not an identifier", emptyResolver(), Options{Permissive: true})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestNamedRefsAndRefTargets(t *testing.T) {
	t.Parallel()

	got, err := Parse("map[Color, ref[model.name]][]", emptyResolver(), Options{Permissive: true})
	require.NoError(t, err)

	names := NamedRefs(got)
	require.Len(t, names, 1)
	assert.Equal(t, "Color", names[0].Name)

	refs := RefTargets(got)
	require.Len(t, refs, 1)
	assert.Equal(t, "model.name", refs[0])
}
