package validate

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/yasl-lang/yaql/internal/diag"
	"github.com/yasl-lang/yaql/internal/loader"
	"github.com/yasl-lang/yaql/internal/registry"
)

// loadSchema parses and loads a schema document into reg.
func loadSchema(t *testing.T, reg *registry.Registry, src string) {
	t.Helper()
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	_, err := loader.New(reg, nil).LoadSchema(doc)
	require.NoError(t, err)
}

// docsFrom decodes a multi-document YAML stream into validation documents.
func docsFrom(t *testing.T, src string) []Document {
	t.Helper()
	dec := yaml.NewDecoder(strings.NewReader(src))
	var docs []Document
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		var fields map[string]any
		require.NoError(t, node.Decode(&fields))
		docs = append(docs, Document{Fields: fields, Line: node.Line})
	}
	return docs
}

const configSchema = `
definitions:
  main:
    types:
      Config:
        properties:
          target_type:
            type: type
`

func TestValidate_TypeKeywordPrimitives(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, configSchema)

	for _, value := range []string{"int", "str", "bool", "float", "date", "datetime", "path", "url", "any"} {
		var log bytes.Buffer
		v := New(reg, diag.New(&log, false))
		records, err := v.Validate([]Document{{Fields: map[string]any{"target_type": value}}}, "main.Config")
		require.NoError(t, err, value)
		require.Len(t, records, 1)
		assert.Equal(t, value, records[0].Get("target_type"))
		assert.Contains(t, log.String(), "data validation successful")
	}
}

func TestValidate_TypeKeywordComplexSyntax(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, configSchema+`
          extra:
            type: str
`)

	for _, value := range []string{"int[]", "map[str, int]", "ref[SomeType.some_prop]"} {
		records, err := New(reg, nil).Validate(
			[]Document{{Fields: map[string]any{"target_type": value}}}, "main.Config")
		require.NoError(t, err, value)
		require.Len(t, records, 1)
	}
}

func TestValidate_TypeKeywordUnknownType(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, configSchema)

	var log bytes.Buffer
	records, err := New(reg, diag.New(&log, false)).Validate(
		[]Document{{Fields: map[string]any{"target_type": "UnknownType"}}}, "main.Config")
	require.Error(t, err)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "Type 'UnknownType' is not a valid primitive")
	assert.Contains(t, log.String(), diag.FailGlyph)
}

func TestValidate_TypeKeywordUserTypes(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  main:
    types:
      User:
        properties:
          name:
            type: str
      Group:
        properties:
          members:
            type: User[]
      MetaConfig:
        properties:
          entity_type:
            type: type
`)

	for _, value := range []string{"User", "Group", "User[]"} {
		records, err := New(reg, nil).Validate(
			[]Document{{Fields: map[string]any{"entity_type": value}}}, "main.MetaConfig")
		require.NoError(t, err, value)
		require.Len(t, records, 1)
	}
}

func TestValidate_TypeKeywordNamespaces(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  auth:
    types:
      Credentials:
        properties:
          token:
            type: str
  main:
    types:
      AppConfig:
        properties:
          auth_model:
            type: type
`)

	// Qualified reference to another namespace validates.
	records, err := New(reg, nil).Validate(
		[]Document{{Fields: map[string]any{"auth_model": "auth.Credentials"}}}, "main.AppConfig")
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Unqualified reference fails with the namespace suggestion.
	var log bytes.Buffer
	_, err = New(reg, diag.New(&log, false)).Validate(
		[]Document{{Fields: map[string]any{"auth_model": "Credentials"}}}, "main.AppConfig")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean one of: auth")
	assert.Contains(t, log.String(), diag.FailGlyph)
}

func TestValidate_MissingRequiredField(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  main:
    types:
      User:
        properties:
          name:
            type: str
            presence: required
          age:
            type: int
`)

	_, err := New(reg, nil).Validate(
		[]Document{{Fields: map[string]any{"age": 30}}}, "main.User")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
	assert.Contains(t, err.Error(), "Missing required field 'name'")

	// Optional fields may be absent.
	records, err := New(reg, nil).Validate(
		[]Document{{Fields: map[string]any{"name": "ada"}}}, "main.User")
	require.NoError(t, err)
	assert.Nil(t, records[0].Get("age"))
}

func TestValidate_PrimitiveConformance(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  main:
    types:
      Mixed:
        properties:
          count:
            type: int
          ratio:
            type: float
          active:
            type: bool
          home:
            type: url
          born:
            type: date
          seen:
            type: datetime
`)

	v := New(reg, nil)

	records, err := v.Validate(docsFrom(t, `
count: 3
ratio: 0.5
active: true
home: https://example.com
born: 1815-12-10
seen: 2026-08-29T10:00:00Z
`), "main.Mixed")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Get("count"))

	tests := map[string]map[string]any{
		"string for int":  {"count": "three"},
		"int for bool":    {"active": 1},
		"bad url":         {"home": "not a url"},
		"bad date":        {"born": "12/10/1815"},
		"list for scalar": {"count": []any{1}},
	}
	for name, fields := range tests {
		fields := fields
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := v.Validate([]Document{{Fields: fields}}, "main.Mixed")
			assert.ErrorIs(t, err, ErrTypeMismatch)
		})
	}
}

func TestValidate_ListsAndMaps(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  main:
    enums:
      Color:
        - red
        - green
    types:
      Palette:
        properties:
          names:
            type: str[]
          counts:
            type: map[str, int]
          by_color:
            type: map[Color, str]
`)

	v := New(reg, nil)

	records, err := v.Validate(docsFrom(t, `
names: [a, b]
counts: {x: 1, y: 2}
by_color: {red: warm, green: cool}
`), "main.Palette")
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Every element and every key/value is checked.
	_, err = v.Validate(docsFrom(t, `names: [a, 3]`), "main.Palette")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = v.Validate(docsFrom(t, `counts: {x: one}`), "main.Palette")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = v.Validate(docsFrom(t, `by_color: {blue: cold}`), "main.Palette")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a member of enumeration")
}

func TestValidate_UniquenessAcrossNesting(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  container_test:
    types:
      Item:
        properties:
          id:
            type: str
            presence: required
            unique: true
      Container:
        properties:
          items:
            type: Item[]
`)

	v := New(reg, nil)

	// Three distinct ids across nested lists succeed and register.
	records, err := v.Validate(docsFrom(t, `
items:
  - id: item1
  - id: item2
  - id: item3
`), "container_test.Container")
	require.NoError(t, err)
	require.Len(t, records, 1)
	for _, id := range []string{"item1", "item2", "item3"} {
		assert.True(t, reg.UniqueValueExists("Item", "id", id, "container_test"), id)
	}

	// A later batch reusing any previously-seen id fails whole.
	var log bytes.Buffer
	bad, err := New(reg, diag.New(&log, false)).Validate(docsFrom(t, `
items:
  - id: item4
  - id: item2
`), "container_test.Container")
	require.Error(t, err)
	assert.Nil(t, bad)
	assert.ErrorIs(t, err, ErrDuplicateUniqueValue)
	assert.Contains(t, log.String(), diag.FailGlyph)
}

func TestValidate_RefsAgainstUniqueIndex(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  map_ref_test:
    types:
      model:
        properties:
          name:
            type: str
            presence: required
            unique: true
      input:
        properties:
          data:
            type: map[str, ref[model.name]]
            presence: required
`)

	var log bytes.Buffer
	v := New(reg, diag.New(&log, false))

	// The first document registers the unique value the second points at.
	records, err := v.Validate(docsFrom(t, `
name: item1
---
data:
  key1: item1
`), "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "model", records[0].Type.Name)
	assert.Equal(t, "input", records[1].Type.Name)
	assert.Contains(t, log.String(), "data validation successful")

	// A ref to a value never recorded dangles.
	_, err = v.Validate(docsFrom(t, `
data:
  key1: no_such_model
`), "map_ref_test.input")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDanglingReference)
}

func TestValidate_ForwardReferenceData(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  fwd:
    types:
      Node:
        properties:
          id:
            type: int
            presence: required
            unique: true
          child:
            type: ref[Node.id]
          other:
            type: ref[Other.name]
      Other:
        properties:
          name:
            type: str
            presence: required
            unique: true
`)

	records, err := New(reg, nil).Validate(docsFrom(t, `
name: something
---
id: 1
child: 1
other: something
`), "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "something", records[0].Get("name"))
	assert.Equal(t, 1, records[1].Get("id"))
	assert.Equal(t, 1, records[1].Get("child"))
	assert.Equal(t, "something", records[1].Get("other"))
}

func TestValidate_NestedRecords(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  main:
    types:
      Address:
        properties:
          city:
            type: str
            presence: required
      Person:
        properties:
          name:
            type: str
          address:
            type: Address
`)

	records, err := New(reg, nil).Validate(docsFrom(t, `
name: ada
address:
  city: London
`), "main.Person")
	require.NoError(t, err)
	nested, ok := records[0].Get("address").(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "London", nested["city"])

	// Nested required fields are enforced.
	_, err = New(reg, nil).Validate(docsFrom(t, `
name: ada
address: {}
`), "main.Person")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestValidate_UnknownTargetTypeHint(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  hidden_ns:
    types:
      SecretType:
        properties:
          value:
            type: str
`)

	_, err := New(reg, nil).Validate(
		[]Document{{Fields: map[string]any{"value": "x"}}}, "SecretType")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTargetType)
	assert.Contains(t, err.Error(), "Did you mean one of: hidden_ns")
}

func TestValidate_InferenceErrorKinds(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  main:
    types:
      Left:
        properties:
          shared:
            type: str
      Right:
        properties:
          shared:
            type: str
`)

	// No type covers the keys: the target is unknown, not ambiguous.
	_, err := New(reg, nil).Validate(
		[]Document{{Fields: map[string]any{"mystery": "x"}}}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTargetType)

	// Two types cover the keys equally well.
	_, err = New(reg, nil).Validate(
		[]Document{{Fields: map[string]any{"shared": "x"}}}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousTargetType)
}

func TestValidate_BatchAllOrNothing(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  main:
    types:
      User:
        properties:
          name:
            type: str
            presence: required
`)

	records, err := New(reg, nil).Validate(docsFrom(t, `
name: first
---
wrong: shape
`), "main.User")
	require.Error(t, err)
	assert.Nil(t, records)
}

func TestValidate_DefaultsApplied(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	loadSchema(t, reg, `
definitions:
  main:
    types:
      Job:
        properties:
          retries:
            type: int
            default: 3
`)

	records, err := New(reg, nil).Validate([]Document{{Fields: map[string]any{}}}, "main.Job")
	require.NoError(t, err)
	assert.Equal(t, 3, records[0].Get("retries"))
}
