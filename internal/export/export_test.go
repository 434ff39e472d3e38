package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/yasl-lang/yaql/internal/loader"
	"github.com/yasl-lang/yaql/internal/registry"
)

func load(t *testing.T, reg *registry.Registry, src string) {
	t.Helper()
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	_, err := loader.New(reg, nil).LoadSchema(doc)
	require.NoError(t, err)
}

func TestSchemaYAML_RoundTripsThroughLoader(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	load(t, reg, `
definitions:
  main:
    enums:
      Color:
        description: palette colors
        values: [red, green]
    types:
      User:
        description: a user
        properties:
          name:
            type: str
            presence: required
            unique: true
          age:
            type: int
            default: 0
          favorite:
            type: Color
  aux:
    types:
      Thing:
        properties:
          data:
            type: map[str, int]
`)

	out, err := SchemaYAML(reg)
	require.NoError(t, err)

	// The exported document loads into a fresh registry with the same
	// top-level contents.
	var tree map[string]any
	require.NoError(t, yaml.Unmarshal(out, &tree))

	fresh := registry.New()
	keys, err := loader.New(fresh, nil).LoadSchema(tree)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	user := fresh.GetType("User", "main", "")
	require.NotNil(t, user)
	name, ok := user.FieldByName("name")
	require.True(t, ok)
	assert.True(t, name.Required())
	assert.True(t, name.Unique)

	age, ok := user.FieldByName("age")
	require.True(t, ok)
	assert.Equal(t, 0, age.Default)

	color := fresh.GetEnum("Color", "main", "")
	require.NotNil(t, color)
	assert.Equal(t, []string{"red", "green"}, color.Values)

	assert.NotNil(t, fresh.GetType("Thing", "aux", ""))
}

func TestSchemaYAML_OmitsNestedTypes(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	load(t, reg, `
definitions:
  container_test:
    types:
      Container:
        properties:
          item:
            properties:
              id:
                type: str
`)

	out, err := SchemaYAML(reg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Container_item:")
}
