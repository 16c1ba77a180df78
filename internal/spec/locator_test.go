package spec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestLocator(t *testing.T, source string) *Locator {
	t.Helper()
	var root yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(source), &root))
	return NewLocator(source, &root)
}

func TestLocator_NestedIgnoresSameNameElsewhere(t *testing.T) {
	source := `# type: in a comment
name: x
configuration:
  type: not-an-input
inputs:
  first:
    type: string
  second:
    description: no type here
    type: bool
`
	l := newTestLocator(t, source)

	span, ok := l.Nested("inputs", "second", "type")
	require.True(t, ok)
	assert.Equal(t, strings.LastIndex(source, "type:"), span.Offset)
	assert.Equal(t, len("type"), span.Length)

	_, ok = l.Nested("inputs", "third", "type")
	assert.False(t, ok)
}

func TestLocator_StepField(t *testing.T) {
	source := `steps:
  - id: one
    run:
      command: "true"
  -   id: two
      run:
        working_directory: /tmp
        script: two.sh
`
	l := newTestLocator(t, source)

	span, ok := l.StepField(1, "id")
	require.True(t, ok)
	assert.Equal(t, strings.Index(source, "id: two"), span.Offset)

	span, ok = l.StepField(1, "working_directory")
	require.True(t, ok)
	assert.Equal(t, strings.Index(source, "working_directory"), span.Offset)

	assert.True(t, l.HasRunField(0, "command"))
	assert.False(t, l.HasRunField(0, "script"))
	assert.True(t, l.HasRunField(1, "script"))

	_, ok = l.StepField(2, "id")
	assert.False(t, ok)
}

func TestLocator_NonMappingDocument(t *testing.T) {
	l := newTestLocator(t, "- just\n- a list\n")

	_, ok := l.Field("steps")
	assert.False(t, ok)
	assert.Equal(t, 0, l.Root().Offset)
}
