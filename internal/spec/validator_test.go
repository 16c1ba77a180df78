package spec

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/phillarmonic/mici/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validate(t *testing.T, source string) *errors.DiagnosticList {
	t.Helper()

	doc, err := Parse("command.yml", []byte(source))
	require.NoError(t, err)

	err = Validate(doc)
	if err == nil {
		return nil
	}

	var list *errors.DiagnosticList
	require.True(t, stderrors.As(err, &list), "expected DiagnosticList, got %T", err)
	return list
}

// lineOf returns the 1-based line a span points at
func lineOf(source string, span errors.Span) int {
	line, _ := errors.LineCol(source, span.Offset)
	return line
}

func TestValidate_ValidCommand(t *testing.T) {
	assert.Nil(t, validate(t, validCommand))
}

func TestValidate_CollectsIndependentFindings(t *testing.T) {
	source := `version: "2"
name: "   "
configuration: {}
steps: []
`
	list := validate(t, source)
	require.NotNil(t, list)

	assert.Equal(t, []errors.Code{
		errors.CodeVersionInvalid,
		errors.CodeNameEmpty,
		errors.CodeStepsEmpty,
	}, list.Codes())
	assert.Equal(t, "Command schema has 3 validation error(s)", list.Title)

	version := list.Find(errors.CodeVersionInvalid)[0]
	span, ok := version.PrimarySpan()
	require.True(t, ok)
	assert.Equal(t, 1, lineOf(source, span))
	assert.Contains(t, version.Message, "found '2'")

	steps := list.Find(errors.CodeStepsEmpty)[0]
	span, _ = steps.PrimarySpan()
	assert.Equal(t, 4, lineOf(source, span))
}

func TestValidate_Version(t *testing.T) {
	for _, version := range []string{`"1"`, `"1.0"`, `1`, `1.0`} {
		t.Run("accepts "+version, func(t *testing.T) {
			source := "version: " + version + "\nname: x\nsteps:\n  - id: a\n    run:\n      command: \"true\"\n"
			assert.Nil(t, validate(t, source))
		})
	}

	for _, version := range []string{`"2"`, `"1.1"`, `""`, `v1`} {
		t.Run("rejects "+version, func(t *testing.T) {
			source := "version: " + version + "\nname: x\nsteps:\n  - id: a\n    run:\n      command: \"true\"\n"
			list := validate(t, source)
			require.NotNil(t, list)
			assert.Equal(t, []errors.Code{errors.CodeVersionInvalid}, list.Codes())
		})
	}
}

func TestValidate_Inputs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []errors.Code
		anchors  []string
	}{
		{
			name:     "empty type",
			input:    "    type: \"\"\n    description: d\n",
			expected: []errors.Code{errors.CodeInputTypeEmpty},
			anchors:  []string{"type:"},
		},
		{
			name:     "invalid type",
			input:    "    type: number\n    description: d\n",
			expected: []errors.Code{errors.CodeInputTypeInvalid},
			anchors:  []string{"type:"},
		},
		{
			name:     "secret on bool",
			input:    "    type: bool\n    description: d\n    secret: true\n",
			expected: []errors.Code{errors.CodeSecretRequiresString},
			anchors:  []string{"secret:", "type:"},
		},
		{
			name:     "choice without options",
			input:    "    type: choice\n    description: d\n",
			expected: []errors.Code{errors.CodeChoiceRequiresOptions},
			anchors:  []string{"type:"},
		},
		{
			name:     "options on string",
			input:    "    type: string\n    description: d\n    options: [a, b]\n",
			expected: []errors.Code{errors.CodeOptionsOnlyForChoice},
			anchors:  []string{"options:"},
		},
		{
			name:     "secret on choice without options",
			input:    "    type: choice\n    description: d\n    secret: true\n",
			expected: []errors.Code{errors.CodeSecretRequiresString, errors.CodeChoiceRequiresOptions},
			anchors:  []string{"secret:", "type:"},
		},
		{
			name:    "valid choice",
			input:   "    type: choice\n    description: d\n    options: [dev, prod]\n",
			anchors: nil,
		},
		{
			name:    "secret string",
			input:   "    type: string\n    description: d\n    secret: true\n",
			anchors: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := "version: \"1\"\nname: x\ninputs:\n  target:\n" + tt.input +
				"steps:\n  - id: a\n    run:\n      command: \"true\"\n"

			list := validate(t, source)
			if tt.expected == nil {
				assert.Nil(t, list)
				return
			}
			require.NotNil(t, list)
			assert.Equal(t, tt.expected, list.Codes())

			first := list.Diagnostics[0]
			assert.Equal(t, "target", first.Subject)
			require.Len(t, first.Labels, len(tt.anchors))
			for i, anchor := range tt.anchors {
				expectedLine := lineOf(source, errors.Span{Offset: strings.Index(source, anchor)})
				assert.Equal(t, expectedLine, lineOf(source, first.Labels[i].Span), "label %d", i)
			}
		})
	}
}

func TestValidate_InputTypeMissingAnchorsAtInput(t *testing.T) {
	source := "version: \"1\"\nname: x\ninputs:\n  target:\n    description: d\nsteps:\n  - id: a\n    run:\n      command: \"true\"\n"

	list := validate(t, source)
	require.NotNil(t, list)
	require.Equal(t, []errors.Code{errors.CodeInputTypeEmpty}, list.Codes())

	span, _ := list.Diagnostics[0].PrimarySpan()
	assert.Equal(t, 4, lineOf(source, span))
}

func TestValidate_StepIDs(t *testing.T) {
	source := `version: "1"
name: x
steps:
  - id: "build app"
    run:
      command: make
  - id: ""
    run:
      command: make
  - id: test
    run:
      command: make test
  - id: test
    run:
      command: make test
`
	list := validate(t, source)
	require.NotNil(t, list)
	assert.Equal(t, []errors.Code{
		errors.CodeStepIDWhitespace,
		errors.CodeStepIDEmpty,
		errors.CodeStepIDDuplicate,
	}, list.Codes())

	whitespace := list.Find(errors.CodeStepIDWhitespace)[0]
	span, _ := whitespace.PrimarySpan()
	assert.Equal(t, 4, lineOf(source, span))

	empty := list.Find(errors.CodeStepIDEmpty)[0]
	span, _ = empty.PrimarySpan()
	assert.Equal(t, 7, lineOf(source, span))

	duplicate := list.Find(errors.CodeStepIDDuplicate)[0]
	assert.Equal(t, []int{2, 3}, duplicate.Indices)
	require.Len(t, duplicate.Labels, 2)
	assert.Equal(t, 10, lineOf(source, duplicate.Labels[0].Span))
	assert.Equal(t, 13, lineOf(source, duplicate.Labels[1].Span))
}

func TestValidate_DuplicatesPairWithFirstOccurrence(t *testing.T) {
	var b strings.Builder
	b.WriteString("version: \"1\"\nname: x\nsteps:\n")
	for _, id := range []string{"a", "b", "a", "c", "a", "b"} {
		b.WriteString("  - id: " + id + "\n    run:\n      command: \"true\"\n")
	}

	list := validate(t, b.String())
	require.NotNil(t, list)

	duplicates := list.Find(errors.CodeStepIDDuplicate)
	require.Len(t, duplicates, 3)
	assert.Equal(t, []int{0, 2}, duplicates[0].Indices)
	assert.Equal(t, []int{0, 4}, duplicates[1].Indices)
	assert.Equal(t, []int{1, 5}, duplicates[2].Indices)
}

func TestValidate_StepRun(t *testing.T) {
	source := `version: "1"
name: x
steps:
  - id: nothing
    run:
      shell: bash
  - id: both
    run:
      command: make
      script: make.sh
  - id: script_only
    run:
      script: make.sh
`
	list := validate(t, source)
	require.NotNil(t, list)
	assert.Equal(t, []errors.Code{
		errors.CodeStepRunMissing,
		errors.CodeStepRunMutuallyExclusive,
	}, list.Codes())

	missing := list.Find(errors.CodeStepRunMissing)[0]
	assert.Equal(t, "nothing", missing.Subject)
	span, _ := missing.PrimarySpan()
	assert.Equal(t, 5, lineOf(source, span))

	both := list.Find(errors.CodeStepRunMutuallyExclusive)[0]
	require.Len(t, both.Labels, 2)
	assert.Equal(t, 9, lineOf(source, both.Labels[0].Span))
	assert.Equal(t, 10, lineOf(source, both.Labels[1].Span))
}

func TestValidate_StepRunNullValue(t *testing.T) {
	source := `version: "1"
name: x
steps:
  - id: first
    run:
      command: touch first-ran
  - id: bare
    run:
      command:
  - id: null_script
    run:
      script: null
`
	list := validate(t, source)
	require.NotNil(t, list)
	missing := list.Find(errors.CodeStepRunMissing)
	require.Len(t, missing, 2)

	assert.Equal(t, "bare", missing[0].Subject)
	assert.Equal(t, []int{1}, missing[0].Indices)
	assert.Contains(t, missing[0].Message, "'command'")
	span, _ := missing[0].PrimarySpan()
	assert.Equal(t, 9, lineOf(source, span))

	assert.Equal(t, "null_script", missing[1].Subject)
	assert.Contains(t, missing[1].Message, "'script'")
	span, _ = missing[1].PrimarySpan()
	assert.Equal(t, 12, lineOf(source, span))
}

func TestValidate_MissingStepsKey(t *testing.T) {
	list := validate(t, "version: \"1\"\nname: x\n")
	require.NotNil(t, list)
	assert.Equal(t, []errors.Code{errors.CodeStepsEmpty}, list.Codes())
}

func TestValidate_FormatsEveryFinding(t *testing.T) {
	source := "version: \"3\"\nname: \"\"\nsteps: []\n"
	list := validate(t, source)
	require.NotNil(t, list)

	out := list.FormatErrors(errors.PlainStyles())
	assert.Contains(t, out, "command.yml:1:1")
	assert.Contains(t, out, "command.yml:2:1")
	assert.Contains(t, out, "command.yml:3:1")
}
