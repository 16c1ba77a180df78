package spec

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/phillarmonic/mici/internal/errors"
	"github.com/phillarmonic/mici/internal/model"
)

var (
	acceptedVersions = []string{"1", "1.0"}
	validInputTypes  = []string{
		model.InputTypeString,
		model.InputTypeChoice,
		model.InputTypeBool,
		model.InputTypeBoolean,
	}
)

// Validator collects structural findings for one document. Every rule
// runs; nothing stops at the first finding.
type Validator struct {
	doc      *Document
	findings *errors.DiagnosticList
}

// NewValidator creates a validator for a parsed document
func NewValidator(doc *Document) *Validator {
	return &Validator{
		doc:      doc,
		findings: errors.NewDiagnosticList("", doc.Path, doc.Source),
	}
}

// Validate checks a parsed document and returns a *errors.DiagnosticList
// holding every finding, or nil
func Validate(doc *Document) error {
	return NewValidator(doc).Validate()
}

// Validate runs all rules
func (v *Validator) Validate() error {
	schema := v.doc.Schema

	v.validateVersion(schema.Version)
	v.validateName(schema.Name)
	v.validateInputs(schema.Inputs)
	v.validateSteps(schema.Steps)

	if !v.findings.HasErrors() {
		return nil
	}

	v.findings.Title = fmt.Sprintf("Command schema has %d validation error(s)", len(v.findings.Diagnostics))
	return v.findings
}

func (v *Validator) validateVersion(version string) {
	for _, accepted := range acceptedVersions {
		if version == accepted {
			return
		}
	}

	v.report(&errors.Diagnostic{
		Code:    errors.CodeVersionInvalid,
		Message: fmt.Sprintf("Version must be '1' or '1.0', found '%s'", version),
		Help:    `Set 'version' to '"1"' or '"1.0"' in your command schema`,
		Labels:  []errors.Label{v.label("invalid version here", v.field("version"))},
	})
}

func (v *Validator) validateName(name string) {
	if strings.TrimSpace(name) != "" {
		return
	}

	v.report(&errors.Diagnostic{
		Code:    errors.CodeNameEmpty,
		Message: "Command name cannot be empty",
		Help:    "Add a name with at least one character",
		Labels:  []errors.Label{v.label("empty name here", v.field("name"))},
	})
}

func (v *Validator) validateInputs(inputs map[string]model.Input) {
	names := (&model.CommandSchema{Inputs: inputs}).InputNames()
	for _, name := range names {
		input := inputs[name]
		v.validateInputType(name, input.Type)
		v.validateInputSecret(name, input.Type, input.Secret)
		v.validateInputOptions(name, input.Type, input.Options)
	}
}

func (v *Validator) validateInputType(name, inputType string) {
	if inputType == "" {
		v.report(&errors.Diagnostic{
			Code:    errors.CodeInputTypeEmpty,
			Message: fmt.Sprintf("Input '%s' has empty type", name),
			Help:    "Valid input types are: string, choice, and bool or boolean",
			Subject: name,
			Labels:  []errors.Label{v.label("empty type here", v.inputField(name, "type"))},
		})
		return
	}

	for _, valid := range validInputTypes {
		if inputType == valid {
			return
		}
	}

	v.report(&errors.Diagnostic{
		Code:    errors.CodeInputTypeInvalid,
		Message: fmt.Sprintf("Input '%s' has invalid type '%s'", name, inputType),
		Help:    "Valid input types are: string, choice, and bool or boolean",
		Subject: name,
		Labels:  []errors.Label{v.label("invalid type here", v.inputField(name, "type"))},
	})
}

func (v *Validator) validateInputSecret(name, inputType string, secret bool) {
	if !secret || inputType == model.InputTypeString {
		return
	}

	v.report(&errors.Diagnostic{
		Code:    errors.CodeSecretRequiresString,
		Message: fmt.Sprintf("Input '%s' has 'secret' set to true but type '%s' doesn't allow it", name, inputType),
		Help:    "Only 'string' inputs can be marked as secret. Change the type to 'string' or remove 'secret: true'",
		Subject: name,
		Labels: []errors.Label{
			v.label("secret is set to true", v.inputField(name, "secret")),
			v.label(fmt.Sprintf("type is '%s'", inputType), v.inputField(name, "type")),
		},
	})
}

func (v *Validator) validateInputOptions(name, inputType string, options []string) {
	switch {
	case inputType == model.InputTypeChoice && options == nil:
		v.report(&errors.Diagnostic{
			Code:    errors.CodeChoiceRequiresOptions,
			Message: fmt.Sprintf("Input '%s' has type 'choice' but no 'options' provided", name),
			Help:    "Add an 'options' array with available choices, e.g., 'options: [dev, staging, prod]'",
			Subject: name,
			Labels:  []errors.Label{v.label("'choice' type requires 'options'", v.inputField(name, "type"))},
		})
	case options != nil && inputType != "" && inputType != model.InputTypeChoice:
		v.report(&errors.Diagnostic{
			Code:    errors.CodeOptionsOnlyForChoice,
			Message: fmt.Sprintf("Input '%s' has type '%s' but 'options' are only valid for type 'choice'", name, inputType),
			Help:    "Remove the 'options' field or change the type to 'choice'",
			Subject: name,
			Labels: []errors.Label{
				v.label(fmt.Sprintf("'options' should not be set for type '%s'", inputType), v.inputField(name, "options")),
			},
		})
	}
}

func (v *Validator) validateSteps(steps []model.Step) {
	if len(steps) == 0 {
		v.report(&errors.Diagnostic{
			Code:    errors.CodeStepsEmpty,
			Message: "Steps cannot be empty - at least one step is required",
			Help:    "Add at least one step to the 'steps' array",
			Labels:  []errors.Label{v.label("steps array is empty", v.field("steps"))},
		})
		return
	}

	firstSeen := make(map[string]int, len(steps))

	for index, step := range steps {
		switch {
		case strings.TrimSpace(step.ID) == "":
			v.report(&errors.Diagnostic{
				Code:    errors.CodeStepIDEmpty,
				Message: fmt.Sprintf("Step #%d has an empty id", index),
				Help:    "Provide a meaningful id for this step",
				Indices: []int{index},
				Labels:  []errors.Label{v.label("empty id", v.stepField(index, "id"))},
			})
		case strings.IndexFunc(step.ID, unicode.IsSpace) >= 0:
			v.report(&errors.Diagnostic{
				Code:    errors.CodeStepIDWhitespace,
				Message: fmt.Sprintf("Step '%s' has an id with whitespace", step.ID),
				Help:    "Remove spaces from the step id - use hyphens or underscores instead (e.g., 'build-app' or 'build_app')",
				Subject: step.ID,
				Indices: []int{index},
				Labels:  []errors.Label{v.label("id contains whitespace", v.stepField(index, "id"))},
			})
		}

		if strings.TrimSpace(step.ID) != "" {
			if first, seen := firstSeen[step.ID]; seen {
				v.report(&errors.Diagnostic{
					Code:    errors.CodeStepIDDuplicate,
					Message: fmt.Sprintf("Duplicate step id for '%s'", step.ID),
					Help:    "Each step must have a unique id",
					Subject: step.ID,
					Indices: []int{first, index},
					Labels: []errors.Label{
						v.label("first occurrence here", v.stepField(first, "id")),
						v.label("duplicate id occurred here", v.stepField(index, "id")),
					},
				})
			} else {
				firstSeen[step.ID] = index
			}
		}

		v.validateStepRun(index, step)
	}
}

func (v *Validator) validateStepRun(index int, step model.Step) {
	id := step.ID
	hasCommand := v.doc.Locator.HasRunField(index, "command")
	hasScript := v.doc.Locator.HasRunField(index, "script")

	switch {
	case !hasCommand && !hasScript:
		v.report(&errors.Diagnostic{
			Code:    errors.CodeStepRunMissing,
			Message: fmt.Sprintf("Step '%s' is missing a 'command' or 'script' in its 'run'", id),
			Help:    "Add a 'run' field with either 'command' or 'script'",
			Subject: id,
			Indices: []int{index},
			Labels:  []errors.Label{v.label("run field required", v.stepField(index, "run"))},
		})
	case hasCommand && hasScript:
		v.report(&errors.Diagnostic{
			Code:    errors.CodeStepRunMutuallyExclusive,
			Message: fmt.Sprintf("Step '%s' has both 'command' and 'script' in its 'run' - they are mutually exclusive", id),
			Help:    "Only one of 'command' or 'script' may be present in a step's 'run' block",
			Subject: id,
			Indices: []int{index},
			Labels: []errors.Label{
				v.label("'command' is set here", v.stepField(index, "command")),
				v.label("'script' is set here", v.stepField(index, "script")),
			},
		})
	case step.Run.Execution == nil:
		// The key is there but its value is null
		field := "command"
		if hasScript {
			field = "script"
		}
		v.report(&errors.Diagnostic{
			Code:    errors.CodeStepRunMissing,
			Message: fmt.Sprintf("Step '%s' has no value for '%s' in its 'run'", id, field),
			Help:    fmt.Sprintf("Give '%s' a value, or remove it and use the other one", field),
			Subject: id,
			Indices: []int{index},
			Labels:  []errors.Label{v.label("value required", v.stepField(index, field))},
		})
	}
}

func (v *Validator) report(d *errors.Diagnostic) {
	v.findings.Add(d)
}

func (v *Validator) label(text string, span errors.Span) errors.Label {
	return errors.Label{Span: span, Text: text}
}

// field anchors at a top-level key, or the document start when the key
// is absent
func (v *Validator) field(name string) errors.Span {
	if span, ok := v.doc.Locator.Field(name); ok {
		return span
	}
	return v.doc.Locator.Root()
}

// inputField anchors at inputs.<name>.<field>, falling back to the input key
func (v *Validator) inputField(name, field string) errors.Span {
	if span, ok := v.doc.Locator.Nested("inputs", name, field); ok {
		return span
	}
	if span, ok := v.doc.Locator.Nested("inputs", name); ok {
		return span
	}
	return v.field("inputs")
}

// stepField anchors at a key of the Nth step, falling back to the step itself
func (v *Validator) stepField(index int, name string) errors.Span {
	if span, ok := v.doc.Locator.StepField(index, name); ok {
		return span
	}
	if span, ok := v.doc.Locator.Step(index); ok {
		return span
	}
	return v.field("steps")
}
