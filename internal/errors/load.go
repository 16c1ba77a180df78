package errors

import (
	"fmt"
	"strings"
)

// LoadKind classifies why a command file could not be loaded
type LoadKind int

const (
	// NotFound means the file does not exist
	NotFound LoadKind = iota
	// PermissionDenied means the file exists but cannot be read
	PermissionDenied
	// ReadError is any other I/O failure
	ReadError
	// YamlSyntax means the text is not a valid command document
	YamlSyntax
)

// String returns the string representation of the kind
func (k LoadKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case PermissionDenied:
		return "permission denied"
	case ReadError:
		return "read error"
	case YamlSyntax:
		return "yaml syntax"
	default:
		return "unknown"
	}
}

// LoadError is a fatal, file-level failure
type LoadError struct {
	Kind   LoadKind
	Path   string
	Err    error
	Source string // set for YamlSyntax only
	Span   Span   // set for YamlSyntax only
}

// Error implements the error interface
func (e *LoadError) Error() string {
	switch e.Kind {
	case NotFound:
		return fmt.Sprintf("cannot find command file at '%s'", e.Path)
	case PermissionDenied:
		return fmt.Sprintf("permission denied reading command file at '%s'", e.Path)
	case YamlSyntax:
		return fmt.Sprintf("failed to parse YAML file '%s': %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("failed to read command file at '%s': %v", e.Path, e.Err)
	}
}

// Unwrap returns the underlying cause
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Help returns a suggestion for the kind of failure
func (e *LoadError) Help() string {
	switch e.Kind {
	case NotFound:
		return "Check the command path; 'mici list' shows the available commands"
	case PermissionDenied:
		return "Check the file permissions and ensure you have read access"
	case YamlSyntax:
		return "Check your YAML syntax - common issues include incorrect indentation, missing colons, or unclosed quotes"
	default:
		return "Check that the file is accessible and not corrupted"
	}
}

// FormatError formats the load error, pointing at the syntax error when
// the source is known
func (e *LoadError) FormatError(styles Styles) string {
	if e.Kind != YamlSyntax {
		var result strings.Builder
		result.WriteString(fmt.Sprintf("%s: %s\n", styles.Error.Render("Error"), e.Error()))
		result.WriteString(fmt.Sprintf("   %s %s\n", styles.Help.Render("Help:"), e.Help()))
		return result.String()
	}

	d := &Diagnostic{
		Code:    CodeYamlSyntax,
		Message: fmt.Sprintf("Failed to parse YAML file: %v", e.Err),
		Help:    e.Help(),
		Labels:  []Label{{Span: e.Span, Text: "syntax error here"}},
	}
	return d.FormatError(e.Path, e.Source, styles)
}

// StepFailedError reports a step whose process exited non-zero
type StepFailedError struct {
	StepID   string
	ExitCode int
}

// Error implements the error interface
func (e *StepFailedError) Error() string {
	return fmt.Sprintf("step '%s' failed with exit code: %d", e.StepID, e.ExitCode)
}

// InputError reports a CLI value that does not satisfy its input declaration
type InputError struct {
	Input    string
	Provided string
	Expected string
}

// Error implements the error interface
func (e *InputError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("input '%s' is required but no value or default was given", e.Input)
	}
	return fmt.Sprintf("input '%s' got '%s', expected one of: %s", e.Input, e.Provided, e.Expected)
}
