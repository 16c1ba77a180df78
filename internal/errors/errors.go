package errors

import (
	"fmt"
	"strings"
)

// Code identifies the kind of a diagnostic
type Code string

// Schema validation codes
const (
	CodeYamlSyntax               Code = "mici::yaml::invalid_syntax"
	CodeVersionInvalid           Code = "mici::schema::version_invalid"
	CodeNameEmpty                Code = "mici::schema::name_empty"
	CodeInputTypeEmpty           Code = "mici::schema::input_type_empty"
	CodeInputTypeInvalid         Code = "mici::schema::input_type_invalid"
	CodeSecretRequiresString     Code = "mici::schema::secret_requires_string"
	CodeChoiceRequiresOptions    Code = "mici::schema::choice_requires_options"
	CodeOptionsOnlyForChoice     Code = "mici::schema::options_only_for_choice"
	CodeStepsEmpty               Code = "mici::schema::steps_empty"
	CodeStepIDEmpty              Code = "mici::schema::step_id_empty"
	CodeStepIDWhitespace         Code = "mici::schema::step_id_whitespace"
	CodeStepIDDuplicate          Code = "mici::schema::step_id_duplicate"
	CodeStepRunMissing           Code = "mici::schema::step_run_missing"
	CodeStepRunMutuallyExclusive Code = "mici::schema::step_run_mutually_exclusive"
	CodeWorkingDirectoryInvalid  Code = "mici::runtime::working_directory_invalid"
)

// Span is a byte range into the raw source text
type Span struct {
	Offset int
	Length int
}

// Label attaches a short message to a span
type Label struct {
	Span Span
	Text string
}

// Diagnostic is a single located finding
type Diagnostic struct {
	Code    Code
	Message string
	Help    string
	Labels  []Label

	// Subject is the input name or step id the finding is about
	Subject string
	// Indices are the step indices involved, in ascending order
	Indices []int
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	return d.Message
}

// PrimarySpan returns the span of the first label
func (d *Diagnostic) PrimarySpan() (Span, bool) {
	if len(d.Labels) == 0 {
		return Span{}, false
	}
	return d.Labels[0].Span, true
}

// FormatError formats a diagnostic with file location and visual indicators
func (d *Diagnostic) FormatError(filename, source string, styles Styles) string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("%s: %s\n", styles.Error.Render("Error"), d.Message))
	if d.Code != "" {
		result.WriteString(fmt.Sprintf("  %s\n", styles.Code.Render(string(d.Code))))
	}

	lines := strings.Split(source, "\n")
	for _, label := range d.Labels {
		line, col := LineCol(source, label.Span.Offset)
		result.WriteString(fmt.Sprintf("  %s\n", styles.Location.Render(fmt.Sprintf("--> %s:%d:%d", filename, line, col))))

		if line > 0 && line <= len(lines) {
			sourceLine := strings.TrimRight(lines[line-1], "\r")
			lineNumStr := fmt.Sprintf("%d", line)

			result.WriteString(fmt.Sprintf("   %s | %s\n", styles.Gutter.Render(lineNumStr), sourceLine))

			width := label.Span.Length
			if width < 1 {
				width = 1
			}
			spaces := strings.Repeat(" ", len(lineNumStr)) + " | " + strings.Repeat(" ", col-1)
			marker := strings.Repeat("^", width)
			if label.Text != "" {
				marker += " " + label.Text
			}
			result.WriteString(fmt.Sprintf("   %s%s\n", spaces, styles.Error.Render(marker)))
		}
	}

	if d.Help != "" {
		result.WriteString(fmt.Sprintf("   %s %s\n", styles.Help.Render("Help:"), d.Help))
	}

	return result.String()
}

// DiagnosticList is a batch of findings against one source file
type DiagnosticList struct {
	Title       string
	Filename    string
	Source      string
	Diagnostics []*Diagnostic
}

// NewDiagnosticList creates an empty list for the given file
func NewDiagnosticList(title, filename, source string) *DiagnosticList {
	return &DiagnosticList{
		Title:       title,
		Filename:    filename,
		Source:      source,
		Diagnostics: make([]*Diagnostic, 0),
	}
}

// Add appends a diagnostic
func (dl *DiagnosticList) Add(d *Diagnostic) {
	dl.Diagnostics = append(dl.Diagnostics, d)
}

// HasErrors returns true if there are any diagnostics
func (dl *DiagnosticList) HasErrors() bool {
	return len(dl.Diagnostics) > 0
}

// Codes returns the code of every diagnostic, in order
func (dl *DiagnosticList) Codes() []Code {
	codes := make([]Code, 0, len(dl.Diagnostics))
	for _, d := range dl.Diagnostics {
		codes = append(codes, d.Code)
	}
	return codes
}

// Find returns all diagnostics with the given code
func (dl *DiagnosticList) Find(code Code) []*Diagnostic {
	var found []*Diagnostic
	for _, d := range dl.Diagnostics {
		if d.Code == code {
			found = append(found, d)
		}
	}
	return found
}

// Error implements the error interface
func (dl *DiagnosticList) Error() string {
	if len(dl.Diagnostics) == 0 {
		return "no errors"
	}

	messages := make([]string, 0, len(dl.Diagnostics))
	for _, d := range dl.Diagnostics {
		messages = append(messages, d.Error())
	}
	return fmt.Sprintf("%s: %s", dl.Title, strings.Join(messages, "; "))
}

// FormatErrors formats every diagnostic; nothing is truncated so a file can
// be fixed in one pass
func (dl *DiagnosticList) FormatErrors(styles Styles) string {
	if len(dl.Diagnostics) == 0 {
		return ""
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s\n\n", styles.Title.Render(dl.Title)))

	for i, d := range dl.Diagnostics {
		if i > 0 {
			result.WriteString("\n")
		}
		result.WriteString(d.FormatError(dl.Filename, dl.Source, styles))
	}

	return result.String()
}

// LineCol converts a byte offset into a 1-based line and column
func LineCol(source string, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(source) {
		offset = len(source)
	}

	line := 1 + strings.Count(source[:offset], "\n")
	lineStart := strings.LastIndex(source[:offset], "\n") + 1
	return line, offset - lineStart + 1
}

// OffsetOf converts a 1-based line and column into a byte offset by summing
// the lengths of the preceding lines
func OffsetOf(source string, line, col int) int {
	if line < 1 {
		return 0
	}

	offset := 0
	for current := 1; current < line; current++ {
		next := strings.IndexByte(source[offset:], '\n')
		if next < 0 {
			return len(source)
		}
		offset += next + 1
	}

	if col > 1 {
		lineEnd := strings.IndexByte(source[offset:], '\n')
		if lineEnd < 0 {
			lineEnd = len(source) - offset
		}
		// yaml columns count characters, not bytes
		runes := 0
		for i := range source[offset : offset+lineEnd] {
			if runes == col-1 {
				return offset + i
			}
			runes++
		}
		return offset + lineEnd
	}

	return offset
}
