package spec

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/phillarmonic/mici/internal/errors"
	"github.com/phillarmonic/mici/internal/model"
)

const validCommand = `version: "1.0"
name: "deploy"
description: "Deploy the service"
configuration:
  confirm: false
  environment:
    KEY: "value"
    TOKEN: "${MY_TOKEN}"
    EMPTY: null
  working_directory: null
inputs:
  name:
    type: string
    description: "Who to greet"
    required: true
    default: "World"
  force:
    type: boolean
    description: "Force it"
    short: -f
steps:
  - id: "say_hello"
    run:
      shell: "bash"
      command: |
        echo "Hello, @{inputs.name}!"
  - id: "run_script"
    name: "Run the deploy script"
    when: "inputs.force"
    run:
      script: deploy.sh
      args: [environment, service]
`

func writeCommandFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "command.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestLoader_Load_ValidCommand(t *testing.T) {
	path := writeCommandFile(t, validCommand)

	doc, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	schema := doc.Schema
	if schema.Version != "1.0" {
		t.Errorf("Expected version '1.0', got %q", schema.Version)
	}
	if schema.Name != "deploy" {
		t.Errorf("Expected name 'deploy', got %q", schema.Name)
	}
	if len(schema.Steps) != 2 {
		t.Fatalf("Expected 2 steps, got %d", len(schema.Steps))
	}

	if _, ok := schema.Steps[0].Run.Execution.(model.CommandExecution); !ok {
		t.Errorf("Expected first step to be a command, got %T", schema.Steps[0].Run.Execution)
	}
	script, ok := schema.Steps[1].Run.Execution.(model.ScriptExecution)
	if !ok || script.Script != "deploy.sh" {
		t.Errorf("Expected second step to run deploy.sh, got %#v", schema.Steps[1].Run.Execution)
	}
	if schema.Steps[1].When != "inputs.force" {
		t.Errorf("Expected when to be carried, got %q", schema.Steps[1].When)
	}
	if schema.Steps[1].Run.Args == nil || len(schema.Steps[1].Run.Args.List) != 2 {
		t.Errorf("Expected list args, got %#v", schema.Steps[1].Run.Args)
	}

	env := schema.Configuration.Environment
	if len(env) != 3 || env["EMPTY"] != nil || *env["TOKEN"] != "${MY_TOKEN}" {
		t.Errorf("Unexpected configuration environment: %#v", env)
	}
	if schema.Configuration.WorkingDirectory != nil {
		t.Errorf("Expected null working directory")
	}

	force := schema.Inputs["force"]
	if !force.IsBool() || force.Short != "-f" || force.Default != nil {
		t.Errorf("Unexpected force input: %#v", force)
	}
	if def, ok := schema.Inputs["name"].DefaultValue(); !ok || def != "World" {
		t.Errorf("Expected default 'World', got %q", def)
	}
}

func TestLoader_Load_UnquotedVersion(t *testing.T) {
	path := writeCommandFile(t, `version: 1.0
name: x
configuration: {}
steps:
  - id: a
    run:
      command: "true"
`)

	doc, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc.Schema.Version != "1.0" {
		t.Errorf("Expected version '1.0', got %q", doc.Schema.Version)
	}
}

func TestLoader_Load_NotFound(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.yml"))

	var loadErr *errors.LoadError
	if !stderrors.As(err, &loadErr) {
		t.Fatalf("Expected LoadError, got %T: %v", err, err)
	}
	if loadErr.Kind != errors.NotFound {
		t.Errorf("Expected NotFound, got %v", loadErr.Kind)
	}
}

func TestLoader_Load_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for this user")
	}

	path := writeCommandFile(t, validCommand)
	if err := os.Chmod(path, 0000); err != nil {
		t.Fatalf("Failed to chmod: %v", err)
	}

	_, err := NewLoader().Load(path)
	var loadErr *errors.LoadError
	if !stderrors.As(err, &loadErr) || loadErr.Kind != errors.PermissionDenied {
		t.Fatalf("Expected PermissionDenied, got %v", err)
	}
}

func TestLoader_Load_SyntaxError(t *testing.T) {
	content := "version: \"1\"\nname: \"x\"\nsteps:\n  - id: [unclosed\n"
	path := writeCommandFile(t, content)

	_, err := NewLoader().Load(path)

	var loadErr *errors.LoadError
	if !stderrors.As(err, &loadErr) {
		t.Fatalf("Expected LoadError, got %T: %v", err, err)
	}
	if loadErr.Kind != errors.YamlSyntax {
		t.Fatalf("Expected YamlSyntax, got %v", loadErr.Kind)
	}
	if loadErr.Span.Length != 1 {
		t.Errorf("Expected a 1-byte span, got %d", loadErr.Span.Length)
	}
	if loadErr.Span.Offset <= 0 || loadErr.Span.Offset > len(content) {
		t.Errorf("Expected the span inside the source, got %d", loadErr.Span.Offset)
	}
}

func TestLoader_Load_TypeErrorIsSyntaxError(t *testing.T) {
	content := "version: \"1\"\nname: \"x\"\nsteps:\n  - id: a\n    run:\n      command: [not, a, string]\n"
	path := writeCommandFile(t, content)

	_, err := NewLoader().Load(path)

	var loadErr *errors.LoadError
	if !stderrors.As(err, &loadErr) || loadErr.Kind != errors.YamlSyntax {
		t.Fatalf("Expected YamlSyntax error, got %v", err)
	}
	line, _ := errors.LineCol(content, loadErr.Span.Offset)
	if line != 6 {
		t.Errorf("Expected error on line 6, got %d", line)
	}
}

func TestLoader_Load_ValidationFailure(t *testing.T) {
	path := writeCommandFile(t, "version: \"1\"\nname: \"x\"\nconfiguration: {}\nsteps: []\n")

	_, err := NewLoader().Load(path)

	var list *errors.DiagnosticList
	if !stderrors.As(err, &list) {
		t.Fatalf("Expected DiagnosticList, got %T: %v", err, err)
	}
	if len(list.Diagnostics) != 1 || list.Diagnostics[0].Code != errors.CodeStepsEmpty {
		t.Errorf("Expected only StepsEmpty, got %v", list.Codes())
	}
}

func TestLoader_Load_CachesUntilModified(t *testing.T) {
	path := writeCommandFile(t, validCommand)
	loader := NewLoader()

	first, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if first != second {
		t.Error("Expected the cached document to be reused")
	}
}

func TestParse_EmptyFile(t *testing.T) {
	doc, err := Parse("empty.yml", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc.Schema == nil || len(doc.Schema.Steps) != 0 {
		t.Errorf("Expected zero schema, got %#v", doc.Schema)
	}
}
