// Package runner executes a validated command: confirmation, working
// directory checks, then each step in order.
package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/phillarmonic/mici/internal/errors"
	"github.com/phillarmonic/mici/internal/log"
	"github.com/phillarmonic/mici/internal/model"
	"github.com/phillarmonic/mici/internal/resolver"
	"github.com/phillarmonic/mici/internal/shell"
)

// Coordinator runs one command against a Context
type Coordinator struct {
	ctx        *Context
	logger     *slog.Logger
	stdout     io.Writer
	stderr     io.Writer
	scriptsDir string
	confirm    Confirmer
	runID      string
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithOutput sets where step output is forwarded
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Coordinator) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithScriptsDir sets the root script steps are resolved against
func WithScriptsDir(dir string) Option {
	return func(c *Coordinator) {
		c.scriptsDir = dir
	}
}

// WithConfirmer replaces the stdin confirmation
func WithConfirmer(confirm Confirmer) Option {
	return func(c *Coordinator) {
		c.confirm = confirm
	}
}

// WithRunID sets the id attached to every log record
func WithRunID(id string) Option {
	return func(c *Coordinator) {
		c.runID = id
	}
}

// NewCoordinator creates a coordinator. By default output goes to the
// standard streams, logs are discarded and confirmation reads stdin.
func NewCoordinator(ctx *Context, opts ...Option) *Coordinator {
	c := &Coordinator{
		ctx:    ctx,
		logger: log.Discard(),
		stdout: os.Stdout,
		stderr: os.Stderr,
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("run_id", c.runID)
	if c.confirm == nil {
		c.confirm = StdinConfirmer(os.Stdin, c.stdout, c.logger)
	}

	return c
}

// Run executes the command. Steps run strictly in order; the first step
// that exits non-zero stops the run with a *errors.StepFailedError.
func (c *Coordinator) Run(ctx context.Context) error {
	schema := c.ctx.Schema()
	logger := c.logger.With("command", schema.Name)

	logger.Info("starting execution", "file", c.ctx.CommandFile(), "description", schema.Description)

	if schema.Configuration.Confirm {
		confirmed, err := c.confirm(ctx)
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !confirmed {
			logger.Info("command execution cancelled")
			return nil
		}
	}

	dirs, err := c.resolveWorkingDirectories()
	if err != nil {
		return err
	}

	inputs := c.ctx.Inputs()
	logger.Debug("inputs resolved", "inputs", c.maskedInputs())

	configEnv := resolver.ResolveEnvironment(schema.Configuration.Environment, inputs, c.ctx.Matches, c.ctx.Lookup())
	inputEnv := resolver.InputEnvironment(inputs, c.ctx.Matches)

	total := len(schema.Steps)
	logger.Info("executing steps", "count", total)

	for i, step := range schema.Steps {
		stepLogger := logger.With("step_id", step.ID)
		stepLogger.Info(fmt.Sprintf("step %d/%d", i+1, total))

		stepEnv := resolver.ResolveEnvironment(step.Run.Environment, inputs, c.ctx.Matches, c.ctx.Lookup())
		env := shell.MergeEnvironment(c.ctx.Environment, configEnv, stepEnv, inputEnv)
		stepLogger.Debug("environment prepared",
			"config_keys", len(configEnv),
			"step_keys", len(stepEnv),
			"input_keys", sortedKeys(inputEnv))

		result, err := c.executeStep(ctx, step, dirs[i], env)
		if err != nil {
			stepLogger.Error("step could not be executed", "error", err)
			return fmt.Errorf("step '%s': %w", step.ID, err)
		}

		if !result.Success {
			stepLogger.Error("step failed", "exit_code", result.ExitCode, "duration", result.Duration)
			return &errors.StepFailedError{StepID: step.ID, ExitCode: result.ExitCode}
		}

		stepLogger.Info("step completed", "duration", result.Duration)
	}

	logger.Info("done")
	return nil
}

func (c *Coordinator) executeStep(ctx context.Context, step model.Step, dir string, env []string) (*shell.Result, error) {
	inputs := c.ctx.Inputs()

	opts := &shell.Options{
		Shell:       step.Run.Shell,
		WorkingDir:  dir,
		Environment: env,
		Stdout:      c.stdout,
		Stderr:      c.stderr,
	}
	if opts.Shell == "" {
		opts.Shell = shell.DefaultShell()
	}

	switch execution := step.Run.Execution.(type) {
	case model.CommandExecution:
		command := resolver.ResolveText(execution.Command, inputs, c.ctx.Matches)
		return shell.Execute(ctx, command, opts)
	case model.ScriptExecution:
		script := resolver.ResolveText(execution.Script, inputs, c.ctx.Matches)
		return shell.ExecuteScript(ctx, filepath.Join(c.scriptsDir, script), opts)
	default:
		return nil, stderrors.New("step declares neither a command nor a script")
	}
}

// resolveWorkingDirectories resolves the configuration and step level
// working directories and checks each one exists. Every invalid path is
// reported before any step runs. The result holds the effective
// directory per step, "" meaning inherit.
func (c *Coordinator) resolveWorkingDirectories() ([]string, error) {
	doc := c.ctx.Document
	schema := doc.Schema
	inputs := c.ctx.Inputs()

	findings := errors.NewDiagnosticList("", doc.Path, doc.Source)

	base := ""
	if wd := schema.Configuration.WorkingDirectory; wd != nil {
		resolved := c.absolute(resolver.ResolveText(*wd, inputs, c.ctx.Matches))
		if !isDir(resolved) {
			span, ok := doc.Locator.Nested("configuration", "working_directory")
			if !ok {
				span = doc.Locator.Root()
			}
			findings.Add(workingDirectoryDiagnostic(*wd, resolved, span, "configuration", nil))
		}
		base = resolved
	}

	dirs := make([]string, len(schema.Steps))
	for i, step := range schema.Steps {
		dirs[i] = base

		wd := step.Run.WorkingDirectory
		if wd == nil {
			continue
		}

		resolved := c.absolute(resolver.ResolveText(*wd, inputs, c.ctx.Matches))
		if !isDir(resolved) {
			span, ok := doc.Locator.StepField(i, "working_directory")
			if !ok {
				span, ok = doc.Locator.Step(i)
			}
			if !ok {
				span = doc.Locator.Root()
			}
			findings.Add(workingDirectoryDiagnostic(*wd, resolved, span, step.ID, []int{i}))
		}
		dirs[i] = resolved
	}

	if findings.HasErrors() {
		findings.Title = fmt.Sprintf("Command has %d invalid working directory setting(s)", len(findings.Diagnostics))
		return nil, findings
	}

	return dirs, nil
}

func workingDirectoryDiagnostic(literal, resolved string, span errors.Span, subject string, indices []int) *errors.Diagnostic {
	message := fmt.Sprintf("working directory '%s' does not exist", literal)
	if literal != resolved {
		message = fmt.Sprintf("working directory '%s' (resolved to '%s') does not exist", literal, resolved)
	}

	return &errors.Diagnostic{
		Code:    errors.CodeWorkingDirectoryInvalid,
		Message: message,
		Help:    "Create the directory or point working_directory at an existing one",
		Labels:  []errors.Label{{Span: span, Text: "not an existing directory"}},
		Subject: subject,
		Indices: indices,
	}
}

func (c *Coordinator) absolute(path string) string {
	if path == "" || filepath.IsAbs(path) || c.ctx.CurrentDirectory == "" {
		return path
	}
	return filepath.Join(c.ctx.CurrentDirectory, path)
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// maskedInputs renders input values for logging with secrets hidden
func (c *Coordinator) maskedInputs() string {
	inputs := c.ctx.Inputs()
	schema := model.CommandSchema{Inputs: inputs}

	parts := make([]string, 0, len(inputs))
	for _, name := range schema.InputNames() {
		input := inputs[name]
		value := resolver.InputValue(name, input, c.ctx.Matches)
		if input.Secret {
			value = "***"
		}
		parts = append(parts, name+"="+value)
	}
	return strings.Join(parts, " ")
}

// ExitCode maps a run error to a process exit code: 0 on success, the
// failing step's code for a step failure, 1 otherwise
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var stepErr *errors.StepFailedError
	if stderrors.As(err, &stepErr) {
		return stepErr.ExitCode
	}
	return 1
}

func sortedKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
