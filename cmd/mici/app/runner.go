package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/phillarmonic/mici/internal/errors"
	"github.com/phillarmonic/mici/internal/flags"
	"github.com/phillarmonic/mici/internal/runner"
	"github.com/phillarmonic/mici/internal/spec"
)

// CommandNotFoundError reports a command path with no command file
type CommandNotFoundError struct {
	Parts []string
	Path  string
}

// Error implements the error interface
func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command '%s' doesn't exist at %s", strings.Join(e.Parts, " "), e.Path)
}

// SplitArgs separates the command path from the flags that follow it. The
// path ends at the first argument starting with "-". help is set when the
// last argument is -h or --help; it is removed from flagArgs.
func SplitArgs(args []string) (parts, flagArgs []string, help bool) {
	end := len(args)
	for i, arg := range args {
		if strings.HasPrefix(arg, "-") {
			end = i
			break
		}
	}

	parts = args[:end]
	flagArgs = args[end:]

	if n := len(flagArgs); n > 0 && (flagArgs[n-1] == "--help" || flagArgs[n-1] == "-h") {
		help = true
		flagArgs = flagArgs[:n-1]
	}

	return parts, flagArgs, help
}

// runCommand loads, validates and runs the command at the given path
func (a *App) runCommand(ctx context.Context, args []string) error {
	parts, flagArgs, help := SplitArgs(args)
	if len(parts) == 0 {
		return fmt.Errorf("no command path given before %s", flagArgs[0])
	}

	doc, err := a.loadCommand(parts)
	if err != nil {
		return err
	}

	matches, err := flags.New(strings.Join(parts, " "), doc.Schema.Inputs)
	if err != nil {
		return err
	}

	if help {
		a.printCommandHelp(parts, doc, matches)
		return nil
	}

	if err := matches.Parse(flagArgs); err != nil {
		return err
	}
	if extra := matches.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(extra, " "))
	}
	if err := flags.ValidateInputs(doc.Schema.Inputs, matches); err != nil {
		return err
	}

	runID := uuid.NewString()
	a.logger.Debug("running command", "run_id", runID, "document", doc.String())

	runCtx, err := runner.NewContext(doc, matches)
	if err != nil {
		return err
	}

	coordinator := runner.NewCoordinator(
		runCtx,
		runner.WithLogger(a.logger),
		runner.WithOutput(a.stdout, a.stderr),
		runner.WithScriptsDir(a.layout.ScriptsDir()),
		runner.WithConfirmer(runner.StdinConfirmer(a.stdin, a.stdout, a.logger)),
		runner.WithRunID(runID),
	)
	return coordinator.Run(ctx)
}

// loadCommand resolves a command path to its file and loads it
func (a *App) loadCommand(parts []string) (*spec.Document, error) {
	path, exists := a.layout.CommandFile(parts)
	if !exists {
		return nil, &CommandNotFoundError{Parts: parts, Path: path}
	}
	return a.loader.Load(path)
}

func (a *App) printCommandHelp(parts []string, doc *spec.Document, matches *flags.Set) {
	schema := doc.Schema

	fmt.Fprintf(a.stdout, "%s\n", a.styles.Title.Render(schema.Name))
	if schema.Description != "" {
		fmt.Fprintf(a.stdout, "\n%s\n", schema.Description)
	}

	fmt.Fprintf(a.stdout, "\nUsage:\n")
	if schema.Usage != "" {
		fmt.Fprintf(a.stdout, "  %s\n", strings.TrimSpace(schema.Usage))
	} else {
		fmt.Fprintf(a.stdout, "  mici %s [flags]\n", strings.Join(parts, " "))
	}

	if usage := matches.Usage(); usage != "" {
		fmt.Fprintf(a.stdout, "\nInputs:\n%s", usage)
	}

	fmt.Fprintf(a.stdout, "\nFile: %s\n", a.styles.Location.Render(doc.Path))
}

// report renders err and maps it to an exit code
func (a *App) report(err error) int {
	if err == nil {
		return 0
	}

	var (
		diagnostics *errors.DiagnosticList
		loadErr     *errors.LoadError
		stepErr     *errors.StepFailedError
		notFound    *CommandNotFoundError
	)

	switch {
	case stderrors.As(err, &diagnostics):
		fmt.Fprint(a.stderr, diagnostics.FormatErrors(a.styles))
	case stderrors.As(err, &loadErr):
		fmt.Fprint(a.stderr, loadErr.FormatError(a.styles))
	case stderrors.As(err, &stepErr):
		fmt.Fprintf(a.stderr, "%s %s\n", a.styles.Error.Render("Execution failed:"), stepErr.Error())
	case stderrors.As(err, &notFound):
		fmt.Fprintf(a.stderr, "> Can't run command.\n\n  %s\n  Check the available commands with %s\n",
			notFound.Error(), a.styles.Help.Render("mici list"))
	default:
		fmt.Fprintf(a.stderr, "%s: %v\n", a.styles.Error.Render("Error"), err)
	}

	return runner.ExitCode(err)
}
