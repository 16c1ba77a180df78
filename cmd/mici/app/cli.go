package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/phillarmonic/mici/internal/config"
	"github.com/phillarmonic/mici/internal/errors"
	"github.com/phillarmonic/mici/internal/log"
	"github.com/phillarmonic/mici/internal/paths"
	"github.com/phillarmonic/mici/internal/spec"
)

// App represents the CLI application
type App struct {
	version string
	commit  string
	date    string

	rootCmd *cobra.Command

	stdin  *os.File
	stdout io.Writer
	stderr io.Writer

	// Resolved in setup, before any command runs
	layout paths.Layout
	cfg    config.Config
	logger *slog.Logger
	styles errors.Styles
	loader *spec.Loader

	layoutOverride *paths.Layout
}

// Option configures the application
type Option func(*App)

// WithIO replaces the standard streams
func WithIO(stdin *os.File, stdout, stderr io.Writer) Option {
	return func(a *App) {
		a.stdin = stdin
		a.stdout = stdout
		a.stderr = stderr
	}
}

// WithLayout pins the home directory instead of resolving MICI_HOME or ~/.mici
func WithLayout(layout paths.Layout) Option {
	return func(a *App) {
		a.layoutOverride = &layout
	}
}

// NewApp creates a new CLI application
func NewApp(version, commit, date string, opts ...Option) *App {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		loader:  spec.NewLoader(),
		styles:  errors.PlainStyles(),
	}
	for _, opt := range opts {
		opt(app)
	}

	app.rootCmd = &cobra.Command{
		Use:   "mici [command path...] [--input=value...]",
		Short: "Run declarative YAML commands",
		Long: `mici runs repeatable operations described as YAML command files.

Command files live under ~/.mici/jobs/commands (or $MICI_HOME/jobs/commands);
the path of a command is its location below that directory.

Examples:
  mici deploy web --env prod       # Run jobs/commands/deploy/web.yml
  mici deploy web --help           # Show the inputs of a command
  mici validate deploy web         # Check a command file without running it
  mici list                        # List available commands`,
		RunE:               app.run,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
		ValidArgsFunction: app.completeCommandNames,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	app.rootCmd.SetOut(app.stdout)
	app.rootCmd.SetErr(app.stderr)

	app.setupCommands()

	return app
}

// Execute runs the CLI application
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// Run executes args, renders any failure and returns the process exit code
func (a *App) Run(args []string) int {
	// cobra falls back to os.Args when args is nil
	if args == nil {
		args = []string{}
	}
	a.rootCmd.SetArgs(args)
	return a.report(a.Execute())
}

// setupCommands sets up subcommands
func (a *App) setupCommands() {
	a.rootCmd.AddCommand(a.createValidateCommand())
	a.rootCmd.AddCommand(a.createListCommand())
	a.rootCmd.AddCommand(a.createInitCommand())
	a.rootCmd.AddCommand(a.createVersionCommand())
	a.rootCmd.AddCommand(a.createCompletionCommand())
}

// setup resolves the home layout and loads the global configuration
func (a *App) setup() error {
	if a.layoutOverride != nil {
		a.layout = *a.layoutOverride
	} else {
		layout, err := paths.DefaultLayout()
		if err != nil {
			return err
		}
		a.layout = layout
	}

	cfg, err := config.Load(a.layout.ConfigFile())
	if err != nil {
		return err
	}
	a.cfg = cfg

	logging := cfg.Logging()
	logging.Output = a.stderr
	a.logger = log.New(logging)

	a.styles = errors.ColorStyles()
	if cfg.DisableCLIColor || os.Getenv("NO_COLOR") != "" {
		a.styles = errors.PlainStyles()
	}

	return nil
}

// run is the main command handler: mici <command path...> [flags...]
func (a *App) run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		a.printWelcome()
		return nil
	}

	switch args[0] {
	case "-h", "--help":
		return cmd.Help()
	case "-v", "--version":
		return ShowVersion(a.stdout, a.version, a.commit, a.date)
	}

	return a.runCommand(cmd.Context(), args)
}

func (a *App) printWelcome() {
	if a.layout.Exists() {
		fmt.Fprintf(a.stdout, "> This is mici!\n  Found an existing configuration at %s\n  Try running mici --help to see what's available\n", a.layout.Root)
		return
	}
	fmt.Fprintf(a.stdout, "> This is mici!\n\n  I don't see any existing configuration at %s\n  Try running mici init to initialize mici\n", a.layout.Root)
}
