package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phillarmonic/mici/internal/paths"
	"github.com/phillarmonic/mici/internal/spec"
)

// createValidateCommand creates the validate subcommand
func (a *App) createValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <command path...|file>",
		Short: "Check a command file without running it",
		Long: `Load a command file and report every schema problem at once.

The argument is either a command path, as used to run the command, or a
path to a .yml/.yaml file.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: a.completeCommandNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadForValidation(args)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "> Command is valid: %s (%s)\n", doc.Schema.Name, doc.Path)
			return nil
		},
	}
}

func (a *App) loadForValidation(args []string) (*spec.Document, error) {
	if len(args) == 1 && isCommandFile(args[0]) {
		return a.loader.Load(args[0])
	}
	return a.loadCommand(args)
}

func isCommandFile(arg string) bool {
	ext := filepath.Ext(arg)
	for _, e := range paths.Extensions {
		if ext == e {
			info, err := os.Stat(arg)
			return err == nil && !info.IsDir()
		}
	}
	return false
}
