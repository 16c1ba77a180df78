package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phillarmonic/mici/internal/config"
)

// createInitCommand creates the init subcommand
func (a *App) createInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the mici home directory",
		Long: `Create the commands and scripts directories and a default config.yml.

Existing files are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, dir := range []string{a.layout.CommandsDir(), a.layout.ScriptsDir()} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create %s: %w", dir, err)
				}
			}

			path := a.layout.ConfigFile()
			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := config.Default().Save(path); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "> Created %s\n", path)
			}

			fmt.Fprintf(a.stdout, "> mici is ready at %s\n  Add command files to %s\n", a.layout.Root, a.layout.CommandsDir())
			return nil
		},
	}
}
