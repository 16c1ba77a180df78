package app

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/phillarmonic/mici/internal/paths"
	"github.com/phillarmonic/mici/internal/spec"
)

// createListCommand creates the list subcommand
func (a *App) createListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [directory...]",
		Short: "List available commands",
		Long:  "Displays all available commands, optionally filtered by directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			commands, err := a.layout.ListCommands(args)
			if err != nil {
				return err
			}

			if len(commands) == 0 {
				fmt.Fprintf(a.stdout, "> No commands found in %s\n", a.layout.CommandsDir())
				return nil
			}

			a.printCommands(commands)
			return nil
		},
	}
}

func (a *App) printCommands(commands []paths.Command) {
	width := 0
	for _, c := range commands {
		if w := lipgloss.Width(c.Name()); w > width {
			width = w
		}
	}

	nameStyle := a.styles.Title.Width(width + 2)
	fmt.Fprintf(a.stdout, "> Available commands:\n\n")

	for _, c := range commands {
		description := describe(c)
		fmt.Fprintf(a.stdout, "  %s%s\n", nameStyle.Render(c.Name()), description)
	}
}

// describe summarizes a command file without validating it
func describe(c paths.Command) string {
	doc, err := spec.Read(c.Path)
	if err != nil {
		return "(unreadable command file)"
	}

	description := doc.Schema.Name
	if doc.Schema.Description != "" {
		description += " - " + doc.Schema.Description
	}
	return description
}
