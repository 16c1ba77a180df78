package app

import (
	"fmt"
	"io"
	"os"

	"github.com/phillarmonic/figlet/figletlib"
	"github.com/spf13/cobra"
)

// createVersionCommand creates the version subcommand
func (a *App) createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ShowVersion(a.stdout, a.version, a.commit, a.date)
		},
	}
}

// ShowVersion displays version information with ASCII art
func ShowVersion(w io.Writer, version, commit, date string) error {
	loader := figletlib.NewEmbededLoader()
	font, err := loader.GetFontByName("standard")
	if err != nil {
		return err
	}

	startColor, _ := figletlib.ParseColor("#00FF95")
	endColor, _ := figletlib.ParseColor("#00C2FF")
	gradientConfig := figletlib.ColorConfig{
		Mode:       figletlib.ColorModeGradient,
		StartColor: startColor,
		EndColor:   endColor,
	}

	// The banner is printed straight to the process stdout
	if w == os.Stdout {
		fmt.Fprintln(w, "")
		figletlib.PrintColoredMsg("mici", font, 80, font.Settings(), "left", gradientConfig)
	}

	fmt.Fprintln(w, "Declarative YAML commands, run in order.")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Version %s\n", version)
	if commit != "unknown" {
		fmt.Fprintf(w, "commit: %s\n", commit)
	}
	if date != "unknown" {
		fmt.Fprintf(w, "built: %s\n", date)
	}
	return nil
}
