package app

import (
	"strings"

	"github.com/spf13/cobra"
)

// completeCommandNames completes the next segment of a command path
func (a *App) completeCommandNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if err := a.setup(); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	commands, err := a.layout.ListCommands(args)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	seen := make(map[string]bool)
	var completions []string
	for _, c := range commands {
		if len(c.Parts) <= len(args) {
			continue
		}
		rest := c.Parts[len(args):]
		if len(rest) == 0 || !strings.HasPrefix(rest[0], toComplete) || seen[rest[0]] {
			continue
		}
		seen[rest[0]] = true

		if len(rest) == 1 {
			completions = append(completions, rest[0]+"\t"+describe(c))
		} else {
			completions = append(completions, rest[0]+"\t[directory]")
		}
	}

	return completions, cobra.ShellCompDirectiveNoFileComp
}

// createCompletionCommand creates the completion subcommand
func (a *App) createCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate completion script",
		Long: `Generate shell completion script for mici.

Bash:
  $ source <(mici completion bash)

Zsh:
  $ mici completion zsh > "${fpath[1]}/_mici"

Fish:
  $ mici completion fish | source

PowerShell:
  PS> mici completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return a.rootCmd.GenBashCompletion(a.stdout)
			case "zsh":
				return a.rootCmd.GenZshCompletion(a.stdout)
			case "fish":
				return a.rootCmd.GenFishCompletion(a.stdout, true)
			default:
				return a.rootCmd.GenPowerShellCompletionWithDesc(a.stdout)
			}
		},
	}
}
