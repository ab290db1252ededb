package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	var noDesc bool
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for ogbrand.

  bash:        source <(ogbrand completion bash)
  zsh:         ogbrand completion zsh > "${fpath[1]}/_ogbrand"
  fish:        ogbrand completion fish > ~/.config/fish/completions/ogbrand.fish
  powershell:  ogbrand completion powershell | Out-String | Invoke-Expression

Start a new shell for the completions to take effect.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(stdout, !noDesc)
			case "zsh":
				if noDesc {
					return root.GenZshCompletionNoDesc(stdout)
				}
				return root.GenZshCompletion(stdout)
			case "fish":
				return root.GenFishCompletion(stdout, !noDesc)
			case "powershell":
				if noDesc {
					return root.GenPowerShellCompletion(stdout)
				}
				return root.GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noDesc, "no-descriptions", false, "omit command descriptions")
	return cmd
}
