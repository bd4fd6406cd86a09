package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/hubtags/pkg/pipeline"
	"github.com/matzehuels/hubtags/pkg/versions"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for hubtags.

To load completions:

Bash:
  $ source <(hubtags completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ hubtags completion bash > /etc/bash_completion.d/hubtags
  # macOS:
  $ hubtags completion bash > $(brew --prefix)/etc/bash_completion.d/hubtags

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ hubtags completion zsh > "${fpath[1]}/_hubtags"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ hubtags completion fish | source

  # To load completions for each session, execute once:
  $ hubtags completion fish > ~/.config/fish/completions/hubtags.fish

PowerShell:
  PS> hubtags completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> hubtags completion powershell > hubtags.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := c.Out
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// registerFlagCompletions adds value completion for the enumerated flags.
func registerFlagCompletions(cmd *cobra.Command) {
	fixed := func(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp
		}
	}
	_ = cmd.RegisterFlagCompletionFunc("format", fixed(pipeline.FormatJSON, pipeline.FormatYAML, pipeline.FormatTable))
	_ = cmd.RegisterFlagCompletionFunc("parser", fixed(versions.ParserLenient, versions.ParserStrict))
}
