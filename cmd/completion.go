package cmd

import (
	"github.com/spf13/cobra"
)

// completionCmd generates shell completion scripts.
func completionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate completion scripts for your shell.

  # Bash (add to ~/.bashrc)
  eval "$(flowcanvas completion bash)"

  # Zsh (add to ~/.zshrc)
  eval "$(flowcanvas completion zsh)"

  # Fish
  flowcanvas completion fish | source

  # PowerShell
  flowcanvas completion powershell | Out-String | Invoke-Expression`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				_ = rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				_ = rootCmd.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				_ = rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				_ = rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}

	return cmd
}

// libraryCompletionFunc completes lib:<id> references from the library.
func libraryCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	lib, err := openLibrary()
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}
	defer lib.Close()
	entries, err := lib.List(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}
	completions := []string{refDemo + "\tbuilt-in sample workflow"}
	for _, e := range entries {
		completions = append(completions, refLibrary+e.ID+"\t"+e.Name)
	}
	// Plain files are completed by the shell as well.
	return completions, cobra.ShellCompDirectiveDefault
}

// libraryIDCompletionFunc completes bare library ids.
func libraryIDCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	lib, err := openLibrary()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer lib.Close()
	entries, err := lib.List(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var completions []string
	for _, e := range entries {
		completions = append(completions, e.ID+"\t"+e.Name)
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
