package cmd

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/msalah0e/flowcanvas/internal/config"
	"github.com/msalah0e/flowcanvas/internal/ui"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize configuration",
		Long: `Configuration is read from ` + "`config.toml`" + ` in the flowcanvas config
directory, then from the nearest ` + config.ProjectFile + ` above the working
directory.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the user config file path",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), config.Path())
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a default config file if none exists",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.EnsureExists(); err != nil {
					return err
				}
				ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Config at %s\n", ui.StatusIcon(true), config.Path())
				return nil
			},
		},
	)
	return cmd
}
