package cmd

import (
	"fmt"
	"os"

	"github.com/msalah0e/flowcanvas/internal/config"
	"github.com/msalah0e/flowcanvas/internal/logging"
	"github.com/msalah0e/flowcanvas/internal/ui"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

var (
	cfg        *config.Config
	configFile string
	logLevel   string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "flowcanvas",
	Short: "flowcanvas — render and explore workflow graphs",
	Long: ui.Brand.Sprint(ui.Glyph+" flowcanvas") + " — render and explore automation workflows\n" +
		ui.Subtle.Sprint("Lay out n8n-style workflows as SVG, PNG, HTML or DOT, or serve them as live canvases"),
	Version:       version + " " + ui.Glyph,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configFile != "" {
			cfg, err = config.LoadFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if err := logging.Init(cfg.Log.Level); err != nil {
			return err
		}
		_, noColorEnv := os.LookupEnv("NO_COLOR")
		ui.SetColor(cfg.UI.Color && !noColor && !noColorEnv)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.SetVersionTemplate("flowcanvas {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Read configuration from this file only")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		renderCmd(),
		viewCmd(),
		inspectCmd(),
		validateCmd(),
		serveCmd(),
		libraryCmd(),
		configCmd(),
		completionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		ui.Bad.Fprintf(os.Stderr, "  flowcanvas: %v\n", err)
		return err
	}
	return nil
}
