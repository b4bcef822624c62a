package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/msalah0e/flowcanvas/internal/ui"
	"github.com/msalah0e/flowcanvas/internal/workflow"
	"github.com/spf13/cobra"
)

func libraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "library",
		Short:   "Manage the local workflow library",
		Aliases: []string{"lib"},
		Long: `Workflows imported into the library can be rendered as lib:<id> and
mounted by id on the canvas server.

  flowcanvas library import flows/*.json
  flowcanvas library list
  flowcanvas render lib:<id> -o flow.png`,
	}

	cmd.AddCommand(
		libraryImportCmd(),
		libraryListCmd(),
		libraryShowCmd(),
		libraryRemoveCmd(),
	)
	return cmd
}

func libraryImportCmd() *cobra.Command {
	var inputFormat string

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import or replace workflows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			defer lib.Close()

			for _, ref := range args {
				wf, err := loadWorkflow(cmd.Context(), ref, inputFormat)
				if err != nil {
					return fmt.Errorf("%s: %w", ref, err)
				}
				source := ref
				if ref != refDemo && ref != refStdin {
					if abs, err := filepath.Abs(ref); err == nil {
						source = abs
					}
				}
				if err := lib.Put(cmd.Context(), wf, source); err != nil {
					return fmt.Errorf("%s: %w", ref, err)
				}
				ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Imported %s %s\n",
					ui.StatusIcon(true), ui.Brand.Sprint(wf.Name), ui.Subtle.Sprint(wf.ID))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Input format when it cannot be told from the extension")
	return cmd
}

func libraryListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List library workflows",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			defer lib.Close()

			entries, err := lib.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				data, _ := json.MarshalIndent(entries, "", "  ")
				fmt.Fprintln(out, string(data))
				return nil
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "  Library is empty. Get started:")
				fmt.Fprintln(out)
				ui.Info.Fprintln(out, "  flowcanvas library import <file>")
				return nil
			}

			ui.Banner(out, "library")
			var rows [][]string
			for _, e := range entries {
				rows = append(rows, []string{
					e.Name,
					ui.Subtle.Sprint(e.ID),
					fmt.Sprintf("%d", e.Nodes),
					fmt.Sprintf("%d", e.Links),
					e.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			ui.Table(out, []string{"Name", "ID", "Nodes", "Links", "Updated"}, rows)
			fmt.Fprintf(out, "\n  %d workflows\n", len(entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func libraryShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:               "show <id>",
		Short:             "Print a library workflow",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: libraryIDCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			defer lib.Close()

			wf, err := lib.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := workflow.Encode(wf, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", workflow.FormatJSON, "Output format: json, yaml, toml")
	return cmd
}

func libraryRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "remove <id>",
		Short:             "Remove a workflow from the library",
		Aliases:           []string{"rm"},
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: libraryIDCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			defer lib.Close()

			if err := lib.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Removed %s\n", ui.StatusIcon(true), args[0])
			return nil
		},
	}
}
