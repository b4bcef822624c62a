package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/msalah0e/flowcanvas/internal/canvas"
	"github.com/msalah0e/flowcanvas/internal/render"
	"github.com/msalah0e/flowcanvas/internal/scene"
	"github.com/msalah0e/flowcanvas/internal/ui"
	"github.com/msalah0e/flowcanvas/internal/workflow"
	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	var (
		inputFormat string
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:               "inspect <workflow>",
		Short:             "Show the laid-out nodes and edges of a workflow",
		Aliases:           []string{"info"},
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: libraryCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := loadWorkflow(cmd.Context(), args[0], inputFormat)
			if err != nil {
				return err
			}
			opts, err := canvasOptions()
			if err != nil {
				return err
			}
			sc := canvas.New(wf, opts).Scene()
			out := cmd.OutOrStdout()

			if jsonOutput {
				data, _ := json.MarshalIndent(sc, "", "  ")
				fmt.Fprintln(out, string(data))
				return nil
			}

			ui.Banner(out, "inspect")
			fmt.Fprintf(out, "  %s  %s\n", ui.Brand.Sprintf("%-12s", "Name"), sc.Name)
			fmt.Fprintf(out, "  %s  %s\n", ui.Brand.Sprintf("%-12s", "ID"), sc.WorkflowID)
			if sc.Description != "" {
				fmt.Fprintf(out, "  %s  %s\n", ui.Brand.Sprintf("%-12s", "Description"), sc.Description)
			}
			fmt.Fprintf(out, "  %s  %s\n", ui.Brand.Sprintf("%-12s", "Status"), statusText(sc))
			fmt.Fprintf(out, "  %s  %d placed / %d total\n", ui.Brand.Sprintf("%-12s", "Nodes"), len(sc.Nodes), len(wf.Nodes))
			fmt.Fprintf(out, "  %s  %d drawn / %d dropped\n", ui.Brand.Sprintf("%-12s", "Edges"), len(sc.Edges), sc.Dropped)
			if sc.Status == scene.StatusReady {
				b := sc.Bounds
				fmt.Fprintf(out, "  %s  %.0f×%.0f at (%.0f, %.0f)\n", ui.Brand.Sprintf("%-12s", "Bounds"), b.W, b.H, b.X, b.Y)
			}

			if len(sc.Nodes) > 0 {
				fmt.Fprintln(out)
				var rows [][]string
				for _, n := range sc.Nodes {
					d := n.Descriptor
					rows = append(rows, []string{
						ui.Swatch(d.Color) + " " + d.Icon,
						n.Name,
						d.Category.String(),
						n.Type,
						fmt.Sprintf("%.0f, %.0f", n.Box.X, n.Box.Y),
					})
				}
				ui.Table(out, []string{"", "Node", "Category", "Type", "Position"}, rows)
			}

			if len(sc.Edges) > 0 {
				fmt.Fprintln(out)
				var rows [][]string
				for _, e := range sc.Edges {
					src, _ := sc.Node(e.Source)
					dst, _ := sc.Node(e.Target)
					rows = append(rows, []string{src.Name, "→", dst.Name, ui.Subtle.Sprint(e.Label)})
				}
				ui.Table(out, []string{"From", "", "To", "Label"}, rows)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Input format when it cannot be told from the extension")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the scene as JSON")
	return cmd
}

func statusText(sc scene.Scene) string {
	switch sc.Status {
	case scene.StatusReady:
		return ui.Good.Sprint("ready")
	case scene.StatusEmpty:
		return ui.Warn.Sprint(sc.Message)
	}
	return ui.Bad.Sprint(sc.Message)
}

func validateCmd() *cobra.Command {
	var (
		inputFormat string
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:               "validate <workflow>...",
		Short:             "Report problems the canvas would silently work around",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: libraryCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			reports := make(map[string]workflow.Report, len(args))
			for _, ref := range args {
				wf, err := loadWorkflow(cmd.Context(), ref, inputFormat)
				if err != nil {
					return fmt.Errorf("%s: %w", ref, err)
				}
				rep := workflow.Validate(wf)
				reports[ref] = rep
				if !rep.OK() {
					failed++
				}
				if jsonOutput {
					continue
				}

				fmt.Fprintf(out, "  %s %s %s\n", ui.StatusIcon(rep.OK()), ref,
					ui.Subtle.Sprintf("(%d nodes, %d links, %d dropped)", rep.Nodes, rep.Links, rep.Dropped))
				for _, is := range rep.Issues {
					node := ""
					if is.Node != "" {
						node = ui.Brand.Sprint(is.Node) + ": "
					}
					fmt.Fprintf(out, "      %s %s %s%s\n", ui.WarnIcon(), ui.Warn.Sprint(is.Kind), node, is.Detail)
				}
			}

			if jsonOutput {
				data, _ := json.MarshalIndent(reports, "", "  ")
				fmt.Fprintln(out, string(data))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d workflows have issues", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Input format when it cannot be told from the extension")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output reports as JSON")
	return cmd
}

func viewCmd() *cobra.Command {
	var (
		inputFormat string
		output      string
		noOpen      bool
	)

	cmd := &cobra.Command{
		Use:   "view [workflow]",
		Short: "Open an interactive canvas page in the browser",
		Long: `Write a self-contained HTML canvas with pan, zoom and selection, then
open it. Without an argument the built-in demo workflow is shown.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: libraryCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := refDemo
			if len(args) == 1 {
				ref = args[0]
			}
			wf, err := loadWorkflow(cmd.Context(), ref, inputFormat)
			if err != nil {
				return err
			}
			opts, err := canvasOptions()
			if err != nil {
				return err
			}
			h := canvas.New(wf, opts)
			ropts := renderOptions()
			if cfg.Render.Fit {
				h.FitView(orDefault(ropts.Width, render.DefaultWidth), orDefault(ropts.Height, render.DefaultHeight), cfg.Render.Padding)
			}

			if output == "" {
				output = filepath.Join(os.TempDir(), "flowcanvas-"+outputName(ref)+".html")
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := h.Render(f, render.FormatHTML, ropts); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			snap := h.Snapshot()
			if noOpen {
				fmt.Fprintln(cmd.OutOrStdout(), output)
				return nil
			}
			if err := openBrowser(output); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  HTML written to: %s\n", output)
				fmt.Fprintln(cmd.OutOrStdout(), "  Open it in your browser to see the canvas")
				return nil
			}
			ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Opened %s (%d nodes, %d edges)\n",
				ui.StatusIcon(true), ui.Brand.Sprint(wf.Name), snap.Nodes, snap.Edges)
			ui.Subtle.Fprintf(cmd.OutOrStdout(), "  %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Input format when it cannot be told from the extension")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Where to write the page (default a temp file)")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Only write the page and print its path")
	return cmd
}
