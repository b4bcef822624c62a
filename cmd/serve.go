package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/msalah0e/flowcanvas/internal/logging"
	"github.com/msalah0e/flowcanvas/internal/server"
	"github.com/msalah0e/flowcanvas/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var (
		addr      string
		noLibrary bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live canvases over HTTP",
		Long: `Run the canvas server. Each mounted canvas is a session that keeps its
own view, selection and edits; the browser page at /view/<session> drives it.

  flowcanvas serve
  curl -X POST localhost:7420/api/sessions -d '{"workflowId":"<id>"}'
  open http://localhost:7420/view/<session>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			ttl, err := cfg.SessionTTL()
			if err != nil {
				return err
			}
			copts, err := canvasOptions()
			if err != nil {
				return err
			}

			opts := server.Options{
				Addr:       cfg.Serve.Addr,
				SessionTTL: ttl,
				Canvas:     copts,
				Render:     renderOptions(),
				Padding:    cfg.Render.Padding,
				Logger:     logging.L(),
			}
			if !noLibrary {
				lib, err := openLibrary()
				if err != nil {
					return err
				}
				defer lib.Close()
				opts.Library = lib
			}

			ui.Banner(cmd.OutOrStdout(), "serve")
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  http://%s\n", ui.Brand.Sprintf("%-10s", "Listening"), cfg.Serve.Addr)
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", ui.Brand.Sprintf("%-10s", "Sessions"), ttl)
			if opts.Library != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", ui.Brand.Sprintf("%-10s", "Library"), cfg.LibraryPath())
			}
			fmt.Fprintln(cmd.OutOrStdout())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := server.New(opts).Run(ctx); err != nil {
				logging.L().Error("canvas server failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:7420)")
	cmd.Flags().BoolVar(&noLibrary, "no-library", false, "Serve without the workflow library")
	return cmd
}
