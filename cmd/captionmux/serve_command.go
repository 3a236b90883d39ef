package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"captionmux/internal/app"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the captioning API and event stream over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind := strings.TrimSpace(bindFlag); bind != "" {
				cfg.Server.Bind = bind
			}
			logger, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			out := cmd.OutOrStdout()
			return app.Serve(cmd.Context(), cfg, logger, app.ServeOptions{
				Ready: func(addr string) {
					fmt.Fprintf(out, "captionmux listening on http://%s\n", addr)
				},
			})
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Override the configured listen address")
	return cmd
}
