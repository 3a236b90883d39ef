package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"captionmux/internal/deps"
	"captionmux/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check media engines and workspace readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			engines := deps.CheckEngines(cfg)
			rows := make([][]string, 0, len(engines)+3)
			anyEngine := false
			for _, status := range engines {
				state := "missing"
				switch {
				case status.Available:
					state = "ok"
					anyEngine = true
				case status.Optional:
					state = "missing (optional)"
				}
				rows = append(rows, []string{status.Name, state, status.Command, detailOr(status.Detail, status.Description)})
			}

			checks := preflight.RunAll(cmd.Context(), cfg)
			for _, check := range checks {
				state := "ok"
				if !check.Passed {
					state = "failed"
				}
				rows = append(rows, []string{check.Name, state, "", check.Detail})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Command", "Detail"}, rows, nil))
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			}

			switch {
			case !anyEngine:
				return errors.New("no media engine available; install ffmpeg or a container runtime")
			case preflight.Failed(checks):
				return errors.New("workspace checks failed")
			}
			return nil
		},
	}
}

func detailOr(detail, fallback string) string {
	if detail != "" {
		return detail
	}
	return fallback
}
