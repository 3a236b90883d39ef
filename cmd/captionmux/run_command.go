package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"captionmux/internal/app"
	"captionmux/internal/config"
	"captionmux/internal/events"
	"captionmux/internal/fileutil"
	"captionmux/internal/intake"
	"captionmux/internal/preflight"
	"captionmux/internal/session"
)

type runResult struct {
	RunID    string `json:"run_id"`
	Engine   string `json:"engine"`
	Output   string `json:"output"`
	Bytes    int64  `json:"bytes"`
	Captions string `json:"captions"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var captionText string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run <video.mp4> [captions.vtt]",
		Short: "Embed captions into a video and write the result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && strings.TrimSpace(captionText) == "" {
				return errors.New("provide a caption file or --text")
			}
			if len(args) == 2 && captionText != "" {
				return errors.New("use either a caption file or --text, not both")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := app.Open(cfg, logger, app.Options{})
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer closeCancel()
				_ = a.Close(closeCtx)
			}()

			stderr := cmd.ErrOrStderr()
			if err := checkRunPreflight(signalCtx, cfg); err != nil {
				return err
			}
			if err := a.LoadEngine(signalCtx); err != nil {
				snap := a.Session.Snapshot()
				fmt.Fprintln(stderr, snap.Status.Message)
				if snap.Status.Hint != "" {
					fmt.Fprintln(stderr, snap.Status.Hint)
				}
				return err
			}

			sess := a.Session
			if err := loadRunInputs(sess, args, captionText); err != nil {
				return err
			}
			outputPath = strings.TrimSpace(outputPath)
			if outputPath == "" {
				outputPath = defaultOutputPath(args[0])
			}

			renderer := newProgressRenderer(cmd.OutOrStdout())
			if jsonOutput {
				renderer = newProgressRenderer(stderr)
			}
			feed, unsubscribe := sess.Bus().Subscribe(256)
			defer unsubscribe()

			runID, err := sess.Start(signalCtx)
			if err != nil {
				return err
			}
			runErr := waitWithProgress(signalCtx, sess, feed, renderer)
			renderer.finish()
			if runErr != nil {
				if errors.Is(runErr, context.Canceled) {
					return runErr
				}
				snap := sess.Snapshot()
				fmt.Fprintln(stderr, snap.Status.Message)
				if snap.Status.Hint != "" {
					fmt.Fprintln(stderr, snap.Status.Hint)
				}
				return fmt.Errorf("run %s failed", runID)
			}

			handle := sess.Result()
			if handle == nil {
				return fmt.Errorf("run %s produced no output", runID)
			}
			if err := fileutil.Export(handle.VideoPath, outputPath); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			result := runResult{
				RunID:    runID,
				Engine:   sess.Snapshot().Engine,
				Output:   outputPath,
				Bytes:    handle.Size,
				Captions: handle.CaptionsPath,
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sess.Snapshot().Status.Message)
			fmt.Fprintf(out, "Output: %s (%.2f MB, %s engine)\n", result.Output, float64(result.Bytes)/(1024*1024), result.Engine)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination for the captioned video (default <video>-captioned.mp4)")
	cmd.Flags().StringVar(&captionText, "text", "", "Caption text to embed instead of a caption file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

func loadRunInputs(sess *session.Session, args []string, captionText string) error {
	video, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer video.Close()
	if _, err := sess.AcceptVideo(filepath.Base(args[0]), video); err != nil {
		return err
	}

	if len(args) == 2 {
		file, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("open captions: %w", err)
		}
		defer file.Close()
		if _, err := sess.AcceptCaptionFile(filepath.Base(args[1]), file); err != nil {
			return err
		}
	} else {
		sess.AcceptCaptionText(captionText)
	}
	if !sess.IsReady() {
		return &intake.ValidationError{Reason: intake.ReasonEmpty, Message: "Caption input is empty."}
	}
	return nil
}

func checkRunPreflight(ctx context.Context, cfg *config.Config) error {
	var failed []string
	for _, result := range preflight.RunAll(ctx, cfg) {
		if !result.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("preflight failed: %s", strings.Join(failed, "; "))
	}
	return nil
}

// waitWithProgress renders events until the run goroutine exits.
func waitWithProgress(ctx context.Context, sess *session.Session, feed <-chan events.Event, renderer *progressRenderer) error {
	done := make(chan error, 1)
	go func() { done <- sess.Wait(ctx) }()
	for {
		select {
		case event := <-feed:
			renderer.render(event)
		case err := <-done:
			for {
				select {
				case event := <-feed:
					renderer.render(event)
				default:
					return err
				}
			}
		}
	}
}

func defaultOutputPath(videoPath string) string {
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + "-captioned.mp4"
}
