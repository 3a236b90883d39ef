package present

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"captionmux/internal/captions"
	"captionmux/internal/language"
	"captionmux/internal/logging"
	"captionmux/internal/pipeline"
)

// Track describes the caption track attached to the presented video.
type Track struct {
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	SrcLang string `json:"srclang"`
	Default bool   `json:"default"`
	Mode    string `json:"mode"`
}

// ViewHandle points at a presented artifact.
type ViewHandle struct {
	RunID        string `json:"run_id"`
	VideoPath    string `json:"video_path"`
	CaptionsPath string `json:"captions_path"`
	MIMEType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	Track        Track  `json:"track"`
}

// Presenter owns the currently presented handle.
type Presenter struct {
	dir    string
	track  Track
	logger *slog.Logger

	mu      sync.Mutex
	current *ViewHandle
}

// New constructs a presenter writing into dir. lang selects the track label
// and srclang.
func New(dir, lang string, logger *slog.Logger) *Presenter {
	srclang := language.ToISO2(lang)
	if srclang == "" {
		srclang = "en"
	}
	return &Presenter{
		dir: dir,
		track: Track{
			Kind:    "subtitles",
			Label:   language.DisplayName(srclang),
			SrcLang: srclang,
			Default: true,
			Mode:    "showing",
		},
		logger: logging.NewComponentLogger(logger, "present"),
	}
}

// Present writes artifact for runID and makes it current.
func (p *Presenter) Present(runID string, artifact *pipeline.Artifact) (*ViewHandle, error) {
	if artifact == nil {
		return nil, errors.New("present: artifact is nil")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" || filepath.Base(runID) != runID {
		return nil, fmt.Errorf("present: invalid run id %q", runID)
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("present: create output dir: %w", err)
	}

	handle := &ViewHandle{
		RunID:        runID,
		VideoPath:    filepath.Join(p.dir, runID+".mp4"),
		CaptionsPath: filepath.Join(p.dir, runID+".vtt"),
		MIMEType:     artifact.MIMEType,
		Size:         int64(len(artifact.VideoBytes)),
		Track:        p.track,
	}
	if err := writeAtomic(handle.VideoPath, artifact.VideoBytes); err != nil {
		return nil, err
	}
	if err := writeAtomic(handle.CaptionsPath, []byte(captions.ToWebVTT(artifact.CaptionText))); err != nil {
		_ = os.Remove(handle.VideoPath)
		return nil, err
	}

	p.mu.Lock()
	previous := p.current
	p.current = handle
	p.mu.Unlock()

	if previous != nil && previous.RunID != handle.RunID {
		p.remove(previous)
	}
	p.logger.Info("artifact presented",
		logging.String(logging.FieldEventType, "artifact_presented"),
		logging.String(logging.FieldRunID, runID),
		logging.String("video_path", handle.VideoPath),
		logging.Int64("size", handle.Size),
	)
	return handle, nil
}

// Current returns the presented handle, if any.
func (p *Presenter) Current() *ViewHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	copied := *p.current
	return &copied
}

// Release removes the presented files. It is a no-op when nothing is
// presented.
func (p *Presenter) Release() {
	p.mu.Lock()
	previous := p.current
	p.current = nil
	p.mu.Unlock()
	if previous != nil {
		p.remove(previous)
	}
}

func (p *Presenter) remove(handle *ViewHandle) {
	for _, path := range []string{handle.VideoPath, handle.CaptionsPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(p.logger, "failed to release presented file", "artifact_release_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale output left in the output directory"),
			)
		}
	}
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".present-*")
	if err != nil {
		return fmt.Errorf("present: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("present: write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("present: close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("present: publish %s: %w", filepath.Base(path), err)
	}
	return nil
}
