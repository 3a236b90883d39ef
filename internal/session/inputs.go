package session

import (
	"io"

	"captionmux/internal/events"
	"captionmux/internal/intake"
	"captionmux/internal/logging"
)

// AcceptVideo validates and stores a video upload. A rejected upload leaves
// the current inputs untouched.
func (s *Session) AcceptVideo(name string, r io.Reader) (intake.Info, error) {
	video, err := s.validator.AcceptVideo(name, r)
	if err != nil {
		s.logger.Info("video rejected",
			logging.String(logging.FieldEventType, "video_rejected"),
			logging.String("video_name", name),
			logging.Error(err),
		)
		return s.inputInfo(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs.Video = video
	s.logger.Info("video accepted",
		logging.String(logging.FieldEventType, "video_accepted"),
		logging.String("video_name", video.Name),
		logging.Int64("video_bytes", video.Size),
		logging.String("mime", video.MIME),
	)
	s.inputsChangedLocked()
	return s.inputs.Info(), nil
}

// CheckVideoSize rejects a declared upload size above the cap.
func (s *Session) CheckVideoSize(size int64) error {
	return s.validator.CheckVideoSize(size)
}

// AcceptCaptionText stores pasted caption text. Blank text clears captions.
func (s *Session) AcceptCaptionText(text string) intake.Info {
	captions := s.validator.AcceptCaptionText(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs.Captions = captions
	s.inputsChangedLocked()
	return s.inputs.Info()
}

// AcceptCaptionFile reads, decodes and stores an uploaded caption file.
func (s *Session) AcceptCaptionFile(name string, r io.Reader) (intake.Info, error) {
	captions, err := s.validator.AcceptCaptionFile(name, r)
	if err != nil {
		return s.inputInfo(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs.Captions = captions
	s.inputsChangedLocked()
	return s.inputs.Info(), nil
}

// IsReady reports whether both inputs are present.
func (s *Session) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs.IsReady()
}

func (s *Session) inputInfo() intake.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs.Info()
}

func (s *Session) inputsChangedLocked() {
	info := s.inputs.Info()
	s.bus.Publish(events.Event{
		Type:    events.TypeStatus,
		Kind:    s.status.Kind,
		Message: s.status.Message,
		Hint:    s.status.Hint,
		Visible: s.visible,
	})
	s.logger.Debug("inputs changed",
		logging.String("video", info.Video),
		logging.String("captions", info.Captions),
		logging.Bool("trigger_enabled", s.triggerEnabledLocked()),
	)
}
