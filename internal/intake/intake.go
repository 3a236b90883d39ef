package intake

import (
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"captionmux/internal/captions"
	"captionmux/internal/services"
)

// DefaultMaxCaptionBytes caps caption file uploads.
const DefaultMaxCaptionBytes = 5 << 20

// Reason names why an input was rejected.
type Reason string

const (
	ReasonTooLarge Reason = "too_large"
	ReasonNotVideo Reason = "not_video"
	ReasonEmpty    Reason = "empty"
)

// ValidationError reports a rejected input. It matches services.ErrValidation.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return services.ErrValidation
}

// Video is an accepted video upload.
type Video struct {
	Name string
	Size int64
	MIME string
	Data []byte
}

// CaptionSource records where caption text came from.
type CaptionSource string

const (
	SourceText CaptionSource = "text"
	SourceFile CaptionSource = "file"
)

// Captions is accepted caption text.
type Captions struct {
	Text     string
	Source   CaptionSource
	FileName string
	Size     int64
	Info     captions.Info
}

// Validator applies acceptance rules to uploads.
type Validator struct {
	maxVideoBytes   int64
	maxCaptionBytes int64
}

// NewValidator builds a validator enforcing maxVideoBytes.
func NewValidator(maxVideoBytes int64) *Validator {
	return &Validator{maxVideoBytes: maxVideoBytes, maxCaptionBytes: DefaultMaxCaptionBytes}
}

// MaxVideoBytes reports the video size cap.
func (v *Validator) MaxVideoBytes() int64 {
	return v.maxVideoBytes
}

// AcceptVideo reads a video upload. Files above the size cap are rejected
// with ReasonTooLarge; content sniffed as text or image is rejected with
// ReasonNotVideo. Unrecognized binary content is accepted and left for the
// engine to judge.
func (v *Validator) AcceptVideo(name string, r io.Reader) (*Video, error) {
	data, err := io.ReadAll(io.LimitReader(r, v.maxVideoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read video: %w", err)
	}
	if int64(len(data)) > v.maxVideoBytes {
		// an exact size is reported only up to twice the cap
		rest, _ := io.CopyN(io.Discard, r, v.maxVideoBytes)
		size := int64(len(data)) + rest
		if rest == v.maxVideoBytes {
			return nil, tooLargeOver(size, v.maxVideoBytes)
		}
		return nil, tooLarge(size, v.maxVideoBytes)
	}
	return v.acceptVideoBytes(name, data)
}

// CheckVideoSize rejects a declared size above the cap before any bytes are
// read. Unknown sizes (negative) pass.
func (v *Validator) CheckVideoSize(size int64) error {
	if size > v.maxVideoBytes {
		return tooLarge(size, v.maxVideoBytes)
	}
	return nil
}

func (v *Validator) acceptVideoBytes(name string, data []byte) (*Video, error) {
	if len(data) == 0 {
		return nil, &ValidationError{Reason: ReasonEmpty, Message: "Video file is empty."}
	}
	mime := mimetype.Detect(data)
	kind := mime.String()
	if strings.HasPrefix(kind, "text/") || strings.HasPrefix(kind, "image/") {
		return nil, &ValidationError{
			Reason:  ReasonNotVideo,
			Message: fmt.Sprintf("%s does not look like a video (%s).", displayName(name, "upload"), kind),
		}
	}
	return &Video{
		Name: displayName(name, "input.mp4"),
		Size: int64(len(data)),
		MIME: kind,
		Data: data,
	}, nil
}

// AcceptCaptionText trims text. A nil result means captions are absent.
func (v *Validator) AcceptCaptionText(text string) *Captions {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	return &Captions{
		Text:   trimmed,
		Source: SourceText,
		Size:   int64(len(trimmed)),
		Info:   captions.Inspect(trimmed),
	}
}

// AcceptCaptionFile reads and decodes a caption file. A nil result with a
// nil error means the file held no text.
func (v *Validator) AcceptCaptionFile(name string, r io.Reader) (*Captions, error) {
	raw, err := io.ReadAll(io.LimitReader(r, v.maxCaptionBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	if int64(len(raw)) > v.maxCaptionBytes {
		return nil, &ValidationError{
			Reason:  ReasonTooLarge,
			Message: fmt.Sprintf("Caption file too large. Please use a file under %dMB.", v.maxCaptionBytes>>20),
		}
	}
	text, err := captions.Decode(raw)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}
	return &Captions{
		Text:     trimmed,
		Source:   SourceFile,
		FileName: displayName(name, "captions.vtt"),
		Size:     int64(len(raw)),
		Info:     captions.Inspect(trimmed),
	}, nil
}

func tooLarge(size, limit int64) error {
	return &ValidationError{
		Reason: ReasonTooLarge,
		Message: fmt.Sprintf("File too large (%.1fMB). Please use a video under %dMB.",
			float64(size)/(1024*1024), limit/(1024*1024)),
	}
}

func tooLargeOver(size, limit int64) error {
	return &ValidationError{
		Reason: ReasonTooLarge,
		Message: fmt.Sprintf("File too large (over %.1fMB). Please use a video under %dMB.",
			float64(size)/(1024*1024), limit/(1024*1024)),
	}
}

func displayName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		return fallback
	}
	return name
}
