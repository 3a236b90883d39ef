package server

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"captionmux/internal/intake"
	"captionmux/internal/services"
)

const (
	uploadField         = "file"
	defaultHistoryLimit = 20
)

type inputsResponse struct {
	Inputs         intake.Info `json:"inputs"`
	TriggerEnabled bool        `json:"trigger_enabled"`
}

type runResponse struct {
	RunID string `json:"run_id"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Snapshot())
}

// handleVideo accepts a multipart "file" field or a raw body named by the
// name query parameter.
func (s *Server) handleVideo(c *gin.Context) {
	if !isMultipart(c.Request) && c.Request.ContentLength > 0 {
		if err := s.session.CheckVideoSize(c.Request.ContentLength); err != nil {
			s.writeError(c, err)
			return
		}
	}
	name, body, err := uploadBody(c, "video.mp4")
	if err != nil {
		s.writeError(c, err)
		return
	}
	info, err := s.session.AcceptVideo(name, body)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inputsResponse{Inputs: info, TriggerEnabled: s.session.TriggerEnabled()})
}

// handleCaptions accepts a multipart caption file, a JSON {"text": ...}
// body, or raw pasted text.
func (s *Server) handleCaptions(c *gin.Context) {
	var (
		info intake.Info
		err  error
	)
	switch {
	case isMultipart(c.Request):
		var (
			name string
			body io.Reader
		)
		name, body, err = uploadBody(c, "captions.vtt")
		if err == nil {
			info, err = s.session.AcceptCaptionFile(name, body)
		}
	case c.ContentType() == gin.MIMEJSON:
		var payload struct {
			Text string `json:"text"`
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, intake.DefaultMaxCaptionBytes)
		if err = c.ShouldBindJSON(&payload); err == nil {
			info = s.session.AcceptCaptionText(payload.Text)
		} else if !isMaxBytes(err) {
			err = services.Wrap(services.ErrValidation, "", "captions", "invalid JSON body", err)
		}
	default:
		var raw []byte
		raw, err = io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, intake.DefaultMaxCaptionBytes))
		if err == nil {
			info = s.session.AcceptCaptionText(string(raw))
		}
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inputsResponse{Inputs: info, TriggerEnabled: s.session.TriggerEnabled()})
}

func (s *Server) handleRun(c *gin.Context) {
	runID, err := s.session.Start(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, runResponse{RunID: runID})
}

func (s *Server) handleReset(c *gin.Context) {
	s.session.Reset()
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleResultVideo(c *gin.Context) {
	handle := s.session.Result()
	if handle == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no processed video"})
		return
	}
	c.Header("Content-Type", handle.MIMEType)
	c.File(handle.VideoPath)
}

func (s *Server) handleResultCaptions(c *gin.Context) {
	handle := s.session.Result()
	if handle == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no processed video"})
		return
	}
	c.Header("Content-Type", "text/vtt; charset=utf-8")
	c.File(handle.CaptionsPath)
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history disabled"})
		return
	}
	limit := defaultHistoryLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	runs, err := s.history.List(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

func isMaxBytes(err error) bool {
	var maxBytes *http.MaxBytesError
	return errors.As(err, &maxBytes)
}

// uploadBody streams the upload without buffering the multipart form.
func uploadBody(c *gin.Context, fallbackName string) (string, io.Reader, error) {
	if !isMultipart(c.Request) {
		name := strings.TrimSpace(c.Query("name"))
		if name == "" {
			name = fallbackName
		}
		return name, c.Request.Body, nil
	}
	reader, err := c.Request.MultipartReader()
	if err != nil {
		return "", nil, services.Wrap(services.ErrValidation, "", "upload", "invalid multipart body", err)
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return "", nil, services.Wrap(services.ErrValidation, "", "upload", "missing \""+uploadField+"\" field", nil)
		}
		if err != nil {
			return "", nil, services.Wrap(services.ErrValidation, "", "upload", "invalid multipart body", err)
		}
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}
		return partName(part, fallbackName), part, nil
	}
}

func partName(part *multipart.Part, fallback string) string {
	if name := strings.TrimSpace(part.FileName()); name != "" {
		return name
	}
	return fallback
}
