package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captionmux/internal/config"
	"captionmux/internal/events"
	"captionmux/internal/intake"
	"captionmux/internal/logging"
	"captionmux/internal/pipeline"
	"captionmux/internal/present"
	"captionmux/internal/session"
	"captionmux/internal/testsupport"
	"captionmux/internal/workspace"
)

type harness struct {
	server  *Server
	session *session.Session
	fake    *testsupport.FakeEngine
}

func newHarness(t *testing.T, token string, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return newHarnessWithConfig(t, cfg, token, testsupport.NewFakeEngine())
}

func newHarnessWithConfig(t *testing.T, cfg *config.Config, token string, fake *testsupport.FakeEngine) *harness {
	t.Helper()
	ws, err := workspace.Open(cfg.Paths.WorkspaceDir)
	require.NoError(t, err)
	store := testsupport.MustOpenHistory(t, cfg)

	sess := session.New(session.Options{
		Validator: intake.NewValidator(cfg.MaxVideoBytes()),
		Presenter: present.New(cfg.Paths.OutputDir, cfg.Subtitles.Language, logging.NewNop()),
		Bus:       events.NewBus(0),
		History:   store,
		Logger:    logging.NewNop(),
		Runner:    pipeline.NewRunner(fake, ws, pipeline.DefaultRecipe(), logging.NewNop()),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sess.Shutdown(ctx)
	})

	srv, err := New(Options{
		Bind:    cfg.Server.Bind,
		Token:   token,
		Session: sess,
		History: store,
		Logger:  logging.NewNop(),
	})
	require.NoError(t, err)
	return &harness{server: srv, session: sess, fake: fake}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func (h *harness) uploadVideo(t *testing.T, size int) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "file", "clip.mp4", testsupport.FakeMP4(size))
	req := httptest.NewRequest(http.MethodPost, "/api/video", body)
	req.Header.Set("Content-Type", contentType)
	return h.do(req)
}

func (h *harness) putCaptionsJSON(t *testing.T, text string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"text": text})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/api/captions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return h.do(req)
}

func waitIdle(t *testing.T, sess *session.Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = sess.Wait(ctx)
}

func TestHealthAndStatus(t *testing.T) {
	h := newHarness(t, "")

	w := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, pipeline.StageIdle, snap.Stage)
	assert.False(t, snap.TriggerEnabled)
	assert.Len(t, snap.Steps, 4)
}

func TestUploadRunAndFetchResult(t *testing.T) {
	h := newHarness(t, "")

	w := h.uploadVideo(t, 1<<20)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "clip.mp4 (1.00 MB)")

	w = h.putCaptionsJSON(t, testsupport.SampleVTT)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var inputs inputsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inputs))
	assert.True(t, inputs.TriggerEnabled)
	assert.Equal(t, "Text input", inputs.Inputs.Captions)

	w = h.do(httptest.NewRequest(http.MethodPost, "/api/run", nil))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var run runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.NotEmpty(t, run.RunID)
	waitIdle(t, h.session)

	w = h.do(httptest.NewRequest(http.MethodGet, "/api/result/video", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("muxed:")))

	w = h.do(httptest.NewRequest(http.MethodGet, "/api/result/captions.vtt", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/vtt; charset=utf-8", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "WEBVTT"))

	w = h.do(httptest.NewRequest(http.MethodGet, "/api/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), run.RunID)
}

func TestVideoUploadRejections(t *testing.T) {
	h := newHarness(t, "", testsupport.WithMaxVideoMiB(1))

	req := httptest.NewRequest(http.MethodPost, "/api/video?name=big.mp4", bytes.NewReader(testsupport.FakeMP4(2<<20)))
	req.Header.Set("Content-Type", "video/mp4")
	w := h.do(req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "File too large (2.0MB)")

	w = h.uploadVideo(t, 2<<20)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	body, contentType := multipartBody(t, "file", "notes.txt", []byte("just some notes, not a video"))
	req = httptest.NewRequest(http.MethodPost, "/api/video", body)
	req.Header.Set("Content-Type", contentType)
	w = h.do(req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	body, contentType = multipartBody(t, "other", "clip.mp4", testsupport.FakeMP4(1024))
	req = httptest.NewRequest(http.MethodPost, "/api/video", body)
	req.Header.Set("Content-Type", contentType)
	w = h.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, h.session.Snapshot().Inputs.Video)
}

func TestCaptionInputForms(t *testing.T) {
	h := newHarness(t, "")

	body, contentType := multipartBody(t, "file", "subs.vtt", append([]byte("\ufeff"), testsupport.SampleVTT...))
	req := httptest.NewRequest(http.MethodPut, "/api/captions", body)
	req.Header.Set("Content-Type", contentType)
	w := h.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "subs.vtt")
	assert.Contains(t, w.Body.String(), "WebVTT, 2 cues")

	req = httptest.NewRequest(http.MethodPut, "/api/captions", strings.NewReader(testsupport.SampleVTT))
	req.Header.Set("Content-Type", "text/plain")
	w = h.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Text input")

	req = httptest.NewRequest(http.MethodPut, "/api/captions", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w = h.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunConflicts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := testsupport.NewFakeEngine()
	fake.Gate = make(chan struct{})
	fake.Entered = make(chan []string, 8)
	h := newHarnessWithConfig(t, cfg, "", fake)

	w := h.do(httptest.NewRequest(http.MethodPost, "/api/run", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusOK, h.uploadVideo(t, 1024).Code)
	require.Equal(t, http.StatusOK, h.putCaptionsJSON(t, testsupport.SampleVTT).Code)

	w = h.do(httptest.NewRequest(http.MethodPost, "/api/run", nil))
	require.Equal(t, http.StatusAccepted, w.Code)
	select {
	case <-fake.Entered:
	case <-time.After(5 * time.Second):
		t.Fatal("engine never invoked")
	}

	w = h.do(httptest.NewRequest(http.MethodPost, "/api/run", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(httptest.NewRequest(http.MethodPost, "/api/reset", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, session.MessageAfterReset, snap.Status.Message)
	assert.False(t, snap.Running)
	assert.Empty(t, snap.Inputs.Video)

	w = h.do(httptest.NewRequest(http.MethodGet, "/api/result/video", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTokenAuth(t *testing.T) {
	h := newHarness(t, "s3cret")

	w := h.do(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, h.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, h.do(req).Code)

	assert.Equal(t, http.StatusOK, h.do(httptest.NewRequest(http.MethodGet, "/api/status?token=s3cret", nil)).Code)
	assert.Equal(t, http.StatusOK, h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestEventStream(t *testing.T) {
	h := newHarness(t, "")
	ts := httptest.NewServer(h.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first streamMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, streamSnapshot, first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, h.session.ID(), first.Snapshot.SessionID)

	h.session.Reset()

	sawReset := false
	for !sawReset {
		var msg streamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, streamEvent, msg.Type)
		require.NotNil(t, msg.Event)
		sawReset = msg.Event.Type == events.TypeReset
	}
}
