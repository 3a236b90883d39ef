package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"captionmux/internal/history"
	"captionmux/internal/logging"
	"captionmux/internal/session"
)

// Options configures a Server.
type Options struct {
	Bind    string
	Token   string
	Session *session.Session
	// History is optional; /api/history returns 404 without it.
	History *history.Store
	Logger  *slog.Logger
}

// Server is the HTTP API bound to one session.
type Server struct {
	bind     string
	logger   *slog.Logger
	session  *session.Session
	history  *history.Store
	router   *gin.Engine
	upgrader websocket.Upgrader

	listener net.Listener
	server   *http.Server
}

// New builds the router. It does not listen until Start.
func New(opts Options) (*Server, error) {
	if opts.Session == nil {
		return nil, errors.New("server: session is required")
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		bind:    opts.Bind,
		logger:  logging.NewComponentLogger(opts.Logger, "server"),
		session: opts.Session,
		history: opts.History,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api", authMiddleware(opts.Token))
	{
		api.GET("/status", s.handleStatus)
		api.POST("/video", s.handleVideo)
		api.PUT("/captions", s.handleCaptions)
		api.POST("/run", s.handleRun)
		api.POST("/reset", s.handleReset)
		api.GET("/result/video", s.handleResultVideo)
		api.GET("/result/captions.vtt", s.handleResultCaptions)
		api.GET("/history", s.handleHistory)
		api.GET("/events", s.handleEvents)
	}
	s.router = router

	s.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the bind address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error",
				logging.String(logging.FieldEventType, "api_server_failed"),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the server bind address"),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "api_server_listening"),
		logging.String("address", listener.Addr().String()),
	)
	return nil
}

// Addr reports the listening address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}
