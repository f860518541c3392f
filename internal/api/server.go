package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"musicreplacer/internal/logging"
	"musicreplacer/internal/media"
)

// Deps are the collaborators the router serves.
type Deps struct {
	Overrides   OverrideService
	Searcher    media.Searcher
	Tasks       TaskSource
	Logger      *slog.Logger
	Token       string
	SearchLimit int
	// LogPath is tailed by /api/logs; empty serves no lines.
	LogPath string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps) *gin.Engine {
	logger := logging.NewComponentLogger(deps.Logger, "api")
	limit := deps.SearchLimit
	if limit <= 0 {
		limit = 10
	}
	h := &handlers{
		overrides:   deps.Overrides,
		searcher:    deps.Searcher,
		tasks:       deps.Tasks,
		searchLimit: limit,
		logPath:     deps.LogPath,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestContext(), accessLog(logger))

	router.GET("/api/health", h.health)

	protected := router.Group("/api", bearerAuth(deps.Token))
	{
		protected.GET("/tracks", h.listTracks)
		protected.GET("/tracks/:name", h.getTrack)

		protected.GET("/overrides", h.listOverrides)
		protected.GET("/overrides/:name", h.getOverride)
		protected.POST("/overrides", h.createOverride)
		protected.POST("/overrides/bulk", h.bulkCreate)
		protected.DELETE("/overrides/:name", h.removeOverride)
		protected.DELETE("/overrides", h.removeAll)

		protected.GET("/search", h.search)

		protected.GET("/tasks", h.listTasks)
		protected.GET("/tasks/:id", h.getTask)

		protected.GET("/logs", h.tailLogs)
	}
	return router
}

// Server runs the API over HTTP with graceful shutdown.
type Server struct {
	bind     string
	logger   *slog.Logger
	server   *http.Server
	listener net.Listener
}

// NewServer wraps handler in an http.Server bound to bind.
func NewServer(bind string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api"),
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Listen opens the listening socket and returns its address.
func (s *Server) Listen() (net.Addr, error) {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return nil, fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	return listener.Addr(), nil
}

// Serve handles requests until ctx is cancelled, then shuts down gracefully.
// It calls Listen when the socket is not open yet.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.listener)
	}()
	s.logger.Info("api server listening", logging.String("address", s.listener.Addr().String()))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	s.logger.Info("api server stopped")
	return nil
}
