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

	"cinema/internal/catalog"
	"cinema/internal/logging"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// Options configures the HTTP server.
type Options struct {
	Bind            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// NewRouter mounts one route group per catalog domain.
func NewRouter(catalogs map[catalog.Domain]Catalog, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "api")

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), corsMiddleware(opts.AllowedOrigins), requestLog(logger))
	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, catalog.KindNotFound, fmt.Errorf("no route for %s", c.Request.URL.Path))
	})
	router.NoMethod(func(c *gin.Context) {
		respondError(c, http.StatusMethodNotAllowed, catalog.KindValidation, fmt.Errorf("method %s not allowed", c.Request.Method))
	})

	router.GET("/healthcheck", healthcheck(catalogs))
	for _, domain := range catalog.Domains {
		cat, ok := catalogs[domain]
		if !ok || cat == nil {
			continue
		}
		h := &handlers{domain: domain, catalog: cat, logger: logger}
		h.register(router.Group("/" + string(domain)))
	}
	return router
}

// Server runs the read API until its context is cancelled.
type Server struct {
	http     *http.Server
	logger   *slog.Logger
	shutdown time.Duration
}

// NewServer wraps handler in an http.Server bound to opts.Bind.
func NewServer(handler http.Handler, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	shutdown := opts.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = defaultShutdownTimeout
	}
	return &Server{
		http: &http.Server{
			Addr:              opts.Bind,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger:   logging.NewComponentLogger(logger, "api"),
		shutdown: shutdown,
	}
}

// Run listens on the configured address and serves until ctx is done, then
// drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.logger.Info("api listening",
		logging.String(logging.FieldEventType, "api_listening"),
		logging.String("addr", listener.Addr().String()),
	)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown api: %w", err)
		}
		s.logger.Info("api stopped", logging.String(logging.FieldEventType, "api_stopped"))
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
