// Package http provides the HTTP server: the chat page, the JSON API and metrics.
package http

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
	"github.com/0xcro3dile/localrag-fts/internal/domain/usecases"
	"github.com/0xcro3dile/localrag-fts/internal/infrastructure/metrics"
)

//go:embed templates/*
var templatesFS embed.FS

// Options configures a Server.
type Options struct {
	Addr           string
	DocsDir        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration // Longer for streaming
	ShutdownPeriod time.Duration
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// Server is the HTTP server for the RAG API and UI.
type Server struct {
	queryUseCase  *usecases.QueryUseCase
	ingestUseCase *usecases.IngestUseCase
	store         ports.IndexStore
	templates     *template.Template
	opts          Options
	logger        *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(
	queryUC *usecases.QueryUseCase,
	ingestUC *usecases.IngestUseCase,
	store ports.IndexStore,
	opts Options,
) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if opts.Addr == "" {
		opts.Addr = ":8000"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 300 * time.Second
	}
	if opts.ShutdownPeriod <= 0 {
		opts.ShutdownPeriod = 10 * time.Second
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Server{
		queryUseCase:  queryUC,
		ingestUseCase: ingestUC,
		store:         store,
		templates:     tmpl,
		opts:          opts,
		logger:        opts.Logger,
	}, nil
}

// Handler returns the routed handler with middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(corsMiddleware)
	r.Use(metrics.Middleware())

	r.Get("/", s.handleIndex)
	r.Post("/chat", s.handleChat)
	r.Post("/upload", s.handleUpload)

	r.Route("/api", func(r chi.Router) {
		r.Get("/chat/stream", s.handleChatStream)
		r.Get("/search", s.handleSearch)
		r.Post("/ingest", s.handleIngest)
		r.Get("/health", s.handleHealth)
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownPeriod)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("LocalRAG server starting", zap.String("addr", s.opts.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
