package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/config"
	"github.com/impactys/foodgram/pkg/foodgram/media"
)

const shutdownTimeout = 5 * time.Second

// Server wraps an http.Server serving the Foodgram API.
type Server struct {
	log        *zap.Logger
	httpServer *http.Server
}

// New builds a Server for the given configuration and database.
func New(cfg config.Config, db *gorm.DB, log *zap.Logger) (*Server, error) {
	if db == nil {
		return nil, errors.New("server: database is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	store := media.NewStore(cfg.Media, cfg.Server.BaseURL)
	log.Debug("initializing server",
		zap.String("addr", cfg.Server.Addr),
		zap.String("media_root", store.Root),
		zap.Strings("cors_origins", cfg.Server.CORSOrigins),
	)

	return &Server{
		log: log,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           NewRouter(cfg, db, log, store),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Start serves HTTP traffic until Stop is called. A clean shutdown returns
// nil.
func (s *Server) Start() error {
	s.log.Info("server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server, waiting at most five seconds for
// in-flight requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
