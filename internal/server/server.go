// Package server exposes the study flow as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thywilljoshua/study-buddy/internal/config"
	"github.com/thywilljoshua/study-buddy/internal/logging"
	"github.com/thywilljoshua/study-buddy/internal/observability"
	"github.com/thywilljoshua/study-buddy/internal/session"
)

// sweepInterval is how often expired sessions are dropped.
const sweepInterval = time.Minute

type Server struct {
	cfg      config.ServerConfig
	sessions *session.Manager
	metrics  *observability.Metrics
	log      *zap.Logger
	mux      *http.ServeMux
	handler  http.Handler
}

// New wires the routes. metrics may be nil; metricsPath is ignored then.
func New(cfg config.ServerConfig, sessions *session.Manager, metrics *observability.Metrics, metricsPath string, log *zap.Logger) *Server {
	log = logging.OrNop(log)
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		metrics:  metrics,
		log:      log,
		mux:      http.NewServeMux(),
	}
	s.routes()
	if metrics != nil && metricsPath != "" {
		s.mux.Handle("GET "+metricsPath, metrics.Handler())
	}
	s.handler = withRecovery(log, withRequestID(withAccessLog(log, s.mux)))
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() {
	s.handle("GET /healthz", s.handleHealth)
	s.handle("GET /api/actions", s.handleActions)

	s.handle("POST /api/sessions", s.handleCreateSession)
	s.handle("GET /api/sessions/{id}", s.handleGetSession)
	s.handle("DELETE /api/sessions/{id}", s.handleDeleteSession)
	s.handle("POST /api/sessions/{id}/reset", s.handleReset)
	s.handle("POST /api/sessions/{id}/mode", s.handleSetMode)
	s.handle("POST /api/sessions/{id}/source/topic", s.handleTopic)
	s.handle("POST /api/sessions/{id}/source/pdf", s.handlePDF)
	s.handle("POST /api/sessions/{id}/actions", s.handleAction)
	s.handle("POST /api/sessions/{id}/videos", s.handleVideos)
	s.handle("GET /api/sessions/{id}/presentation", s.handlePresentation)
	s.handle("POST /api/sessions/{id}/slides/next", s.handleNextSlide)
	s.handle("POST /api/sessions/{id}/slides/prev", s.handlePrevSlide)
	s.handle("POST /api/sessions/{id}/quiz/answer", s.handleAnswer)
	s.handle("POST /api/sessions/{id}/quiz/next", s.handleNextQuestion)
	s.handle("POST /api/sessions/{id}/quiz/restart", s.handleRestartQuiz)

	s.handle("POST /api/render", s.handleRender)
	s.handle("POST /api/explain", s.handleExplain)
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.metrics.Middleware(pattern, h))
}

func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := s.httpServer()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("server starting", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return s.sessions.RunJanitor(gctx, sweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.log.Info("shutting down gracefully", zap.Duration("timeout", s.cfg.ShutdownTimeout))
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("shutdown error", zap.Error(err))
			return err
		}
		s.log.Info("server stopped")
		return nil
	})
	return g.Wait()
}
