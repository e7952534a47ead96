// If you are AI: This file assembles all services and manages their lifecycle.
// One process hosts the RTMP ingest listener, the HTTP surfaces and the SRT push tasks.

package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"inlet/internal/config"
	"inlet/internal/core/bus"
	"inlet/internal/svc/api"
	"inlet/internal/svc/health"
	"inlet/internal/svc/httpflv"
	"inlet/internal/svc/ingest"
	"inlet/internal/svc/srtout"
	"inlet/internal/svc/wsflv"
)

// Server wires the stream registry to every service and owns their lifecycle.
type Server struct {
	log        *zap.Logger
	registry   *bus.Registry
	ingestSrv  *ingest.Server
	pushMgr    *srtout.Manager
	httpServer *http.Server
	cancel     context.CancelFunc
}

// New creates a new server instance with the given configuration.
// The server is not started until Start is called.
func New(cfg *config.Config, logger *zap.Logger) *Server {
	registry := bus.NewRegistry()

	ingestSrv := ingest.NewServer(cfg.RTMPAddr(), logger, registry, ingest.AllowAll{})

	tasks := make([]srtout.Task, 0, len(cfg.Pushes))
	for _, p := range cfg.Pushes {
		tasks = append(tasks, srtout.Task{
			App:        p.App,
			Name:       p.Name,
			RemoteAddr: p.RemoteAddr,
			StreamID:   p.StreamID,
		})
	}
	pushMgr := srtout.NewManager(logger, registry, tasks)

	mux := http.NewServeMux()
	health.New().RegisterRoutes(mux)
	api.NewService(registry, pushMgr).RegisterRoutes(mux)
	httpflv.NewService(registry).RegisterRoutes(mux)
	wsflv.NewService(registry).RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: mux,
	}

	return &Server{
		log:        logger,
		registry:   registry,
		ingestSrv:  ingestSrv,
		pushMgr:    pushMgr,
		httpServer: httpServer,
	}
}

// Start begins serving on all listeners.
// This method blocks until the HTTP server is stopped or encounters an error.
func (s *Server) Start() error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		if err := s.ingestSrv.ListenAndServe(runCtx); err != nil {
			s.log.Error("rtmp listener stopped", zap.Error(err))
		}
	}()

	go s.pushMgr.Run(runCtx)

	s.log.Info("server starting",
		zap.String("http_addr", s.httpServer.Addr),
		zap.Int("push_tasks", s.pushMgr.TaskCount()))

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops all services with the given context deadline.
// Returns an error if the HTTP shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.httpServer.Shutdown(ctx)
}

// ShutdownWithTimeout stops the server with a fixed 5-second timeout.
// This is a convenience wrapper around Shutdown.
func (s *Server) ShutdownWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
