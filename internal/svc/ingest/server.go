// If you are AI: This file implements the TCP accept loop for inbound publish
// connections. Each accepted connection gets its own session goroutine.

package ingest

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"inlet/internal/core/bus"
)

// Server accepts publish connections and runs a session per connection.
type Server struct {
	addr      string
	log       *zap.Logger
	registry  *bus.Registry
	validator Validator
	notifier  Notifier

	listener net.Listener
	wg       sync.WaitGroup
	nextPub  uint64
}

// NewServer creates a publish server bound to the registry.
// A nil validator means every stream is accepted.
func NewServer(addr string, log *zap.Logger, registry *bus.Registry, validator Validator) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		addr:      addr,
		log:       log,
		registry:  registry,
		validator: validator,
		notifier:  LogNotifier{Log: log},
	}
}

// ListenAndServe accepts connections until the context is cancelled.
// Blocks; the listener closes and every session drains before return.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.log.Info("ingest listening", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}

	s.wg.Wait()
	return nil
}

// handleConn runs one session to completion and cleans the stream up after.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log := s.log.With(zap.String("remote", conn.RemoteAddr().String()))
	pubID := atomic.AddUint64(&s.nextPub, 1)

	var published bus.StreamKey
	session, err := NewSession(SessionConfig{
		Conn:      conn,
		Log:       log,
		Validator: s.validator,
		Notifier:  s.notifier,
		Emitters: func(key bus.StreamKey) (Emitter, error) {
			stream, created := s.registry.GetOrCreate(key)
			emitter, err := NewBusEmitter(stream, pubID)
			if err != nil {
				if created {
					s.registry.RemoveIfEmpty(key)
				}
				return nil, err
			}
			published = key
			log.Info("stream published", zap.String("stream", key.String()))
			return emitter, nil
		},
	})
	if err != nil {
		log.Error("session setup failed", zap.Error(err))
		return
	}

	if err := session.Run(ctx); err != nil && err != context.Canceled {
		log.Info("session closed", zap.Error(err))
	}

	if published != (bus.StreamKey{}) {
		s.registry.RemoveIfEmpty(published)
		log.Info("stream unpublished", zap.String("stream", published.String()))
	}
}
