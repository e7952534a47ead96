// If you are AI: This file provides HTTP API service integration.
// The API exposes server state and push-task state without blocking media paths.

package api

import (
	"net/http"
	"time"

	"inlet/internal/core/bus"
	"inlet/internal/svc/srtout"
)

// Service provides HTTP API functionality.
type Service struct {
	registry  *bus.Registry
	pushMgr   PushManager
	startTime int64
}

// PushManager defines the interface for SRT push task inspection.
// This allows the API to work with the push manager without tight coupling.
type PushManager interface {
	TaskCount() int
	Tasks() []srtout.TaskInfo
}

// NewService creates a new API service.
func NewService(registry *bus.Registry, pushMgr PushManager) *Service {
	return &Service{
		registry:  registry,
		pushMgr:   pushMgr,
		startTime: getCurrentTime(),
	}
}

// RegisterRoutes registers API routes on the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/server", s.handleServer)
	mux.HandleFunc("/api/streams", s.handleStreams)
	mux.HandleFunc("/api/push", s.handlePush)
}

// getCurrentTime returns current Unix timestamp.
// Extracted for testability.
func getCurrentTime() int64 {
	return time.Now().Unix()
}
