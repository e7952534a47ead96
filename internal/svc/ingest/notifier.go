// If you are AI: This file defines informational notifications the ingest
// session raises toward its hosting environment. Nothing in the session
// consumes them; they exist for supervision and observability.

package ingest

import (
	"net"

	"go.uber.org/zap"
)

// Notifier receives informational signals from a session.
// Calls happen on the session goroutine and must not block.
type Notifier interface {
	// SocketControlNeeded reports that the background reader wants exclusive
	// read rights on the connection and is waiting for the current owner to
	// release them.
	SocketControlNeeded(conn net.Conn, owner string)
	// StreamValidationSuccess reports that a validation stage accepted the stream.
	StreamValidationSuccess(stage Stage, value interface{})
	// StreamValidationFailed reports that a validation stage rejected the stream.
	StreamValidationFailed(stage Stage, reason string)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) SocketControlNeeded(net.Conn, string)       {}
func (NopNotifier) StreamValidationSuccess(Stage, interface{}) {}
func (NopNotifier) StreamValidationFailed(Stage, string)       {}

// LogNotifier writes every notification to a structured logger.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) SocketControlNeeded(conn net.Conn, owner string) {
	n.Log.Debug("waiting for socket control",
		zap.String("remote", conn.RemoteAddr().String()),
		zap.String("owner", owner))
}

func (n LogNotifier) StreamValidationSuccess(stage Stage, value interface{}) {
	n.Log.Info("stream validation succeeded",
		zap.String("stage", string(stage)),
		zap.Any("value", value))
}

func (n LogNotifier) StreamValidationFailed(stage Stage, reason string) {
	n.Log.Warn("stream validation failed",
		zap.String("stage", string(stage)),
		zap.String("reason", reason))
}
