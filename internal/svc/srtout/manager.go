// If you are AI: This file implements SRT push tasks: configured streams are
// re-published to remote SRT endpoints as an FLV byte stream.

package srtout

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	srt "github.com/datarhei/gosrt"
	"go.uber.org/zap"

	"inlet/internal/core/bus"
	"inlet/internal/core/protocol/flv"
)

const (
	pollInterval   = time.Second
	reconnectDelay = 3 * time.Second
)

// Task configures one SRT push target.
type Task struct {
	App        string // source application name
	Name       string // source stream name
	RemoteAddr string // SRT endpoint, host:port
	StreamID   string // SRT streamid handed to the remote endpoint
}

// TaskInfo is the externally visible state of a push task.
type TaskInfo struct {
	App        string `json:"app"`
	Name       string `json:"name"`
	RemoteAddr string `json:"remote_addr"`
	Running    bool   `json:"running"`
}

// Manager owns the configured push tasks.
type Manager struct {
	log      *zap.Logger
	registry *bus.Registry
	tasks    []*pushTask
}

type pushTask struct {
	cfg     Task
	running int32 // atomic: 1 while the SRT connection is up
}

// NewManager creates a manager for the given tasks.
func NewManager(log *zap.Logger, registry *bus.Registry, tasks []Task) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{log: log, registry: registry}
	for _, cfg := range tasks {
		m.tasks = append(m.tasks, &pushTask{cfg: cfg})
	}
	return m
}

// TaskCount returns the number of configured tasks.
func (m *Manager) TaskCount() int {
	return len(m.tasks)
}

// Tasks returns a snapshot of every task's state.
func (m *Manager) Tasks() []TaskInfo {
	infos := make([]TaskInfo, 0, len(m.tasks))
	for _, t := range m.tasks {
		infos = append(infos, TaskInfo{
			App:        t.cfg.App,
			Name:       t.cfg.Name,
			RemoteAddr: t.cfg.RemoteAddr,
			Running:    atomic.LoadInt32(&t.running) == 1,
		})
	}
	return infos
}

// Run drives every task until the context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range m.tasks {
		wg.Add(1)
		go func(t *pushTask) {
			defer wg.Done()
			m.runTask(ctx, t)
		}(t)
	}
	wg.Wait()
}

// runTask pushes one stream, reconnecting after failures until cancelled.
func (m *Manager) runTask(ctx context.Context, t *pushTask) {
	log := m.log.With(
		zap.String("stream", t.cfg.App+"/"+t.cfg.Name),
		zap.String("remote", t.cfg.RemoteAddr))

	for {
		stream := m.waitForPublisher(ctx, t)
		if stream == nil {
			return
		}

		config := srt.DefaultConfig()
		config.StreamId = t.cfg.StreamID
		conn, err := srt.Dial("srt", t.cfg.RemoteAddr, config)
		if err != nil {
			log.Warn("srt dial failed", zap.Error(err))
			if !sleepCtx(ctx, reconnectDelay) {
				return
			}
			continue
		}

		atomic.StoreInt32(&t.running, 1)
		log.Info("srt push started")
		err = pushStream(ctx, conn, stream)
		conn.Close()
		atomic.StoreInt32(&t.running, 0)
		log.Info("srt push stopped", zap.Error(err))

		if ctx.Err() != nil {
			return
		}
		if !sleepCtx(ctx, reconnectDelay) {
			return
		}
	}
}

// waitForPublisher polls until the source stream has an active publisher.
func (m *Manager) waitForPublisher(ctx context.Context, t *pushTask) *bus.Stream {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		stream := m.registry.Get(bus.NewStreamKey(t.cfg.App, t.cfg.Name))
		if stream != nil && stream.HasPublisher() && !stream.Closed() {
			return stream
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// pushStream subscribes to the stream and writes FLV bytes to the writer
// until the publisher ends the stream or a write fails.
func pushStream(ctx context.Context, w io.Writer, stream *bus.Stream) error {
	sub, id := stream.AttachSubscriber(1024, bus.BackpressureDropOldest)
	defer stream.DetachSubscriber(id)

	blob := stream.Format()
	if blob == nil {
		header := flv.NewHeader(true, true)
		prelude := append(header.Bytes(), 0, 0, 0, 0)
		blob = prelude
	}
	if _, err := w.Write(blob); err != nil {
		return err
	}

	for {
		for {
			msg, ok := sub.Buffer().Read()
			if !ok {
				break
			}
			tag := flv.Mux(msg)
			if tag == nil {
				continue
			}
			if _, err := w.Write(tag.Bytes()); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stream.Done():
			return nil
		case <-sub.Notify():
		}
	}
}

// sleepCtx sleeps for d, returning false if the context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
