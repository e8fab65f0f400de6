package action

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level is the severity of a status message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Status is one user-visible notification about an action.
type Status struct {
	ID        string    `json:"id"` // shared by every status of one run
	Panel     string    `json:"panel"`
	Action    string    `json:"action"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind,omitempty"`
	Signature string    `json:"signature,omitempty"`
	Time      time.Time `json:"time"`
}

// Sink receives statuses as they happen. Implementations must not block.
type Sink interface {
	Publish(Status)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Status)

// Publish calls f.
func (f SinkFunc) Publish(s Status) { f(s) }

// Discard drops every status.
var Discard Sink = SinkFunc(func(Status) {})

// MultiSink fans a status out to every sink in order.
type MultiSink []Sink

// Publish forwards s to each sink.
func (m MultiSink) Publish(s Status) {
	for _, sink := range m {
		sink.Publish(s)
	}
}

// LogSink writes statuses to a zap logger.
type LogSink struct {
	Logger *zap.Logger
}

// Publish logs s at a level matching its severity.
func (l LogSink) Publish(s Status) {
	fields := []zap.Field{
		zap.String("id", s.ID),
		zap.String("panel", s.Panel),
		zap.String("action", s.Action),
	}
	if s.Signature != "" {
		fields = append(fields, zap.String("signature", s.Signature))
	}
	switch s.Level {
	case LevelError:
		l.Logger.Warn(s.Message, append(fields, zap.String("kind", string(s.Kind)))...)
	default:
		l.Logger.Info(s.Message, fields...)
	}
}

// Recorder collects statuses in memory; used by the CLI and tests.
type Recorder struct {
	mu       sync.Mutex
	statuses []Status
}

// Publish appends s.
func (r *Recorder) Publish(s Status) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s)
	r.mu.Unlock()
}

// Statuses returns a copy of everything published so far.
func (r *Recorder) Statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.statuses...)
}

// Last returns the most recent status.
func (r *Recorder) Last() (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return Status{}, false
	}
	return r.statuses[len(r.statuses)-1], true
}
