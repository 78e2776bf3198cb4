// Package notify delivers user-visible operation outcomes. Every mutating
// cart operation reports exactly one success or failure through a Notifier;
// the UI layer decides how to render it (toast, status line, log).
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Notifier receives user-visible success and failure messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Log is a Notifier that writes messages to a zap logger. It is the default
// sink when no UI is attached.
type Log struct {
	lg *zap.Logger
}

// NewLog returns a Notifier backed by lg.
func NewLog(lg *zap.Logger) *Log {
	return &Log{lg: lg}
}

func (l *Log) Success(msg string) {
	l.lg.Info("notification", zap.String("kind", "success"), zap.String("message", msg))
}

func (l *Log) Error(msg string) {
	l.lg.Warn("notification", zap.String("kind", "error"), zap.String("message", msg))
}

// Recorder captures notifications for inspection in tests.
type Recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *Recorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

// Successes returns a copy of the recorded success messages in order.
func (r *Recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

// Errors returns a copy of the recorded error messages in order.
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}
