// Package notify carries non-blocking, user-visible messages out of the
// engine. Nothing in here ever fails the operation that raised the notice.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

type Notice struct {
	Level   Level
	Message string
}

type Notifier interface {
	Notify(n Notice)
}

func Info(n Notifier, msg string)    { send(n, LevelInfo, msg) }
func Success(n Notifier, msg string) { send(n, LevelSuccess, msg) }
func Warn(n Notifier, msg string)    { send(n, LevelWarn, msg) }
func Error(n Notifier, msg string)   { send(n, LevelError, msg) }

func send(n Notifier, lvl Level, msg string) {
	if n == nil {
		return
	}
	n.Notify(Notice{Level: lvl, Message: msg})
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(Notice) {}

// Log forwards notices to a structured logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(n Notice) {
	lvl := slog.LevelInfo
	switch n.Level {
	case LevelWarn:
		lvl = slog.LevelWarn
	case LevelError:
		lvl = slog.LevelError
	}
	l.Logger.Log(context.Background(), lvl, "notice", slog.String("level", string(n.Level)), slog.String("message", n.Message))
}

// Writer prints one line per notice, the CLI's stand-in for a toast.
type Writer struct {
	mu  sync.Mutex
	Out io.Writer
}

func (w *Writer) Notify(n Notice) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.Out, "[%s] %s\n", n.Level, n.Message)
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Has reports whether a notice with the given level and message was seen.
func (r *Recorder) Has(lvl Level, msg string) bool {
	for _, n := range r.Notices() {
		if n.Level == lvl && n.Message == msg {
			return true
		}
	}
	return false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.notices = nil
	r.mu.Unlock()
}
