// Package logging defines the three-level logger the poll engine expects
// to be injected by its caller, rather than writing to any sink of its
// own.
package logging

import (
	"log/slog"
	"os"
)

// Logger is the minimal interface the poll engine logs through. Info
// covers routine cycle events, Warn covers expected-but-notable
// conditions (an absent device's ID probe failing), and Error covers
// unexpected failures against a device known to be present.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// slogLogger adapts log/slog to Logger.
type slogLogger struct {
	l *slog.Logger
}

// NewSlog returns a Logger backed by the given slog.Logger, or by a text
// handler on os.Stderr when l is nil.
func NewSlog(l *slog.Logger) Logger {
	if l == nil {
		l = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// Discard is a Logger that drops everything, used by tests that don't
// care about log output.
var Discard Logger = discard{}

type discard struct{}

func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}
