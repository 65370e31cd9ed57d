// Package logx wraps zap.Logger behind a small chainable API, in the
// shape irfndi-NeuraTrade's zaplogrus package wraps zap for its services —
// adapted here to thread a single instance through construction rather
// than hang off a package-level global, since this core is meant to be
// embedded by a hosting binary, not run as a standalone CLI.
package logx

import "go.uber.org/zap"

// Logger is a thin chainable wrapper around *zap.Logger.
type Logger struct {
	z *zap.Logger
}

// New builds a production JSON-encoder Logger.
func New() (*Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

// NewNop returns a Logger that discards everything — used in tests.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// With returns a derived Logger carrying the given structured fields on
// every subsequent call.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.z.Sync() }
