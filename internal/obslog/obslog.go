// Package obslog is a thin wrapper around go.uber.org/zap giving the rest
// of the module a narrow logging surface instead of depending on zap
// directly everywhere. Structured logging here follows the ecosystem
// convention, not the stdlib one — see DESIGN.md.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the handle every package takes instead of *zap.Logger, so a
// test build can swap in zap's no-op logger without touching call sites.
type Logger struct {
	z *zap.Logger
}

// New builds a production-profile logger; verbose lowers the level to
// debug, matching CLI --verbose conventions elsewhere in the ambient stack.
func New(verbose bool) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

// Noop returns a Logger that discards everything, for tests and library
// callers that haven't configured logging.
func Noop() *Logger { return &Logger{z: zap.NewNop()} }

func (l *Logger) Sync() { _ = l.z.Sync() }

func (l *Logger) With(fields ...zap.Field) *Logger { return &Logger{z: l.z.With(fields...)} }

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Field re-exports zap's constructors so callers only import this package.
var (
	String = zap.String
	Int    = zap.Int
	Int64  = zap.Int64
	Error  = zap.Error
	Bool   = zap.Bool
	Uint64 = zap.Uint64
)
