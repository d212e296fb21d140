// Package config holds the small set of process-wide knobs a book read
// needs (cache directory, log level) and builds the shared zap logger.
package config

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options are the knobs a caller passes into a book read. There is no
// persisted job file (§5: single-threaded, synchronous per book-read, no
// cross-book shared state). No code in this module constructs or reads
// Options.
type Options struct {
	// CacheDir is where the allocator writes its numbered block files.
	CacheDir string
	// BlockSize is a block size value; no allocator reads it, and every
	// allocator uses alloc.BlockSize.
	BlockSize int
	// LogLevel is one of "debug", "normal", "none".
	LogLevel string
}

// NewLogger builds the shared structured logger for a pipeline run, split
// into a low-priority console core (info/debug) and a high-priority one
// (warn and above), the same console-split idiom the teacher's conversion
// CLI uses so error output isn't drowned out by progress chatter.
func NewLogger(level string) *zap.Logger {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(ec)

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.WarnLevel
	})

	var lowEnabler zap.LevelEnablerFunc
	switch level {
	case "debug":
		lowEnabler = func(lvl zapcore.Level) bool { return lvl < zapcore.WarnLevel }
	case "none":
		return zap.NewNop()
	default:
		lowEnabler = func(lvl zapcore.Level) bool { return zapcore.InfoLevel <= lvl && lvl < zapcore.WarnLevel }
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), lowEnabler),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), highPriority),
	)
	return zap.New(core).Named("oebcore")
}
