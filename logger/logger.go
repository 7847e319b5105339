// Package logger builds the process-wide zap logger.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a SugaredLogger writing to stderr and, when path is set, to a
// rotated log file. debug lowers the level to Debug.
func New(path string, debug bool) *zap.SugaredLogger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}
	if path != "" {
		// 10MB per file, 3 backups, 7 days
		lj := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(lj), level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
}

// Sync flushes buffered entries, ignoring the error stderr reports on some
// platforms.
func Sync(log *zap.SugaredLogger) {
	if log != nil {
		_ = log.Sync()
	}
}
