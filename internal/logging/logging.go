package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents logging severity.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// FileConfig configures an optional rotating log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	currentLevel     atomic.Int32
	currentVerbosity atomic.Int32

	mu    sync.RWMutex
	atom  = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	out   zapcore.WriteSyncer
	file  *lumberjack.Logger
	sugar *zap.SugaredLogger
)

func init() {
	currentLevel.Store(int32(LevelWarn))
	out = zapcore.Lock(os.Stderr)
	rebuild()
}

// rebuild must be called with mu held (or during init).
func rebuild() {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.CallerKey = ""

	sink := out
	if file != nil {
		sink = zapcore.NewMultiWriteSyncer(out, zapcore.AddSync(file))
	}
	sugar = zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(enc), sink, atom)).Sugar()
}

// SetOutput redirects console output. Pass io.Discard to silence it.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = zapcore.AddSync(w)
	rebuild()
}

// SetFile tees output into a rotating file. An empty path disables the file.
func SetFile(cfg FileConfig) {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
		file = nil
	}
	if cfg.Path != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
	}
	rebuild()
}

// Sync flushes buffered output.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = sugar.Sync()
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelError:
		return zapcore.ErrorLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// SetVerbosity configures logger output from count of -v flags (0-4).
func SetVerbosity(count int) {
	if count < 0 {
		count = 0
	}
	if count > 4 {
		count = 4
	}
	currentVerbosity.Store(int32(count))
	var l Level
	switch count {
	case 0:
		l = LevelWarn
	case 1:
		l = LevelInfo
	case 2:
		l = LevelDebug
	default:
		l = LevelTrace
	}
	currentLevel.Store(int32(l))
	atom.SetLevel(zapLevel(l))
}

// Verbosity returns the stored -v count.
func Verbosity() int {
	return int(currentVerbosity.Load())
}

// LevelName returns current level label.
func LevelName() string {
	return LevelToString(Level(currentLevel.Load()))
}

// LevelToString converts a Level to human readable text.
func LevelToString(l Level) string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// ParseLevel returns Level + verbosity count from string.
func ParseLevel(s string) (Level, int, error) {
	switch strings.ToLower(s) {
	case "error":
		return LevelError, 0, nil
	case "warn", "warning":
		return LevelWarn, 0, nil
	case "info":
		return LevelInfo, 1, nil
	case "debug":
		return LevelDebug, 2, nil
	case "trace":
		return LevelTrace, 4, nil
	default:
		return LevelWarn, Verbosity(), fmt.Errorf("unknown level %s", s)
	}
}

func shouldLog(l Level) bool {
	return int32(l) <= currentLevel.Load()
}

func logw(l Level, msg string, kv ...any) {
	if !shouldLog(l) {
		return
	}
	mu.RLock()
	s := sugar
	mu.RUnlock()
	switch l {
	case LevelError:
		s.Errorw(msg, kv...)
	case LevelWarn:
		s.Warnw(msg, kv...)
	case LevelInfo:
		s.Infow(msg, kv...)
	case LevelDebug:
		s.Debugw(msg, kv...)
	default:
		s.Debugw(msg, append([]any{"trace", true}, kv...)...)
	}
}

// Errorf always prints.
func Errorf(format string, args ...any) {
	logw(LevelError, fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...any) {
	logw(LevelWarn, fmt.Sprintf(format, args...))
}

func Infof(format string, args ...any) {
	logw(LevelInfo, fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) {
	logw(LevelDebug, fmt.Sprintf(format, args...))
}

func Tracef(format string, args ...any) {
	logw(LevelTrace, fmt.Sprintf(format, args...))
}

// Warnw logs msg with alternating key/value pairs.
func Warnw(msg string, kv ...any) { logw(LevelWarn, msg, kv...) }

// Infow logs msg with alternating key/value pairs.
func Infow(msg string, kv ...any) { logw(LevelInfo, msg, kv...) }

// Debugw logs msg with alternating key/value pairs.
func Debugw(msg string, kv ...any) { logw(LevelDebug, msg, kv...) }
