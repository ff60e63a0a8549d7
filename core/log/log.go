// Package log provides leveled logging on top of the standard logger.
package log

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// Level of a log message.
type Level uint32

// All levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name. Unknown names yield LevelInfo and false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO", "":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

var (
	level  atomic.Uint32
	logger = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)
)

func init() {
	SetLevel(LevelInfo)
}

// SetLevel sets the global log level.
func SetLevel(l Level) {
	level.Store(uint32(l))
}

// GetLevel returns the global log level.
func GetLevel() Level {
	return Level(level.Load())
}

// Enabled reports if messages of the given level are written.
func Enabled(l Level) bool {
	return l >= GetLevel()
}

func output(l Level, format string, v ...interface{}) {
	if !Enabled(l) {
		return
	}
	logger.Output(3, fmt.Sprintf("[%-5s] %s", l, fmt.Sprintf(format, v...)))
}

// Debugf logs a debug message.
func Debugf(format string, v ...interface{}) {
	output(LevelDebug, format, v...)
}

// Infof logs an info message.
func Infof(format string, v ...interface{}) {
	output(LevelInfo, format, v...)
}

// Warnf logs a warning.
func Warnf(format string, v ...interface{}) {
	output(LevelWarn, format, v...)
}

// Errorf logs an error.
func Errorf(format string, v ...interface{}) {
	output(LevelError, format, v...)
}

// Print logs the arguments at info level, like log.Print.
func Print(v ...interface{}) {
	if Enabled(LevelInfo) {
		logger.Output(2, fmt.Sprintf("[%-5s] %s", LevelInfo, fmt.Sprint(v...)))
	}
}
