package ili9341

import (
	"fmt"
	"io"
)

// LogLevel indicates the severity of a driver log message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "?"
}

// LogSink receives leveled, formatted driver log messages. Implementations
// must be safe to call from the driver's transfer goroutine. The driver never
// fails an operation because a sink misbehaves.
type LogSink interface {
	Logf(level LogLevel, format string, args ...interface{})
}

// nopSink discards everything. Used when Opts.Log is nil.
type nopSink struct{}

func (nopSink) Logf(LogLevel, string, ...interface{}) {}

// writerSink formats messages onto an io.Writer, dropping anything below the
// configured minimum level. Write errors are ignored.
type writerSink struct {
	w   io.Writer
	min LogLevel
}

// NewLogSink returns a LogSink writing "LEVEL: message" lines to w,
// suppressing messages below min.
func NewLogSink(w io.Writer, min LogLevel) LogSink {
	return &writerSink{w: w, min: min}
}

func (s *writerSink) Logf(level LogLevel, format string, args ...interface{}) {
	if level < s.min {
		return
	}
	fmt.Fprintf(s.w, "%s: %s\n", level, fmt.Sprintf(format, args...))
}
