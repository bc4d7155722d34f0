package utils

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
)

type LogLevel int

const (
	// ErrLevel is the minimum level of logging.
	ErrLevel LogLevel = iota + 1
	// WarnLevel logs warnings and errors.
	WarnLevel
	// InfoLevel logs the progress of the analysis phases.
	InfoLevel
	// DebugLevel logs fixpoint iterations.
	DebugLevel
	// TraceLevel logs every call resolution. Only useful on small programs.
	TraceLevel
)

// ParseLogLevel maps a level name to a LogLevel, or 0 if the name is unknown.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "error":
		return ErrLevel
	case "warn":
		return WarnLevel
	case "info":
		return InfoLevel
	case "debug":
		return DebugLevel
	case "trace":
		return TraceLevel
	}
	return 0
}

// LogGroup is a set of leveled loggers sharing one output.
type LogGroup struct {
	level LogLevel
	trace *log.Logger
	debug *log.Logger
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
}

// NewLogGroup returns a log group writing to stderr at the given level.
func NewLogGroup(level LogLevel) *LogGroup {
	if level == 0 {
		level = InfoLevel
	}

	mk := func(prefix string, c color.Attribute) *log.Logger {
		return log.New(os.Stderr, CanColorize(color.New(c).SprintFunc())(prefix)+" ", log.Ltime)
	}

	return &LogGroup{
		level: level,
		trace: mk("[TRACE]", color.FgHiBlack),
		debug: mk("[DEBUG]", color.FgCyan),
		info:  mk("[INFO]", color.FgGreen),
		warn:  mk("[WARN]", color.FgYellow),
		err:   mk("[ERROR]", color.FgRed),
	}
}

// SetAllOutput sets all the output writers to the writer provided
func (l *LogGroup) SetAllOutput(w io.Writer) {
	l.trace.SetOutput(w)
	l.debug.SetOutput(w)
	l.info.SetOutput(w)
	l.warn.SetOutput(w)
	l.err.SetOutput(w)
}

// SetAllFlags sets the flag of all loggers in the log group to the argument provided
func (l *LogGroup) SetAllFlags(x int) {
	l.trace.SetFlags(x)
	l.debug.SetFlags(x)
	l.info.SetFlags(x)
	l.warn.SetFlags(x)
	l.err.SetFlags(x)
}

// Level returns the level of the group.
func (l *LogGroup) Level() LogLevel {
	return l.level
}

func (l *LogGroup) Tracef(format string, v ...any) {
	if l.level >= TraceLevel {
		l.trace.Printf(format, v...)
	}
}

func (l *LogGroup) Debugf(format string, v ...any) {
	if l.level >= DebugLevel {
		l.debug.Printf(format, v...)
	}
}

func (l *LogGroup) Infof(format string, v ...any) {
	if l.level >= InfoLevel {
		l.info.Printf(format, v...)
	}
}

func (l *LogGroup) Warnf(format string, v ...any) {
	if l.level >= WarnLevel {
		l.warn.Printf(format, v...)
	}
}

func (l *LogGroup) Errorf(format string, v ...any) {
	if l.level >= ErrLevel {
		l.err.Printf(format, v...)
	}
}

// Discard returns a log group that drops everything. Useful in tests.
func Discard() *LogGroup {
	l := NewLogGroup(ErrLevel)
	l.SetAllOutput(io.Discard)
	return l
}
