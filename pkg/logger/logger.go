package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
)

// Logger is the leveled logger used across the server. Scoped copies
// carry a module name and structured fields in the line prefix.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})
	WithModule(name string) Logger
	WithFields(fields map[string]interface{}) Logger
}

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

// NewLogger builds a logger at the given level. When a non-empty file
// path is supplied, lines are appended there instead of stderr.
func NewLogger(level string, file ...string) Logger {
	out := log.Default()
	if len(file) > 0 && file[0] != "" {
		f, err := os.OpenFile(file[0], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Printf("[WARN] cannot open log file %s, falling back to stderr: %v", file[0], err)
		} else {
			out = log.New(f, "", log.LstdFlags)
		}
	}
	return &stdLogger{level: parseLevel(level), out: out}
}

type stdLogger struct {
	level  int
	out    *log.Logger
	module string
	fields map[string]interface{}
}

func parseLevel(l string) int {
	switch strings.ToLower(l) {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (l *stdLogger) WithModule(name string) Logger {
	cp := *l
	cp.module = name
	return &cp
}

func (l *stdLogger) WithFields(fields map[string]interface{}) Logger {
	cp := *l
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	cp.fields = merged
	return &cp
}

func (l *stdLogger) prefix(tag string) string {
	var b strings.Builder
	b.WriteString(tag)
	if l.module != "" {
		fmt.Fprintf(&b, " [%s]", strings.ToUpper(l.module))
	}
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, l.fields[k])
		}
	}
	b.WriteString(" ")
	return b.String()
}

func (l *stdLogger) Debugf(format string, v ...interface{}) {
	if l.level <= levelDebug {
		l.out.Printf(l.prefix("[DEBUG]")+format, v...)
	}
}

func (l *stdLogger) Infof(format string, v ...interface{}) {
	if l.level <= levelInfo {
		l.out.Printf(l.prefix("[INFO]")+format, v...)
	}
}

func (l *stdLogger) Warnf(format string, v ...interface{}) {
	if l.level <= levelWarn {
		l.out.Printf(l.prefix("[WARN]")+format, v...)
	}
}

func (l *stdLogger) Errorf(format string, v ...interface{}) {
	if l.level <= levelError {
		l.out.Printf(l.prefix("[ERROR]")+format, v...)
	}
}

func (l *stdLogger) Fatalf(format string, v ...interface{}) {
	l.out.Fatalf(l.prefix("[FATAL]")+format, v...)
}

type ctxKey struct{}

// NewContext attaches a logger to ctx so components share one root
// logger without threading it through every constructor.
func NewContext(ctx context.Context, logg Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logg)
}

// FromContext returns the logger attached to ctx, or a default
// info-level logger when none is present.
func FromContext(ctx context.Context) Logger {
	if logg, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return logg
	}
	return NewLogger("info")
}
