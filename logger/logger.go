package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger wraps zerolog.Logger to implement Logger.
// Values logged under sensitive keys are masked.
type ZeroLogger struct {
	zlog         *zerolog.Logger
	filter       *SensitiveDataFilter
	severityHook func(zerolog.Level)
}

var _ Logger = (*ZeroLogger)(nil)

var callerMarshalOnce sync.Once

func setupCallerMarshal() {
	callerMarshalOnce.Do(func() {
		zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
			base := filepath.Base(file)
			parent := filepath.Base(filepath.Dir(file))
			if parent != "." && parent != "" {
				return parent + "/" + base + ":" + strconv.Itoa(line)
			}
			return base + ":" + strconv.Itoa(line)
		}
	})
}

// New creates a logger writing to stdout. If pretty is true, output is
// formatted for humans instead of JSON.
func New(level string, pretty bool) *ZeroLogger {
	return NewWithFilter(level, pretty, DefaultFilterConfig())
}

// NewWithFilter creates a stdout logger with a custom sensitive-field configuration.
func NewWithFilter(level string, pretty bool, filterConfig *FilterConfig) *ZeroLogger {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return build(out, level, filterConfig, true)
}

// NewWithWriter creates a JSON logger writing to w, without caller information.
// It is mainly useful in tests.
func NewWithWriter(level string, w io.Writer) *ZeroLogger {
	return build(w, level, DefaultFilterConfig(), false)
}

func build(w io.Writer, level string, filterConfig *FilterConfig, caller bool) *ZeroLogger {
	setupCallerMarshal()

	ctx := zerolog.New(w).With().Timestamp()
	if caller {
		ctx = ctx.CallerWithSkipFrameCount(3)
	}
	l := ctx.Logger()

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l, filter: NewSensitiveDataFilter(filterConfig)}
}

// Nop returns a logger that discards everything.
func Nop() *ZeroLogger {
	l := zerolog.Nop()
	return &ZeroLogger{zlog: &l}
}

// Zerolog exposes the underlying zerolog logger, e.g. to attach it to a request context.
func (l *ZeroLogger) Zerolog() *zerolog.Logger {
	return l.zlog
}

// WithContext returns a logger bound to the zerolog logger carried by ctx, if
// any. A severity hook found in ctx is kept so WARN and ERROR events can be
// reported back to request middleware.
func (l *ZeroLogger) WithContext(ctx any) Logger {
	c, ok := ctx.(context.Context)
	if !ok || c == nil {
		return l
	}

	out := &ZeroLogger{zlog: l.zlog, filter: l.filter, severityHook: l.severityHook}
	if zl := zerolog.Ctx(c); zl != nil && zl.GetLevel() != zerolog.Disabled {
		out.zlog = zl
	}
	if hook := severityHookFromContext(c); hook != nil {
		out.severityHook = hook
	}
	return out
}

// WithFields returns a logger with fields attached to every entry.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	if l.filter != nil {
		fields = l.filter.FilterFields(fields)
	}
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log, filter: l.filter, severityHook: l.severityHook}
}
