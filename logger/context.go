package logger

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type contextKey string

const (
	validationStatsKey contextKey = "validation_stats"
	severityHookKey    contextKey = "severity_hook"
)

// ValidationStats accumulates parameter validation work for one request.
type ValidationStats struct {
	params  atomic.Int64
	failed  atomic.Bool
	elapsed atomic.Int64
}

// Params returns the number of parameters validated.
func (s *ValidationStats) Params() int64 { return s.params.Load() }

// Failed reports whether any validation pass failed.
func (s *ValidationStats) Failed() bool { return s.failed.Load() }

// Elapsed returns the total time spent validating.
func (s *ValidationStats) Elapsed() time.Duration { return time.Duration(s.elapsed.Load()) }

// WithValidationStats attaches a fresh stats collector to ctx.
func WithValidationStats(ctx context.Context) context.Context {
	return context.WithValue(ctx, validationStatsKey, &ValidationStats{})
}

// ValidationStatsFrom returns the collector attached to ctx, or nil.
func ValidationStatsFrom(ctx context.Context) *ValidationStats {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(validationStatsKey).(*ValidationStats)
	return s
}

// RecordValidation adds one validation pass to the collector in ctx, if any.
func RecordValidation(ctx context.Context, params int, failed bool, elapsed time.Duration) {
	s := ValidationStatsFrom(ctx)
	if s == nil {
		return
	}
	s.params.Add(int64(params))
	s.elapsed.Add(int64(elapsed))
	if failed {
		s.failed.Store(true)
	}
}

// WithSeverityHook attaches a hook that WARN and higher events invoke, so
// request middleware can escalate the request log level.
func WithSeverityHook(ctx context.Context, hook func(zerolog.Level)) context.Context {
	if ctx == nil || hook == nil {
		return ctx
	}
	return context.WithValue(ctx, severityHookKey, hook)
}

func severityHookFromContext(ctx context.Context) func(zerolog.Level) {
	if ctx == nil {
		return nil
	}
	if hook, ok := ctx.Value(severityHookKey).(func(zerolog.Level)); ok {
		return hook
	}
	return nil
}
