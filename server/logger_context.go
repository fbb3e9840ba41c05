package server

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// requestLogContext tracks the highest severity logged while a request runs.
// The severity hook may fire from handler goroutines, hence the mutex.
type requestLogContext struct {
	mu                 sync.Mutex
	startTime          time.Time
	peakSeverity       zerolog.Level
	hadExplicitWarning bool
}

func newRequestLogContext() *requestLogContext {
	return &requestLogContext{
		startTime:    time.Now(),
		peakSeverity: zerolog.InfoLevel,
	}
}

// escalateSeverity is installed as the logger severity hook.
func (r *requestLogContext) escalateSeverity(level zerolog.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if level > r.peakSeverity {
		r.peakSeverity = level
	}
	if level >= zerolog.WarnLevel {
		r.hadExplicitWarning = true
	}
}

func (r *requestLogContext) explicitWarning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hadExplicitWarning
}
