package aggregates

import (
	"time"

	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/observability"
)

// Outcome summarises one finished aggregate write.
type Outcome struct {
	Op string
	// Status is "success" or the aggregate error code the write ended with.
	Status   string
	Attempts int
	Duration time.Duration
}

func (o Outcome) Conflict() bool { return o.Status == string(domainagg.CodeConflict) }

// Retries is the number of transaction re-runs after the first attempt.
func (o Outcome) Retries() int {
	if o.Attempts <= 1 {
		return 0
	}
	return o.Attempts - 1
}

// Hooks observes aggregate writes.
type Hooks interface {
	ObserveWrite(o Outcome)
}

// HooksFunc adapts a plain function to Hooks.
type HooksFunc func(o Outcome)

func (f HooksFunc) ObserveWrite(o Outcome) { f(o) }

type noopHooks struct{}

func (noopHooks) ObserveWrite(Outcome) {}

// NewObservabilityHooks reports writes to the metrics registry.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return HooksFunc(func(o Outcome) {
		metrics.ObserveAggregate(o.Op, o.Status, o.Attempts, o.Duration)
	})
}
