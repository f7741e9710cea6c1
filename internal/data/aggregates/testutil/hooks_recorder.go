package testutil

import (
	"sync"

	"github.com/yungbote/levelup-backend/internal/data/aggregates"
)

// HooksRecorder keeps every aggregate write outcome for assertions.
type HooksRecorder struct {
	mu       sync.Mutex
	outcomes []aggregates.Outcome
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveWrite(o aggregates.Outcome) {
	h.mu.Lock()
	h.outcomes = append(h.outcomes, o)
	h.mu.Unlock()
}

func (h *HooksRecorder) Outcomes() []aggregates.Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]aggregates.Outcome(nil), h.outcomes...)
}

// StatusOf returns the status of the latest write of op, or "".
func (h *HooksRecorder) StatusOf(op string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.outcomes) - 1; i >= 0; i-- {
		if h.outcomes[i].Op == op {
			return h.outcomes[i].Status
		}
	}
	return ""
}

// Conflicts counts writes that ended in a conflict, across all ops.
func (h *HooksRecorder) Conflicts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, o := range h.outcomes {
		if o.Conflict() {
			n++
		}
	}
	return n
}
