package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
	"gorm.io/gorm"
)

const defaultMaxAttempts = 3

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
	// MaxAttempts bounds how often a retryable transaction is re-run.
	MaxAttempts int
	Now         func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = defaultMaxAttempts
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// executeWrite runs fn in one transaction, re-running it while the failure is
// retryable and the context is still live. Every call ends in exactly one
// ObserveWrite.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}

	var mapped error
	attempts := 0
	for attempts < deps.MaxAttempts {
		attempts++
		mapped = MapError(op, deps.Runner.InTx(ctx, fn))
		if mapped == nil || !domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			break
		}
		if ctx.Err() != nil || errors.Is(mapped, context.Canceled) || errors.Is(mapped, context.DeadlineExceeded) {
			break
		}
		if attempts < deps.MaxAttempts {
			deps.Log.Warn("aggregate write retry", "op", op, "attempt", attempts, "error", mapped)
		}
	}

	deps.Hooks.ObserveWrite(Outcome{
		Op:       op,
		Status:   aggregateErrorStatus(mapped),
		Attempts: attempts,
		Duration: time.Since(start),
	})
	return mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
