package client

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/levelup-backend/internal/pkg/httpx"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

const DefaultSweepInterval = 60 * time.Second

type Streamer interface {
	Stream(ctx context.Context) (*Stream, error)
}

type SyncerOptions struct {
	// Sweep is the reconciliation period; pushes are not acknowledged or
	// replayed, so the sweep bounds how long a missed event stays visible.
	Sweep   time.Duration
	Backoff httpx.Backoff
}

// Syncer keeps an AppState current: pushed events first, a periodic full
// refetch as reconciliation.
type Syncer struct {
	log     *logger.Logger
	stream  Streamer
	state   *AppState
	sweep   time.Duration
	backoff httpx.Backoff
}

func NewSyncer(log *logger.Logger, stream Streamer, state *AppState, opts SyncerOptions) *Syncer {
	if log == nil {
		log = logger.Nop()
	}
	sweep := opts.Sweep
	if sweep <= 0 {
		sweep = DefaultSweepInterval
	}
	return &Syncer{log: log, stream: stream, state: state, sweep: sweep, backoff: opts.Backoff}
}

// Run blocks until ctx is done or the server rejects the credentials.
func (s *Syncer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.consume(gctx) })
	g.Go(func() error { return s.reconcile(gctx) })
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Syncer) consume(ctx context.Context) error {
	for {
		err := s.consumeOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !httpx.IsRetryableError(err) {
			s.log.Error("event stream rejected", "error", err)
			return err
		}
		delay := s.backoff.Next()
		s.log.Warn("event stream lost; reconnecting", "error", err, "retry_in", delay.String())
		if err := httpx.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (s *Syncer) consumeOnce(ctx context.Context) error {
	st, err := s.stream.Stream(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	s.backoff.Reset()
	// Anything pushed while disconnected is gone.
	s.state.InvalidateAll()
	s.log.Debug("event stream connected")

	stop := context.AfterFunc(ctx, func() { _ = st.Close() })
	defer stop()
	for {
		ev, err := st.Next()
		if err != nil {
			return err
		}
		s.state.Apply(ev)
	}
}

func (s *Syncer) reconcile(ctx context.Context) error {
	if err := s.state.Refresh(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn("initial fetch failed", "error", err)
	}
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.state.InvalidateAll()
			if err := s.state.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("reconciliation sweep failed", "error", err)
			}
		}
	}
}
