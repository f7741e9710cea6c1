package observability

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

// Metrics is the process-wide registry. A nil *Metrics is valid and records
// nothing, so callers never check whether metrics are enabled.
type Metrics struct {
	apiRequests *Series
	apiLatency  *Histogram
	apiInflight *Series
	apiErrors   *Series

	aggregateOps       *Series
	aggregateLatency   *Histogram
	aggregateConflicts *Series
	aggregateRetries   *Series

	ledgerEntries *Series
	xpAwarded     *Series
	coinsSpent    *Series
	badgesAwarded *Series
	streakUpdates *Series

	sseClients  *Series
	sseEvents   *Series
	busMessages *Series

	leaderboardCache *Series
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

var (
	apiBuckets       = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	aggregateBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1}
)

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounter("lu_api_requests_total", "API requests by method, route and status.", "method", "route", "status"),
		apiLatency:  NewHistogram("lu_api_request_duration_seconds", "API request latency in seconds.", apiBuckets, "method", "route", "status"),
		apiInflight: NewGauge("lu_api_inflight_requests", "In-flight API requests."),
		apiErrors:   NewCounter("lu_api_requests_error_total", "API requests answered with 5xx."),

		aggregateOps:       NewCounter("lu_aggregate_operations_total", "Aggregate writes by operation and outcome.", "aggregate_op", "status"),
		aggregateLatency:   NewHistogram("lu_aggregate_operation_duration_seconds", "Aggregate write latency in seconds, retries included.", aggregateBuckets, "aggregate_op", "status"),
		aggregateConflicts: NewCounter("lu_aggregate_conflicts_total", "Aggregate writes rejected as conflicts.", "aggregate_op"),
		aggregateRetries:   NewCounter("lu_aggregate_retries_total", "Aggregate transactions re-run after a retryable failure.", "aggregate_op"),

		ledgerEntries: NewCounter("lu_ledger_entries_total", "Ledger entries appended by kind.", "kind"),
		xpAwarded:     NewCounter("lu_xp_awarded_total", "Net XP granted through the ledger."),
		coinsSpent:    NewCounter("lu_coins_spent_total", "Coins spent in the store."),
		badgesAwarded: NewCounter("lu_badges_awarded_total", "Badges awarded by badge id.", "badge"),
		streakUpdates: NewCounter("lu_streak_updates_total", "Streak advances by kind.", "kind"),

		sseClients:  NewGauge("lu_sse_clients", "Connected SSE clients on this replica."),
		sseEvents:   NewCounter("lu_sse_events_total", "SSE events by name and outcome.", "event", "outcome"),
		busMessages: NewCounter("lu_bus_messages_total", "Realtime bus messages by direction and outcome.", "direction", "outcome"),

		leaderboardCache: NewCounter("lu_leaderboard_cache_total", "Leaderboard cache lookups by result.", "result"),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	all := []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
		m.ledgerEntries, m.xpAwarded, m.coinsSpent, m.badgesAwarded, m.streakUpdates,
		m.sseClients, m.sseEvents, m.busMessages, m.leaderboardCache,
	}
	for _, pw := range all {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	if strings.HasPrefix(strings.TrimSpace(status), "5") {
		m.apiErrors.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveAggregate records one finished aggregate write. attempts counts
// transaction runs, so anything above one is a retry.
func (m *Metrics) ObserveAggregate(op, status string, attempts int, dur time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.aggregateOps.Inc(op, status)
	m.aggregateLatency.Observe(dur.Seconds(), op, status)
	if status == "conflict" {
		m.aggregateConflicts.Inc(op)
	}
	if attempts > 1 {
		m.aggregateRetries.Add(float64(attempts-1), op)
	}
}

// ObserveLedgerEntry records one appended ledger row.
func (m *Metrics) ObserveLedgerEntry(kind string, xpDelta, coinsDelta int) {
	if m == nil {
		return
	}
	m.ledgerEntries.Inc(kind)
	if xpDelta != 0 {
		m.xpAwarded.Add(float64(xpDelta))
	}
	if coinsDelta < 0 {
		m.coinsSpent.Add(float64(-coinsDelta))
	}
}

func (m *Metrics) IncBadgeAwarded(badgeID string) {
	if m == nil {
		return
	}
	m.badgesAwarded.Inc(badgeID)
}

func (m *Metrics) IncStreakUpdate(kind string) {
	if m == nil {
		return
	}
	m.streakUpdates.Inc(kind)
}

func (m *Metrics) SetSSEClients(n int) {
	if m == nil {
		return
	}
	m.sseClients.Set(float64(n))
}

// IncSSEEvent counts an event per outcome: "sent" or "dropped".
func (m *Metrics) IncSSEEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.sseEvents.Inc(event, outcome)
}

func (m *Metrics) IncBusMessage(direction, outcome string) {
	if m == nil {
		return
	}
	m.busMessages.Inc(direction, outcome)
}

// IncLeaderboardCache counts "hit", "miss" or "error".
func (m *Metrics) IncLeaderboardCache(result string) {
	if m == nil {
		return
	}
	m.leaderboardCache.Inc(result)
}
