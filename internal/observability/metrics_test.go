package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveAggregate("op", "conflict", 2, time.Millisecond)
	m.IncSSEEvent("streak:update", "sent")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestWritePrometheusRendersSortedLabels(t *testing.T) {
	m := newMetrics()
	m.ObserveAPI("POST", "/api/points", "500", 20*time.Millisecond)
	m.ObserveAPI("GET", "/api/leaderboard", "200", 5*time.Millisecond)
	m.ObserveLedgerEntry("purchase", 0, -40)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	get := `lu_api_requests_total{method="GET",route="/api/leaderboard",status="200"} 1.000000`
	post := `lu_api_requests_total{method="POST",route="/api/points",status="500"} 1.000000`
	gi, pi := strings.Index(out, get), strings.Index(out, post)
	if gi < 0 || pi < 0 || gi > pi {
		t.Fatalf("expected sorted request series, got:\n%s", out)
	}
	if !strings.Contains(out, "lu_api_requests_error_total 1.000000") {
		t.Fatalf("missing 5xx counter")
	}
	if !strings.Contains(out, "lu_coins_spent_total 40.000000") {
		t.Fatalf("missing coins spent")
	}
	if !strings.Contains(out, `le="+Inf"`) {
		t.Fatalf("missing histogram +Inf bucket")
	}
}

func TestObserveAggregateDerivesConflictsAndRetries(t *testing.T) {
	m := newMetrics()
	m.ObserveAggregate("Ledger.Purchase", "success", 1, time.Millisecond)
	m.ObserveAggregate("Ledger.Purchase", "conflict", 1, time.Millisecond)
	m.ObserveAggregate("Ledger.ApplyDelta", "success", 3, time.Millisecond)

	if got := m.aggregateConflicts.Value("Ledger.Purchase"); got != 1 {
		t.Fatalf("conflicts = %v", got)
	}
	if got := m.aggregateRetries.Value("Ledger.ApplyDelta"); got != 2 {
		t.Fatalf("retries = %v", got)
	}
	if got := m.aggregateRetries.Value("Ledger.Purchase"); got != 0 {
		t.Fatalf("single attempt counted as retry: %v", got)
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := NewHistogram("h", "test", []float64{1, 0.1}, "k")
	h.Observe(0.05, "a")
	h.Observe(0.5, "a")
	h.Observe(3, "a")

	var buf bytes.Buffer
	if err := h.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`h_bucket{k="a",le="0.1"} 1`,
		`h_bucket{k="a",le="1"} 2`,
		`h_bucket{k="a",le="+Inf"} 3`,
		`h_count{k="a"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestGaugeIncDec(t *testing.T) {
	g := NewGauge("g", "test")
	g.Inc()
	g.Inc()
	g.Dec()
	if g.Value() != 1 {
		t.Fatalf("gauge = %v", g.Value())
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"a"}, []string{"x\"y\n"})
	if got != `{a="x\"y\n"}` {
		t.Fatalf("labelString = %s", got)
	}
	if withLe("", "1") != `{le="1"}` {
		t.Fatalf("withLe empty")
	}
	if withLe(`{a="b"}`, "1") != `{a="b",le="1"}` {
		t.Fatalf("withLe merge")
	}
}

func TestParseHeaders(t *testing.T) {
	h := parseHeaders("a=1, b = 2 ,bad,=x")
	if len(h) != 2 || h["a"] != "1" || h["b"] != "2" {
		t.Fatalf("parseHeaders = %v", h)
	}
	if parseRatio("2", 0.1) != 1 || parseRatio("nope", 0.1) != 0.1 {
		t.Fatalf("parseRatio clamp")
	}
}
