package observability

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Series is a counter or gauge family keyed by label values, rendered in the
// Prometheus text exposition format. An unlabelled series has one sample.
type Series struct {
	name   string
	help   string
	kind   string
	labels []string

	mu      sync.Mutex
	samples map[string]float64
}

func NewCounter(name, help string, labels ...string) *Series {
	return &Series{name: name, help: help, kind: "counter", labels: labels, samples: map[string]float64{}}
}

func NewGauge(name, help string, labels ...string) *Series {
	return &Series{name: name, help: help, kind: "gauge", labels: labels, samples: map[string]float64{}}
}

func (s *Series) Inc(values ...string) { s.Add(1, values...) }

// Dec is meaningful for gauges only.
func (s *Series) Dec(values ...string) { s.Add(-1, values...) }

func (s *Series) Add(v float64, values ...string) {
	if s == nil {
		return
	}
	key := labelString(s.labels, values)
	s.mu.Lock()
	s.samples[key] += v
	s.mu.Unlock()
}

func (s *Series) Set(v float64, values ...string) {
	if s == nil {
		return
	}
	key := labelString(s.labels, values)
	s.mu.Lock()
	s.samples[key] = v
	s.mu.Unlock()
}

func (s *Series) Value(values ...string) float64 {
	if s == nil {
		return 0
	}
	key := labelString(s.labels, values)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples[key]
}

func (s *Series) WritePrometheus(w io.Writer) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeHeader(w, s.name, s.help, s.kind); err != nil {
		return err
	}
	if len(s.labels) == 0 && len(s.samples) == 0 {
		_, err := fmt.Fprintf(w, "%s %f\n", s.name, 0.0)
		return err
	}
	for _, k := range sortedKeys(s.samples) {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", s.name, k, s.samples[k]); err != nil {
			return err
		}
	}
	return nil
}

// Histogram keeps per-bucket counts and accumulates them when rendered.
type Histogram struct {
	name    string
	help    string
	labels  []string
	buckets []float64

	mu   sync.Mutex
	data map[string]*histogramData
}

type histogramData struct {
	counts []uint64 // one per bucket, plus the overflow slot
	sum    float64
}

func NewHistogram(name, help string, buckets []float64, labels ...string) *Histogram {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	b := append([]float64(nil), buckets...)
	sort.Float64s(b)
	return &Histogram{name: name, help: help, labels: labels, buckets: b, data: map[string]*histogramData{}}
}

func (h *Histogram) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	key := labelString(h.labels, values)
	idx := sort.SearchFloat64s(h.buckets, v)
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.data[key]
	if !ok {
		d = &histogramData{counts: make([]uint64, len(h.buckets)+1)}
		h.data[key] = d
	}
	d.counts[idx]++
	d.sum += v
}

func (h *Histogram) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := writeHeader(w, h.name, h.help, "histogram"); err != nil {
		return err
	}
	for _, k := range sortedKeys(h.data) {
		d := h.data[k]
		var cum uint64
		for i, bound := range h.buckets {
			cum += d.counts[i]
			le := strconv.FormatFloat(bound, 'g', -1, 64)
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, le), cum); err != nil {
				return err
			}
		}
		cum += d.counts[len(h.buckets)]
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n%s_sum%s %f\n%s_count%s %d\n",
			h.name, withLe(k, "+Inf"), cum, h.name, k, d.sum, h.name, k, cum); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(w io.Writer, name, help, kind string) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		parts[i] = name + `="` + escapeLabel(val) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string { return labelEscaper.Replace(v) }

func withLe(labels, le string) string {
	pair := `le="` + escapeLabel(le) + `"`
	if labels == "" || labels == "{}" || !strings.HasSuffix(labels, "}") {
		return "{" + pair + "}"
	}
	return strings.TrimSuffix(labels, "}") + "," + pair + "}"
}
