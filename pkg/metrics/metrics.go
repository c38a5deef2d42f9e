// Package metrics is a small in-process registry with Prometheus text
// exposition. Counters and gauges are lock-free; histograms take a mutex.
package metrics

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a monotonically increasing number.
type Counter struct {
	name string
	help string
	val  atomic.Int64
}

func (c *Counter) Inc()            { c.val.Add(1) }
func (c *Counter) Add(delta int64) { c.val.Add(delta) }
func (c *Counter) Get() int64      { return c.val.Load() }

// Gauge is an arbitrary number that can go up and down.
type Gauge struct {
	name string
	help string
	bits atomic.Uint64
}

func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }
func (g *Gauge) Get() float64  { return math.Float64frombits(g.bits.Load()) }

// Histogram counts observations into cumulative upper-bound buckets.
type Histogram struct {
	name    string
	help    string
	mu      sync.Mutex
	bounds  []float64 // sorted ascending, without +Inf
	buckets []uint64  // len(bounds)+1, last is +Inf
	sum     float64
	count   uint64
}

func (h *Histogram) Observe(v float64) {
	i := sort.SearchFloat64s(h.bounds, v)
	h.mu.Lock()
	h.buckets[i]++
	h.sum += v
	h.count++
	h.mu.Unlock()
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Since observes the seconds elapsed from start.
func (h *Histogram) Since(start time.Time) { h.Observe(time.Since(start).Seconds()) }

// DefaultBuckets suit in-memory operations measured in seconds.
var DefaultBuckets = []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1}

// Registry holds all metrics.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

var Default = NewRegistry()

// Counter returns the counter registered under name, creating it once.
func (r *Registry) Counter(name, help string) *Counter {
	name = sanitize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{name: name, help: help}
	r.counters[name] = c
	return c
}

// Gauge returns the gauge registered under name, creating it once.
func (r *Registry) Gauge(name, help string) *Gauge {
	name = sanitize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{name: name, help: help}
	r.gauges[name] = g
	return g
}

// Histogram returns the histogram registered under name, creating it once.
// Nil bounds use DefaultBuckets.
func (r *Registry) Histogram(name, help string, bounds []float64) *Histogram {
	name = sanitize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return h
	}
	if len(bounds) == 0 {
		bounds = DefaultBuckets
	}
	sorted := append([]float64(nil), bounds...)
	sort.Float64s(sorted)
	h := &Histogram{name: name, help: help, bounds: sorted, buckets: make([]uint64, len(sorted)+1)}
	r.histograms[name] = h
	return h
}

// WriteTo renders every metric in Prometheus text format, sorted by name.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	r.mu.RLock()
	for _, name := range keys(r.counters) {
		c := r.counters[name]
		writeHeader(&b, c.name, c.help, "counter")
		fmt.Fprintf(&b, "%s %d\n", c.name, c.Get())
	}
	for _, name := range keys(r.gauges) {
		g := r.gauges[name]
		writeHeader(&b, g.name, g.help, "gauge")
		fmt.Fprintf(&b, "%s %g\n", g.name, g.Get())
	}
	for _, name := range keys(r.histograms) {
		h := r.histograms[name]
		writeHeader(&b, h.name, h.help, "histogram")
		h.mu.Lock()
		var cum uint64
		for i, ub := range h.bounds {
			cum += h.buckets[i]
			fmt.Fprintf(&b, "%s_bucket{le=\"%g\"} %d\n", h.name, ub, cum)
		}
		cum += h.buckets[len(h.bounds)]
		fmt.Fprintf(&b, "%s_bucket{le=\"+Inf\"} %d\n", h.name, cum)
		fmt.Fprintf(&b, "%s_sum %g\n", h.name, h.sum)
		fmt.Fprintf(&b, "%s_count %d\n", h.name, h.count)
		h.mu.Unlock()
	}
	r.mu.RUnlock()

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Handler returns an http.Handler that exposes metrics in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = r.WriteTo(w)
	})
}

// Handler exposes the Default registry.
func Handler() http.Handler { return Default.Handler() }

func writeHeader(b *strings.Builder, name, help, kind string) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, strings.ReplaceAll(help, "\n", " "))
	fmt.Fprintf(b, "# TYPE %s %s\n", name, kind)
}

func sanitize(s string) string {
	return strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(s)
}

func keys[T any](m map[string]T) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
