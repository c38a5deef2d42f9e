package monitoring

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"address-book/pkg/metrics"
)

// ResponseWriter wrapper to capture status codes
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (sw *statusWriter) WriteHeader(statusCode int) {
	sw.statusCode = statusCode
	sw.ResponseWriter.WriteHeader(statusCode)
}

// Middleware records request latency and a per-status-class counter
// (http_requests_2xx_total, ...) into reg.
func Middleware(reg *metrics.Registry) func(http.Handler) http.Handler {
	if reg == nil {
		reg = metrics.Default
	}
	latency := reg.Histogram("http_request_seconds", "HTTP request latency", []float64{0.001, 0.005, 0.025, 0.1, 0.5, 2})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sw, r)
			latency.Since(start)
			class := strconv.Itoa(sw.statusCode/100) + "xx"
			reg.Counter("http_requests_"+class+"_total", "HTTP responses with a "+class+" status").Inc()
		})
	}
}

// RecordRuntime publishes goroutine and heap gauges into reg.
func RecordRuntime(reg *metrics.Registry) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	reg.Gauge("go_goroutines", "Number of goroutines").Set(float64(runtime.NumGoroutine()))
	reg.Gauge("go_heap_inuse_bytes", "Heap bytes in use").Set(float64(ms.HeapInuse))
}
