package observability

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsConfig holds configuration for the metrics subsystem.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool
	// Namespace prefixes every exported metric name.
	Namespace string
	// Version is reported by the info gauge.
	Version string
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "chathub",
		Version:   "dev",
	}
}

// MetricsConfigFromEnv reads CHATHUB_METRICS_ENABLED and APP_VERSION on top
// of the defaults.
func MetricsConfigFromEnv() MetricsConfig {
	cfg := DefaultMetricsConfig()

	if v := os.Getenv("CHATHUB_METRICS_ENABLED"); v != "" {
		cfg.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("APP_VERSION"); v != "" {
		cfg.Version = v
	}
	return cfg
}

// labelSep joins label values into counter keys. It cannot appear in a
// method, path, service name, or outcome.
const labelSep = "|"

// counterVec is a set of monotonic counters keyed by joined label values.
type counterVec struct {
	mu       sync.RWMutex
	counters map[string]*atomic.Int64
}

func newCounterVec() *counterVec {
	return &counterVec{counters: make(map[string]*atomic.Int64)}
}

func (v *counterVec) add(key string, n int64) {
	v.mu.RLock()
	c, ok := v.counters[key]
	v.mu.RUnlock()
	if !ok {
		v.mu.Lock()
		c, ok = v.counters[key]
		if !ok {
			c = &atomic.Int64{}
			v.counters[key] = c
		}
		v.mu.Unlock()
	}
	c.Add(n)
}

// snapshot returns the current counts with keys in sorted order.
func (v *counterVec) snapshot() ([]string, map[string]int64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.counters))
	out := make(map[string]int64, len(v.counters))
	for k, c := range v.counters {
		keys = append(keys, k)
		out[k] = c.Load()
	}
	sort.Strings(keys)
	return keys, out
}

// durationSeries keeps a bounded window of samples for quantile estimates
// plus running sum and count over the full lifetime.
type durationSeries struct {
	mu         sync.Mutex
	window     []float64
	windowSize int
	totalSum   float64
	totalCount int64
}

func newDurationSeries(windowSize int) *durationSeries {
	return &durationSeries{
		window:     make([]float64, 0, windowSize),
		windowSize: windowSize,
	}
}

func (d *durationSeries) observe(dur time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	secs := dur.Seconds()
	if len(d.window) >= d.windowSize {
		copy(d.window, d.window[1:])
		d.window = d.window[:len(d.window)-1]
	}
	d.window = append(d.window, secs)
	d.totalSum += secs
	d.totalCount++
}

// quantile estimates the q-th quantile over the sample window using linear
// interpolation between the nearest ranks.
func (d *durationSeries) quantile(q float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.window) == 0 {
		return 0
	}
	sorted := make([]float64, len(d.window))
	copy(sorted, d.window)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func (d *durationSeries) totals() (sum float64, count int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totalSum, d.totalCount
}

type durationVec struct {
	mu     sync.RWMutex
	series map[string]*durationSeries
}

func newDurationVec() *durationVec {
	return &durationVec{series: make(map[string]*durationSeries)}
}

func (v *durationVec) observe(key string, dur time.Duration) {
	v.mu.RLock()
	s, ok := v.series[key]
	v.mu.RUnlock()
	if !ok {
		v.mu.Lock()
		s, ok = v.series[key]
		if !ok {
			s = newDurationSeries(1000)
			v.series[key] = s
		}
		v.mu.Unlock()
	}
	s.observe(dur)
}

func (v *durationVec) sortedKeys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.series))
	for k := range v.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v *durationVec) get(key string) *durationSeries {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.series[key]
}

// Metrics collects service metrics. Safe for concurrent use.
type Metrics struct {
	namespace string
	version   string

	// HTTP surface, keyed method|path|status and method|path.
	httpRequests  *counterVec
	httpDurations *durationVec

	// Model provider calls, keyed service|outcome and service. Token usage
	// is keyed service|direction where direction is prompt or output.
	providerCalls     *counterVec
	providerDurations *durationVec
	tokensUsed        *counterVec

	rateLimitAllowed  atomic.Int64
	rateLimitRejected atomic.Int64
	activeConnections atomic.Int64
}

// NewMetrics creates a Metrics collector.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		namespace:         cfg.Namespace,
		version:           cfg.Version,
		httpRequests:      newCounterVec(),
		httpDurations:     newDurationVec(),
		providerCalls:     newCounterVec(),
		providerDurations: newDurationVec(),
		tokensUsed:        newCounterVec(),
	}
}

// RecordHTTPRequest records one handled HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	p := normalizePath(path)
	m.httpRequests.add(method+labelSep+p+labelSep+strconv.Itoa(statusCode), 1)
	m.httpDurations.observe(method+labelSep+p, duration)
}

// RecordProviderCall records one completion call to a model provider.
// callErr nil counts as outcome "ok", anything else as "error".
func (m *Metrics) RecordProviderCall(service string, duration time.Duration, callErr error) {
	outcome := "ok"
	if callErr != nil {
		outcome = "error"
	}
	m.providerCalls.add(service+labelSep+outcome, 1)
	m.providerDurations.observe(service, duration)
}

// RecordTokenUsage records prompt and output token counts reported by a
// provider for one completion.
func (m *Metrics) RecordTokenUsage(service string, promptTokens, outputTokens int64) {
	if promptTokens > 0 {
		m.tokensUsed.add(service+labelSep+"prompt", promptTokens)
	}
	if outputTokens > 0 {
		m.tokensUsed.add(service+labelSep+"output", outputTokens)
	}
}

// RecordRateLimitAllowed counts a request that passed the rate limiter.
func (m *Metrics) RecordRateLimitAllowed() {
	m.rateLimitAllowed.Add(1)
}

// RecordRateLimitRejected counts a request the rate limiter turned away.
func (m *Metrics) RecordRateLimitRejected() {
	m.rateLimitRejected.Add(1)
}

// IncrementActiveConnections increments the in-flight request gauge.
func (m *Metrics) IncrementActiveConnections() {
	m.activeConnections.Add(1)
}

// DecrementActiveConnections decrements the in-flight request gauge.
func (m *Metrics) DecrementActiveConnections() {
	m.activeConnections.Add(-1)
}

// normalizePath collapses per-resource path segments so metric cardinality
// stays bounded. Session IDs are client-chosen strings, so any segment that
// follows "sessions" becomes {session_id}; numeric and UUID segments
// elsewhere become {id}.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i > 0 && parts[i-1] == "sessions" {
			parts[i] = "{session_id}"
			continue
		}
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = "{id}"
			continue
		}
		if len(part) == 36 && strings.Count(part, "-") == 4 {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

// Handler serves the collected metrics in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		m.write(w)
	})
}

func (m *Metrics) write(w http.ResponseWriter) {
	fmt.Fprintf(w, "# HELP %s_info Application information\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_info gauge\n", m.namespace)
	fmt.Fprintf(w, "%s_info{version=%q} 1\n\n", m.namespace, m.version)

	fmt.Fprintf(w, "# HELP %s_http_requests_total Handled HTTP requests\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_http_requests_total counter\n", m.namespace)
	keys, counts := m.httpRequests.snapshot()
	for _, key := range keys {
		labels := strings.SplitN(key, labelSep, 3)
		if len(labels) != 3 {
			continue
		}
		fmt.Fprintf(w, "%s_http_requests_total{method=%q,path=%q,status=%q} %d\n",
			m.namespace, labels[0], labels[1], labels[2], counts[key])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_http_request_duration_seconds HTTP request latency\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_http_request_duration_seconds summary\n", m.namespace)
	for _, key := range m.httpDurations.sortedKeys() {
		labels := strings.SplitN(key, labelSep, 2)
		if len(labels) != 2 {
			continue
		}
		m.writeSummary(w, "http_request_duration_seconds",
			fmt.Sprintf("method=%q,path=%q", labels[0], labels[1]),
			m.httpDurations.get(key))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_provider_requests_total Completion calls to model providers\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_provider_requests_total counter\n", m.namespace)
	keys, counts = m.providerCalls.snapshot()
	for _, key := range keys {
		labels := strings.SplitN(key, labelSep, 2)
		if len(labels) != 2 {
			continue
		}
		fmt.Fprintf(w, "%s_provider_requests_total{service=%q,outcome=%q} %d\n",
			m.namespace, labels[0], labels[1], counts[key])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_provider_request_duration_seconds Model provider call latency\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_provider_request_duration_seconds summary\n", m.namespace)
	for _, service := range m.providerDurations.sortedKeys() {
		m.writeSummary(w, "provider_request_duration_seconds",
			fmt.Sprintf("service=%q", service),
			m.providerDurations.get(service))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_tokens_total Tokens consumed and produced by model providers\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_tokens_total counter\n", m.namespace)
	keys, counts = m.tokensUsed.snapshot()
	for _, key := range keys {
		labels := strings.SplitN(key, labelSep, 2)
		if len(labels) != 2 {
			continue
		}
		fmt.Fprintf(w, "%s_tokens_total{service=%q,direction=%q} %d\n",
			m.namespace, labels[0], labels[1], counts[key])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_rate_limit_requests_total Rate limiter decisions\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_rate_limit_requests_total counter\n", m.namespace)
	fmt.Fprintf(w, "%s_rate_limit_requests_total{status=\"allowed\"} %d\n", m.namespace, m.rateLimitAllowed.Load())
	fmt.Fprintf(w, "%s_rate_limit_requests_total{status=\"rejected\"} %d\n\n", m.namespace, m.rateLimitRejected.Load())

	fmt.Fprintf(w, "# HELP %s_active_connections Requests currently in flight\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_active_connections gauge\n", m.namespace)
	fmt.Fprintf(w, "%s_active_connections %d\n", m.namespace, m.activeConnections.Load())
}

func (m *Metrics) writeSummary(w http.ResponseWriter, name, labels string, s *durationSeries) {
	if s == nil {
		return
	}
	for _, q := range []float64{0.5, 0.9, 0.99} {
		fmt.Fprintf(w, "%s_%s{%s,quantile=\"%.2f\"} %.6f\n",
			m.namespace, name, labels, q, s.quantile(q))
	}
	sum, count := s.totals()
	fmt.Fprintf(w, "%s_%s_sum{%s} %.6f\n", m.namespace, name, labels, sum)
	fmt.Fprintf(w, "%s_%s_count{%s} %d\n", m.namespace, name, labels, count)
}

// MetricsMiddleware records request count, status, and latency for every
// request except the metrics endpoint itself. A nil Metrics disables it.
func MetricsMiddleware(m *Metrics) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			m.IncrementActiveConnections()
			defer m.DecrementActiveConnections()

			start := time.Now()
			wrapped := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			m.RecordHTTPRequest(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
		})
	}
}

// metricsResponseWriter captures the status code written by the handler.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer for http.ResponseController.
func (w *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RateLimitMetricsMiddleware counts rate limiter decisions. It wraps the
// rate limiting middleware and classifies by the resulting status code.
func RateLimitMetricsMiddleware(m *Metrics, rateLimitEnabled bool) func(http.Handler) http.Handler {
	if m == nil || !rateLimitEnabled {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			if wrapped.statusCode == http.StatusTooManyRequests {
				m.RecordRateLimitRejected()
			} else {
				m.RecordRateLimitAllowed()
			}
		})
	}
}
