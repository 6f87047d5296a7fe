package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHTTPRequests(t *testing.T) {
	m := NewMetrics(MetricsConfig{Namespace: "chathub", Version: "test"})

	m.RecordHTTPRequest(http.MethodGet, "/api/v1/conversations", http.StatusOK, 10*time.Millisecond)
	m.RecordHTTPRequest(http.MethodGet, "/api/v1/conversations", http.StatusOK, 20*time.Millisecond)
	m.RecordHTTPRequest(http.MethodPost, "/api/v1/chat", http.StatusBadGateway, 5*time.Millisecond)

	body := scrape(t, m)
	for _, want := range []string{
		`chathub_info{version="test"} 1`,
		`chathub_http_requests_total{method="GET",path="/api/v1/conversations",status="200"} 2`,
		`chathub_http_requests_total{method="POST",path="/api/v1/chat",status="502"} 1`,
		`chathub_http_request_duration_seconds_count{method="GET",path="/api/v1/conversations"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
}

func TestMetricsProviderCalls(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())

	m.RecordProviderCall("openai", 80*time.Millisecond, nil)
	m.RecordProviderCall("openai", 10*time.Millisecond, errors.New("timeout"))
	m.RecordProviderCall("anthropic", 120*time.Millisecond, nil)
	m.RecordTokenUsage("openai", 100, 40)
	m.RecordTokenUsage("openai", 50, 10)
	m.RecordTokenUsage("anthropic", 0, 7)

	body := scrape(t, m)
	for _, want := range []string{
		`chathub_provider_requests_total{service="anthropic",outcome="ok"} 1`,
		`chathub_provider_requests_total{service="openai",outcome="error"} 1`,
		`chathub_provider_requests_total{service="openai",outcome="ok"} 1`,
		`chathub_provider_request_duration_seconds_count{service="openai"} 2`,
		`chathub_tokens_total{service="openai",direction="prompt"} 150`,
		`chathub_tokens_total{service="openai",direction="output"} 50`,
		`chathub_tokens_total{service="anthropic",direction="output"} 7`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
	// Zero-valued token counts produce no series at all.
	if strings.Contains(body, `service="anthropic",direction="prompt"`) {
		t.Error("unexpected prompt series for anthropic")
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/api/v1/conversations":                                               "/api/v1/conversations",
		"/api/v1/conversations/12345":                                         "/api/v1/conversations/{id}",
		"/api/v1/sessions/my-session-7":                                       "/api/v1/sessions/{session_id}",
		"/api/v1/sessions/550e8400-e29b-41d4-a716-446655440000":               "/api/v1/sessions/{session_id}",
		"/api/v1/conversations/550e8400-e29b-41d4-a716-446655440000/messages": "/api/v1/conversations/{id}/messages",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDurationSeriesQuantiles(t *testing.T) {
	s := newDurationSeries(100)
	for i := 1; i <= 100; i++ {
		s.observe(time.Duration(i) * time.Millisecond)
	}

	if q := s.quantile(0.5); q < 0.045 || q > 0.055 {
		t.Errorf("p50 = %f", q)
	}
	if q := s.quantile(0.99); q < 0.095 || q > 0.1 {
		t.Errorf("p99 = %f", q)
	}
	sum, count := s.totals()
	if count != 100 {
		t.Errorf("count = %d", count)
	}
	if sum < 5.04 || sum > 5.06 {
		t.Errorf("sum = %f", sum)
	}
}

func TestDurationSeriesWindowKeepsRunningTotals(t *testing.T) {
	s := newDurationSeries(2)
	s.observe(time.Second)
	s.observe(time.Second)
	s.observe(time.Second)

	// The window drops the oldest sample but the totals keep counting.
	sum, count := s.totals()
	if count != 3 {
		t.Errorf("count = %d", count)
	}
	if sum < 2.9 || sum > 3.1 {
		t.Errorf("sum = %f", sum)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	handler := MetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/chat", nil))

	body := scrape(t, m)
	if !strings.Contains(body, `chathub_http_requests_total{method="POST",path="/api/v1/chat",status="201"} 1`) {
		t.Errorf("request not recorded:\n%s", body)
	}
	if !strings.Contains(body, "chathub_active_connections 0") {
		t.Errorf("gauge not released:\n%s", body)
	}
}

func TestMetricsMiddlewareSkipsMetricsEndpoint(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	handler := MetricsMiddleware(m)(m.Handler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if strings.Contains(scrape(t, m), `path="/metrics"`) {
		t.Error("scrapes must not be recorded")
	}
}

func TestMetricsMiddlewareNilMetrics(t *testing.T) {
	called := false
	handler := MetricsMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if !called {
		t.Fatal("next handler not reached")
	}
}

func TestRateLimitMetricsMiddleware(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	status := http.StatusOK
	handler := RateLimitMetricsMiddleware(m, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	status = http.StatusTooManyRequests
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	body := scrape(t, m)
	if !strings.Contains(body, `chathub_rate_limit_requests_total{status="allowed"} 1`) {
		t.Errorf("allowed not counted:\n%s", body)
	}
	if !strings.Contains(body, `chathub_rate_limit_requests_total{status="rejected"} 1`) {
		t.Errorf("rejected not counted:\n%s", body)
	}
}

func TestMetricsHandlerRejectsNonGET(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestMetricsConfigFromEnv(t *testing.T) {
	t.Setenv("CHATHUB_METRICS_ENABLED", "false")
	t.Setenv("APP_VERSION", "1.4.0")

	cfg := MetricsConfigFromEnv()
	if cfg.Enabled {
		t.Error("expected metrics disabled")
	}
	if cfg.Version != "1.4.0" {
		t.Errorf("version = %q", cfg.Version)
	}
}
