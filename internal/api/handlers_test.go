package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"address-book/internal/directory"
	"address-book/pkg/health"
	"address-book/pkg/logging"
	"address-book/pkg/metrics"
)

func newTestRouter(t *testing.T) (http.Handler, *directory.Service, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	svc := directory.NewService(nil, logging.Nop(), reg, directory.Options{})
	hm := health.NewHealthManager(health.DefaultHealthConfig(), nil)
	hm.RegisterChecker(health.NewHealthCheckFunc("directory", func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.HealthStatusHealthy}
	}))
	return NewRouter(svc, Options{Metrics: reg, Health: hm}), svc, reg
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) listResponse {
	t.Helper()
	var out listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestAddAndStatusMapping(t *testing.T) {
	h, _, _ := newTestRouter(t)

	cases := []struct {
		name  string
		body  string
		want  int
		field string
	}{
		{"created", `{"name":"Alice Smith","category":"Personal","phone":"059-123-4567"}`, http.StatusCreated, ""},
		{"merged", `{"name":"alice smith","category":"Personal","phone":"0597654321","allow_merge":true}`, http.StatusOK, ""},
		{"already held", `{"name":"Alice Smith","category":"Personal","phone":"0597654321","allow_merge":true}`, http.StatusOK, ""},
		{"duplicate", `{"name":"Bob","category":"Work","phone":"0591234567"}`, http.StatusConflict, ""},
		{"bad phone", `{"name":"Bob","category":"Work","phone":"911"}`, http.StatusBadRequest, "phone"},
		{"bad category", `{"name":"Bob","category":"Pals","phone":"0590000000"}`, http.StatusBadRequest, "category"},
		{"bad json", `{"name":`, http.StatusBadRequest, ""},
		{"unknown field", `{"nam":"Bob"}`, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		rec := do(t, h, http.MethodPost, "/contacts", tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s: code = %d, want %d (%s)", tc.name, rec.Code, tc.want, rec.Body.String())
		}
		if tc.field != "" {
			var e errorResponse
			json.Unmarshal(rec.Body.Bytes(), &e)
			if e.Fields[tc.field] == "" || e.Error == "" {
				t.Fatalf("%s: unexpected error body %+v", tc.name, e)
			}
		}
	}
}

func TestSearchAndList(t *testing.T) {
	h, svc, _ := newTestRouter(t)
	ctx := context.Background()
	svc.Add(ctx, directory.AddRequest{Name: "Mohamed Ahmed", Category: "Personal", Phone: "0591000001"})
	svc.Add(ctx, directory.AddRequest{Name: "Mohammad Ahmad", Category: "Work", Phone: "0591000002"})
	svc.Add(ctx, directory.AddRequest{Name: "John Smith", Category: "Work", Phone: "0591000003"})

	if got := decodeList(t, do(t, h, http.MethodGet, "/contacts", "")); got.Count != 3 {
		t.Fatalf("list count = %d", got.Count)
	}
	if got := decodeList(t, do(t, h, http.MethodGet, "/contacts?category=work", "")); got.Count != 2 {
		t.Fatalf("category count = %d", got.Count)
	}
	if rec := do(t, h, http.MethodGet, "/contacts?category=nope", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad category code = %d", rec.Code)
	}

	if got := decodeList(t, do(t, h, http.MethodGet, "/contacts/search?name=Mohamed", "")); got.Count != 1 {
		t.Fatalf("exact search count = %d", got.Count)
	}
	if got := decodeList(t, do(t, h, http.MethodGet, "/contacts/search?name=Mohamed&fuzzy=true", "")); got.Count != 2 {
		t.Fatalf("fuzzy search count = %d", got.Count)
	}
	got := decodeList(t, do(t, h, http.MethodGet, "/contacts/search?number=059-100-0003", ""))
	if got.Count != 1 || got.Contacts[0].Name != "John Smith" {
		t.Fatalf("number search = %+v", got)
	}
	if rec := do(t, h, http.MethodGet, "/contacts/search", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing query code = %d", rec.Code)
	}
	// The strict profile penalizes the length gap that the default gate lets through.
	svc.Add(ctx, directory.AddRequest{Name: "Jonathan", Category: "Other", Phone: "0591000004"})
	if got := decodeList(t, do(t, h, http.MethodGet, "/contacts/search?name=jonathn&fuzzy=true", "")); got.Count != 1 {
		t.Fatalf("gated fuzzy count = %d, want 1", got.Count)
	}
	if got := decodeList(t, do(t, h, http.MethodGet, "/contacts/search?name=jonathn&fuzzy=strict", "")); got.Count != 0 {
		t.Fatalf("strict fuzzy count = %d, want 0", got.Count)
	}
	if rec := do(t, h, http.MethodGet, "/contacts/search?name=x&fuzzy=maybe", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad fuzzy code = %d", rec.Code)
	}
}

func TestListAsYAML(t *testing.T) {
	h, svc, _ := newTestRouter(t)
	svc.Add(context.Background(), directory.AddRequest{Name: "Alice", Category: "Family", Phone: "0591234567"})

	rec := do(t, h, http.MethodGet, "/contacts?format=yaml", "")
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Fatalf("content type = %q", ct)
	}
	var out listResponse
	if err := yaml.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("yaml decode: %v", err)
	}
	if out.Count != 1 || out.Contacts[0].PhoneNumbers[0] != "0591234567" {
		t.Fatalf("unexpected yaml body: %+v", out)
	}
}

func TestAddRepeatReportsUnchanged(t *testing.T) {
	h, _, _ := newTestRouter(t)
	body := `{"name":"Multi","category":"Family","phone":"0591000001","allow_merge":true}`

	if rec := do(t, h, http.MethodPost, "/contacts", body); rec.Code != http.StatusCreated {
		t.Fatalf("first add code = %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/contacts", body)
	var res directory.AddResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || !res.Unchanged || res.Merged {
		t.Fatalf("repeat add = %d %+v", rec.Code, res)
	}
}

func TestListAsTuples(t *testing.T) {
	h, svc, _ := newTestRouter(t)
	ctx := context.Background()
	svc.Add(ctx, directory.AddRequest{Name: "Multi", Category: "Family", Phone: "0591111111", AllowMerge: true})
	svc.Add(ctx, directory.AddRequest{Name: "Multi", Category: "Family", Phone: "0592222222", AllowMerge: true})
	svc.Add(ctx, directory.AddRequest{Name: "Solo", Category: "Work", Phone: "0593333333"})

	rec := do(t, h, http.MethodGet, "/contacts?format=tuples", "")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}
	want := "(Multi, Family, 0591111111)\n(Multi, Family, 0592222222)\n(Solo, Work, 0593333333)\n"
	if rec.Body.String() != want {
		t.Fatalf("tuples body = %q, want %q", rec.Body.String(), want)
	}

	rec = do(t, h, http.MethodGet, "/contacts/search?name=solo&format=tuples", "")
	if rec.Body.String() != "(Solo, Work, 0593333333)\n" {
		t.Fatalf("search tuples body = %q", rec.Body.String())
	}
}

func TestDeletes(t *testing.T) {
	h, svc, _ := newTestRouter(t)
	ctx := context.Background()
	svc.Add(ctx, directory.AddRequest{Name: "Multi", Category: "Other", Phone: "0591111111", AllowMerge: true})
	svc.Add(ctx, directory.AddRequest{Name: "Multi", Category: "Other", Phone: "0592222222", AllowMerge: true})
	svc.Add(ctx, directory.AddRequest{Name: "Gone", Category: "Other", Phone: "0593333333"})

	if rec := do(t, h, http.MethodDelete, "/contacts/numbers/0591111111", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete number code = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/contacts/numbers/0591111111", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete number code = %d", rec.Code)
	}
	if svc.Count() != 2 {
		t.Fatalf("partial delete should keep the contact, count = %d", svc.Count())
	}

	rec := do(t, h, http.MethodDelete, "/contacts?name=gone", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"deleted":1`) {
		t.Fatalf("delete by name = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodDelete, "/contacts?name=gone", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("repeat delete by name code = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/contacts", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing name code = %d", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/contacts", "")
	if id := rec.Header().Get(RequestIDHeader); len(id) != 36 {
		t.Fatalf("expected a generated uuid, got %q", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("client request id should be echoed")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h, _, _ := newTestRouter(t)

	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz code = %d", rec.Code)
	}
	do(t, h, http.MethodPost, "/contacts", `{"name":"Al","category":"Other","phone":"0591234567"}`)

	body := do(t, h, http.MethodGet, "/metrics", "").Body.String()
	for _, want := range []string{"directory_numbers_added_total 1", "http_requests_2xx_total", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.1.1.1:80", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "1.1.1.1:80", "10.0.0.9"},
		{"remote addr", nil, "192.168.1.5:5555", "192.168.1.5"},
		{"no port", nil, "192.168.1.5", "192.168.1.5"},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tc.remote
		for k, v := range tc.header {
			r.Header.Set(k, v)
		}
		if got := clientIP(r); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
