package health

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLiveness_Handler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	Liveness()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	ct := rr.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type=%q want text/plain", ct)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "ok" {
		t.Fatalf("body=%q want ok", got)
	}
}

type fakeReady struct {
	ready bool
	parts []int32
}

func (f fakeReady) Readiness() (bool, []int32) { return f.ready, f.parts }

func TestReadiness_Handler(t *testing.T) {
	cases := []struct {
		name   string
		in     fakeReady
		method string
		code   int
		body   string
	}{
		{"ready", fakeReady{true, []int32{2, 0}}, http.MethodGet, http.StatusOK, `{"status":"ready","invalidation":"consuming","partitions":[0,2]}`},
		{"not ready", fakeReady{}, http.MethodGet, http.StatusServiceUnavailable, `{"status":"not_ready","invalidation":"unassigned"}`},
		{"head", fakeReady{true, []int32{1}}, http.MethodHead, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Readiness(tc.in)(rr, httptest.NewRequest(tc.method, "/readyz", nil))
			if rr.Code != tc.code {
				t.Fatalf("status=%d want %d", rr.Code, tc.code)
			}
			if got := strings.TrimSpace(rr.Body.String()); got != tc.body {
				t.Fatalf("body=%s want %s", got, tc.body)
			}
			if rr.Header().Get("Cache-Control") != "no-store" {
				t.Fatalf("cache-control=%q", rr.Header().Get("Cache-Control"))
			}
		})
	}
}
