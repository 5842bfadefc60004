package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPCheck_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte(`{"status":"UP"}`))
	}))
	defer s.Close()

	chk := NewHTTPCheck("backend", s.URL, 2*time.Second)
	out := chk.Run(context.Background())
	if out.Status != StatusUp {
		t.Fatalf("want UP, got %+v", out)
	}
	if out.Name != "backend" {
		t.Fatalf("want name backend, got %q", out.Name)
	}
	if !strings.HasPrefix(out.Detail, "200") {
		t.Fatalf("want detail to start with 200, got %q", out.Detail)
	}
	if out.LatencyMS < 0 {
		t.Fatalf("latency should be >= 0, got %f", out.LatencyMS)
	}
}

func TestHTTPCheck_BodyMustReportUp(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		errWant string
	}{
		{"self-reported down", `{"status":"DOWN"}`, "DOWN"},
		{"missing status field", `{"ok":true}`, "reported status"},
		{"non-json body", `<html>login page</html>`, "malformed response body"},
		{"empty body", ``, "malformed response body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(200)
				w.Write([]byte(tt.body))
			}))
			defer s.Close()

			chk := NewHTTPCheck("backend", s.URL, 2*time.Second)
			out := chk.Run(context.Background())
			if out.Status != StatusDown {
				t.Fatalf("a 200 with body %q must be DOWN, got %+v", tt.body, out)
			}
			if !strings.Contains(out.Error, tt.errWant) {
				t.Fatalf("want error mentioning %q, got %q", tt.errWant, out.Error)
			}
		})
	}
}

func TestHTTPCheck_Status500(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer s.Close()

	chk := NewHTTPCheck("backend", s.URL, 2*time.Second)
	out := chk.Run(context.Background())
	if out.Status != StatusDown {
		t.Fatalf("want DOWN, got %+v", out)
	}
	if !strings.Contains(out.Error, "500") {
		t.Fatalf("want error to mention 500, got %q", out.Error)
	}
}

func TestHTTPCheck_Timeout(t *testing.T) {
	// Server sleeps longer than the check timeout
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewHTTPCheck("backend", s.URL, 50*time.Millisecond)
	out := chk.Run(context.Background())
	if out.Status != StatusDown {
		t.Fatalf("want DOWN due to timeout, got %+v", out)
	}
	if !strings.Contains(strings.ToLower(out.Error), "timeout") {
		t.Fatalf("want error to mention timeout, got %q", out.Error)
	}
}

func TestHTTPCheck_ConnectionRefused(t *testing.T) {
	// Grab a port nobody is listening on
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := s.URL
	s.Close()

	chk := NewHTTPCheck("backend", url, 500*time.Millisecond)
	out := chk.Run(context.Background())
	if out.Status != StatusDown {
		t.Fatalf("want DOWN, got %+v", out)
	}
	if out.Error == "" {
		t.Fatalf("want non-empty error")
	}
}

func TestFuncCheck_OK(t *testing.T) {
	chk := NewFuncCheck("cache", func(ctx context.Context) error { return nil })
	out := chk.Run(context.Background())
	if out.Status != StatusUp {
		t.Fatalf("want UP, got %+v", out)
	}
}

func TestFuncCheck_Error(t *testing.T) {
	chk := NewFuncCheck("cache", func(ctx context.Context) error {
		return errors.New("pool exhausted")
	})
	out := chk.Run(context.Background())
	if out.Status != StatusDown {
		t.Fatalf("want DOWN, got %+v", out)
	}
	if out.Error != "pool exhausted" {
		t.Fatalf("want original error text, got %q", out.Error)
	}
}

func TestFuncCheck_PanicIsRecovered(t *testing.T) {
	chk := NewFuncCheck("cache", func(ctx context.Context) error {
		panic("nil map write")
	})
	out := chk.Run(context.Background())
	if out.Status != StatusDown {
		t.Fatalf("want DOWN after panic, got %+v", out)
	}
	if !strings.Contains(out.Error, "nil map write") {
		t.Fatalf("want panic message in error, got %q", out.Error)
	}
}

func TestFuncCheck_SkippedIsUnknown(t *testing.T) {
	chk := NewFuncCheck("cache", func(ctx context.Context) error { return ErrSkipped })
	out := chk.Run(context.Background())
	if out.Status != StatusUnknown {
		t.Fatalf("want UNKNOWN, got %+v", out)
	}
	if out.Error != "" {
		t.Fatalf("skipped check should not carry an error, got %q", out.Error)
	}
}
