// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// panickyRoutes mounts handlers that fail in different ways behind the
// same RequestID and Recoverer chain the API uses.
func panickyRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(Recoverer)
	r.Get("/admin/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		var stats map[string]int
		stats["products"]++ // nil map
	})
	r.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("scan product row: unexpected column"))
	})
	r.Get("/images/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("\x89PNG"))
		panic("storage stream broke")
	})
	r.Get("/categories", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"message":"Categories retrieved successfully","data":[]}`))
	})
	return r
}

func TestRecovererReturnsEnvelope(t *testing.T) {
	for _, path := range []string{"/admin/dashboard/stats", "/products"} {
		t.Run(path, func(t *testing.T) {
			captureLogs(t)
			rr := httptest.NewRecorder()
			panickyRoutes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("status: got %d, want 500", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Content-Type: got %q", ct)
			}
			var env struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Success || env.Message != "Internal server error" {
				t.Errorf("envelope: got %+v", env)
			}
		})
	}
}

func TestRecovererLogsRequestID(t *testing.T) {
	buf := captureLogs(t)
	panickyRoutes().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products", nil))

	lines := logLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1", len(lines))
	}
	line := lines[0]
	if line["msg"] != "panic recovered" || line["level"] != "ERROR" {
		t.Errorf("log line: %v", line)
	}
	if id, _ := line["request_id"].(string); id == "" {
		t.Error("request_id missing from panic log")
	}
	if got, _ := line["error"].(string); got != "scan product row: unexpected column" {
		t.Errorf("error: got %q", got)
	}
	if stack, _ := line["stack"].(string); !strings.Contains(stack, "recovery_test.go") {
		t.Error("stack should point at the panicking handler")
	}
}

func TestRecovererKeepsStartedResponse(t *testing.T) {
	buf := captureLogs(t)
	rr := httptest.NewRecorder()
	panickyRoutes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/images/products/a.png", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want the 200 already sent", rr.Code)
	}
	if body := rr.Body.String(); body != "\x89PNG" {
		t.Errorf("body: got %q, no envelope may be appended to image bytes", body)
	}
	lines := logLines(t, buf)
	if len(lines) != 1 || lines[0]["response_started"] != true {
		t.Errorf("log: got %v", lines)
	}
}

func TestRecovererReraisesAbort(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/images/products/a.png", nil))
	t.Error("ServeHTTP should have panicked")
}

func TestRecovererPassThrough(t *testing.T) {
	rr := httptest.NewRecorder()
	panickyRoutes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/categories", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"success":true`) {
		t.Errorf("body: got %q", rr.Body.String())
	}
}
