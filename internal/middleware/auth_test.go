// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"lenscatalog/internal/session"
)

// newTestSession creates a session.Data value suitable for testing.
func newTestSession(totpRequired, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:       uuid.New(),
		Username:     "admin",
		DisplayName:  "Test Admin",
		TOTPRequired: totpRequired,
		TwoFADone:    twoFADone,
	}
}

// ctxWithSession returns a context carrying the given session data using
// the same context key the middleware uses.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, SessionKey, data)
}

// okHandler is a simple handler that records whether it was invoked.
func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

type stubSessions struct {
	data *session.Data
	err  error
}

func (s stubSessions) Get(context.Context, *http.Request) (*session.Data, error) {
	return s.data, s.err
}

func TestSessionFromCtx(t *testing.T) {
	t.Run("returns session when present", func(t *testing.T) {
		sess := newTestSession(false, false)
		got := SessionFromCtx(ctxWithSession(context.Background(), sess))
		if got == nil {
			t.Fatal("expected non-nil session, got nil")
		}
		if got.Username != sess.Username {
			t.Errorf("Username: got %q, want %q", got.Username, sess.Username)
		}
	})

	t.Run("returns nil when not present", func(t *testing.T) {
		if got := SessionFromCtx(context.Background()); got != nil {
			t.Errorf("expected nil session, got %+v", got)
		}
	})

	t.Run("returns nil for wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), SessionKey, "not-a-session")
		if got := SessionFromCtx(ctx); got != nil {
			t.Errorf("expected nil for wrong type, got %+v", got)
		}
	})
}

func TestLoadSession(t *testing.T) {
	tests := []struct {
		name    string
		store   stubSessions
		wantNil bool
	}{
		{"session found", stubSessions{data: newTestSession(false, false)}, false},
		{"no session", stubSessions{}, true},
		{"store error", stubSessions{err: errors.New("valkey down")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *session.Data
			handler := LoadSession(tt.store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = SessionFromCtx(r.Context())
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/me", nil))

			if (got == nil) != tt.wantNil {
				t.Errorf("session nil: got %v, want %v", got == nil, tt.wantNil)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		sess       *session.Data
		wantStatus int
		wantCalled bool
	}{
		{"no session", nil, http.StatusUnauthorized, false},
		{"password only account", newTestSession(false, false), http.StatusOK, true},
		{"totp pending", newTestSession(true, false), http.StatusUnauthorized, false},
		{"totp verified", newTestSession(true, true), http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, called := okHandler()
			req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
			if tt.sess != nil {
				req = req.WithContext(ctxWithSession(req.Context(), tt.sess))
			}
			rr := httptest.NewRecorder()
			RequireAuth(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if *called != tt.wantCalled {
				t.Errorf("called: got %v, want %v", *called, tt.wantCalled)
			}
			if rr.Code == http.StatusUnauthorized && !strings.Contains(rr.Body.String(), `"success":false`) {
				t.Errorf("body: got %q, want a failure envelope", rr.Body.String())
			}
		})
	}
}

func TestRequirePending(t *testing.T) {
	next, called := okHandler()
	rr := httptest.NewRecorder()
	RequirePending(next).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/2fa/verify", nil))
	if rr.Code != http.StatusUnauthorized || *called {
		t.Errorf("no session: got %d (called=%v), want 401", rr.Code, *called)
	}

	next, called = okHandler()
	req := httptest.NewRequest(http.MethodPost, "/admin/2fa/verify", nil)
	req = req.WithContext(ctxWithSession(req.Context(), newTestSession(true, false)))
	rr = httptest.NewRecorder()
	RequirePending(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !*called {
		t.Errorf("pending session: got %d (called=%v), want 200", rr.Code, *called)
	}
}
