// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests. Handlers run behind a real chi router so path parameters resolve
// the same way they do in production.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"lenscatalog/internal/middleware"
	"lenscatalog/internal/session"
)

// testEnvelope mirrors envelope with the data left raw for decoding.
type testEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// route mounts one handler on a fresh router.
func route(method, pattern string, h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	return r
}

// withSession attaches sess to every request, like LoadSession would.
func withSession(sess *session.Data, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess != nil {
			r = r.WithContext(context.WithValue(r.Context(), middleware.SessionKey, sess))
		}
		next.ServeHTTP(w, r)
	})
}

// do sends a request with an optional JSON body. A string body is sent
// verbatim.
func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// readEnvelope decodes the response envelope and, when data is non-nil,
// its payload.
func readEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) testEnvelope {
	t.Helper()

	var env testEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), "body: %s", rr.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), "data: %s", env.Data)
	}
	return env
}
