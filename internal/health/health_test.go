package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := New(0)
	h := s.Handler()

	code, body := get(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", body["status"])

	s.SetReady(true)
	code, _ = get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	code, _ = get(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, code)
}

func TestReadyz_FailingCheck(t *testing.T) {
	t.Parallel()

	s := New(0)
	s.SetReady(true)
	s.AddCheck("store", func(context.Context) error { return errors.New("connection refused") })
	s.AddCheck("other", func(context.Context) error { return nil })

	code, body := get(t, s.Handler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, []any{"store: connection refused"}, body["failed"])

	code, _ = get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, code, "liveness ignores checks")
}
