package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "reservatec/pkg/errors"
	httputil "reservatec/pkg/http"
	"reservatec/pkg/kafka"
	"reservatec/pkg/logger"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	_ = httputil.WriteSuccess(w, map[string]string{"ok": "yes"})
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Code
}

// ──────────────────────────────────────────────────────────────
// Rate limiting
// ──────────────────────────────────────────────────────────────

func TestRequesterRateLimiter_PerRequesterBuckets(t *testing.T) {
	rl := NewRequesterRateLimiter(2, time.Minute, 2, nil, logger.NewNop())
	defer rl.Stop()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("requester:F")
	assert.True(t, ok)
	ok, _ = rl.Allow("requester:F")
	assert.True(t, ok)
	ok, retry := rl.Allow("requester:F")
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	ok, _ = rl.Allow("requester:S")
	assert.True(t, ok, "other requesters have their own bucket")

	ok, _ = rl.Allow("")
	assert.True(t, ok, "empty keys are not limited")

	now = now.Add(30 * time.Second)
	ok, _ = rl.Allow("requester:F")
	assert.True(t, ok, "a token refills after window/requests")
}

func TestRequesterRateLimiter_EvictsIdle(t *testing.T) {
	rl := NewRequesterRateLimiter(1, time.Minute, 1, nil, logger.NewNop())
	defer rl.Stop()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("requester:F")

	now = now.Add(2 * time.Minute)
	rl.evictIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.visitors)
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRequesterRateLimiter(1, time.Hour, 1, nil, logger.NewNop())
	defer rl.Stop()
	h := RateLimit(rl)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/spaces", nil)
	req.Header.Set(httputil.HeaderRequesterID, "F")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestDefaultKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "addr:10.0.0.7", DefaultKeyExtractor(req))

	req.Header.Set(httputil.HeaderRequesterID, "R")
	assert.Equal(t, "requester:R", DefaultKeyExtractor(req))
}

// ──────────────────────────────────────────────────────────────
// Content type and body size
// ──────────────────────────────────────────────────────────────

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.NewNop())(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"json body", http.MethodPost, `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"text body", http.MethodPost, `{}`, "text/plain", http.StatusUnsupportedMediaType},
		{"missing header", http.MethodPost, `{}`, "", http.StatusUnsupportedMediaType},
		{"bodyless approve", http.MethodPost, ``, "", http.StatusOK},
		{"get", http.MethodGet, ``, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/reservations", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	h := MaxRequestSize(8)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"space_name":"Lab1"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

// ──────────────────────────────────────────────────────────────
// Idempotency
// ──────────────────────────────────────────────────────────────

func TestIdempotency_ReplaysPerRequester(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		_ = httputil.WriteCreated(w, map[string]int32{"call": n})
	}))

	send := func(requester string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "k1")
		req.Header.Set(httputil.HeaderRequesterID, requester)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	first := send("F")
	second := send("F")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replay"))
	assert.Equal(t, int32(1), calls.Load())

	send("S")
	assert.Equal(t, int32(2), calls.Load(), "keys are scoped to the requester")
}

func TestIdempotency_ErrorsAreNotCached(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = httputil.WriteError(w, apperrors.SlotConflict("taken"))
	}))

	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil)
		req.Header.Set("Idempotency-Key", "k1")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, int32(2), calls.Load())
}

// ──────────────────────────────────────────────────────────────
// Logging, recovery and timeout
// ──────────────────────────────────────────────────────────────

func TestRequestLogging_PropagatesCorrelationID(t *testing.T) {
	var seenRequestID, seenCorrelation string
	h := RequestLogging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenRequestID = requestID(r)
		seenCorrelation = kafka.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(httputil.HeaderCorrelationID, "corr-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "corr-1", seenRequestID)
	assert.Equal(t, "corr-1", seenCorrelation)
	assert.Equal(t, "corr-1", w.Header().Get(httputil.HeaderCorrelationID))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(httputil.HeaderCorrelationID))
	assert.Equal(t, seenRequestID, seenCorrelation)
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.CodeInternal, errorCode(t, w))
}

func TestRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	slow := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		<-release
		okHandler(w, r)
	}))
	defer close(release)

	w := httptest.NewRecorder()
	slow.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, apperrors.CodeTimeout, errorCode(t, w))

	fast := RequestTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "1")
		_ = httputil.WriteCreated(w, "done")
	}))
	w = httptest.NewRecorder()
	fast.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Test"))
}
