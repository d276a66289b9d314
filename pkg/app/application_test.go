package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservatec/pkg/client"
	"reservatec/pkg/config"
	httputil "reservatec/pkg/http"
	"reservatec/pkg/logger"
)

type routes func(*httprouter.Router)

func (f routes) RegisterRoutes(r *httprouter.Router) { f(r) }

type countingWorker struct {
	started, stopped atomic.Int32
}

func (w *countingWorker) Start(ctx context.Context) { w.started.Add(1) }
func (w *countingWorker) Stop()                     { w.stopped.Add(1) }

func testConfig() *config.Config {
	return &config.Config{
		Port:              "8080",
		RateLimitRequests: 2,
		RateLimitWindow:   time.Hour,
		RateLimitBurst:    2,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Hour,
		MaxRequestSize:    1024,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		ShutdownTimeout:   time.Second,
		Log:               logger.NewNop(),
		Client:            client.NewClient(),
	}
}

func newTestApp(t *testing.T) *Application {
	t.Helper()
	a := NewApplication(testConfig())

	health := routes(func(r *httprouter.Router) {
		r.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			_ = httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})
	api := routes(func(r *httprouter.Router) {
		r.POST("/api/v1/reservations", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			_ = httputil.WriteCreated(w, map[string]string{"id": "res-1"})
		})
	})
	a.SetApp(health, api)
	t.Cleanup(func() {
		a.idempotencyStore.Stop()
		a.rateLimiter.Stop()
	})
	return a
}

func TestApplication_HealthBypassesAppMiddleware(t *testing.T) {
	a := newTestApp(t)

	for range 5 {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(httputil.HeaderRequesterID, "F")
		w := httptest.NewRecorder()
		a.Handler().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestApplication_AppRoutesGetFullStack(t *testing.T) {
	a := newTestApp(t)

	post := func(contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(`{}`))
		req.Header.Set(httputil.HeaderRequesterID, "F")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		w := httptest.NewRecorder()
		a.Handler().ServeHTTP(w, req)
		return w
	}

	w := post("text/plain")
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.NotEmpty(t, w.Header().Get(httputil.HeaderCorrelationID))

	assert.Equal(t, http.StatusCreated, post("application/json").Code)
	assert.Equal(t, http.StatusCreated, post("application/json").Code)
	assert.Equal(t, http.StatusTooManyRequests, post("application/json").Code)
}

func TestApplication_WorkersStoppedOnShutdown(t *testing.T) {
	a := newTestApp(t)
	w := &countingWorker{}
	a.AddWorker(w)

	var closed []string
	a.OnShutdown("first", func() error { closed = append(closed, "first"); return nil })
	a.OnShutdown("second", func() error { closed = append(closed, "second"); return nil })

	for _, wk := range a.workers {
		wk.Start(a.ctx)
	}
	a.gracefulShutdown()

	assert.Equal(t, int32(1), w.started.Load())
	assert.Equal(t, int32(1), w.stopped.Load())
	assert.Equal(t, []string{"first", "second"}, closed)
	assert.Error(t, a.ctx.Err(), "background context is cancelled")
}
