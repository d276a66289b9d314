package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "reservatec/pkg/errors"
	httputil "reservatec/pkg/http"
	"reservatec/pkg/logger"
)

// KeyExtractor picks the identity a request is rate limited under.
type KeyExtractor func(r *http.Request) string

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RequesterRateLimiter keeps one token bucket per requester.
type RequesterRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	extractor KeyExtractor
	log       *logger.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

// NewRequesterRateLimiter allows requests per window for each key, with the
// given burst. Buckets idle for longer than the window are evicted.
func NewRequesterRateLimiter(requests int, window time.Duration, burst int, extractor KeyExtractor, log *logger.Logger) *RequesterRateLimiter {
	if burst <= 0 {
		burst = max(requests, 1)
	}
	if extractor == nil {
		extractor = DefaultKeyExtractor
	}
	limiter := &RequesterRateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Limit(float64(requests) / window.Seconds()),
		burst:     burst,
		idleAfter: window,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}

	go limiter.cleanup()

	return limiter
}

func (rl *RequesterRateLimiter) cleanup() {
	ticker := time.NewTicker(max(rl.idleAfter, time.Minute))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RequesterRateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idleAfter {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RequesterRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow consumes a token for key. Empty keys are never limited.
func (rl *RequesterRateLimiter) Allow(key string) (bool, time.Duration) {
	if key == "" {
		return true, 0
	}

	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	now := rl.now()
	v.lastSeen = now
	rl.mu.Unlock()

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func RateLimit(limiter *RequesterRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiter.extractor(r)

			if ok, retryAfter := limiter.Allow(key); !ok {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", requestID(r),
					"key", key,
					"path", r.URL.Path,
				)
				if retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				}
				_ = httputil.WriteError(w, apperrors.New("RATE_LIMITED", "Rate limit exceeded", http.StatusTooManyRequests))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultKeyExtractor limits by requester id, falling back to the client
// address for anonymous reads.
func DefaultKeyExtractor(r *http.Request) string {
	if id := r.Header.Get(httputil.HeaderRequesterID); id != "" {
		return "requester:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "addr:" + r.RemoteAddr
	}
	return "addr:" + host
}
