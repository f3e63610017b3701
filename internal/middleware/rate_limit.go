package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"pet-profile-service/internal/platform/metrics"

	"golang.org/x/time/rate"
)

// limiterIdleTTL: un bucket sin uso por este tiempo y lleno se descarta.
const limiterIdleTTL = 10 * time.Minute

// RateLimit aplica un token bucket por key (usuario autenticado o IP).
// rps = eventos por segundo, burst = tamaño del bucket.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	store := newLimiterStore(rps, burst, limiterIdleTTL, time.Now)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.allow(limitKey(r)) {
				metrics.RateLimited.WithLabelValues("memory").Inc()
				w.Header().Set("Retry-After", "1")
				writeTooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiterStore guarda un limiter por key y barre los inactivos.
// Solo se descarta un bucket lleno: recrearlo da el mismo resultado.
type limiterStore struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(rps float64, burst int, idle time.Duration, now func() time.Time) *limiterStore {
	return &limiterStore{
		entries:   map[string]*limiterEntry{},
		rps:       rate.Limit(rps),
		burst:     burst,
		idle:      idle,
		lastSweep: now(),
		now:       now,
	}
}

func (s *limiterStore) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.idle {
		s.sweep(now)
	}

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(s.rps, s.burst)}
		s.entries[key] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

// sweep corre con mu tomado.
func (s *limiterStore) sweep(now time.Time) {
	for key, e := range s.entries {
		if now.Sub(e.lastSeen) >= s.idle && e.lim.TokensAt(now) >= float64(s.burst) {
			delete(s.entries, key)
		}
	}
	s.lastSweep = now
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// limitKey prefiere el usuario (claims) sobre la IP, para no castigar NATs.
// Requiere AuthContext antes en la cadena.
func limitKey(r *http.Request) string {
	if c, ok := GetClaims(r.Context()); ok && c.UserID != "" {
		return "user:" + c.UserID
	}
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func writeTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"message":"rate limit exceeded"}` + "\n"))
}
