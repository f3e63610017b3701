package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-profile-service/internal/platform/metrics"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr, user string) int {
	req := httptest.NewRequest(http.MethodGet, "/pets/user/u1", nil)
	req.RemoteAddr = remoteAddr
	if user != "" {
		req.Header.Set(DebugUserHeader, user)
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	return rw.Code
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	h := RateLimit(10, 2)(okHandler())

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234", ""))
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234", ""))
}

func TestRateLimit_BlocksWhenExceeded(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimited.WithLabelValues("memory"))
	h := RateLimit(0.5, 1)(okHandler())

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234", ""))
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.2:1234", ""))
	// otra IP tiene su propio bucket
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.3:1234", ""))

	require.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimited.WithLabelValues("memory")))
}

func TestRateLimit_KeysByUserWhenAuthenticated(t *testing.T) {
	h := AuthContext(nil)(RateLimit(0.5, 1)(okHandler()))

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.4:1", "user-a"))
	// mismo usuario desde otra IP => mismo bucket
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.5:1", "user-a"))
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.4:1", "user-b"))
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestLimiterStore_EvictsIdleKeys(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := newLimiterStore(10, 2, time.Minute, clock.now)

	require.True(t, store.allow("ip:a"))
	require.True(t, store.allow("ip:b"))

	clock.t = clock.t.Add(30 * time.Second)
	require.True(t, store.allow("ip:b"))

	// a lleva más de un minuto sin uso; b no.
	clock.t = clock.t.Add(31 * time.Second)
	require.True(t, store.allow("ip:c"))

	require.Equal(t, 2, store.size())
	_, hasA := store.entries["ip:a"]
	require.False(t, hasA)
	_, hasB := store.entries["ip:b"]
	require.True(t, hasB)
}

func TestLimiterStore_KeepsExhaustedBucketWithoutRefill(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	// rps 0: el bucket nunca se rellena, descartarlo regalaría otro burst.
	store := newLimiterStore(0, 1, time.Minute, clock.now)

	require.True(t, store.allow("ip:a"))
	require.False(t, store.allow("ip:a"))

	clock.t = clock.t.Add(time.Hour)
	require.True(t, store.allow("ip:b"))
	require.False(t, store.allow("ip:a"))
	require.Equal(t, 2, store.size())
}

func TestRedisRateLimit_FixedWindow(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()

	// rps 0 + burst 2 => 2 requests por ventana
	h := RedisRateLimit(client, 0, 2, time.Minute, nil)(okHandler())

	require.Equal(t, http.StatusOK, hit(h, "10.0.1.1:1", ""))
	require.Equal(t, http.StatusOK, hit(h, "10.0.1.1:1", ""))
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.1.1:1", ""))

	keys := m.Keys()
	require.Len(t, keys, 1)
	require.True(t, m.TTL(keys[0]) > 0, "window key must expire")
}

func TestRedisRateLimit_FailsOpenWhenRedisDown(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	defer client.Close()
	m.Close()

	h := RedisRateLimit(client, 0, 0, time.Second, nil)(okHandler())
	require.Equal(t, http.StatusOK, hit(h, "10.0.1.2:1", ""))
}
