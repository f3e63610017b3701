package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pet-profile-service/internal/platform/logger"
	"pet-profile-service/internal/platform/metrics"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimit es un limitador de ventana fija compartido entre réplicas.
// Permite floor(rps*window)+burst requests por key y ventana.
// Si Redis falla, deja pasar (fail-open) y lo loguea.
func RedisRateLimit(client *redis.Client, rps float64, burst int, window time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return RateLimit(rps, burst)
	}
	if log == nil {
		log = logger.Nop()
	}
	windowSeconds := int64(window / time.Second)
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowed := int64(rps*float64(windowSeconds)) + int64(burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := time.Now().Unix() / windowSeconds
			key := fmt.Sprintf("rl:%s:%d", limitKey(r), bucket)

			cnt, err := client.Incr(r.Context(), key).Result()
			if err != nil {
				logger.FromContext(r.Context(), log).Warn("rate limit check failed", map[string]any{"err": err})
				next.ServeHTTP(w, r)
				return
			}
			if cnt == 1 {
				_ = client.Expire(r.Context(), key, time.Duration(windowSeconds+1)*time.Second).Err()
			}
			if cnt > allowed {
				metrics.RateLimited.WithLabelValues("redis").Inc()
				w.Header().Set("Retry-After", strconv.FormatInt(windowSeconds, 10))
				writeTooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
