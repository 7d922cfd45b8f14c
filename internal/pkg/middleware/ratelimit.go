package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/cache"
	"sweetshop/internal/pkg/logger"
)

// RateLimiter aplica uma janela fixa por IP usando INCR + EXPIRE no Redis.
// Uma chave que ficou sem TTL recebe a janela na próxima requisição.
// Se o Redis falhar a requisição segue sem limite.
func RateLimiter(client cache.Client, limit int, period time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := "rate-limit:" + ip
			ctx := r.Context()

			count, err := client.IncrWindow(ctx, key, period)
			if err != nil {
				log.Warn("Rate limiter indisponível.", map[string]interface{}{"error": err.Error()})
				if count == 0 {
					next.ServeHTTP(w, r)
					return
				}
			}

			remaining := int64(limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int(period.Seconds())))
				writeRateLimited(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"code":429,"category":"` + apperror.CategoryRateLimited + `","message":"Limite de requisições excedido."}`))
}
