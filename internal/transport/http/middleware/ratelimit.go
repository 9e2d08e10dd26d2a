package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	logctx "auth-service/internal/pkg/log"
	"auth-service/internal/ratelimit"
	"auth-service/internal/transport/http/apierrors"
)

// RateLimit отклоняет запрос с 429, когда лимитер исчерпан для ключа
// клиента. При сбое самого лимитера (недоступен Redis) запрос
// пропускается: деградация лимитирования не должна ронять аутентификацию.
func RateLimit(limiter ratelimit.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				logctx.From(r.Context()).Warn("ratelimit_unavailable",
					slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				apierrors.WriteError(w, r, apierrors.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP извлекает IP клиента: первый адрес из X-Forwarded-For,
// иначе хост из RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
