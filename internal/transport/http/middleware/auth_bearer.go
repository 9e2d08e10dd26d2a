package middleware

import (
	"context"
	"net/http"
	"strings"

	"auth-service/internal/tokens"
	"auth-service/internal/transport/http/apierrors"
)

// TokenValidator проверяет access-токен и возвращает его полезную нагрузку.
// Реализуется бизнес-слоем (service.Service).
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (*tokens.Payload, error)
}

// AuthBearer защищает маршрут: извлекает Bearer-токен из Authorization,
// проверяет его как access-токен и кладёт полезную нагрузку в контекст
// (см. AuthPayload). Запрос без валидного токена отклоняется с 401.
func AuthBearer(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
				return
			}

			payload, err := v.ValidateAccessToken(r.Context(), raw)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyAuthPayload, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken извлекает токен из заголовка Authorization ("Bearer <token>").
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}
