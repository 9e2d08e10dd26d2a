// middleware содержит net/http мидлвары HTTP-транспорта auth-service:
// восстановление после паник, request-id, request-scoped логирование,
// метрики, лимитирование запросов, дедлайны и проверку access-токена
// для защищённых маршрутов.
package middleware

import (
	"context"
	"net/http"

	"auth-service/internal/tokens"
)

// Middleware — стандартный net/http мидлвар.
type Middleware func(http.Handler) http.Handler

// Chain применяет мидлвары к обработчику в порядке их перечисления.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyAuthPayload
)

// RequestIDFrom возвращает request-id из контекста (пустая строка, если нет).
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// AuthPayload возвращает полезную нагрузку access-токена, положенную
// мидлваром AuthBearer. ok == false на незащищённых маршрутах.
func AuthPayload(ctx context.Context) (*tokens.Payload, bool) {
	p, ok := ctx.Value(ctxKeyAuthPayload).(*tokens.Payload)
	return p, ok
}

// statusWriter оборачивает ResponseWriter, чтобы перехватить статус и размер.
type statusWriter struct {
	http.ResponseWriter
	status int
	count  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	count, err := w.ResponseWriter.Write(p)
	w.count += count
	return count, err
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w}
}
