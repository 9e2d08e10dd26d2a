// handlers содержит реализацию REST-эндпоинтов auth-service.
// Здесь выполняется только разбор запросов и маппинг данных/ошибок
// доменного слоя (service) в HTTP. Вся валидация и бизнес-логика
// находятся в пакете service.
//
// Безопасность:
//   - для 5xx наружу не утекают детали внутренних ошибок; подробности
//     уходят в лог через request-scoped логгер.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	logctx "auth-service/internal/pkg/log"
	"auth-service/internal/service"
	"auth-service/internal/transport/http/apierrors"
)

// Handlers агрегирует зависимости эндпоинтов (бизнес-слой).
type Handlers struct {
	service *service.Service
}

// New создаёт Handlers поверх сервисного слоя.
func New(s *service.Service) *Handlers {
	return &Handlers{service: s}
}

// messageResponse — ответ операций без полезной нагрузки.
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeError маппит ошибку бизнес-слоя в HTTP-ответ. Для 5xx полная
// цепочка ошибки логируется: схлопнутые причины (например, сбой БД под
// token_expired при ротации) различимы только здесь.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := apierrors.ToHTTP(err)
	if status >= http.StatusInternalServerError {
		logctx.From(r.Context()).Error("handler_failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	} else {
		logctx.From(r.Context()).Debug("request_rejected",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}

	apierrors.WriteError(w, r, err)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
