// apierrors стандартизирует ответы об ошибках HTTP-слоя auth-service.
// На вход принимает ошибку бизнес-слоя (сентинелы пакета service),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Внутренние причины (текст обёрнутых ошибок, сбои БД) наружу не уходят —
// они остаются в логах транспортного слоя.
package apierrors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"auth-service/internal/service"
)

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrRateLimited — превышен лимит запросов; выставляется rate-limit
// мидлваром. Транспорт: 429.
var ErrRateLimited = errors.New("rate limited")

// ErrInvalidArgument — тело запроса не разобралось или содержит
// неизвестные поля. Транспорт: 400.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrUnauthenticated — запрос к защищённому маршруту без валидного
// access-токена. Транспорт: 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// APIError — единый формат ошибки для фронта.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку бизнес-слоя в HTTP-статус и унифицированный
// ответ. err == nil — программная ошибка вызова: возвращаем 500/internal,
// чтобы не послать "200 OK" с телом ошибки и не замаскировать баг.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := mapError(err)
	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров и мидлваров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// mapError — таблица соответствия сентинелов бизнес-слоя HTTP-ответам.
// Все отказы аутентификации отвечают 401: различать "нет такого
// пользователя" и "пароль не совпал" наружу нельзя, но код
// phone_not_verified отдаём отдельно — фронту нужно показать экран
// подтверждения телефона.
func mapError(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "invalid credentials"
	case errors.Is(err, service.ErrPhoneNotVerified):
		return http.StatusUnauthorized, "phone_not_verified", "phone not verified"
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "token_expired", "token expired"
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrKindMismatch):
		return http.StatusUnauthorized, "invalid_token", "invalid token"
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case errors.Is(err, service.ErrUserExists):
		return http.StatusConflict, "user_exists", "user already exists"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found", "user not found"
	case errors.Is(err, service.ErrInvalidVerificationCode):
		return http.StatusBadRequest, "invalid_verification_code", "invalid verification code"
	case errors.Is(err, service.ErrPhoneAlreadyVerified):
		return http.StatusBadRequest, "phone_already_verified", "phone already verified"
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_email", "invalid email format"
	case errors.Is(err, service.ErrInvalidPhone):
		return http.StatusBadRequest, "invalid_phone", "invalid phone format"
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, "weak_password", "password is too weak"
	case errors.Is(err, service.ErrEmptyName),
		errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited", "too many requests"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
