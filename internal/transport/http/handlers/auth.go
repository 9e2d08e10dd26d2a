package handlers

import (
	"net/http"

	"auth-service/internal/service"
	"auth-service/internal/transport/http/apierrors"
	"auth-service/internal/transport/http/middleware"
)

type signupRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignupUser обрабатывает POST /auth/signup: регистрирует пользователя
// и отдаёт пару токенов вместе с краткой карточкой пользователя.
func (h *Handlers) SignupUser(w http.ResponseWriter, r *http.Request) {
	var in signupRequest
	if err := decodeStrict(r, &in); err != nil {
		writeError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	result, err := h.service.SignupUser(r.Context(), service.SignupInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Password:  in.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// LoginUser обрабатывает POST /auth/login: вход по email или телефону.
func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		writeError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	result, err := h.service.LoginUser(r.Context(), in.Identifier, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RefreshTokens обрабатывает POST /auth/refresh: одноразовый обмен
// refresh-токена на новую пару.
func (h *Handlers) RefreshTokens(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		writeError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if in.RefreshToken == "" {
		writeError(w, r, service.ErrInvalidToken)
		return
	}

	result, err := h.service.RefreshTokens(r.Context(), in.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Logout обрабатывает POST /auth/logout (защищённый маршрут): отзывает
// предъявленный refresh-токен текущего пользователя.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	payload, ok := middleware.AuthPayload(r.Context())
	if !ok {
		writeError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	var in logoutRequest
	if err := decodeStrict(r, &in); err != nil {
		writeError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if err := h.service.Logout(r.Context(), payload.UserID, in.RefreshToken); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// LogoutAll обрабатывает POST /auth/logout-all (защищённый маршрут):
// отзывает все активные сессии текущего пользователя.
func (h *Handlers) LogoutAll(w http.ResponseWriter, r *http.Request) {
	payload, ok := middleware.AuthPayload(r.Context())
	if !ok {
		writeError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	if err := h.service.LogoutAll(r.Context(), payload.UserID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out from all sessions"})
}
