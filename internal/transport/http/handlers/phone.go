package handlers

import (
	"net/http"

	"auth-service/internal/transport/http/apierrors"
)

type requestCodeRequest struct {
	Phone string `json:"phone"`
}

type verifyPhoneRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// RequestPhoneCode обрабатывает POST /auth/request-code: высылает новый
// код подтверждения на телефон.
func (h *Handlers) RequestPhoneCode(w http.ResponseWriter, r *http.Request) {
	var in requestCodeRequest
	if err := decodeStrict(r, &in); err != nil {
		writeError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if err := h.service.RequestPhoneCode(r.Context(), in.Phone); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "verification code sent"})
}

// VerifyPhone обрабатывает POST /auth/verify-phone: подтверждает телефон
// по одноразовому коду.
func (h *Handlers) VerifyPhone(w http.ResponseWriter, r *http.Request) {
	var in verifyPhoneRequest
	if err := decodeStrict(r, &in); err != nil {
		writeError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	msg, err := h.service.VerifyPhone(r.Context(), in.Phone, in.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}
