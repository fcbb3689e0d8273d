package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/doc-analyzer-api/internal/application/auth"
	"github.com/doc-analyzer-api/internal/domain"
)

// AuthHandler handles the phone login endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "MissingFields", "invalid request body")
		return
	}
	res, err := h.svc.SendOTP(r.Context(), req)
	if err != nil {
		msg := ""
		if errors.Is(err, domain.ErrMissingFields) {
			msg = "Phone number is required"
		}
		httpError(w, err, msg)
		return
	}
	writeJSON(w, http.StatusOK, SendOTPEnvelope{
		Success:   true,
		Message:   res.Message,
		Mode:      string(res.Mode),
		ExpiresAt: res.ExpiresAt,
		DebugOTP:  res.DebugCode,
	})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "MissingFields", "invalid request body")
		return
	}
	ident, err := h.svc.VerifyOTP(r.Context(), req)
	if err != nil {
		msg := ""
		if errors.Is(err, domain.ErrMissingFields) {
			msg = "Phone number and OTP are required"
		}
		httpError(w, err, msg)
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{Success: true, Message: "Login successful!", User: ident})
}
