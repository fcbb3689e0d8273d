package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/doc-analyzer-api/internal/domain"
	"github.com/rs/zerolog/log"
)

// ErrorEnvelope is the body of every failed request. Error carries the
// taxonomy name of the failure and Message the human-readable text.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SendOTPEnvelope wraps send-otp responses.
type SendOTPEnvelope struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Mode      string    `json:"mode"`
	ExpiresAt time.Time `json:"expiresAt"`
	DebugOTP  string    `json:"debug_otp,omitempty"`
}

// LoginEnvelope wraps verify-otp responses.
type LoginEnvelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	User    *domain.Identity `json:"user"`
}

// AnalysisEnvelope wraps single-document responses.
type AnalysisEnvelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Data    *domain.Analysis `json:"data"`
}

// AnalysisListEnvelope wraps document listings.
type AnalysisListEnvelope struct {
	Success bool              `json:"success"`
	Data    []domain.Analysis `json:"data"`
}

// ChatEnvelope wraps chat answers.
type ChatEnvelope struct {
	Success   bool      `json:"success"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageEnvelope is the generic success wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: code, Message: msg})
}

var defaultMessages = map[string]string{
	"InvalidPhoneNumber":   "Invalid phone number format. Use international format: +1234567890",
	"MissingFields":        "Required fields are missing",
	"SessionNotFound":      "No OTP request found for this number. Please request a new OTP.",
	"SessionExpired":       "OTP has expired. Please request a new one.",
	"InvalidCode":          "Invalid OTP. Please try again.",
	"ProviderUnavailable":  "Failed to send OTP. Please try again.",
	"ProviderError":        "Verification failed. Please try again.",
	"UnsupportedMediaType": "Only PDF files are allowed",
	"FileTooLarge":         "File is too large",
	"InsufficientText":     "Could not extract sufficient text from the PDF. Please ensure it contains readable text.",
	"ExtractionFailed":     "Could not read the PDF file",
	"AssistantError":       "Failed to process the document with the AI service",
	"DocumentNotFound":     "Document not found",
	"StorageUnavailable":   "Document storage is temporarily unavailable",
}

// httpError maps err's category to a status code and writes the failure body.
// A non-empty msg overrides the default text for the error's code.
func httpError(w http.ResponseWriter, err error, msg string) {
	code := domain.Code(err)
	status := statusFor(err)
	if code == "" {
		code = "InternalError"
	}
	if msg == "" {
		msg = defaultMessages[code]
	}
	if msg == "" {
		msg = "Internal server error"
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", code).Msg("request failed")
	}
	writeError(w, status, code, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSession),
		errors.Is(err, domain.ErrVerification),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
