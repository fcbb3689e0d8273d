package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/doc-analyzer-api/internal/application/document"
	"github.com/doc-analyzer-api/internal/domain"
	"github.com/doc-analyzer-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead leaves room for boundaries and headers around the file part.
const multipartOverhead = 1 << 20

// DocumentHandler handles PDF upload, chat and stored-analysis endpoints.
type DocumentHandler struct {
	svc      document.Service
	maxBytes int64
}

func NewDocumentHandler(svc document.Service, maxBytes int64) *DocumentHandler {
	if maxBytes <= 0 {
		maxBytes = document.DefaultMaxBytes
	}
	return &DocumentHandler{svc: svc, maxBytes: maxBytes}
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			httpError(w, domain.ErrFileTooLarge, fmt.Sprintf("File too large. Maximum size is %dMB", h.maxBytes>>20))
			return
		}
		httpError(w, domain.ErrMissingFields, "No file uploaded")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	f, header, err := r.FormFile("document")
	if err != nil {
		httpError(w, domain.ErrMissingFields, "No file uploaded")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		httpError(w, fmt.Errorf("read upload: %w", err), "")
		return
	}

	a, err := h.svc.Analyze(r.Context(), document.Upload{
		OwnerID:     middleware.OwnerFromContext(r.Context()),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		httpError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, AnalysisEnvelope{
		Success: true,
		Message: "Document analyzed successfully with AI!",
		Data:    a,
	})
}

func (h *DocumentHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req document.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "MissingFields", "invalid request body")
		return
	}
	answer, err := h.svc.Chat(r.Context(), middleware.OwnerFromContext(r.Context()), req)
	if err != nil {
		msg := ""
		if errors.Is(err, domain.ErrMissingFields) {
			msg = "Document text is required for chatting"
			if strings.TrimSpace(req.Message) == "" {
				msg = "Message is required"
			}
		}
		httpError(w, err, msg)
		return
	}
	writeJSON(w, http.StatusOK, ChatEnvelope{Success: true, Response: answer, Timestamp: time.Now().UTC()})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), middleware.OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, AnalysisEnvelope{Success: true, Data: a})
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), middleware.OwnerFromContext(r.Context()))
	if err != nil {
		httpError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, AnalysisListEnvelope{Success: true, Data: items})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), middleware.OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		httpError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "Document deleted"})
}
