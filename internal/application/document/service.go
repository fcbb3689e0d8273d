package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/doc-analyzer-api/internal/domain"
	"github.com/doc-analyzer-api/internal/metrics"
	"github.com/doc-analyzer-api/internal/pkg/clock"
	"github.com/doc-analyzer-api/internal/pkg/id"
	"github.com/doc-analyzer-api/internal/pkg/textutil"
	"github.com/doc-analyzer-api/internal/pkg/validate"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const (
	pdfMIME = "application/pdf"

	// MinTextLength is the shortest extracted text worth summarising.
	MinTextLength = 50
	// ContextChars is how much document text is kept for follow-up questions.
	ContextChars = 8000
	// CharsPerPage estimates pages when the parser reports none.
	CharsPerPage = 2000

	DefaultMaxBytes  = 10 << 20
	DefaultRetention = 7 * 24 * time.Hour
)

// TextExtractor turns an uploaded file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (text string, pages int, err error)
}

// Assistant is the language-model collaborator.
type Assistant interface {
	Summarize(ctx context.Context, text string) (string, error)
	Answer(ctx context.Context, text, question string) (string, error)
}

// Archive keeps the original uploads.
type Archive interface {
	Archive(ctx context.Context, owner, id, fileName string, data []byte) (key string, err error)
	Delete(ctx context.Context, key string) error
}

// Repository stores analysis records.
type Repository interface {
	Put(ctx context.Context, a *domain.Analysis) error
	Get(ctx context.Context, analysisID string) (*domain.Analysis, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Analysis, error)
	Touch(ctx context.Context, analysisID string, expiresAt int64) error
	Delete(ctx context.Context, analysisID string) error
}

type Upload struct {
	OwnerID     string
	FileName    string
	ContentType string
	Data        []byte
}

type ChatRequest struct {
	Message      string `json:"message" validate:"required"`
	DocumentText string `json:"documentText"`
	DocumentID   string `json:"documentId"`
}

type Service interface {
	Analyze(ctx context.Context, up Upload) (*domain.Analysis, error)
	Chat(ctx context.Context, ownerID string, req ChatRequest) (string, error)
	Get(ctx context.Context, ownerID, analysisID string) (*domain.Analysis, error)
	List(ctx context.Context, ownerID string) ([]domain.Analysis, error)
	Delete(ctx context.Context, ownerID, analysisID string) error
}

// ServiceDeps groups the constructor inputs. Archive and Records are
// optional; without Records analyses are not kept after the response.
type ServiceDeps struct {
	Extractor TextExtractor
	Assistant Assistant
	Archive   Archive
	Records   Repository
	MaxBytes  int64
	Retention time.Duration
	Clock     clock.Clocker
}

type service struct {
	extractor TextExtractor
	assistant Assistant
	archive   Archive
	records   Repository
	maxBytes  int64
	retention time.Duration
	clock     clock.Clocker
}

func NewService(d ServiceDeps) Service {
	s := &service{
		extractor: d.Extractor,
		assistant: d.Assistant,
		archive:   d.Archive,
		records:   d.Records,
		maxBytes:  d.MaxBytes,
		retention: d.Retention,
		clock:     d.Clock,
	}
	if s.maxBytes <= 0 {
		s.maxBytes = DefaultMaxBytes
	}
	if s.retention <= 0 {
		s.retention = DefaultRetention
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	return s
}

func (s *service) Analyze(ctx context.Context, up Upload) (*domain.Analysis, error) {
	a, err := s.analyze(ctx, up)
	outcome := "ok"
	if err != nil {
		outcome = domain.Code(err)
		if outcome == "" {
			outcome = "error"
		}
	}
	metrics.DocumentsAnalyzedTotal.WithLabelValues(outcome).Inc()
	return a, err
}

func (s *service) analyze(ctx context.Context, up Upload) (*domain.Analysis, error) {
	if len(up.Data) == 0 {
		return nil, fmt.Errorf("no file uploaded: %w", domain.ErrMissingFields)
	}
	if int64(len(up.Data)) > s.maxBytes {
		return nil, fmt.Errorf("%d bytes exceeds %d: %w", len(up.Data), s.maxBytes, domain.ErrFileTooLarge)
	}
	if !isPDF(up.ContentType, up.Data) {
		return nil, fmt.Errorf("only PDF files are allowed: %w", domain.ErrUnsupportedMedia)
	}

	text, pages, err := s.extractor.Extract(ctx, up.Data)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	text = strings.TrimSpace(text)
	textLength := textutil.Len(text)
	if textLength < MinTextLength {
		return nil, fmt.Errorf("extracted %d characters: %w", textLength, domain.ErrInsufficientText)
	}
	if pages <= 0 {
		pages = (textLength + CharsPerPage - 1) / CharsPerPage
	}

	summary, err := s.assistant.Summarize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	sum := sha256.Sum256(up.Data)
	now := s.clock.Now().UTC()
	a := &domain.Analysis{
		AnalysisID:  id.New(),
		OwnerID:     up.OwnerID,
		FileName:    up.FileName,
		FileSize:    int64(len(up.Data)),
		Hash:        hex.EncodeToString(sum[:]),
		TextLength:  textLength,
		Pages:       pages,
		Summary:     summary,
		ContextText: textutil.Head(text, ContextChars),
		ProcessedAt: now,
		ExpiresAt:   now.Add(s.retention).Unix(),
	}

	if s.archive != nil {
		key, err := s.archive.Archive(ctx, a.OwnerID, a.AnalysisID, a.FileName, up.Data)
		if err != nil {
			log.Warn().Err(err).Str("analysis_id", a.AnalysisID).Msg("archive upload failed")
		} else {
			a.Object = key
		}
	}
	if s.records != nil {
		if err := s.records.Put(ctx, a); err != nil {
			log.Warn().Err(err).Str("analysis_id", a.AnalysisID).Msg("analysis record not stored")
		}
	}

	log.Info().
		Str("analysis_id", a.AnalysisID).
		Str("owner_id", a.OwnerID).
		Int("text_length", textLength).
		Int("pages", pages).
		Msg("document analyzed")
	return a, nil
}

func (s *service) Chat(ctx context.Context, ownerID string, req ChatRequest) (string, error) {
	answer, err := s.chat(ctx, ownerID, req)
	outcome := "ok"
	if err != nil {
		outcome = domain.Code(err)
		if outcome == "" {
			outcome = "error"
		}
	}
	metrics.ChatQuestionsTotal.WithLabelValues(outcome).Inc()
	return answer, err
}

func (s *service) chat(ctx context.Context, ownerID string, req ChatRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("message is required: %w", domain.ErrMissingFields)
	}

	text := strings.TrimSpace(req.DocumentText)
	if text == "" && req.DocumentID != "" {
		a, err := s.Get(ctx, ownerID, req.DocumentID)
		if err != nil {
			return "", err
		}
		text = a.ContextText
		expiresAt := s.clock.Now().Add(s.retention).Unix()
		if err := s.records.Touch(ctx, a.AnalysisID, expiresAt); err != nil {
			log.Warn().Err(err).Str("analysis_id", a.AnalysisID).Msg("could not extend retention")
		}
	}
	if text == "" {
		return "", fmt.Errorf("document text or id is required: %w", domain.ErrMissingFields)
	}

	answer, err := s.assistant.Answer(ctx, text, req.Message)
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}
	return answer, nil
}

func (s *service) Get(ctx context.Context, ownerID, analysisID string) (*domain.Analysis, error) {
	if s.records == nil {
		return nil, fmt.Errorf("analysis %s: %w", analysisID, domain.ErrDocumentNotFound)
	}
	a, err := s.records.Get(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	// Other owners' records are reported as missing.
	if a.OwnerID != ownerID {
		return nil, fmt.Errorf("analysis %s: %w", analysisID, domain.ErrDocumentNotFound)
	}
	return a, nil
}

func (s *service) List(ctx context.Context, ownerID string) ([]domain.Analysis, error) {
	if s.records == nil {
		return []domain.Analysis{}, nil
	}
	return s.records.ListByOwner(ctx, ownerID)
}

func (s *service) Delete(ctx context.Context, ownerID, analysisID string) error {
	a, err := s.Get(ctx, ownerID, analysisID)
	if err != nil {
		return err
	}
	if err := s.records.Delete(ctx, a.AnalysisID); err != nil {
		return err
	}
	if s.archive != nil && a.Object != "" {
		if err := s.archive.Delete(ctx, a.Object); err != nil {
			log.Warn().Err(err).Str("analysis_id", a.AnalysisID).Msg("archived object not removed")
		}
	}
	return nil
}

// isPDF requires both the declared type and the content to be PDF.
func isPDF(declared string, data []byte) bool {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil || mt != pdfMIME {
		return false
	}
	return mimetype.Detect(data).Is(pdfMIME)
}
