package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/doc-analyzer-api/internal/domain"
	"github.com/ledongthuc/pdf"
)

// Extractor pulls plain text out of PDF documents.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Extract returns the document text and its page count.
func (e *Extractor) Extract(ctx context.Context, data []byte) (text string, pages int, err error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = fmt.Errorf("pdf: %w: %v", domain.ErrExtractionFailed, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("pdf: open: %w: %w", domain.ErrExtractionFailed, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("pdf: read text: %w: %w", domain.ErrExtractionFailed, err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", 0, fmt.Errorf("pdf: read text: %w: %w", domain.ErrExtractionFailed, err)
	}
	return strings.TrimSpace(b.String()), r.NumPage(), nil
}
