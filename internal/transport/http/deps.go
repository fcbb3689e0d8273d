package http

import (
	"github.com/doc-analyzer-api/internal/application/auth"
	"github.com/doc-analyzer-api/internal/application/document"
	"github.com/doc-analyzer-api/internal/transport/http/middleware"
)

// Deps holds the application services the router exposes.
type Deps struct {
	Auth      auth.Service
	Documents document.Service
	// Tokens verifies bearer tokens on document routes. Nil leaves them public.
	Tokens  middleware.TokenVerifier
	Version string
}
