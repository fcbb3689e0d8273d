package domain

import "errors"

// Error categories. Handlers map these to HTTP status codes; every specific
// error below matches exactly one of them through errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrSession      = errors.New("session error")
	ErrVerification = errors.New("verification error")
	ErrProvider     = errors.New("provider error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// OTP errors.
var (
	ErrInvalidPhoneNumber  = newKind("InvalidPhoneNumber", ErrValidation)
	ErrMissingFields       = newKind("MissingFields", ErrValidation)
	ErrSessionNotFound     = newKind("SessionNotFound", ErrSession)
	ErrSessionExpired      = newKind("SessionExpired", ErrSession)
	ErrInvalidCode         = newKind("InvalidCode", ErrVerification)
	ErrProviderUnavailable = newKind("ProviderUnavailable", ErrProvider)
	ErrProviderFailure     = newKind("ProviderError", ErrProvider)
)

// Document errors.
var (
	ErrUnsupportedMedia   = newKind("UnsupportedMediaType", ErrValidation)
	ErrFileTooLarge       = newKind("FileTooLarge", ErrValidation)
	ErrInsufficientText   = newKind("InsufficientText", ErrValidation)
	ErrExtractionFailed   = newKind("ExtractionFailed", ErrValidation)
	ErrAssistantFailure   = newKind("AssistantError", ErrProvider)
	ErrDocumentNotFound   = newKind("DocumentNotFound", ErrNotFound)
	ErrStorageUnavailable = newKind("StorageUnavailable", ErrProvider)
)

// kindError is a named error that also matches its category.
type kindError struct {
	name     string
	category error
}

func newKind(name string, category error) error {
	return &kindError{name: name, category: category}
}

func (e *kindError) Error() string { return e.name }

func (e *kindError) Is(target error) bool { return target == e.category }

// Code returns the taxonomy name carried by err, or "" if it carries none.
func Code(err error) string {
	var k *kindError
	if errors.As(err, &k) {
		return k.name
	}
	return ""
}
