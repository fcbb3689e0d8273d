package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindErrors_MatchTheirCategory(t *testing.T) {
	cases := []struct {
		err      error
		category error
	}{
		{ErrInvalidPhoneNumber, ErrValidation},
		{ErrMissingFields, ErrValidation},
		{ErrSessionNotFound, ErrSession},
		{ErrSessionExpired, ErrSession},
		{ErrInvalidCode, ErrVerification},
		{ErrProviderUnavailable, ErrProvider},
		{ErrProviderFailure, ErrProvider},
		{ErrDocumentNotFound, ErrNotFound},
	}
	for _, c := range cases {
		wrapped := fmt.Errorf("op: %w", c.err)
		assert.ErrorIs(t, wrapped, c.err)
		assert.ErrorIs(t, wrapped, c.category, c.err.Error())
	}
}

func TestKindErrors_DoNotCrossCategories(t *testing.T) {
	assert.False(t, errors.Is(ErrSessionNotFound, ErrVerification))
	assert.False(t, errors.Is(ErrInvalidCode, ErrSession))
	assert.False(t, errors.Is(ErrSessionExpired, ErrSessionNotFound))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "SessionNotFound", Code(fmt.Errorf("verify: %w", ErrSessionNotFound)))
	assert.Equal(t, "InvalidCode", Code(ErrInvalidCode))
	assert.Equal(t, "", Code(errors.New("plain")))
	assert.Equal(t, "", Code(nil))
}
