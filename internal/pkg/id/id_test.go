package id

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
)

func TestNew_IsULID(t *testing.T) {
	_, err := ulid.ParseStrict(New())
	assert.NoError(t, err)
}

func TestWithPrefix(t *testing.T) {
	a := WithPrefix("user_")
	b := WithPrefix("user_")
	assert.Regexp(t, `^user_[0-9A-Z]{26}$`, a)
	assert.NotEqual(t, a, b)
}
