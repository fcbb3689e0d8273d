package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneNumber(t *testing.T) {
	valid := []string{"+15551234567", "+918810991245", "+1", "+123456789012345"}
	for _, p := range valid {
		assert.True(t, PhoneNumber(p), p)
	}
	invalid := []string{"", "not-a-number", "15551234567", "+05551234567", "+1234567890123456", "+1 555 123", "+"}
	for _, p := range invalid {
		assert.False(t, PhoneNumber(p), p)
	}
}

func TestStruct_ReportsFailingFields(t *testing.T) {
	type req struct {
		PhoneNumber string `validate:"required,e164strict"`
		OTP         string `validate:"required"`
	}
	err := Struct(req{PhoneNumber: "abc"})
	assert.ErrorContains(t, err, "field 'PhoneNumber' failed 'e164strict'")
	assert.ErrorContains(t, err, "field 'OTP' failed 'required'")

	assert.NoError(t, Struct(req{PhoneNumber: "+15551234567", OTP: "123456"}))
}
