package domain

import "time"

// DeliveryMode says how a one-time code was issued and therefore how it is checked.
type DeliveryMode string

const (
	ModeSimulated DeliveryMode = "simulated"
	ModeDelegated DeliveryMode = "delegated"
)

// VerificationSession is one in-flight login attempt, keyed by phone number.
// Secret is the 6-digit code in simulated mode or the provider's attempt id
// in delegated mode. It never changes after the session is created.
type VerificationSession struct {
	PhoneNumber string       `json:"phone_number"`
	Secret      string       `json:"-"`
	Mode        DeliveryMode `json:"mode"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// Expired reports whether now is strictly past ExpiresAt.
func (s VerificationSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Same reports whether o is the very session s was read as, not a newer
// overwrite for the same phone number.
func (s VerificationSession) Same(o VerificationSession) bool {
	return s.PhoneNumber == o.PhoneNumber &&
		s.Secret == o.Secret &&
		s.Mode == o.Mode &&
		s.CreatedAt.Equal(o.CreatedAt)
}
