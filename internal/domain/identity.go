package domain

import "time"

// Identity is the transient login result returned by verify-otp. It is not
// backed by an account record.
type Identity struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phoneNumber"`
	IssuedAt    time.Time `json:"issuedAt"`
	Token       string    `json:"token,omitempty"`
}

// AnonymousOwner owns documents uploaded while authentication is disabled.
const AnonymousOwner = "anonymous"
