package otp

import (
	"context"
	"fmt"
)

// CheckStatus is the provider's verdict on a submitted code.
type CheckStatus string

const (
	StatusApproved CheckStatus = "approved"
	StatusPending  CheckStatus = "pending"
	StatusCanceled CheckStatus = "canceled"
)

// Provider dispatches and checks codes through an external SMS-verification
// service. Implementations return *ProviderError for failures they can classify.
type Provider interface {
	// Send dispatches a code to phoneNumber and returns the attempt id.
	Send(ctx context.Context, phoneNumber string) (string, error)
	// Check asks the provider whether code is valid for phoneNumber.
	Check(ctx context.Context, phoneNumber, code string) (CheckStatus, error)
}

// Sweeper is implemented by providers that hold their own expiring state.
// The Manager's janitor sweeps them alongside its sessions.
type Sweeper interface {
	Sweep() int
}

// Reason classifies a provider failure.
type Reason int

const (
	ReasonOther Reason = iota
	ReasonQuota
	ReasonUnverifiedRecipient
	ReasonTransient
)

func (r Reason) String() string {
	switch r {
	case ReasonQuota:
		return "quota"
	case ReasonUnverifiedRecipient:
		return "unverified_recipient"
	case ReasonTransient:
		return "transient"
	default:
		return "other"
	}
}

// Fallback reports whether a send failing for this reason should be served
// by a simulated code instead.
func (r Reason) Fallback() bool {
	return r == ReasonQuota || r == ReasonUnverifiedRecipient
}

// ProviderError is a classified failure from a Provider.
type ProviderError struct {
	Op     string // "send" | "check"
	Reason Reason
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed (%s): %v", e.Op, e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
