package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/doc-analyzer-api/internal/application/otp"
	"github.com/doc-analyzer-api/internal/domain"
	"github.com/doc-analyzer-api/internal/pkg/clock"
	"github.com/doc-analyzer-api/internal/pkg/id"
	"github.com/doc-analyzer-api/internal/pkg/validate"
)

type SendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	OTP         string `json:"otp" validate:"required"`
}

type SendResult struct {
	Mode      domain.DeliveryMode
	Message   string
	DebugCode string // empty unless simulated and exposure is enabled
	ExpiresAt time.Time
}

// CodeManager is the part of *otp.Manager the login flow needs.
type CodeManager interface {
	RequestCode(ctx context.Context, phoneNumber string) (*otp.CodeDelivery, error)
	VerifyCode(ctx context.Context, phoneNumber, code string) error
}

// TokenSigner issues identity tokens for verified phone numbers.
type TokenSigner interface {
	Sign(userID, phoneNumber string) (string, error)
}

type Service interface {
	SendOTP(ctx context.Context, req SendOTPRequest) (*SendResult, error)
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*domain.Identity, error)
}

// ServiceDeps groups the constructor inputs. Signer may be nil, in which case
// identities carry no token.
type ServiceDeps struct {
	Codes           CodeManager
	Signer          TokenSigner
	ExposeDebugCode bool
	Clock           clock.Clocker
}

type service struct {
	codes           CodeManager
	signer          TokenSigner
	exposeDebugCode bool
	clock           clock.Clocker
}

func NewService(d ServiceDeps) Service {
	s := &service{
		codes:           d.Codes,
		signer:          d.Signer,
		exposeDebugCode: d.ExposeDebugCode,
		clock:           d.Clock,
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	return s
}

func (s *service) SendOTP(ctx context.Context, req SendOTPRequest) (*SendResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrMissingFields)
	}
	d, err := s.codes.RequestCode(ctx, req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	res := &SendResult{Mode: d.Mode, ExpiresAt: d.ExpiresAt}
	switch d.Mode {
	case domain.ModeSimulated:
		res.Message = "OTP sent! (Simulation Mode - Check console for OTP)"
		if s.exposeDebugCode {
			res.DebugCode = d.DebugCode
		}
	default:
		res.Message = "OTP sent successfully to your mobile!"
	}
	return res, nil
}

func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*domain.Identity, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrMissingFields)
	}
	if err := s.codes.VerifyCode(ctx, req.PhoneNumber, req.OTP); err != nil {
		return nil, err
	}
	ident := &domain.Identity{
		ID:          id.WithPrefix("user_"),
		PhoneNumber: req.PhoneNumber,
		IssuedAt:    s.clock.Now().UTC(),
	}
	if s.signer != nil {
		token, err := s.signer.Sign(ident.ID, ident.PhoneNumber)
		if err != nil {
			return nil, fmt.Errorf("sign identity token: %w", err)
		}
		ident.Token = token
	}
	return ident, nil
}
