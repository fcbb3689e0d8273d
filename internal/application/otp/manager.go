package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/doc-analyzer-api/internal/domain"
	"github.com/doc-analyzer-api/internal/metrics"
	"github.com/doc-analyzer-api/internal/pkg/clock"
	"github.com/doc-analyzer-api/internal/pkg/validate"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 10 * time.Minute

// CodeDelivery describes how a requested code went out. DebugCode is set
// only for simulated deliveries, where no SMS was sent.
type CodeDelivery struct {
	Mode      domain.DeliveryMode
	DebugCode string
	ExpiresAt time.Time
}

// Deps configures a Manager. Zero values get defaults: no provider (every
// code is simulated), DefaultTTL, the system clock and RandomCode.
type Deps struct {
	Provider  Provider
	AllowList AllowList
	TTL       time.Duration
	Clock     clock.Clocker
	Generate  CodeGenerator
}

// Manager issues and verifies one-time codes, one pending session per phone number.
type Manager struct {
	store    *Store
	provider Provider
	allow    AllowList
	ttl      time.Duration
	clock    clock.Clocker
	generate CodeGenerator
}

func NewManager(d Deps) *Manager {
	m := &Manager{
		store:    NewStore(),
		provider: d.Provider,
		allow:    d.AllowList,
		ttl:      d.TTL,
		clock:    d.Clock,
		generate: d.Generate,
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	if m.clock == nil {
		m.clock = clock.New()
	}
	if m.generate == nil {
		m.generate = RandomCode
	}
	return m
}

// RequestCode issues a new code for phoneNumber, replacing any pending one.
// Eligible numbers go through the provider; everything else, and sends the
// provider refuses for quota or unverified-recipient reasons, is simulated.
func (m *Manager) RequestCode(ctx context.Context, phoneNumber string) (*CodeDelivery, error) {
	if !validate.PhoneNumber(phoneNumber) {
		metrics.OTPRequestsTotal.WithLabelValues("none", "rejected").Inc()
		return nil, fmt.Errorf("request code: %w", domain.ErrInvalidPhoneNumber)
	}

	if m.provider != nil && m.allow.Allows(phoneNumber) {
		attemptID, err := m.provider.Send(ctx, phoneNumber)
		if err == nil {
			s := m.newSession(phoneNumber, attemptID, domain.ModeDelegated)
			m.store.Put(s)
			m.observe()
			metrics.OTPRequestsTotal.WithLabelValues(string(domain.ModeDelegated), "issued").Inc()
			log.Info().Str("phone", phoneNumber).Str("attempt_id", attemptID).Msg("OTP dispatched by provider")
			return &CodeDelivery{Mode: domain.ModeDelegated, ExpiresAt: s.ExpiresAt}, nil
		}

		var pe *ProviderError
		if !errors.As(err, &pe) || !pe.Reason.Fallback() {
			metrics.OTPRequestsTotal.WithLabelValues(string(domain.ModeDelegated), "failed").Inc()
			log.Error().Err(err).Str("phone", phoneNumber).Msg("OTP dispatch failed")
			return nil, fmt.Errorf("request code: %w (%w)", domain.ErrProviderUnavailable, err)
		}
		metrics.OTPRequestsTotal.WithLabelValues(string(domain.ModeDelegated), "fallback").Inc()
		log.Warn().Err(err).Str("phone", phoneNumber).Str("reason", pe.Reason.String()).Msg("provider refused recipient, simulating OTP")
	}

	return m.simulate(phoneNumber)
}

func (m *Manager) simulate(phoneNumber string) (*CodeDelivery, error) {
	code, err := m.generate()
	if err != nil {
		metrics.OTPRequestsTotal.WithLabelValues(string(domain.ModeSimulated), "failed").Inc()
		return nil, fmt.Errorf("generate code: %w", err)
	}
	s := m.newSession(phoneNumber, code, domain.ModeSimulated)
	m.store.Put(s)
	m.observe()
	metrics.OTPRequestsTotal.WithLabelValues(string(domain.ModeSimulated), "issued").Inc()
	log.Info().Str("phone", phoneNumber).Str("otp", code).Msg("simulated OTP issued")
	return &CodeDelivery{Mode: domain.ModeSimulated, DebugCode: code, ExpiresAt: s.ExpiresAt}, nil
}

func (m *Manager) newSession(phoneNumber, secret string, mode domain.DeliveryMode) domain.VerificationSession {
	now := m.clock.Now()
	return domain.VerificationSession{
		PhoneNumber: phoneNumber,
		Secret:      secret,
		Mode:        mode,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}
}

// VerifyCode checks code against the pending session for phoneNumber and
// consumes the session on success. A wrong code leaves the session in place
// so the user can retry until it expires.
func (m *Manager) VerifyCode(ctx context.Context, phoneNumber, code string) error {
	err := m.verify(ctx, phoneNumber, code)
	outcome := domain.Code(err)
	if err == nil {
		outcome = "approved"
	} else if outcome == "" {
		outcome = "error"
	}
	metrics.OTPVerificationsTotal.WithLabelValues(outcome).Inc()
	return err
}

func (m *Manager) verify(ctx context.Context, phoneNumber, code string) error {
	if phoneNumber == "" || code == "" {
		return fmt.Errorf("verify code: %w", domain.ErrMissingFields)
	}
	s, ok := m.store.Get(phoneNumber)
	if !ok {
		return fmt.Errorf("verify code: %w", domain.ErrSessionNotFound)
	}
	if s.Expired(m.clock.Now()) {
		m.store.CompareAndDelete(s)
		m.observe()
		return fmt.Errorf("verify code: %w", domain.ErrSessionExpired)
	}

	switch s.Mode {
	case domain.ModeSimulated:
		if subtle.ConstantTimeCompare([]byte(code), []byte(s.Secret)) != 1 {
			return fmt.Errorf("verify code: %w", domain.ErrInvalidCode)
		}
	case domain.ModeDelegated:
		if m.provider == nil {
			return fmt.Errorf("verify code: %w", domain.ErrProviderFailure)
		}
		status, err := m.provider.Check(ctx, phoneNumber, code)
		if err != nil {
			log.Error().Err(err).Str("phone", phoneNumber).Msg("OTP check failed")
			return fmt.Errorf("verify code: %w (%w)", domain.ErrProviderFailure, err)
		}
		if status != StatusApproved {
			return fmt.Errorf("verify code: %w", domain.ErrInvalidCode)
		}
	default:
		return fmt.Errorf("verify code: unknown mode %q: %w", s.Mode, domain.ErrSessionNotFound)
	}

	// Lost a race against another verify or an overwriting send.
	if !m.store.CompareAndDelete(s) {
		return fmt.Errorf("verify code: %w", domain.ErrSessionNotFound)
	}
	m.observe()
	log.Info().Str("phone", phoneNumber).Str("mode", string(s.Mode)).Msg("OTP approved")
	return nil
}

// Sweep removes expired sessions and returns how many were dropped. A
// provider that implements Sweeper is swept too.
func (m *Manager) Sweep() int {
	if sw, ok := m.provider.(Sweeper); ok {
		if n := sw.Sweep(); n > 0 {
			log.Debug().Int("removed", n).Msg("swept expired provider codes")
		}
	}
	n := m.store.Sweep(m.clock.Now())
	if n > 0 {
		metrics.OTPSessionsSweptTotal.Add(float64(n))
		m.observe()
	}
	return n
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("swept expired OTP sessions")
			}
		}
	}
}

// Pending returns the number of sessions currently held.
func (m *Manager) Pending() int {
	return m.store.Len()
}

// Close drops every pending session.
func (m *Manager) Close() {
	m.store.Clear()
	m.observe()
}

func (m *Manager) observe() {
	metrics.OTPActiveSessions.Set(float64(m.store.Len()))
}
