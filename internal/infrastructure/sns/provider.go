package sns

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"
	"github.com/doc-analyzer-api/internal/application/otp"
	"github.com/doc-analyzer-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

const defaultMaxChecks = 5

type pendingCode struct {
	attemptID string
	hash      []byte
	expiresAt time.Time
	checks    int
}

// Provider issues its own codes, delivers them as SNS text messages and keeps
// only a bcrypt hash of each one until it is checked or expires.
type Provider struct {
	sender    SMSSender
	ttl       time.Duration
	maxChecks int
	cost      int
	generate  otp.CodeGenerator
	now       func() time.Time

	mu      sync.Mutex
	pending map[string]pendingCode
}

func NewProvider(sender SMSSender, ttl time.Duration) *Provider {
	return &Provider{
		sender:    sender,
		ttl:       ttl,
		maxChecks: defaultMaxChecks,
		cost:      bcrypt.DefaultCost,
		generate:  otp.RandomCode,
		now:       time.Now,
		pending:   make(map[string]pendingCode),
	}
}

func (p *Provider) Send(ctx context.Context, phoneNumber string) (string, error) {
	code, err := p.generate()
	if err != nil {
		return "", &otp.ProviderError{Op: "send", Reason: otp.ReasonOther, Err: err}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), p.cost)
	if err != nil {
		return "", &otp.ProviderError{Op: "send", Reason: otp.ReasonOther, Err: err}
	}
	if err := p.sender.SendSMS(ctx, phoneNumber, "Your verification code is: "+code); err != nil {
		return "", classify("send", err)
	}

	attemptID := id.New()
	now := p.now()
	p.mu.Lock()
	p.sweepLocked(now)
	p.pending[phoneNumber] = pendingCode{
		attemptID: attemptID,
		hash:      hash,
		expiresAt: now.Add(p.ttl),
	}
	p.mu.Unlock()
	return attemptID, nil
}

// Sweep drops expired codes that were never checked and returns how many went.
func (p *Provider) Sweep() int {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sweepLocked(now)
}

func (p *Provider) sweepLocked(now time.Time) int {
	n := 0
	for phone, pc := range p.pending {
		if now.After(pc.expiresAt) {
			delete(p.pending, phone)
			n++
		}
	}
	return n
}

func (p *Provider) Check(_ context.Context, phoneNumber, code string) (otp.CheckStatus, error) {
	p.mu.Lock()
	pc, ok := p.pending[phoneNumber]
	if !ok {
		p.mu.Unlock()
		return otp.StatusCanceled, nil
	}
	if p.now().After(pc.expiresAt) || pc.checks >= p.maxChecks {
		delete(p.pending, phoneNumber)
		p.mu.Unlock()
		return otp.StatusCanceled, nil
	}
	pc.checks++
	p.pending[phoneNumber] = pc
	p.mu.Unlock()

	if bcrypt.CompareHashAndPassword(pc.hash, []byte(code)) != nil {
		return otp.StatusPending, nil
	}

	p.mu.Lock()
	if cur, ok := p.pending[phoneNumber]; ok && cur.attemptID == pc.attemptID {
		delete(p.pending, phoneNumber)
	}
	p.mu.Unlock()
	return otp.StatusApproved, nil
}

func classify(op string, err error) error {
	var (
		throttled  *types.ThrottledException
		kmsThrottl *types.KMSThrottlingException
		optedOut   *types.OptedOutException
		authz      *types.AuthorizationErrorException
		internal   *types.InternalErrorException
		apiErr     smithy.APIError
	)
	switch {
	case errors.As(err, &throttled), errors.As(err, &kmsThrottl):
		return &otp.ProviderError{Op: op, Reason: otp.ReasonQuota, Err: err}
	// Sandbox accounts get AuthorizationError for destinations that were not verified.
	case errors.As(err, &optedOut), errors.As(err, &authz):
		return &otp.ProviderError{Op: op, Reason: otp.ReasonUnverifiedRecipient, Err: err}
	case errors.As(err, &internal):
		return &otp.ProviderError{Op: op, Reason: otp.ReasonTransient, Err: err}
	case errors.As(err, &apiErr):
		return &otp.ProviderError{Op: op, Reason: otp.ReasonOther, Err: err}
	default:
		return &otp.ProviderError{Op: op, Reason: otp.ReasonTransient, Err: err}
	}
}
