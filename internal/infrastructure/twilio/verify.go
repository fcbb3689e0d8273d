package twilio

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/doc-analyzer-api/internal/application/otp"
	twiliogo "github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
)

// Twilio error codes that decide fallback.
// https://www.twilio.com/docs/api/errors
const (
	codeNotFound            = 20404
	codeTooManyRequests     = 20429
	codeTrialUnverified     = 21219
	codeRegionNotPermitted  = 21408
	codeUnverifiedRecipient = 21608
	codeUnsubscribed        = 21610
	codeMaxCheckAttempts    = 60202
	codeMaxSendAttempts     = 60203
)

// verifyAPI is the subset of the Verify v2 client used here.
type verifyAPI interface {
	CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error)
}

// Provider sends and checks codes through a Twilio Verify service.
type Provider struct {
	api        verifyAPI
	serviceSID string
	channel    string
}

func NewProvider(accountSID, authToken, serviceSID string) (*Provider, error) {
	if accountSID == "" || authToken == "" || serviceSID == "" {
		return nil, errors.New("twilio: account sid, auth token and verify service sid are required")
	}
	client := twiliogo.NewRestClientWithParams(twiliogo.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Provider{api: client.VerifyV2, serviceSID: serviceSID, channel: "sms"}, nil
}

func (p *Provider) Send(ctx context.Context, phoneNumber string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &otp.ProviderError{Op: "send", Reason: otp.ReasonTransient, Err: err}
	}
	params := &verify.CreateVerificationParams{}
	params.SetTo(phoneNumber)
	params.SetChannel(p.channel)

	resp, err := p.api.CreateVerification(p.serviceSID, params)
	if err != nil {
		return "", classify("send", err)
	}
	if resp.Sid == nil {
		return "", &otp.ProviderError{Op: "send", Reason: otp.ReasonOther, Err: errors.New("verification created without sid")}
	}
	return *resp.Sid, nil
}

func (p *Provider) Check(ctx context.Context, phoneNumber, code string) (otp.CheckStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", &otp.ProviderError{Op: "check", Reason: otp.ReasonTransient, Err: err}
	}
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phoneNumber)
	params.SetCode(code)

	resp, err := p.api.CreateVerificationCheck(p.serviceSID, params)
	if err != nil {
		var restErr *twclient.TwilioRestError
		// Twilio answers 404 once the verification is approved, expired or
		// canceled, and 60202 once it has used up its check attempts.
		if errors.As(err, &restErr) && (restErr.Code == codeNotFound || restErr.Code == codeMaxCheckAttempts) {
			return otp.StatusCanceled, nil
		}
		return "", classify("check", err)
	}
	if resp.Status == nil {
		return otp.StatusPending, nil
	}
	return otp.CheckStatus(*resp.Status), nil
}

func classify(op string, err error) error {
	var restErr *twclient.TwilioRestError
	if !errors.As(err, &restErr) {
		return &otp.ProviderError{Op: op, Reason: otp.ReasonTransient, Err: err}
	}
	wrapped := fmt.Errorf("twilio %d: %s: %w", restErr.Code, restErr.Message, err)
	switch {
	case restErr.Code == codeTrialUnverified, restErr.Code == codeUnverifiedRecipient,
		restErr.Code == codeRegionNotPermitted, restErr.Code == codeUnsubscribed:
		return &otp.ProviderError{Op: op, Reason: otp.ReasonUnverifiedRecipient, Err: wrapped}
	case restErr.Code == codeTooManyRequests, restErr.Code == codeMaxSendAttempts,
		restErr.Code == codeMaxCheckAttempts, restErr.Status == http.StatusTooManyRequests:
		return &otp.ProviderError{Op: op, Reason: otp.ReasonQuota, Err: wrapped}
	case restErr.Status >= http.StatusInternalServerError:
		return &otp.ProviderError{Op: op, Reason: otp.ReasonTransient, Err: wrapped}
	default:
		return &otp.ProviderError{Op: op, Reason: otp.ReasonOther, Err: wrapped}
	}
}
