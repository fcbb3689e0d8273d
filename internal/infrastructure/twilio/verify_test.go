package twilio

import (
	"context"
	"errors"
	"testing"

	"github.com/doc-analyzer-api/internal/application/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twclient "github.com/twilio/twilio-go/client"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
)

type fakeVerify struct {
	sendResp  *verify.VerifyV2Verification
	sendErr   error
	checkResp *verify.VerifyV2VerificationCheck
	checkErr  error

	lastSend  *verify.CreateVerificationParams
	lastCheck *verify.CreateVerificationCheckParams
}

func (f *fakeVerify) CreateVerification(_ string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error) {
	f.lastSend = params
	return f.sendResp, f.sendErr
}

func (f *fakeVerify) CreateVerificationCheck(_ string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error) {
	f.lastCheck = params
	return f.checkResp, f.checkErr
}

func strPtr(s string) *string { return &s }

func newTestProvider(f *fakeVerify) *Provider {
	return &Provider{api: f, serviceSID: "VA123", channel: "sms"}
}

func TestSend_ReturnsSid(t *testing.T) {
	f := &fakeVerify{sendResp: &verify.VerifyV2Verification{Sid: strPtr("VE1"), Status: strPtr("pending")}}
	sid, err := newTestProvider(f).Send(context.Background(), "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, "VE1", sid)
	assert.Equal(t, "+15551234567", *f.lastSend.To)
	assert.Equal(t, "sms", *f.lastSend.Channel)
}

func TestSend_ClassifiesErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want otp.Reason
	}{
		{"unverified", &twclient.TwilioRestError{Code: codeUnverifiedRecipient, Status: 400}, otp.ReasonUnverifiedRecipient},
		{"trial", &twclient.TwilioRestError{Code: codeTrialUnverified, Status: 400}, otp.ReasonUnverifiedRecipient},
		{"max sends", &twclient.TwilioRestError{Code: codeMaxSendAttempts, Status: 429}, otp.ReasonQuota},
		{"rate limited", &twclient.TwilioRestError{Code: 1, Status: 429}, otp.ReasonQuota},
		{"server", &twclient.TwilioRestError{Code: 20500, Status: 500}, otp.ReasonTransient},
		{"auth", &twclient.TwilioRestError{Code: 20003, Status: 401}, otp.ReasonOther},
		{"network", errors.New("dial tcp: timeout"), otp.ReasonTransient},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := newTestProvider(&fakeVerify{sendErr: c.err}).Send(context.Background(), "+15551234567")
			var pe *otp.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, c.want, pe.Reason)
			assert.Equal(t, "send", pe.Op)
		})
	}
}

func TestSend_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeVerify{}
	_, err := newTestProvider(f).Send(ctx, "+15551234567")
	var pe *otp.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, otp.ReasonTransient, pe.Reason)
	assert.Nil(t, f.lastSend)
}

func TestCheck_Statuses(t *testing.T) {
	f := &fakeVerify{checkResp: &verify.VerifyV2VerificationCheck{Status: strPtr("approved")}}
	st, err := newTestProvider(f).Check(context.Background(), "+15551234567", "123456")
	require.NoError(t, err)
	assert.Equal(t, otp.StatusApproved, st)
	assert.Equal(t, "123456", *f.lastCheck.Code)

	f = &fakeVerify{checkResp: &verify.VerifyV2VerificationCheck{Status: strPtr("pending")}}
	st, err = newTestProvider(f).Check(context.Background(), "+15551234567", "000000")
	require.NoError(t, err)
	assert.Equal(t, otp.StatusPending, st)
}

func TestCheck_NotFoundIsCanceled(t *testing.T) {
	f := &fakeVerify{checkErr: &twclient.TwilioRestError{Code: codeNotFound, Status: 404}}
	st, err := newTestProvider(f).Check(context.Background(), "+15551234567", "123456")
	require.NoError(t, err)
	assert.Equal(t, otp.StatusCanceled, st)
}

func TestCheck_MaxAttemptsIsCanceled(t *testing.T) {
	f := &fakeVerify{checkErr: &twclient.TwilioRestError{Code: codeMaxCheckAttempts, Status: 429}}
	st, err := newTestProvider(f).Check(context.Background(), "+15551234567", "123456")
	require.NoError(t, err)
	assert.Equal(t, otp.StatusCanceled, st)
}

func TestCheck_ServerErrorIsClassified(t *testing.T) {
	f := &fakeVerify{checkErr: &twclient.TwilioRestError{Code: 20500, Status: 500}}
	_, err := newTestProvider(f).Check(context.Background(), "+15551234567", "123456")
	var pe *otp.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "check", pe.Op)
	assert.Equal(t, otp.ReasonTransient, pe.Reason)
}

func TestNewProvider_RequiresCredentials(t *testing.T) {
	_, err := NewProvider("", "token", "VA1")
	assert.Error(t, err)
	p, err := NewProvider("AC1", "token", "VA1")
	require.NoError(t, err)
	assert.NotNil(t, p.api)
}
