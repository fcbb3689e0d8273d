package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/doc-analyzer-api/internal/application/otp"
	"github.com/doc-analyzer-api/internal/domain"
	"github.com/doc-analyzer-api/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const phone = "+15551234567"

// --- mocks ---

type mockCodes struct{ mock.Mock }

func (m *mockCodes) RequestCode(ctx context.Context, phoneNumber string) (*otp.CodeDelivery, error) {
	args := m.Called(ctx, phoneNumber)
	if d, _ := args.Get(0).(*otp.CodeDelivery); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCodes) VerifyCode(ctx context.Context, phoneNumber, code string) error {
	return m.Called(ctx, phoneNumber, code).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, phoneNumber string) (string, error) {
	args := m.Called(userID, phoneNumber)
	return args.String(0), args.Error(1)
}

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() clock.Clocker {
	return clock.Func(func() time.Time { return fixedNow })
}

// --- SendOTP ---

func TestSendOTP_MissingPhone(t *testing.T) {
	codes := &mockCodes{}
	svc := NewService(ServiceDeps{Codes: codes})
	_, err := svc.SendOTP(context.Background(), SendOTPRequest{})
	assert.ErrorIs(t, err, domain.ErrMissingFields)
	codes.AssertNotCalled(t, "RequestCode", mock.Anything, mock.Anything)
}

func TestSendOTP_SimulatedExposesCodeWhenEnabled(t *testing.T) {
	codes := &mockCodes{}
	codes.On("RequestCode", mock.Anything, phone).Return(&otp.CodeDelivery{Mode: domain.ModeSimulated, DebugCode: "123456"}, nil)

	res, err := NewService(ServiceDeps{Codes: codes, ExposeDebugCode: true}).SendOTP(context.Background(), SendOTPRequest{PhoneNumber: phone})
	require.NoError(t, err)
	assert.Equal(t, "123456", res.DebugCode)
	assert.Contains(t, res.Message, "Simulation Mode")
}

func TestSendOTP_SimulatedHidesCodeWhenDisabled(t *testing.T) {
	codes := &mockCodes{}
	codes.On("RequestCode", mock.Anything, phone).Return(&otp.CodeDelivery{Mode: domain.ModeSimulated, DebugCode: "123456"}, nil)

	res, err := NewService(ServiceDeps{Codes: codes}).SendOTP(context.Background(), SendOTPRequest{PhoneNumber: phone})
	require.NoError(t, err)
	assert.Empty(t, res.DebugCode)
}

func TestSendOTP_DelegatedNeverHasCode(t *testing.T) {
	codes := &mockCodes{}
	codes.On("RequestCode", mock.Anything, phone).Return(&otp.CodeDelivery{Mode: domain.ModeDelegated}, nil)

	res, err := NewService(ServiceDeps{Codes: codes, ExposeDebugCode: true}).SendOTP(context.Background(), SendOTPRequest{PhoneNumber: phone})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeDelegated, res.Mode)
	assert.Empty(t, res.DebugCode)
	assert.Equal(t, "OTP sent successfully to your mobile!", res.Message)
}

func TestSendOTP_PropagatesManagerError(t *testing.T) {
	codes := &mockCodes{}
	codes.On("RequestCode", mock.Anything, "bad").Return(nil, domain.ErrInvalidPhoneNumber)

	_, err := NewService(ServiceDeps{Codes: codes}).SendOTP(context.Background(), SendOTPRequest{PhoneNumber: "bad"})
	assert.ErrorIs(t, err, domain.ErrInvalidPhoneNumber)
}

// --- VerifyOTP ---

func TestVerifyOTP_MissingOTP(t *testing.T) {
	codes := &mockCodes{}
	_, err := NewService(ServiceDeps{Codes: codes}).VerifyOTP(context.Background(), VerifyOTPRequest{PhoneNumber: phone})
	assert.ErrorIs(t, err, domain.ErrMissingFields)
}

func TestVerifyOTP_IssuesIdentityWithoutSigner(t *testing.T) {
	codes := &mockCodes{}
	codes.On("VerifyCode", mock.Anything, phone, "123456").Return(nil)

	ident, err := NewService(ServiceDeps{Codes: codes, Clock: fixedClock()}).VerifyOTP(context.Background(), VerifyOTPRequest{PhoneNumber: phone, OTP: "123456"})
	require.NoError(t, err)
	assert.Regexp(t, `^user_[0-9A-Z]{26}$`, ident.ID)
	assert.Equal(t, phone, ident.PhoneNumber)
	assert.Equal(t, fixedNow, ident.IssuedAt)
	assert.Empty(t, ident.Token)
}

func TestVerifyOTP_SignsToken(t *testing.T) {
	codes := &mockCodes{}
	codes.On("VerifyCode", mock.Anything, phone, "123456").Return(nil)
	signer := &mockSigner{}
	signer.On("Sign", mock.AnythingOfType("string"), phone).Return("jwt-token", nil)

	ident, err := NewService(ServiceDeps{Codes: codes, Signer: signer}).VerifyOTP(context.Background(), VerifyOTPRequest{PhoneNumber: phone, OTP: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", ident.Token)
	signer.AssertExpectations(t)
}

func TestVerifyOTP_SignerFailure(t *testing.T) {
	codes := &mockCodes{}
	codes.On("VerifyCode", mock.Anything, phone, "123456").Return(nil)
	signer := &mockSigner{}
	signer.On("Sign", mock.Anything, phone).Return("", errors.New("no key"))

	_, err := NewService(ServiceDeps{Codes: codes, Signer: signer}).VerifyOTP(context.Background(), VerifyOTPRequest{PhoneNumber: phone, OTP: "123456"})
	assert.ErrorContains(t, err, "sign identity token")
}

func TestVerifyOTP_Declined(t *testing.T) {
	codes := &mockCodes{}
	codes.On("VerifyCode", mock.Anything, phone, "000000").Return(domain.ErrInvalidCode)
	signer := &mockSigner{}

	_, err := NewService(ServiceDeps{Codes: codes, Signer: signer}).VerifyOTP(context.Background(), VerifyOTPRequest{PhoneNumber: phone, OTP: "000000"})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
	signer.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything)
}

// End to end over the real manager.
func TestLoginFlow_WithManager(t *testing.T) {
	m := otp.NewManager(otp.Deps{})
	svc := NewService(ServiceDeps{Codes: m, ExposeDebugCode: true})

	res, err := svc.SendOTP(context.Background(), SendOTPRequest{PhoneNumber: phone})
	require.NoError(t, err)

	_, err = svc.VerifyOTP(context.Background(), VerifyOTPRequest{PhoneNumber: phone, OTP: res.DebugCode})
	require.NoError(t, err)

	_, err = svc.VerifyOTP(context.Background(), VerifyOTPRequest{PhoneNumber: phone, OTP: res.DebugCode})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
