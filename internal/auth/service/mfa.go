package service

import (
	"context"
	"errors"

	"github.com/pquerna/otp/totp"
	"github.com/skyvault-io/skyvault/internal/auth/store"
)

var (
	ErrMFANotProvisioned = errors.New("mfa_not_provisioned")
	ErrInvalidOTP        = errors.New("invalid_otp")
)

// MFAService provisions and manages TOTP second factors.
type MFAService struct {
	Store  store.Store
	Issuer string
}

// Enroll generates a fresh TOTP secret for the user and stores it. MFA is
// not enforced until the user proves possession via Activate. Returns the
// secret and the otpauth:// provisioning URL for authenticator apps.
func (s *MFAService) Enroll(ctx context.Context, userID string) (secret, url string, err error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return "", "", err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Username,
	})
	if err != nil {
		return "", "", err
	}

	if err := s.Store.Users().UpdateMFASecret(ctx, userID, key.Secret()); err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

// Activate turns MFA enforcement on after the user proves they hold the
// enrolled secret.
func (s *MFAService) Activate(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return ErrMFANotProvisioned
	}
	if !totp.Validate(code, *user.MFASecret) {
		return ErrInvalidOTP
	}
	return s.Store.Users().EnableMFA(ctx, userID)
}

// Disable turns MFA off. The caller must still present a valid code so a
// hijacked session cannot silently weaken the account.
func (s *MFAService) Disable(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return ErrMFANotProvisioned
	}
	if !totp.Validate(code, *user.MFASecret) {
		return ErrInvalidOTP
	}
	return s.Store.Users().DisableMFA(ctx, userID)
}
