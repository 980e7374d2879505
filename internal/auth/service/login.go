package service

import (
	"context"
	"errors"
	"strings"

	"github.com/pquerna/otp/totp"
	"github.com/skyvault-io/skyvault/internal/auth/domain"
	"github.com/skyvault-io/skyvault/internal/auth/obs"
	"github.com/skyvault-io/skyvault/internal/auth/store"
	"github.com/skyvault-io/skyvault/pkg/cryptox"
	"github.com/skyvault-io/skyvault/pkg/slogx"
)

// LoginService authenticates credentials and delegates token minting to the
// TokenService.
type LoginService struct {
	Store  store.Store
	Tokens *TokenService
}

// Login validates credentials and, when they hold, issues a token pair.
// Users with MFA enabled must additionally present a valid TOTP code.
func (s *LoginService) Login(
	ctx context.Context,
	usernameOrEmail, password, otpCode, clientIP string,
) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	user, err := s.findUser(ctx, strings.TrimSpace(usernameOrEmail))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			obs.LoginAttempt("unknown_user")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active {
		obs.LoginAttempt("inactive")
		l.Info("login rejected for inactive user", "user_id", user.ID)
		return nil, ErrUserInactive
	}
	if !user.EmailConfirmed {
		obs.LoginAttempt("unconfirmed_email")
		return nil, ErrEmailNotConfirmed
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		obs.LoginAttempt("bad_password")
		l.Info("password verification failed", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if user.MFAEnabled != nil {
		if otpCode == "" {
			obs.LoginAttempt("mfa_required")
			return nil, ErrMFARequired
		}
		if user.MFASecret == nil || !totp.Validate(otpCode, *user.MFASecret) {
			obs.LoginAttempt("bad_otp")
			l.Info("TOTP verification failed", "user_id", user.ID)
			return nil, ErrInvalidCredentials
		}
	}

	pair, err := s.Tokens.IssueToken(ctx, user, clientIP)
	if err != nil {
		return nil, err
	}

	obs.LoginAttempt("ok")
	return pair, nil
}

// Logout revokes the user's active refresh token. The access token stays
// valid until natural expiry; only the refresh path is cut off.
func (s *LoginService) Logout(ctx context.Context, userID string) error {
	return s.Store.Users().ClearRefreshToken(ctx, userID)
}

func (s *LoginService) findUser(ctx context.Context, usernameOrEmail string) (domain.User, error) {
	if strings.Contains(usernameOrEmail, "@") {
		return s.Store.Users().GetUserByEmail(ctx, usernameOrEmail)
	}
	return s.Store.Users().GetUserByUsername(ctx, usernameOrEmail)
}
