package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/skyvault-io/skyvault/internal/auth/domain"
	"github.com/skyvault-io/skyvault/internal/auth/obs"
	"github.com/skyvault-io/skyvault/internal/auth/store"
	"github.com/skyvault-io/skyvault/pkg/cryptox"
	"github.com/skyvault-io/skyvault/pkg/jwtx"
	"github.com/skyvault-io/skyvault/pkg/slogx"
)

// RoleClaimsMode selects which roles contribute claim pairs to the token.
type RoleClaimsMode string

const (
	// RoleClaimsFirst merges only the first assigned role's claim pairs.
	// This mirrors the historical behavior; with multiple roles it is an
	// arbitrary tie-break, which is why the mode is configurable.
	RoleClaimsFirst RoleClaimsMode = "first"

	// RoleClaimsUnion merges claim pairs from every role the user holds.
	RoleClaimsUnion RoleClaimsMode = "union"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserInactive       = errors.New("user_inactive")
	ErrEmailNotConfirmed  = errors.New("email_not_confirmed")
	ErrMFARequired        = errors.New("mfa_required")

	// ErrInvalidToken covers every access-token failure: bad signature,
	// wrong signing algorithm, malformed structure.
	ErrInvalidToken = errors.New("invalid_token")

	// ErrInvalidRefresh reports a refresh-token mismatch or expiry.
	ErrInvalidRefresh = errors.New("invalid refresh token")
)

// TokenService issues, validates, and refreshes token pairs. One instance is
// shared by the login and refresh handlers.
type TokenService struct {
	Signer     *jwtx.HS256Signer
	Verifier   *jwtx.HS256Verifier
	Store      store.Store
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// ClaimsMode defaults to RoleClaimsFirst when unset.
	ClaimsMode RoleClaimsMode
}

// IssueToken mints a signed access token and a fresh opaque refresh token
// for an already-authenticated user, and persists the refresh token's
// fingerprint and expiry on the user record. Any previously issued refresh
// token stops matching the moment the write lands.
//
// The write carries the user's refresh-token version, so a concurrent
// refresh for the same identity surfaces as store.ErrVersionConflict instead
// of silently invalidating the other caller's freshly issued pair.
func (s *TokenService) IssueToken(
	ctx context.Context,
	user domain.User,
	clientIP string,
) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	roles, err := s.Store.Roles().GetRolesForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	extra, err := s.assembleClaimPairs(ctx, user, roles)
	if err != nil {
		return nil, err
	}

	roleNames := make([]string, 0, len(roles))
	for _, role := range roles {
		roleNames = append(roleNames, role.Name)
	}

	claims := jwtx.NewAccessClaims(
		user.ID,
		user.Username,
		user.Email,
		clientIP,
		roleNames,
		extra,
		s.AccessTTL,
		s.Issuer,
		[]string{s.Audience},
		now,
	)

	accessToken, err := s.Signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}
	refreshExpiry := now.Add(s.RefreshTTL)

	// Persistence failures propagate verbatim; no retries.
	if _, err := s.Store.Users().UpdateRefreshToken(
		ctx,
		user.ID,
		cryptox.FingerprintToken(refreshOpaque),
		refreshExpiry,
		user.RefreshTokenVersion,
	); err != nil {
		return nil, err
	}

	obs.TokenIssued()

	return &domain.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshOpaque,
		TokenType:        "Bearer",
		ExpiresIn:        s.AccessTTL,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// assembleClaimPairs merges the authorization claim pairs for the token
// payload: role claims per ClaimsMode, then the user's directly-assigned
// claims. A claim type granted several values (three "permission" claims on
// one role, say) serializes them space-delimited in first-granted order,
// deduplicated.
func (s *TokenService) assembleClaimPairs(
	ctx context.Context,
	user domain.User,
	roles []domain.Role,
) (map[string]string, error) {
	granted := make(map[string][]string)
	grant := func(claims []domain.Claim) {
		for _, c := range claims {
			if slices.Contains(granted[c.Type], c.Value) {
				continue
			}
			granted[c.Type] = append(granted[c.Type], c.Value)
		}
	}

	contributing := roles
	if s.ClaimsMode != RoleClaimsUnion && len(roles) > 1 {
		contributing = roles[:1]
	}

	for _, role := range contributing {
		claims, err := s.Store.Claims().GetClaimsForRole(ctx, role.ID)
		if err != nil {
			return nil, fmt.Errorf("load claims for role %q: %w", role.Name, err)
		}
		grant(claims)
	}

	userClaims, err := s.Store.Claims().GetClaimsForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load user claims: %w", err)
	}
	grant(userClaims)

	if len(granted) == 0 {
		return nil, nil
	}

	extra := make(map[string]string, len(granted))
	for claimType, values := range granted {
		extra[claimType] = strings.Join(values, " ")
	}
	return extra, nil
}

// RecoverClaimsIgnoringExpiry validates the token's signature and signing
// algorithm but not its expiry. The refresh flow uses it to recover identity
// out of an expired access token. The algorithm must be exactly HS256; a
// token signed any other way fails even when its signature would otherwise
// verify.
func (s *TokenService) RecoverClaimsIgnoringExpiry(token string) (jwtx.Claims, error) {
	claims, err := s.Verifier.VerifyIgnoringExpiry(token)
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

// IsValid reports whether the token passes full validation: signature,
// algorithm, issuer, audience, and expiry.
func (s *TokenService) IsValid(token string) bool {
	_, err := s.Verifier.Verify(token)
	return err == nil
}

// Refresh exchanges an expired (or still-live) access token plus its
// matching refresh token for a brand-new pair. The stored refresh token is
// rotated: the presented one stops working the moment the exchange succeeds.
//
// A nil pair with a nil error means the identity in the token no longer
// exists; callers map that to an unauthenticated response.
func (s *TokenService) Refresh(
	ctx context.Context,
	accessToken, refreshToken, clientIP string,
) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	// 1. Recover identity from the access token, ignoring expiry.
	claims, err := s.RecoverClaimsIgnoringExpiry(accessToken)
	if err != nil {
		obs.TokenRefresh("invalid_token")
		return nil, err
	}
	if claims.Email == "" {
		obs.TokenRefresh("invalid_token")
		return nil, fmt.Errorf("%w: missing email claim", ErrInvalidToken)
	}

	// 2. Look the user up by the recovered email claim.
	user, err := s.Store.Users().GetUserByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			obs.TokenRefresh("unknown_identity")
			l.Info("refresh for unknown identity", "email", claims.Email)
			return nil, nil
		}
		return nil, err
	}

	// 3. The presented refresh token must match the stored one exactly and
	// must not have expired. An expiry equal to now counts as expired.
	presented := cryptox.FingerprintToken(refreshToken)
	if user.RefreshTokenHash == "" ||
		!cryptox.FingerprintsEqual(presented, user.RefreshTokenHash) ||
		!user.RefreshTokenExpiresAt.After(now) {
		obs.TokenRefresh("invalid_refresh")
		l.Info("refresh token rejected", "user_id", user.ID)
		return nil, ErrInvalidRefresh
	}

	// 4. Mint a new pair; this overwrites the stored refresh token.
	pair, err := s.IssueToken(ctx, user, clientIP)
	if err != nil {
		obs.TokenRefresh("issue_failed")
		return nil, err
	}

	obs.TokenRefresh("ok")
	return pair, nil
}
