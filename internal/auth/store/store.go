package store

import (
	"context"
	"errors"
	"time"

	"github.com/skyvault-io/skyvault/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrVersionConflict reports a lost optimistic-concurrency race on the
	// refresh-token fields: another writer rotated the token first.
	ErrVersionConflict = errors.New("store: refresh token version conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Roles() Roles
	Claims() Claims

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store scoped to one transaction.
type Tx interface {
	Users() Users
	Roles() Roles
	Claims() Claims
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during password login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail is used by the refresh flow to recover identity from
	// the email claim of an expired access token.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateRefreshToken writes the refresh-token fingerprint and expiry
	// onto the user row, replacing any prior token. The write only succeeds
	// when the stored version equals expectedVersion; otherwise it returns
	// ErrVersionConflict. Returns the new version on success.
	UpdateRefreshToken(
		ctx context.Context,
		userID, tokenHash string,
		expiresAt time.Time,
		expectedVersion int64,
	) (int64, error)

	// ClearRefreshToken revokes the active refresh token (logout).
	ClearRefreshToken(ctx context.Context, userID string) error

	// UpdateMFASecret sets the TOTP secret for a user.
	UpdateMFASecret(ctx context.Context, userID, secret string) error

	// EnableMFA marks MFA as enabled (sets the mfa_enabled timestamp).
	EnableMFA(ctx context.Context, userID string) error

	// DisableMFA clears the mfa_enabled timestamp and the secret.
	DisableMFA(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Roles interface {
	// GetRoleByID fetches a role by its ID.
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRoleByName fetches a role by its name (for bootstrap).
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// ListAll returns all roles in the system.
	ListAll(ctx context.Context) ([]domain.Role, error)

	// GetRolesForUser returns the user's roles in assignment order. The
	// first element is the role whose claims are merged into the token
	// under first-role mode.
	GetRolesForUser(ctx context.Context, userID string) ([]domain.Role, error)

	// CreateRole inserts a new role (id is ULID).
	CreateRole(ctx context.Context, r domain.Role) error

	// AssignRole adds a user to a role, appending to the assignment order.
	AssignRole(ctx context.Context, userID, roleID string) error

	// IsEmpty returns true if there are no roles.
	IsEmpty(ctx context.Context) (bool, error)
}

type Claims interface {
	// GetClaimsForRole returns the claim pairs attached to a role.
	GetClaimsForRole(ctx context.Context, roleID string) ([]domain.Claim, error)

	// GetClaimsForUser returns claim pairs assigned directly to a user.
	GetClaimsForUser(ctx context.Context, userID string) ([]domain.Claim, error)

	// AddRoleClaim attaches a claim pair to a role.
	AddRoleClaim(ctx context.Context, roleID string, c domain.Claim) error

	// AddUserClaim attaches a claim pair directly to a user.
	AddUserClaim(ctx context.Context, userID string, c domain.Claim) error
}
