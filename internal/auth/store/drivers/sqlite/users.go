package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/skyvault-io/skyvault/internal/auth/domain"
	"github.com/skyvault-io/skyvault/internal/auth/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, email, email_confirmed, active, password_hash,
	mfa_enabled, mfa_secret, refresh_token_hash, refresh_token_expires_at,
	refresh_token_version, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, username, email, email_confirmed, active, password_hash,
			mfa_enabled, mfa_secret, refresh_token_hash,
			refresh_token_expires_at, refresh_token_version,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.EmailConfirmed, u.Active, u.PasswordHash,
		optionalTime(u.MFAEnabled), optionalString(u.MFASecret),
		u.RefreshTokenHash, nullableTime(u.RefreshTokenExpiresAt),
		u.RefreshTokenVersion, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (r *usersRepo) UpdateRefreshToken(
	ctx context.Context,
	userID, tokenHash string,
	expiresAt time.Time,
	expectedVersion int64,
) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token_hash = ?,
		    refresh_token_expires_at = ?,
		    refresh_token_version = refresh_token_version + 1,
		    updated_at = ?
		WHERE id = ? AND refresh_token_version = ?`,
		tokenHash, expiresAt, time.Now().UTC(), userID, expectedVersion,
	)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// Distinguish a missing row from a lost race.
		if _, err := r.GetUserByID(ctx, userID); err != nil {
			return 0, err
		}
		return 0, store.ErrVersionConflict
	}

	return expectedVersion + 1, nil
}

func (r *usersRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token_hash = '',
		    refresh_token_expires_at = NULL,
		    refresh_token_version = refresh_token_version + 1,
		    updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) UpdateMFASecret(ctx context.Context, userID, secret string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET mfa_secret = ?, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) EnableMFA(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET mfa_enabled = ?, updated_at = ? WHERE id = ?`,
		now, now, userID)
	return err
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET mfa_enabled = NULL, mfa_secret = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u          domain.User
		mfaEnabled sql.NullTime
		mfaSecret  sql.NullString
		refreshExp sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.EmailConfirmed, &u.Active,
		&u.PasswordHash, &mfaEnabled, &mfaSecret, &u.RefreshTokenHash,
		&refreshExp, &u.RefreshTokenVersion, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	if mfaEnabled.Valid {
		t := mfaEnabled.Time
		u.MFAEnabled = &t
	}
	if mfaSecret.Valid {
		s := mfaSecret.String
		u.MFASecret = &s
	}
	if refreshExp.Valid {
		u.RefreshTokenExpiresAt = refreshExp.Time
	}

	return u, nil
}

func optionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func optionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
