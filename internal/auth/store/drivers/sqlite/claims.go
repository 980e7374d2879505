package sqlite

import (
	"context"

	"github.com/skyvault-io/skyvault/internal/auth/domain"
)

type claimsRepo struct {
	db dbtx
}

func (r *claimsRepo) GetClaimsForRole(ctx context.Context, roleID string) ([]domain.Claim, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT claim_type, claim_value
		FROM role_claims
		WHERE role_id = ?
		ORDER BY claim_type, claim_value`,
		roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanClaims(rows)
}

func (r *claimsRepo) GetClaimsForUser(ctx context.Context, userID string) ([]domain.Claim, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT claim_type, claim_value
		FROM user_claims
		WHERE user_id = ?
		ORDER BY claim_type, claim_value`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanClaims(rows)
}

func (r *claimsRepo) AddRoleClaim(ctx context.Context, roleID string, c domain.Claim) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO role_claims (role_id, claim_type, claim_value)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		roleID, c.Type, c.Value)
	return err
}

func (r *claimsRepo) AddUserClaim(ctx context.Context, userID string, c domain.Claim) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_claims (user_id, claim_type, claim_value)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		userID, c.Type, c.Value)
	return err
}

type claimRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanClaims(rows claimRows) ([]domain.Claim, error) {
	var claims []domain.Claim
	for rows.Next() {
		var c domain.Claim
		if err := rows.Scan(&c.Type, &c.Value); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}
