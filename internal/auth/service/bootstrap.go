package service

import (
	"context"
	"fmt"

	"github.com/skyvault-io/skyvault/internal/auth/domain"
	"github.com/skyvault-io/skyvault/internal/auth/store"
	"github.com/skyvault-io/skyvault/pkg/cryptox"
	"github.com/skyvault-io/skyvault/pkg/idx"
	"github.com/skyvault-io/skyvault/pkg/slogx"
)

// Default roles and their claim pairs, seeded on first start so the catalog
// API has a usable authorization model out of the box.
var defaultRoles = map[string][]domain.Claim{
	"Admin": {
		{Type: "permission", Value: "ReadAccess"},
		{Type: "permission", Value: "WriteAccess"},
		{Type: "permission", Value: "ManageUsers"},
	},
	"Editor": {
		{Type: "permission", Value: "ReadAccess"},
		{Type: "permission", Value: "WriteAccess"},
	},
	"Viewer": {
		{Type: "permission", Value: "ReadAccess"},
	},
}

// BootstrapService seeds an empty database with the default roles, their
// claims, and a first admin account.
type BootstrapService struct {
	Store store.Store
}

// EnsureSeedData is idempotent: it only writes when the respective tables
// are empty, so restarts never duplicate roles or users.
func (s *BootstrapService) EnsureSeedData(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	rolesEmpty, err := s.Store.Roles().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	if rolesEmpty {
		err := s.Store.WithTx(ctx, func(tx store.Tx) error {
			for name, claims := range defaultRoles {
				role := domain.Role{ID: idx.New().String(), Name: name}
				if err := tx.Roles().CreateRole(ctx, role); err != nil {
					return err
				}
				for _, c := range claims {
					if err := tx.Claims().AddRoleClaim(ctx, role.ID, c); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("bootstrap roles: %w", err)
		}
		l.Info("seeded default roles", "count", len(defaultRoles))
	}

	usersEmpty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if !usersEmpty {
		return nil
	}

	password, err := cryptox.GeneratePassword()
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	admin := domain.User{
		ID:             idx.New().String(),
		Username:       "admin",
		Email:          "admin@localhost",
		EmailConfirmed: true,
		Active:         true,
		PasswordHash:   hash,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, admin); err != nil {
			return err
		}
		role, err := tx.Roles().GetRoleByName(ctx, "Admin")
		if err != nil {
			return err
		}
		return tx.Roles().AssignRole(ctx, admin.ID, role.ID)
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	// Logged once on first start; the operator is expected to rotate it.
	l.Warn("created bootstrap admin account",
		"username", admin.Username,
		"password", password,
	)
	return nil
}
