package domain

import "time"

// Role is a named group users belong to. Authorization facts are attached as
// claim pairs, not stored on the role row itself.
type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Claim is a (type, value) authorization fact attached to a role or directly
// to a user. The value doubles as an authorization policy name.
type Claim struct {
	Type  string
	Value string
}
