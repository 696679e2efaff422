package domain

import (
	"context"
	"errors"
	"time"
)

// User represents a till operator or an administrator.
type User struct {
	ID        string
	Login     string
	Name      string
	Role      Role
	ServiceID *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin can act on any service, fix balances and reverse any order
	RoleAdmin Role = "admin"

	// RoleOperator works the till of a single service during an open shift
	RoleOperator Role = "operator"
)

// Valid roles
var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleOperator: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsPrivileged reports whether the role bypasses shift ownership checks.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin
}

// CanManageBalances checks if the role can deposit, withdraw or set balances.
func (r Role) CanManageBalances() bool {
	return r == RoleAdmin
}

// CanDeleteShifts checks if the role can soft-delete historical shifts.
func (r Role) CanDeleteShifts() bool {
	return r == RoleAdmin
}

// BelongsTo reports whether the user is attached to the given service.
func (u *User) BelongsTo(serviceID string) bool {
	return u.ServiceID != nil && *u.ServiceID == serviceID
}

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type userContextKey struct{}

// ContextWithUser stores the acting user in ctx.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the acting user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok && user != nil
}
