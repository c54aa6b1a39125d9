// Package user provides the account, role and session entities.
package user

import (
	"errors"
	"strings"
	"time"
)

// Role is the closed set of shop roles.
type Role string

const (
	RoleCliente  Role = "CLIENTE"
	RoleVendedor Role = "VENDEDOR"
	RoleAdmin    Role = "ADMIN"
)

// legacyRolePrefix is carried by roles issued through the backend's authority names.
const legacyRolePrefix = "ROLE_"

// ErrUnknownRole is returned when a role string does not name a shop role.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole normalizes case, surrounding spaces and the legacy ROLE_ prefix.
func ParseRole(s string) (Role, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.TrimPrefix(normalized, legacyRolePrefix)

	switch Role(normalized) {
	case RoleCliente, RoleVendedor, RoleAdmin:
		return Role(normalized), nil
	}
	return "", ErrUnknownRole
}

// String returns the canonical role name.
func (r Role) String() string {
	return string(r)
}

// CanAccessBackOffice reports whether the role may use the admin back-office.
func (r Role) CanAccessBackOffice() bool {
	return r == RoleAdmin || r == RoleVendedor
}

// IsAdmin reports whether the role is ADMIN.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// UnmarshalText normalizes roles on decode so stored sessions never carry aliases.
// An empty role decodes to the zero Role, matching MarshalText.
func (r *Role) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*r = ""
		return nil
	}
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// MarshalText writes the canonical role name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r), nil
}

// Address is a Chilean shipping address.
type Address struct {
	Region string `json:"region"`
	Comuna string `json:"comuna"`
	Street string `json:"street"`
	Unit   string `json:"unit,omitempty"`
}

// IsComplete reports whether street, region and comuna are all present.
func (a Address) IsComplete() bool {
	return strings.TrimSpace(a.Street) != "" &&
		strings.TrimSpace(a.Region) != "" &&
		strings.TrimSpace(a.Comuna) != ""
}

// User is a shop account.
type User struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           Role    `json:"role"`
	DefaultAddress Address `json:"default_address"`
}

// Session is an authenticated storefront session.
type Session struct {
	ID           string    `json:"id"`
	User         User      `json:"user"`
	BackendToken string    `json:"backend_token"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at t.
func (s Session) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && t.After(s.ExpiresAt)
}

// SaveUserRequest holds the fields an admin submits to create or edit an
// account. An empty password on update keeps the current one.
type SaveUserRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password,omitempty"`
	Role     Role    `json:"role"`
	Address  Address `json:"address"`
}
