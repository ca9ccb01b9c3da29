package models

import (
	"strings"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
)

// UserRole is the portal a profile belongs to.
type UserRole string

const (
	RoleResident   UserRole = "resident"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superAdmin"
)

// User is the resolved identity the rest of the app reads: the remote
// profile row joined with the authenticated email. It exists only while
// a session is resolved; nothing outside the session store may write it.
type User struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Role    UserRole `json:"role"`
	Unit    *string  `json:"unit,omitempty"`
	CondoID *string  `json:"condoId,omitempty"`
	Avatar  *string  `json:"avatar,omitempty"`
}

// UserFromProfile derives a User from a profile row plus the email the
// identity service vouched for. The profile's own email column is only
// a fallback.
func UserFromProfile(row backend.Row, authEmail string) *User {
	email := authEmail
	if email == "" {
		email = rowString(row, "email", "")
	}

	name := rowString(row, "name", "")
	if name == "" {
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		} else {
			name = "Usuário"
		}
	}

	role := UserRole(rowString(row, "role", string(RoleResident)))
	switch role {
	case RoleResident, RoleAdmin, RoleSuperAdmin:
	default:
		role = RoleResident
	}

	return &User{
		ID:      rowString(row, "id", ""),
		Name:    name,
		Email:   email,
		Role:    role,
		Unit:    rowStringPtr(row, "unit"),
		CondoID: rowStringPtr(row, "condo_id"),
		Avatar:  rowStringPtr(row, "avatar"),
	}
}

// Profile is a directory entry from the profiles collection, used by
// the back office to link residents and operators to condos.
type Profile struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	Unit      *string  `json:"unit,omitempty"`
	CondoID   *string  `json:"condoId,omitempty"`
	Avatar    *string  `json:"avatar,omitempty"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

func ProfileFromRow(row backend.Row) *Profile {
	return &Profile{
		ID:        rowString(row, "id", ""),
		Name:      rowString(row, "name", ""),
		Email:     rowString(row, "email", ""),
		Role:      UserRole(rowString(row, "role", string(RoleResident))),
		Unit:      rowStringPtr(row, "unit"),
		CondoID:   rowStringPtr(row, "condo_id"),
		Avatar:    rowStringPtr(row, "avatar"),
		CreatedAt: rowString(row, "created_at", ""),
		UpdatedAt: rowString(row, "updated_at", ""),
	}
}
