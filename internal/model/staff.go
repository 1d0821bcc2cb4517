package model

import "time"

// RoleName is the closed set of roles known to the platform. Staff accounts
// carry one of the first three; citizens implicitly hold RoleCitizen. The
// role names are stored in the `roles` table and embedded in access-token
// claims, so the constants must match the seeded rows exactly.
type RoleName string

const (
	RoleSuperadmin RoleName = "superadmin"
	RoleAdmin      RoleName = "admin"
	RoleOperator   RoleName = "operator"
	RoleCitizen    RoleName = "citizen"
)

// Valid reports whether r is one of the known role names.
func (r RoleName) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleOperator, RoleCitizen:
		return true
	}
	return false
}

// DashboardRoles is the set of roles allowed into the staff dashboard and
// the offer management endpoints.
var DashboardRoles = []RoleName{RoleSuperadmin, RoleAdmin, RoleOperator}

// Role represents a row in the `roles` table. Staff users reference this
// table via their RoleID field.
type Role struct {
	ID   uint8    // roles.id
	Name RoleName // roles.name (unique)
}

// StaffUser represents a pre-provisioned municipal staff account as stored
// in the `users` table. Staff accounts are kept fully separate from
// citizens: their field sets and uniqueness domains differ, and the two
// tables are never joined.
//
// Fields:
//
//	ID           – primary key identifier.
//	Email        – unique email address (required for staff).
//	Phone        – unique phone number (nullable).
//	PasswordHash – bcrypt hashed password.
//	RoleID       – foreign key into the roles table.
//	Role         – resolved role name when loaded with a join.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type StaffUser struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Phone        *string   // users.phone (nullable, unique)
	PasswordHash string    // users.password_hash
	RoleID       uint8     // users.role_id (references roles.id)
	Role         RoleName  // roles.name via join
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
