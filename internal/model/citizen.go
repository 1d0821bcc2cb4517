package model

import "time"

// Citizen represents an end user of the reporting platform as stored in the
// `citizens` table. Citizens register themselves and are identified by
// email or phone; at least one of the two is always present (registration
// requires both). Citizens are never hard-deleted.
//
// Fields:
//
//	ID           – primary key identifier.
//	Email        – unique email address (nullable).
//	Phone        – unique phone number (nullable).
//	PasswordHash – bcrypt hashed password.
//	Nombre       – given name.
//	Apellidos    – family names.
//	Colonia      – neighbourhood within the district (nullable).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type Citizen struct {
	ID           uint64    // citizens.id
	Email        *string   // citizens.email (nullable, unique)
	Phone        *string   // citizens.phone (nullable, unique)
	PasswordHash string    // citizens.password_hash
	Nombre       string    // citizens.nombre
	Apellidos    string    // citizens.apellidos
	Colonia      *string   // citizens.colonia (nullable)
	CreatedAt    time.Time // citizens.created_at
	UpdatedAt    time.Time // citizens.updated_at
}
