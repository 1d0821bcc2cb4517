package model

import "time"

// PrincipalKind tags which principal table a refresh token belongs to. The
// kind travels inside the signed refresh wrapper so that redemption can
// route to the correct store without cross-table collision.
type PrincipalKind string

const (
	KindCitizen PrincipalKind = "citizen"
	KindStaff   PrincipalKind = "staff"
)

// RefreshToken models a row in either refresh-token table
// (`refresh_tokens` for staff, `citizen_refresh_tokens` for citizens).
// Each row is one live refresh token: the opaque random value is stored
// verbatim and the row is deleted on redemption (rotation) or when found
// expired. Access tokens are never persisted.
//
// Fields:
//
//	ID        – primary key identifier.
//	OwnerID   – owning principal (users.id or citizens.id).
//	Token     – opaque random value (32 bytes, hex-encoded, unique).
//	ExpiresAt – expiration timestamp, checked at redemption time.
//	CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64    // refresh token row id
	OwnerID   uint64    // user_id / citizen_id
	Token     string    // opaque value matched against the wrapper's jti
	ExpiresAt time.Time // expires_at
	CreatedAt time.Time // created_at
}
