package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand" // secure random number generation
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/alcaldia-digital/reportes-api/internal/model"
)

// ErrInvalidToken is returned by the parse functions for any token that is
// malformed, unsigned, expired, of the wrong type, or missing required
// claims. Callers never learn which of those failed.
var ErrInvalidToken = errors.New("invalid token")

// fallbackExpiresIn is returned as expires_in when the embedded expiry
// cannot be read, matching the access-token lifetime of 15 minutes.
const fallbackExpiresIn int64 = 900

// AccessToken is a signed JWT access token along with its expiry. Access
// tokens are self-contained signed claims and are never persisted; the
// client sends them in the Authorization header on protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken is the two-layered refresh credential. Opaque is the random
// value persisted server-side; Wrapper is the signed JWT the client stores,
// carrying the opaque value as its jti claim. Possession of the wrapper
// alone is not sufficient: redemption also requires a live row matching
// the opaque value, which is what makes refresh tokens revocable.
type RefreshToken struct {
	Opaque  string    // 32 random bytes, hex-encoded; stored in the DB
	Wrapper string    // signed JWT handed to the client
	Exp     time.Time // UTC expiration time of both layers
}

// NewAccessToken builds and signs an HS256 JWT for a principal. The JWT
// carries the subject (sub), the resolved role, type "access", expiration
// (exp) and issued at (iat). Subjects are encoded as decimal strings so JWT
// subjects stay strings regardless of the numeric id type.
func NewAccessToken(secret string, principalID uint64, role model.RoleName, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(principalID, 10),
		"role": string(role),
		"type": "access",
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken generates the opaque value and its signed wrapper for a
// principal. The kind claim records which principal table the opaque value
// lives in so redemption can route to the correct store.
func NewRefreshToken(secret string, principalID uint64, kind model.PrincipalKind, ttlDays int) (RefreshToken, error) {
	opaque, err := randomHex(32) // 32 bytes -> 64 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(principalID, 10),
		"jti":  opaque,
		"type": "refresh",
		"kind": string(kind),
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Opaque: opaque, Wrapper: signed, Exp: exp}, nil
}

// AccessClaims is the verified content of an access token.
type AccessClaims struct {
	PrincipalID uint64
	Role        model.RoleName
}

// RefreshClaims is the verified content of a refresh wrapper.
type RefreshClaims struct {
	PrincipalID uint64
	Opaque      string
	Kind        model.PrincipalKind
}

// ParseAccessToken verifies signature, expiry and type of an access token
// and returns its claims. Any failure is reported as ErrInvalidToken.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
	claims, err := parseHS256(secret, raw)
	if err != nil {
		return AccessClaims{}, err
	}
	if t, _ := claims["type"].(string); t != "access" {
		return AccessClaims{}, ErrInvalidToken
	}
	id, err := subjectID(claims)
	if err != nil {
		return AccessClaims{}, err
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = string(model.RoleCitizen)
	}
	return AccessClaims{PrincipalID: id, Role: model.RoleName(role)}, nil
}

// ParseRefreshWrapper verifies signature, expiry and type of a refresh
// wrapper and returns its claims. Wrappers with a missing jti, missing sub
// or an unknown kind are rejected as ErrInvalidToken.
func ParseRefreshWrapper(secret, raw string) (RefreshClaims, error) {
	claims, err := parseHS256(secret, raw)
	if err != nil {
		return RefreshClaims{}, err
	}
	if t, _ := claims["type"].(string); t != "refresh" {
		return RefreshClaims{}, ErrInvalidToken
	}
	id, err := subjectID(claims)
	if err != nil {
		return RefreshClaims{}, err
	}
	opaque, _ := claims["jti"].(string)
	if opaque == "" {
		return RefreshClaims{}, ErrInvalidToken
	}
	kindStr, _ := claims["kind"].(string)
	kind := model.PrincipalKind(kindStr)
	if kind != model.KindCitizen && kind != model.KindStaff {
		return RefreshClaims{}, ErrInvalidToken
	}
	return RefreshClaims{PrincipalID: id, Opaque: opaque, Kind: kind}, nil
}

// ExpiresIn returns the remaining lifetime of an access token in seconds
// for the expires_in field of auth responses, falling back to 900 when the
// embedded expiry is unusable.
func ExpiresIn(a AccessToken) int64 {
	if a.Exp.IsZero() {
		return fallbackExpiresIn
	}
	secs := int64(time.Until(a.Exp).Seconds())
	if secs <= 0 {
		return fallbackExpiresIn
	}
	return secs
}

// parseHS256 verifies an HS256 token and returns its claims map. The
// signing-method check rejects tokens signed with any other algorithm.
func parseHS256(secret, raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// subjectID extracts the sub claim as a uint64. Numeric subjects decoded as
// float64 by the JSON layer are accepted alongside decimal strings.
func subjectID(claims jwt.MapClaims) (uint64, error) {
	switch v := claims["sub"].(type) {
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
			return id, nil
		}
	case float64:
		if v > 0 {
			return uint64(v), nil
		}
	}
	return 0, ErrInvalidToken
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data. It is used to produce the opaque
// layer of refresh tokens.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
