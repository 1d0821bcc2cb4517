package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alcaldia-digital/reportes-api/internal/model"
)

const testSecret = "unit-test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, model.RoleAdmin, 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	claims, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.PrincipalID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 1, model.RoleCitizen, 15)
	require.NoError(t, err)

	_, err = ParseAccessToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenGarbage(t *testing.T) {
	_, err := ParseAccessToken(testSecret, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpired(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  "7",
		"role": "citizen",
		"type": "access",
		"exp":  time.Now().UTC().Add(-time.Minute).Unix(),
		"iat":  time.Now().UTC().Add(-16 * time.Minute).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshWrapperRejectedAsAccess(t *testing.T) {
	ref, err := NewRefreshToken(testSecret, 42, model.KindCitizen, 7)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, ref.Wrapper)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshWrapperRoundTrip(t *testing.T) {
	ref, err := NewRefreshToken(testSecret, 9, model.KindStaff, 7)
	require.NoError(t, err)
	require.Len(t, ref.Opaque, 64)

	claims, err := ParseRefreshWrapper(testSecret, ref.Wrapper)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), claims.PrincipalID)
	assert.Equal(t, ref.Opaque, claims.Opaque)
	assert.Equal(t, model.KindStaff, claims.Kind)
}

func TestRefreshWrapperOpaqueUnique(t *testing.T) {
	a, err := NewRefreshToken(testSecret, 1, model.KindCitizen, 7)
	require.NoError(t, err)
	b, err := NewRefreshToken(testSecret, 1, model.KindCitizen, 7)
	require.NoError(t, err)
	assert.NotEqual(t, a.Opaque, b.Opaque)
}

func TestAccessTokenRejectedAsRefresh(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, model.RoleCitizen, 15)
	require.NoError(t, err)

	_, err = ParseRefreshWrapper(testSecret, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshWrapperUnknownKind(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  "3",
		"jti":  "abcd",
		"type": "refresh",
		"kind": "robot",
		"exp":  time.Now().UTC().Add(time.Hour).Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseRefreshWrapper(testSecret, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNoneAlgorithmRejected(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "1", "type": "access",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiresIn(t *testing.T) {
	tok := AccessToken{Exp: time.Now().UTC().Add(15 * time.Minute)}
	secs := ExpiresIn(tok)
	assert.InDelta(t, 900, secs, 2)

	assert.Equal(t, int64(900), ExpiresIn(AccessToken{}))
	assert.Equal(t, int64(900), ExpiresIn(AccessToken{Exp: time.Now().UTC().Add(-time.Minute)}))
}

func TestNumericSubjectAccepted(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  float64(12),
		"role": "citizen",
		"type": "access",
		"exp":  time.Now().UTC().Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	got, err := ParseAccessToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), got.PrincipalID)
}
