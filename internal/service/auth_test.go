package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alcaldia-digital/reportes-api/internal/model"
	"github.com/alcaldia-digital/reportes-api/internal/repository"
	"github.com/alcaldia-digital/reportes-api/internal/utils"
)

const (
	testSecret = "service-test-secret"
	testCost   = 4 // min bcrypt cost keeps tests fast
)

// fakeCitizenStore is an in-memory CitizenStore.
type fakeCitizenStore struct {
	nextID  uint64
	byID    map[uint64]model.Citizen
	byEmail map[string]uint64
	byPhone map[string]uint64
}

func newFakeCitizenStore() *fakeCitizenStore {
	return &fakeCitizenStore{
		nextID:  1,
		byID:    map[uint64]model.Citizen{},
		byEmail: map[string]uint64{},
		byPhone: map[string]uint64{},
	}
}

func (f *fakeCitizenStore) Create(_ context.Context, email, phone, passwordHash, nombre, apellidos string, colonia *string) (uint64, error) {
	if _, ok := f.byEmail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	if _, ok := f.byPhone[phone]; ok {
		return 0, repository.ErrPhoneExists
	}
	id := f.nextID
	f.nextID++
	e, p := email, phone
	f.byID[id] = model.Citizen{
		ID: id, Email: &e, Phone: &p, PasswordHash: passwordHash,
		Nombre: nombre, Apellidos: apellidos, Colonia: colonia,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	f.byEmail[email] = id
	f.byPhone[phone] = id
	return id, nil
}

func (f *fakeCitizenStore) GetByEmail(_ context.Context, email string) (model.Citizen, error) {
	if id, ok := f.byEmail[email]; ok {
		return f.byID[id], nil
	}
	return model.Citizen{}, repository.ErrNotFound
}

func (f *fakeCitizenStore) GetByPhone(_ context.Context, phone string) (model.Citizen, error) {
	if id, ok := f.byPhone[phone]; ok {
		return f.byID[id], nil
	}
	return model.Citizen{}, repository.ErrNotFound
}

func (f *fakeCitizenStore) GetByID(_ context.Context, id uint64) (model.Citizen, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return model.Citizen{}, repository.ErrNotFound
}

// fakeStaffStore is an in-memory StaffStore seeded up front.
type fakeStaffStore struct {
	users []model.StaffUser
}

func (f *fakeStaffStore) GetByEmail(_ context.Context, email string) (model.StaffUser, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.StaffUser{}, repository.ErrNotFound
}

func (f *fakeStaffStore) GetByPhone(_ context.Context, phone string) (model.StaffUser, error) {
	for _, u := range f.users {
		if u.Phone != nil && *u.Phone == phone {
			return u, nil
		}
	}
	return model.StaffUser{}, repository.ErrNotFound
}

func (f *fakeStaffStore) GetByID(_ context.Context, id uint64) (model.StaffUser, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.StaffUser{}, repository.ErrNotFound
}

// fakeTokenStore keys rows by kind+opaque token.
type fakeTokenStore struct {
	nextID uint64
	rows   map[string]model.RefreshToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{nextID: 1, rows: map[string]model.RefreshToken{}}
}

func tokenKey(kind model.PrincipalKind, token string) string {
	return fmt.Sprintf("%s:%s", kind, token)
}

func (f *fakeTokenStore) Store(_ context.Context, kind model.PrincipalKind, ownerID uint64, token string, exp time.Time) error {
	id := f.nextID
	f.nextID++
	f.rows[tokenKey(kind, token)] = model.RefreshToken{
		ID: id, OwnerID: ownerID, Token: token, ExpiresAt: exp, CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (f *fakeTokenStore) Find(_ context.Context, kind model.PrincipalKind, token string, ownerID uint64) (model.RefreshToken, error) {
	row, ok := f.rows[tokenKey(kind, token)]
	if !ok || row.OwnerID != ownerID {
		return model.RefreshToken{}, repository.ErrNotFound
	}
	return row, nil
}

func (f *fakeTokenStore) Consume(_ context.Context, kind model.PrincipalKind, token string, ownerID uint64) error {
	key := tokenKey(kind, token)
	row, ok := f.rows[key]
	if !ok || row.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(f.rows, key)
	return nil
}

func (f *fakeTokenStore) DeleteByID(_ context.Context, kind model.PrincipalKind, id uint64) error {
	for key, row := range f.rows {
		if row.ID == id && key == tokenKey(kind, row.Token) {
			delete(f.rows, key)
			return nil
		}
	}
	return nil
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := utils.HashPassword(plain, testCost)
	require.NoError(t, err)
	return h
}

func newTestService(t *testing.T) (*AuthService, *fakeCitizenStore, *fakeStaffStore, *fakeTokenStore) {
	t.Helper()
	citizens := newFakeCitizenStore()
	staff := &fakeStaffStore{}
	tokens := newFakeTokenStore()
	svc := NewAuthService(citizens, staff, tokens, testSecret, 15, 7, testCost, nil)
	return svc, citizens, staff, tokens
}

func registerMaria(t *testing.T, svc *AuthService) Session {
	t.Helper()
	sess, err := svc.Register(context.Background(), RegisterInput{
		Email:     "maria@example.com",
		Phone:     "5551112222",
		Password:  "secreta123",
		Nombre:    "María",
		Apellidos: "García López",
	})
	require.NoError(t, err)
	return sess
}

func TestRegisterIssuesCitizenSession(t *testing.T) {
	svc, _, _, tokens := newTestService(t)

	sess := registerMaria(t, svc)
	require.NotEmpty(t, sess.AccessToken)
	require.NotEmpty(t, sess.RefreshToken)
	assert.InDelta(t, 900, sess.ExpiresIn, 2)
	require.NotNil(t, sess.User.Nombre)
	assert.Equal(t, "María", *sess.User.Nombre)
	require.NotNil(t, sess.User.Email)
	assert.Equal(t, "maria@example.com", *sess.User.Email)

	claims, err := utils.ParseAccessToken(testSecret, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCitizen, claims.Role)

	// The wrapper's opaque value must be persisted under the citizen kind.
	ref, err := utils.ParseRefreshWrapper(testSecret, sess.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, model.KindCitizen, ref.Kind)
	_, err = tokens.Find(context.Background(), model.KindCitizen, ref.Opaque, ref.PrincipalID)
	assert.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	registerMaria(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "maria@example.com",
		Phone:     "5559998888",
		Password:  "otraclave1",
		Nombre:    "Otra",
		Apellidos: "Persona",
	})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	registerMaria(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "otra@example.com",
		Phone:     "5551112222",
		Password:  "otraclave1",
		Nombre:    "Otra",
		Apellidos: "Persona",
	})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestLoginCitizenByEmailAndPhone(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	registerMaria(t, svc)

	sess, err := svc.Login(context.Background(), "maria@example.com", "", "secreta123")
	require.NoError(t, err)
	claims, err := utils.ParseAccessToken(testSecret, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCitizen, claims.Role)

	_, err = svc.Login(context.Background(), "", "5551112222", "secreta123")
	assert.NoError(t, err)
}

func TestLoginFailuresAreUndifferentiated(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	registerMaria(t, svc)

	_, err := svc.Login(context.Background(), "maria@example.com", "", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@example.com", "", "secreta123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginStaff(t *testing.T) {
	svc, _, staff, _ := newTestService(t)
	staff.users = []model.StaffUser{{
		ID: 7, Email: "operador@municipio.gob", PasswordHash: mustHash(t, "turno-noche"),
		RoleID: 3, Role: model.RoleOperator,
	}}

	sess, err := svc.Login(context.Background(), "operador@municipio.gob", "", "turno-noche")
	require.NoError(t, err)

	claims, err := utils.ParseAccessToken(testSecret, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleOperator, claims.Role)
	assert.Equal(t, uint64(7), claims.PrincipalID)

	ref, err := utils.ParseRefreshWrapper(testSecret, sess.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, model.KindStaff, ref.Kind)
}

func TestLoginCitizenWinsOverStaff(t *testing.T) {
	svc, _, staff, _ := newTestService(t)
	registerMaria(t, svc)
	staff.users = []model.StaffUser{{
		ID: 7, Email: "maria@example.com", PasswordHash: mustHash(t, "staff-pass"),
		RoleID: 2, Role: model.RoleAdmin,
	}}

	// Citizen password resolves to the citizen account.
	sess, err := svc.Login(context.Background(), "maria@example.com", "", "secreta123")
	require.NoError(t, err)
	claims, err := utils.ParseAccessToken(testSecret, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCitizen, claims.Role)

	// Staff password falls through to the staff account.
	sess, err = svc.Login(context.Background(), "maria@example.com", "", "staff-pass")
	require.NoError(t, err)
	claims, err = utils.ParseAccessToken(testSecret, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	first := registerMaria(t, svc)

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.NotNil(t, second.User.Nombre)
	assert.Equal(t, "María", *second.User.Nombre)

	// Replaying the consumed wrapper must fail even though its signature
	// still verifies.
	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, ErrExpiredOrRevoked)

	// The rotated pair stays redeemable.
	_, err = svc.Refresh(context.Background(), second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshMalformedWrapper(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshExpiredRowIsDeleted(t *testing.T) {
	svc, _, _, tokens := newTestService(t)
	sess := registerMaria(t, svc)

	ref, err := utils.ParseRefreshWrapper(testSecret, sess.RefreshToken)
	require.NoError(t, err)

	// Age the stored row past its expiry while the wrapper itself still
	// verifies.
	key := tokenKey(model.KindCitizen, ref.Opaque)
	row := tokens.rows[key]
	row.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	tokens.rows[key] = row

	_, err = svc.Refresh(context.Background(), sess.RefreshToken)
	assert.ErrorIs(t, err, ErrExpiredOrRevoked)
	_, ok := tokens.rows[key]
	assert.False(t, ok, "expired row should be cleaned up")
}

func TestRefreshAccessTokenRejected(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	sess := registerMaria(t, svc)

	_, err := svc.Refresh(context.Background(), sess.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestForgotPasswordUniformAck(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	registerMaria(t, svc)

	assert.NoError(t, svc.ForgotPassword(context.Background(), "maria@example.com", ""))
	assert.NoError(t, svc.ForgotPassword(context.Background(), "nobody@example.com", ""))
	assert.NoError(t, svc.ForgotPassword(context.Background(), "", "0000000000"))
}
