// Package service contains the session orchestrator and the queue
// publisher. The orchestrator owns every authentication flow: proving who
// a principal is and minting/rotating the credentials that let them keep
// proving it.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/alcaldia-digital/reportes-api/internal/model"
	"github.com/alcaldia-digital/reportes-api/internal/repository"
	"github.com/alcaldia-digital/reportes-api/internal/utils"
)

var (
	// ErrDuplicateIdentity is returned by Register when the email or phone
	// is already bound to a citizen.
	ErrDuplicateIdentity = errors.New("identity already registered")
	// ErrInvalidCredentials is returned by Login for every failure cause:
	// unknown identifier, wrong password, either table. Deliberately
	// undifferentiated so responses cannot be used for account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken mirrors the token issuer's sentinel: a malformed,
	// unsigned, wrong-type or claim-less refresh wrapper.
	ErrInvalidToken = utils.ErrInvalidToken
	// ErrExpiredOrRevoked is returned by Refresh when the wrapper verifies
	// but no live row backs it: consumed, rotated away, or past expiry.
	ErrExpiredOrRevoked = errors.New("refresh token expired or revoked")
)

// CitizenStore is the credential-store view of citizen accounts.
type CitizenStore interface {
	Create(ctx context.Context, email, phone, passwordHash, nombre, apellidos string, colonia *string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.Citizen, error)
	GetByPhone(ctx context.Context, phone string) (model.Citizen, error)
	GetByID(ctx context.Context, id uint64) (model.Citizen, error)
}

// StaffStore is the credential-store view of pre-provisioned staff
// accounts, always resolved together with their role.
type StaffStore interface {
	GetByEmail(ctx context.Context, email string) (model.StaffUser, error)
	GetByPhone(ctx context.Context, phone string) (model.StaffUser, error)
	GetByID(ctx context.Context, id uint64) (model.StaffUser, error)
}

// TokenStore persists refresh tokens, routing on the principal kind.
type TokenStore interface {
	Store(ctx context.Context, kind model.PrincipalKind, ownerID uint64, token string, exp time.Time) error
	Find(ctx context.Context, kind model.PrincipalKind, token string, ownerID uint64) (model.RefreshToken, error)
	Consume(ctx context.Context, kind model.PrincipalKind, token string, ownerID uint64) error
	DeleteByID(ctx context.Context, kind model.PrincipalKind, id uint64) error
}

// UserEcho is the minimal profile returned alongside a token pair.
type UserEcho struct {
	Nombre    *string `json:"nombre,omitempty"`
	Apellidos *string `json:"apellidos,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// Session is the result of any successful authentication flow.
type Session struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int64    `json:"expiresIn"`
	User         UserEcho `json:"user"`
}

// RegisterInput carries a citizen registration. All fields except Colonia
// are required; the handler validates shape before the orchestrator runs.
type RegisterInput struct {
	Email     string
	Phone     string
	Password  string
	Nombre    string
	Apellidos string
	Colonia   *string
}

// AuthService implements register, login, refresh and forgot-password as
// single-transition flows over the credential stores, the password hasher
// and the token issuer. Each call is stateless apart from the stores.
type AuthService struct {
	citizens       CitizenStore
	staff          StaffStore
	tokens         TokenStore
	secret         string
	accessTTLMin   int
	refreshTTLDays int
	bcryptCost     int
	log            *zap.Logger
}

// NewAuthService wires the orchestrator. Secrets and lifetimes arrive here
// once at startup; nothing inside reads ambient configuration.
func NewAuthService(citizens CitizenStore, staff StaffStore, tokens TokenStore,
	secret string, accessTTLMin, refreshTTLDays, bcryptCost int, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		citizens:       citizens,
		staff:          staff,
		tokens:         tokens,
		secret:         secret,
		accessTTLMin:   accessTTLMin,
		refreshTTLDays: refreshTTLDays,
		bcryptCost:     bcryptCost,
		log:            log,
	}
}

// Register creates a citizen account and immediately returns a citizen
// session. The email and phone are both checked up front so the caller
// gets ErrDuplicateIdentity rather than a bare constraint error; the
// insert still maps unique-key violations for races between the check and
// the write.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if _, err := s.citizens.GetByEmail(ctx, in.Email); err == nil {
		return Session{}, ErrDuplicateIdentity
	} else if !errors.Is(err, repository.ErrNotFound) {
		return Session{}, err
	}
	if _, err := s.citizens.GetByPhone(ctx, in.Phone); err == nil {
		return Session{}, ErrDuplicateIdentity
	} else if !errors.Is(err, repository.ErrNotFound) {
		return Session{}, err
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return Session{}, err
	}
	id, err := s.citizens.Create(ctx, in.Email, in.Phone, hash, in.Nombre, in.Apellidos, in.Colonia)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) || errors.Is(err, repository.ErrPhoneExists) {
			return Session{}, ErrDuplicateIdentity
		}
		return Session{}, err
	}
	c, err := s.citizens.GetByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	return s.mintCitizen(ctx, c)
}

// Login authenticates by email or phone (at least one must be supplied)
// and a password. The citizen table is checked first; only when no citizen
// matches, or the citizen's password does not, does the lookup fall
// through to the staff table. An identifier existing in both tables
// resolves to the citizen — overlap between the two tables is otherwise
// unspecified. Every failure is ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, phone, password string) (Session, error) {
	c, err := s.lookupCitizen(ctx, email, phone)
	if err == nil && utils.VerifyPassword(c.PasswordHash, password) {
		return s.mintCitizen(ctx, c)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return Session{}, err
	}

	u, err := s.lookupStaff(ctx, email, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.mintStaff(ctx, u)
}

// Refresh redeems a refresh wrapper for a brand-new token pair. The old
// row is consumed before the new pair is minted, so the old token can
// never be reused; if minting then fails the session is simply lost and
// the client re-authenticates. A row found past its expiry is deleted
// best-effort before the failure is reported.
func (s *AuthService) Refresh(ctx context.Context, wrapper string) (Session, error) {
	claims, err := utils.ParseRefreshWrapper(s.secret, wrapper)
	if err != nil {
		return Session{}, ErrInvalidToken
	}

	row, err := s.tokens.Find(ctx, claims.Kind, claims.Opaque, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrExpiredOrRevoked
		}
		return Session{}, err
	}
	if time.Now().UTC().After(row.ExpiresAt) {
		if derr := s.tokens.DeleteByID(ctx, claims.Kind, row.ID); derr != nil {
			s.log.Warn("stale refresh-token cleanup failed", zap.Error(derr))
		}
		return Session{}, ErrExpiredOrRevoked
	}

	// Single-winner consume: a concurrent redemption of the same token
	// loses here with ErrNotFound.
	if err := s.tokens.Consume(ctx, claims.Kind, claims.Opaque, claims.PrincipalID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrExpiredOrRevoked
		}
		return Session{}, err
	}

	if claims.Kind == model.KindCitizen {
		c, err := s.citizens.GetByID(ctx, claims.PrincipalID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return Session{}, ErrExpiredOrRevoked
			}
			return Session{}, err
		}
		return s.mintCitizen(ctx, c)
	}
	u, err := s.staff.GetByID(ctx, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrExpiredOrRevoked
		}
		return Session{}, err
	}
	return s.mintStaff(ctx, u)
}

// ForgotPassword acknowledges a reset request without revealing whether an
// account exists. Dispatching the out-of-band reset notification is a
// separate concern; this flow only guarantees the uniform acknowledgment.
func (s *AuthService) ForgotPassword(ctx context.Context, email, phone string) error {
	if _, err := s.lookupCitizen(ctx, email, phone); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("forgot-password lookup failed", zap.Error(err))
	}
	return nil
}

func (s *AuthService) lookupCitizen(ctx context.Context, email, phone string) (model.Citizen, error) {
	if email != "" {
		return s.citizens.GetByEmail(ctx, email)
	}
	return s.citizens.GetByPhone(ctx, phone)
}

func (s *AuthService) lookupStaff(ctx context.Context, email, phone string) (model.StaffUser, error) {
	if email != "" {
		return s.staff.GetByEmail(ctx, email)
	}
	return s.staff.GetByPhone(ctx, phone)
}

func (s *AuthService) mintCitizen(ctx context.Context, c model.Citizen) (Session, error) {
	nombre, apellidos := c.Nombre, c.Apellidos
	sess, err := s.mint(ctx, c.ID, model.RoleCitizen, model.KindCitizen)
	if err != nil {
		return Session{}, err
	}
	sess.User = UserEcho{Nombre: &nombre, Apellidos: &apellidos, Email: c.Email}
	return sess, nil
}

func (s *AuthService) mintStaff(ctx context.Context, u model.StaffUser) (Session, error) {
	email := u.Email
	sess, err := s.mint(ctx, u.ID, u.Role, model.KindStaff)
	if err != nil {
		return Session{}, err
	}
	sess.User = UserEcho{Email: &email}
	return sess, nil
}

// mint issues the access token and the two-layer refresh token, persisting
// only the opaque value.
func (s *AuthService) mint(ctx context.Context, principalID uint64, role model.RoleName, kind model.PrincipalKind) (Session, error) {
	access, err := utils.NewAccessToken(s.secret, principalID, role, s.accessTTLMin)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.NewRefreshToken(s.secret, principalID, kind, s.refreshTTLDays)
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.Store(ctx, kind, principalID, refresh.Opaque, refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:  access.Token,
		RefreshToken: refresh.Wrapper,
		ExpiresIn:    utils.ExpiresIn(access),
	}, nil
}
