// Package service holds the business rules behind the HTTP API: account
// registration and login, bearer token verification, detection records and
// contact messages.  Services depend on small store interfaces so they can
// run against MySQL in production and in-memory fakes in tests.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/plant-disease-monitor/internal/model"
	"github.com/iliyamo/plant-disease-monitor/internal/repository"
	"github.com/iliyamo/plant-disease-monitor/internal/utils"
)

// AuthConfig carries the token and hashing parameters.
type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.PublicUser
}

// Claims is the caller identity recovered from a verified token.
type Claims struct {
	ID    string
	Email string
}

// AuthService registers users, authenticates them and verifies tokens.
type AuthService struct {
	users  UserStore
	hasher utils.PasswordHasher
	secret string
	ttl    time.Duration
	log    logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

// NewAuthService panics if users is nil.
func NewAuthService(users UserStore, cfg AuthConfig, log logrus.FieldLogger) *AuthService {
	if users == nil {
		panic("nil user store passed to NewAuthService")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthService{
		users:  users,
		hasher: utils.NewPasswordHasher(cfg.BcryptCost),
		secret: cfg.Secret,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Register creates a user and issues a session token.  The email pre-check
// gives a fast error; the unique index on users.email is authoritative and
// its violation maps to the same ErrDuplicateUser.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return AuthResult{}, fmt.Errorf("%w: Please provide all required fields", ErrValidation)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, ErrDuplicateUser
	} else if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return AuthResult{}, fmt.Errorf("%w: password must be at most 72 bytes", ErrValidation)
		}
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	u := model.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return AuthResult{}, ErrDuplicateUser
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}
	s.log.WithField("user_id", u.ID).Info("user registered")

	return s.issue(u)
}

// Login verifies credentials.  Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

// Authenticate verifies an Authorization header value of the form
// "Bearer <token>".  It never touches the store, so a token outlives a
// deleted user until it expires.
func (s *AuthService) Authenticate(header string) (Claims, error) {
	raw, ok := bearerToken(header)
	if !ok {
		return Claims{}, ErrMissingToken
	}
	c, err := utils.ParseSessionToken(s.secret, raw)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return Claims{ID: c.UserID, Email: c.Email}, nil
}

// Me loads the public view of the authenticated caller.
func (s *AuthService) Me(ctx context.Context, id string) (model.PublicUser, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.PublicUser{}, ErrNotFound
		}
		return model.PublicUser{}, fmt.Errorf("load user: %w", err)
	}
	return u.Public(), nil
}

func (s *AuthService) issue(u model.User) (AuthResult, error) {
	tok, err := utils.NewSessionToken(s.secret, u.ID, u.Email, s.ttl, s.now())
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign token: %w", err)
	}
	return AuthResult{Token: tok.Token, ExpiresAt: tok.Exp, User: u.Public()}, nil
}

// bearerToken extracts the credential from "Bearer <token>".  The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
