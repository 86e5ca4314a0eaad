// Package service implements authentication: credential verification and
// access token issuance. Authorization (role checks) happens in the domain
// services against the caller's stored profile, not against token claims.
package service

import (
	"context"
	"time"

	"offerte_delivery_backend/internal/auth/repository"
	"offerte_delivery_backend/internal/auth/transport"
	"offerte_delivery_backend/platform/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RoleAdmin is the privileged administrative role.
const RoleAdmin = "admin"

const invalidCredentialsMsg = "invalid email or password"

// UserStore is the narrow repository interface the auth service needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*repository.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.User, error)
}

// Config captures the auth settings the service reads.
type Config interface {
	GetJWTAccessSecret() string
	GetAccessTokenTTL() time.Duration
}

// Profile is the resolved identity handed to other modules.
type Profile struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   string
}

// Service provides authentication business logic.
type Service struct {
	store UserStore
	cfg   Config
}

// New creates a new auth service.
func New(store UserStore, cfg Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// Login verifies the credentials and issues an access token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResponse, error) {
	user, err := s.store.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized(invalidCredentialsMsg)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "user lookup failed", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized(invalidCredentialsMsg)
	}

	ttl := s.cfg.GetAccessTokenTTL()
	token, err := s.signJWT(user.ID, user.Role, ttl)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "token signing failed", err)
	}

	return &transport.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(ttl.Seconds()),
	}, nil
}

// GetProfile resolves an authenticated user ID to its stored profile.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("unknown identity")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "profile lookup failed", err)
	}

	return &Profile{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}, nil
}

func (s *Service) signJWT(userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": "access",
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
		"iat":  time.Now().Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
