// Package adapters bridges module service layers without letting the modules
// import each other directly.
package adapters

import (
	"context"

	authservice "offerte_delivery_backend/internal/auth/service"
	quotesservice "offerte_delivery_backend/internal/quotes/service"

	"github.com/google/uuid"
)

// ProfileAdapter exposes the auth service as the quotes module's
// ProfileReader.
type ProfileAdapter struct {
	auth *authservice.Service
}

// NewProfileAdapter wraps the auth service.
func NewProfileAdapter(auth *authservice.Service) *ProfileAdapter {
	return &ProfileAdapter{auth: auth}
}

// GetProfile resolves a user ID to the quotes module's profile shape.
func (a *ProfileAdapter) GetProfile(ctx context.Context, userID uuid.UUID) (*quotesservice.Profile, error) {
	profile, err := a.auth.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &quotesservice.Profile{
		UserID: profile.UserID,
		Email:  profile.Email,
		Name:   profile.Name,
		Role:   profile.Role,
	}, nil
}

var _ quotesservice.ProfileReader = (*ProfileAdapter)(nil)
