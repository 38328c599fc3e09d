package handlers

import (
	"context"

	"golang-storefront-backend/internal/models"
	"golang-storefront-backend/internal/services"
	"golang-storefront-backend/pkg/auth"

	"github.com/google/uuid"
)

// AuthServiceInterface defines the auth operations the handler needs
type AuthServiceInterface interface {
	Register(ctx context.Context, req *services.RegisterRequest) (*services.AuthResponse, error)
	Login(ctx context.Context, req *services.LoginRequest) (*services.AuthResponse, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	RefreshTokens(refreshToken string) (*auth.TokenPair, error)
}
