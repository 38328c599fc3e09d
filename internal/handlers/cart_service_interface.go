package handlers

import (
	"context"

	"golang-storefront-backend/internal/services"

	"github.com/google/uuid"
)

// CartServiceInterface defines the cart operations the handler needs
type CartServiceInterface interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*services.CartSnapshot, error)
	AddToCart(ctx context.Context, userID uuid.UUID, productID string, delta int) (*services.CartSnapshot, error)
	SetQuantity(ctx context.Context, userID uuid.UUID, productID string, quantity int) (*services.CartSnapshot, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, productID string) (*services.CartSnapshot, error)
}
