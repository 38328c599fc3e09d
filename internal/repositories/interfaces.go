package repositories

import (
	"context"
	"golang-storefront-backend/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository interface for PostgreSQL user operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CartRepository interface for PostgreSQL cart operations. This is the sole
// synchronization point for cart mutations: line writes are atomic per
// (cart, product) row, and CompareAndSwapLine is the conditional update the
// merge-add path is built on.
type CartRepository interface {
	// GetOrCreate returns the user's cart, creating an empty one if none
	// exists. Safe under concurrent calls for the same user.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	// LoadLines returns the cart's lines in insertion order.
	LoadLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error)
	// GetLineQuantity returns the stored quantity for a line, 0 if absent.
	GetLineQuantity(ctx context.Context, cartID uuid.UUID, productID string) (int, error)
	// UpsertLine atomically sets the stored quantity to quantity when
	// quantity >= 1, or deletes the line when quantity == 0.
	// Last-writer-wins for concurrent upserts of the same line.
	UpsertLine(ctx context.Context, cartID uuid.UUID, productID string, quantity int) error
	// CompareAndSwapLine writes quantity only if the line's current
	// quantity equals expected (expected 0 means the line must be absent).
	// Returns false when a concurrent writer got there first.
	CompareAndSwapLine(ctx context.Context, cartID uuid.UUID, productID string, expected, quantity int) (bool, error)
	// DeleteLine removes the line if present; absent lines are a no-op.
	DeleteLine(ctx context.Context, cartID uuid.UUID, productID string) error
}

// ProductFilter carries the dynamic catalog search criteria. Zero values
// mean "no constraint".
type ProductFilter struct {
	Name          string
	CategoryID    *primitive.ObjectID
	MinPrice      *float64
	MaxPrice      *float64
	Tags          []string
	AvailableOnly bool
	Limit         int
	Offset        int
}

// ProductRepository interface for MongoDB product operations
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Search(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
}

// ProductCategoryRepository interface for MongoDB category operations
type ProductCategoryRepository interface {
	Create(ctx context.Context, category *models.ProductCategory) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ProductCategory, error)
	Update(ctx context.Context, category *models.ProductCategory) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	GetAll(ctx context.Context) ([]models.ProductCategory, error)
}
