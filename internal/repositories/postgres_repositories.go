package repositories

import (
	"context"
	"errors"
	"fmt"
	"golang-storefront-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, id).Error
}

// Cart Repository
type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	// Insert-if-absent keyed on user_id, then re-read the winning row so
	// concurrent first accesses all observe the same cart.
	cart := &models.Cart{UserID: userID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(cart).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	var out models.Cart
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &out, nil
}

func (r *cartRepository) LoadLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart lines: %w", err)
	}
	return lines, nil
}

func (r *cartRepository) GetLineQuantity(ctx context.Context, cartID uuid.UUID, productID string) (int, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get cart line: %w", err)
	}
	return line.Quantity, nil
}

func (r *cartRepository) UpsertLine(ctx context.Context, cartID uuid.UUID, productID string, quantity int) error {
	if quantity == 0 {
		return r.DeleteLine(ctx, cartID, productID)
	}

	line := &models.CartLine{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"quantity": quantity}),
		}).
		Create(line).Error
	if err != nil {
		return fmt.Errorf("failed to upsert cart line: %w", err)
	}
	return nil
}

func (r *cartRepository) CompareAndSwapLine(ctx context.Context, cartID uuid.UUID, productID string, expected, quantity int) (bool, error) {
	switch {
	case expected == 0 && quantity == 0:
		return true, nil

	case expected == 0:
		// Line must not exist yet: conditional insert, losers of the race
		// hit the unique index and affect zero rows.
		line := &models.CartLine{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  quantity,
		}
		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
				DoNothing: true,
			}).
			Create(line)
		if result.Error != nil {
			return false, fmt.Errorf("failed to insert cart line: %w", result.Error)
		}
		return result.RowsAffected == 1, nil

	case quantity == 0:
		// Conditional delete: only removes the line in the state we read.
		result := r.db.WithContext(ctx).
			Where("cart_id = ? AND product_id = ? AND quantity = ?", cartID, productID, expected).
			Delete(&models.CartLine{})
		if result.Error != nil {
			return false, fmt.Errorf("failed to delete cart line: %w", result.Error)
		}
		return result.RowsAffected == 1, nil

	default:
		result := r.db.WithContext(ctx).
			Model(&models.CartLine{}).
			Where("cart_id = ? AND product_id = ? AND quantity = ?", cartID, productID, expected).
			Update("quantity", quantity)
		if result.Error != nil {
			return false, fmt.Errorf("failed to update cart line: %w", result.Error)
		}
		return result.RowsAffected == 1, nil
	}
}

func (r *cartRepository) DeleteLine(ctx context.Context, cartID uuid.UUID, productID string) error {
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartLine{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return nil
}
