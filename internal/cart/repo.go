package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velora-labs/velora-backend/pkg/db"
	"github.com/velora-labs/velora-backend/pkg/db/models"
)

// CartRepository exposes persistence operations for carts and their lines.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindOrCreateByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	LockByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindLine(ctx context.Context, cartID, productID uuid.UUID, variationID *uuid.UUID) (*models.CartItem, error)
	CreateLine(ctx context.Context, line *models.CartItem) error
	UpdateLine(ctx context.Context, line *models.CartItem) error
	DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

// Repository persists carts and their lines.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindOrCreateByUser returns the user's cart, creating it lazily.
func (r *Repository) FindOrCreateByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		Preload("Items.Variation").
		First(&cart, "user_id = ?", userID).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{UserID: userID}
	if err := r.db.WithContext(ctx).Create(&cart).Error; err != nil {
		// Two first-ever adds for the same user race on idx_carts_user_id;
		// the loser picks up the winner's row.
		if db.IsUniqueViolation(err, "idx_carts_user_id") {
			var existing models.Cart
			if ferr := r.db.WithContext(ctx).First(&existing, "user_id = ?", userID).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &cart, nil
}

// LockByUser loads the cart row FOR UPDATE so concurrent line mutations
// for the same user serialize. Must run inside a transaction.
func (r *Repository) LockByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&cart, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindLine returns the cart line for (cart, product, variation), or
// gorm.ErrRecordNotFound.
func (r *Repository) FindLine(ctx context.Context, cartID, productID uuid.UUID, variationID *uuid.UUID) (*models.CartItem, error) {
	query := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variationID == nil {
		query = query.Where("variation_id IS NULL")
	} else {
		query = query.Where("variation_id = ?", *variationID)
	}
	var line models.CartItem
	if err := query.First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) CreateLine(ctx context.Context, line *models.CartItem) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *Repository) UpdateLine(ctx context.Context, line *models.CartItem) error {
	return r.db.WithContext(ctx).Save(line).Error
}

func (r *Repository) DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND id = ?", cartID, lineID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Clear removes every line of the cart.
func (r *Repository) Clear(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}
