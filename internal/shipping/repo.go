package shipping

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
)

// AddressRepository exposes persistence operations for the address book.
type AddressRepository interface {
	WithTx(tx *gorm.DB) AddressRepository
	Create(ctx context.Context, address *models.ShippingAddress) (*models.ShippingAddress, error)
	Update(ctx context.Context, address *models.ShippingAddress) (*models.ShippingAddress, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingAddress, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error)
	ClearDefault(ctx context.Context, userID uuid.UUID) error
}

// Repository persists shipping addresses and fees.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) AddressRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, address *models.ShippingAddress) (*models.ShippingAddress, error) {
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return nil, err
	}
	return address, nil
}

func (r *Repository) Update(ctx context.Context, address *models.ShippingAddress) (*models.ShippingAddress, error) {
	if err := r.db.WithContext(ctx).Save(address).Error; err != nil {
		return nil, err
	}
	return address, nil
}

func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&models.ShippingAddress{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingAddress, error) {
	var address models.ShippingAddress
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error) {
	var rows []models.ShippingAddress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ClearDefault unsets is_default on every address of the user.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ShippingAddress{}).
		Where("user_id = ? AND is_default", userID).
		UpdateColumn("is_default", false).Error
}

// FeeRepository persists the per-kind shipping fee table.
type FeeRepository struct {
	db *gorm.DB
}

func NewFeeRepository(db *gorm.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// FindByKind returns the fee row for the kind, or gorm.ErrRecordNotFound.
func (r *FeeRepository) FindByKind(ctx context.Context, kind enums.ShippingFeeKind) (*models.ShippingFee, error) {
	var fee models.ShippingFee
	if err := r.db.WithContext(ctx).First(&fee, "kind = ?", kind).Error; err != nil {
		return nil, err
	}
	return &fee, nil
}

// Upsert writes the fee row for the kind, inserting or updating in place.
func (r *FeeRepository) Upsert(ctx context.Context, fee *models.ShippingFee) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount_cents", "updated_at"}),
		}).
		Create(fee).Error
}

// List returns every fee row.
func (r *FeeRepository) List(ctx context.Context) ([]models.ShippingFee, error) {
	var rows []models.ShippingFee
	if err := r.db.WithContext(ctx).Order("kind ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
