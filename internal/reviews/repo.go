package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
)

// Aggregates is the approved-review rollup for one product.
type Aggregates struct {
	AvgRating   float64
	ReviewCount int
	HasVideo    bool
}

// ReviewRepository exposes persistence for reviews.
type ReviewRepository interface {
	WithTx(tx *gorm.DB) ReviewRepository
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) (*models.Review, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, status enums.ReviewStatus) ([]models.Review, error)
	ListByStatus(ctx context.Context, status enums.ReviewStatus) ([]models.Review, error)
	AddImage(ctx context.Context, image *models.ReviewImage) error
	AggregatesForProduct(ctx context.Context, productID uuid.UUID) (*Aggregates, error)
	ClearFeatured(ctx context.Context, productID uuid.UUID) error
	HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

// Repository persists reviews.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ReviewRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *Repository) Update(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Omit("Images").Save(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Preload("Images").
		First(&review, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, status enums.ReviewStatus) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Preload("Images").
		Where("product_id = ? AND status = ?", productID, status).
		Order("is_featured DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListByStatus(ctx context.Context, status enums.ReviewStatus) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Preload("Images").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) AddImage(ctx context.Context, image *models.ReviewImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// AggregatesForProduct rolls up approved reviews only.
func (r *Repository) AggregatesForProduct(ctx context.Context, productID uuid.UUID) (*Aggregates, error) {
	var row struct {
		AvgRating   float64
		ReviewCount int
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS review_count").
		Where("product_id = ? AND status = ?", productID, enums.ReviewStatusApproved).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	var videoCount int64
	err = r.db.WithContext(ctx).
		Model(&models.ReviewImage{}).
		Joins("JOIN reviews ON reviews.id = review_images.review_id").
		Where("reviews.product_id = ? AND reviews.status = ? AND review_images.is_video", productID, enums.ReviewStatusApproved).
		Count(&videoCount).Error
	if err != nil {
		return nil, err
	}

	return &Aggregates{
		AvgRating:   row.AvgRating,
		ReviewCount: row.ReviewCount,
		HasVideo:    videoCount > 0,
	}, nil
}

// ClearFeatured unsets the featured flag on every review of the product.
func (r *Repository) ClearFeatured(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND is_featured", productID).
		UpdateColumn("is_featured", false).Error
}

// HasPurchased reports whether the user has a non-cancelled order containing
// the product.
func (r *Repository) HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ? AND orders.status <> ?",
			userID, productID, enums.OrderStatusCancelled).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
