package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	"github.com/velora-labs/velora-backend/pkg/pagination"
)

// Repository exposes persistence operations for the product catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a product repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListFilter narrows the catalog listing.
type ListFilter struct {
	CategoryID *uuid.UUID
	Status     *enums.ProductStatus
	Search     string
	Cursor     *pagination.Cursor
	Limit      int
}

// Create inserts a product with its associations.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update saves the product row and its supplied associations.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes the product; variations, images and SEO cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// FindByID loads a product with all associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.preloaded(ctx).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads a product by its public slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.preloaded(ctx).
		Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns a page of products newest-first, filtered.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	q := r.preloaded(ctx)

	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(slug) LIKE ?", like, like)
	}
	if filter.Cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = pagination.LimitWithBuffer(0)
	}

	var rows []models.Product
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindVariation loads one variation scoped to its product.
func (r *Repository) FindVariation(ctx context.Context, productID, variationID uuid.UUID) (*models.ProductVariation, error) {
	var variation models.ProductVariation
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variationID, productID).
		First(&variation).Error
	if err != nil {
		return nil, err
	}
	return &variation, nil
}

// ListVariations returns all variations of a product.
func (r *Repository) ListVariations(ctx context.Context, productID uuid.UUID) ([]models.ProductVariation, error) {
	var rows []models.ProductVariation
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sku ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReplaceVariations swaps the product's variation set.
func (r *Repository) ReplaceVariations(ctx context.Context, productID uuid.UUID, variations []models.ProductVariation) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductVariation{}).Error; err != nil {
		return err
	}
	if len(variations) == 0 {
		return nil
	}
	for i := range variations {
		variations[i].ProductID = productID
	}
	return tx.Create(&variations).Error
}

// AddImage attaches a stored media file to the product.
func (r *Repository) AddImage(ctx context.Context, image *models.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// DeleteImage removes one product image row.
func (r *Repository) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) (*models.ProductImage, error) {
	var image models.ProductImage
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", imageID, productID).
		First(&image).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

// UpdateAggregates writes the denormalized review stats for a product.
// A non-nil tx joins the caller's transaction.
func (r *Repository) UpdateAggregates(ctx context.Context, tx *gorm.DB, productID uuid.UUID, avgRating float64, reviewCount int, hasVideo bool) error {
	return r.WithTx(tx).db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"avg_rating":        avgRating,
			"review_count":      reviewCount,
			"has_video_reviews": hasVideo,
		}).Error
}

func (r *Repository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Variations", func(db *gorm.DB) *gorm.DB { return db.Order("sku ASC") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("SEO")
}
