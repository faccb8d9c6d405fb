package products

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/db"
	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
	"github.com/velora-labs/velora-backend/pkg/pagination"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

type productRepository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	ReplaceVariations(ctx context.Context, productID uuid.UUID, variations []models.ProductVariation) error
	AddImage(ctx context.Context, image *models.ProductImage) error
	DeleteImage(ctx context.Context, productID, imageID uuid.UUID) (*models.ProductImage, error)
}

type categoryLoader interface {
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
}

type mediaRemover interface {
	Remove(publicURL string) error
}

// ListResult is one page of the catalog.
type ListResult struct {
	Items      []models.Product `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// Service exposes catalog operations for controllers.
type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, req ListRequest) (*ListResult, error)
	AttachImage(ctx context.Context, productID uuid.UUID, filePath string, altText *string, position int) (*models.ProductImage, error)
	RemoveImage(ctx context.Context, productID, imageID uuid.UUID) error
}

type service struct {
	repo       productRepository
	categories categoryLoader
	media      mediaRemover
}

// NewService constructs a catalog service.
func NewService(repo productRepository, categories categoryLoader, media mediaRemover) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category loader is required")
	}
	return &service{repo: repo, categories: categories, media: media}, nil
}

func (s *service) Create(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	status := enums.ProductStatusDraft
	if req.Status != "" {
		parsed, err := enums.ParseProductStatus(req.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
		}
		status = parsed
	}

	variations, err := buildVariations(req.Variations)
	if err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		slug = req.Name
	}

	product := &models.Product{
		CategoryID:  req.CategoryID,
		Name:        strings.TrimSpace(req.Name),
		Slug:        Slugify(slug),
		Description: req.Description,
		Status:      status,
		Badge:       req.Badge,
		Variations:  variations,
	}
	if req.SEO != nil {
		product.SEO = &models.ProductSEO{
			MetaTitle:       req.SEO.MetaTitle,
			MetaDescription: req.SEO.MetaDescription,
			MetaKeywords:    req.SEO.MetaKeywords,
			OGImage:         req.SEO.OGImage,
		}
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug or sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		product.Slug = Slugify(*req.Slug)
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.Status != nil {
		parsed, err := enums.ParseProductStatus(*req.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
		}
		product.Status = parsed
	}
	if req.Badge != nil {
		product.Badge = req.Badge
	}
	if req.SEO != nil {
		if product.SEO == nil {
			product.SEO = &models.ProductSEO{ProductID: product.ID}
		}
		product.SEO.MetaTitle = req.SEO.MetaTitle
		product.SEO.MetaDescription = req.SEO.MetaDescription
		product.SEO.MetaKeywords = req.SEO.MetaKeywords
		product.SEO.OGImage = req.SEO.OGImage
	}

	if req.Variations != nil {
		variations, err := buildVariations(req.Variations)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceVariations(ctx, product.ID, variations); err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace variations")
		}
		product.Variations = nil
	}

	if _, err := s.repo.Update(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	filter := ListFilter{Search: req.Search}

	if !req.IncludeAll {
		status := enums.ProductStatusActive
		filter.Status = &status
	}

	if req.CategorySlug != "" {
		category, err := s.categories.FindBySlug(ctx, req.CategorySlug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		filter.CategoryID = &category.ID
	}

	cursor, err := pagination.ParseCursor(req.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter.Cursor = cursor

	limit := pagination.NormalizeLimit(req.Limit)
	filter.Limit = limit + 1

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	result := &ListResult{Items: rows}
	if len(rows) > limit {
		result.Items = rows[:limit]
		last := result.Items[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return result, nil
}

func (s *service) AttachImage(ctx context.Context, productID uuid.UUID, filePath string, altText *string, position int) (*models.ProductImage, error) {
	if _, err := s.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(filePath) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file path is required")
	}

	image := &models.ProductImage{
		ProductID: productID,
		FilePath:  filePath,
		AltText:   altText,
		Position:  position,
	}
	if err := s.repo.AddImage(ctx, image); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach image")
	}
	return image, nil
}

func (s *service) RemoveImage(ctx context.Context, productID, imageID uuid.UUID) error {
	image, err := s.repo.DeleteImage(ctx, productID, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image")
	}
	if s.media != nil {
		if err := s.media.Remove(image.FilePath); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove image file")
		}
	}
	return nil
}

// Slugify lowers and dash-joins a name for use as a URL slug.
func Slugify(value string) string {
	slug := strings.ToLower(strings.TrimSpace(value))
	slug = slugRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func buildVariations(inputs []VariationInput) ([]models.ProductVariation, error) {
	seen := map[string]struct{}{}
	defaults := 0
	variations := make([]models.ProductVariation, 0, len(inputs))

	for _, input := range inputs {
		sku := strings.ToUpper(strings.TrimSpace(input.SKU))
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variation sku is required")
		}
		if _, dup := seen[sku]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate variation sku "+sku)
		}
		seen[sku] = struct{}{}

		if input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variation price must be positive")
		}
		if input.ComparePriceCents != nil && *input.ComparePriceCents <= input.PriceCents {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "compare price must exceed price")
		}
		if input.IsDefault {
			defaults++
		}

		attrs := input.Attributes.Normalize()
		if err := attrs.Validate(nil); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid attributes")
		}

		variations = append(variations, models.ProductVariation{
			SKU:               sku,
			PriceCents:        input.PriceCents,
			ComparePriceCents: input.ComparePriceCents,
			Stock:             input.Stock,
			Attributes:        attrs,
			WeightGrams:       input.WeightGrams,
			Dimensions:        input.Dimensions,
			IsDefault:         input.IsDefault,
		})
	}

	if defaults > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at most one variation may be the default")
	}
	return variations, nil
}
