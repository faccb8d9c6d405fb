package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
	"github.com/velora-labs/velora-backend/pkg/types"
)

type stubProductRepo struct {
	products map[uuid.UUID]*models.Product
	removed  []uuid.UUID
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: map[uuid.UUID]*models.Product{}}
}

func (s *stubProductRepo) Create(_ context.Context, product *models.Product) (*models.Product, error) {
	product.ID = uuid.New()
	product.CreatedAt = time.Now().UTC()
	for i := range product.Variations {
		product.Variations[i].ID = uuid.New()
		product.Variations[i].ProductID = product.ID
	}
	s.products[product.ID] = product
	return product, nil
}

func (s *stubProductRepo) Update(_ context.Context, product *models.Product) (*models.Product, error) {
	s.products[product.ID] = product
	return product, nil
}

func (s *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.products, id)
	return nil
}

func (s *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubProductRepo) FindBySlug(_ context.Context, slug string) (*models.Product, error) {
	for _, product := range s.products {
		if product.Slug == slug {
			return product, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) List(_ context.Context, filter ListFilter) ([]models.Product, error) {
	var out []models.Product
	for _, product := range s.products {
		if filter.Status != nil && product.Status != *filter.Status {
			continue
		}
		out = append(out, *product)
	}
	return out, nil
}

func (s *stubProductRepo) ReplaceVariations(_ context.Context, productID uuid.UUID, variations []models.ProductVariation) error {
	product, ok := s.products[productID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range variations {
		variations[i].ID = uuid.New()
		variations[i].ProductID = productID
	}
	product.Variations = variations
	return nil
}

func (s *stubProductRepo) AddImage(_ context.Context, image *models.ProductImage) error {
	image.ID = uuid.New()
	product := s.products[image.ProductID]
	product.Images = append(product.Images, *image)
	return nil
}

func (s *stubProductRepo) DeleteImage(_ context.Context, productID, imageID uuid.UUID) (*models.ProductImage, error) {
	product, ok := s.products[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for i, image := range product.Images {
		if image.ID == imageID {
			product.Images = append(product.Images[:i], product.Images[i+1:]...)
			return &image, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubCategoryLoader struct {
	categories map[string]*models.Category
}

func (s *stubCategoryLoader) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	category, ok := s.categories[slug]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return category, nil
}

type stubMediaRemover struct {
	removed []string
}

func (s *stubMediaRemover) Remove(publicURL string) error {
	s.removed = append(s.removed, publicURL)
	return nil
}

func newTestCatalog(t *testing.T) (Service, *stubProductRepo, *stubMediaRemover) {
	t.Helper()
	repo := newStubProductRepo()
	media := &stubMediaRemover{}
	svc, err := NewService(repo, &stubCategoryLoader{categories: map[string]*models.Category{}}, media)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, media
}

func TestCreateNormalizesSlugAndSKU(t *testing.T) {
	svc, _, _ := newTestCatalog(t)

	product, err := svc.Create(context.Background(), CreateProductRequest{
		Name: "  Organic Green Tea  ",
		Variations: []VariationInput{
			{SKU: " tea-100g ", PriceCents: 1299, Stock: 10, Attributes: types.AttributeBag{"Size": {"100g"}}},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if product.Slug != "organic-green-tea" {
		t.Fatalf("slug = %q, want organic-green-tea", product.Slug)
	}
	if product.Status != enums.ProductStatusDraft {
		t.Fatalf("status = %q, want draft", product.Status)
	}
	if got := product.Variations[0].SKU; got != "TEA-100G" {
		t.Fatalf("sku = %q, want TEA-100G", got)
	}
	if got := product.Variations[0].Attributes.Get("size"); len(got) != 1 || got[0] != "100g" {
		t.Fatalf("attributes not normalized: %v", product.Variations[0].Attributes)
	}
}

func TestCreateRejectsDuplicateSKUs(t *testing.T) {
	svc, _, _ := newTestCatalog(t)

	_, err := svc.Create(context.Background(), CreateProductRequest{
		Name: "Mug",
		Variations: []VariationInput{
			{SKU: "MUG-1", PriceCents: 500},
			{SKU: "mug-1", PriceCents: 600},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsMultipleDefaultVariations(t *testing.T) {
	svc, _, _ := newTestCatalog(t)

	_, err := svc.Create(context.Background(), CreateProductRequest{
		Name: "Mug",
		Variations: []VariationInput{
			{SKU: "MUG-1", PriceCents: 500, IsDefault: true},
			{SKU: "MUG-2", PriceCents: 600, IsDefault: true},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsComparePriceBelowPrice(t *testing.T) {
	svc, _, _ := newTestCatalog(t)

	compare := 400
	_, err := svc.Create(context.Background(), CreateProductRequest{
		Name: "Mug",
		Variations: []VariationInput{
			{SKU: "MUG-1", PriceCents: 500, ComparePriceCents: &compare},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListHidesNonActiveByDefault(t *testing.T) {
	svc, repo, _ := newTestCatalog(t)

	for _, status := range []enums.ProductStatus{enums.ProductStatusActive, enums.ProductStatusDraft, enums.ProductStatusInactive} {
		repo.products[uuid.New()] = &models.Product{
			ID:     uuid.New(),
			Name:   "p-" + string(status),
			Slug:   "p-" + string(status),
			Status: status,
		}
	}

	page, err := svc.List(context.Background(), ListRequest{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("public list returned %d items, want 1", len(page.Items))
	}
	if page.Items[0].Status != enums.ProductStatusActive {
		t.Fatalf("public list leaked status %q", page.Items[0].Status)
	}

	all, err := svc.List(context.Background(), ListRequest{IncludeAll: true})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all.Items) != 3 {
		t.Fatalf("admin list returned %d items, want 3", len(all.Items))
	}
}

func TestRemoveImageDeletesStoredFile(t *testing.T) {
	svc, repo, media := newTestCatalog(t)

	product, err := svc.Create(context.Background(), CreateProductRequest{
		Name:       "Mug",
		Variations: []VariationInput{{SKU: "MUG-1", PriceCents: 500}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	image, err := svc.AttachImage(context.Background(), product.ID, "/uploads/products/mug.jpg", nil, 0)
	if err != nil {
		t.Fatalf("AttachImage: %v", err)
	}

	if err := svc.RemoveImage(context.Background(), product.ID, image.ID); err != nil {
		t.Fatalf("RemoveImage: %v", err)
	}
	if len(media.removed) != 1 || media.removed[0] != "/uploads/products/mug.jpg" {
		t.Fatalf("stored file not removed: %v", media.removed)
	}
	if len(repo.products[product.ID].Images) != 0 {
		t.Fatalf("image row still present")
	}
}

func TestUpdateReplacesVariationSet(t *testing.T) {
	svc, repo, _ := newTestCatalog(t)

	product, err := svc.Create(context.Background(), CreateProductRequest{
		Name: "Mug",
		Variations: []VariationInput{
			{SKU: "MUG-1", PriceCents: 500},
			{SKU: "MUG-2", PriceCents: 600},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Update(context.Background(), product.ID, UpdateProductRequest{
		Variations: []VariationInput{{SKU: "MUG-3", PriceCents: 700, IsDefault: true}},
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got := repo.products[product.ID].Variations
	if len(got) != 1 || got[0].SKU != "MUG-3" {
		t.Fatalf("variations not replaced: %+v", got)
	}
}
