package seo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/db/models"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
)

type stubMetadataStore struct {
	byPath map[string]*models.SEOMetadata
}

func newStubMetadataStore() *stubMetadataStore {
	return &stubMetadataStore{byPath: map[string]*models.SEOMetadata{}}
}

func (s *stubMetadataStore) Save(_ context.Context, row *models.SEOMetadata) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	s.byPath[row.Path] = row
	return nil
}

func (s *stubMetadataStore) Delete(_ context.Context, id uuid.UUID) error {
	for path, row := range s.byPath {
		if row.ID == id {
			delete(s.byPath, path)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubMetadataStore) FindByPath(_ context.Context, path string) (*models.SEOMetadata, error) {
	row, ok := s.byPath[path]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubMetadataStore) List(_ context.Context) ([]models.SEOMetadata, error) {
	out := make([]models.SEOMetadata, 0, len(s.byPath))
	for _, row := range s.byPath {
		out = append(out, *row)
	}
	return out, nil
}

func TestUpsertNormalizesPath(t *testing.T) {
	store := newStubMetadataStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	row, err := svc.Upsert(context.Background(), UpsertRequest{
		Path:  "Products/Shoes/",
		Title: "Shoes",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if row.Path != "/products/shoes" {
		t.Fatalf("expected normalized path /products/shoes got %q", row.Path)
	}

	found, err := svc.Lookup(context.Background(), "/Products/Shoes")
	if err != nil {
		t.Fatalf("Lookup after upsert: %v", err)
	}
	if found.Title != "Shoes" {
		t.Fatalf("expected stored title got %q", found.Title)
	}
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	store := newStubMetadataStore()
	svc, _ := NewService(store)

	first, err := svc.Upsert(context.Background(), UpsertRequest{Path: "/home", Title: "Home"})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := svc.Upsert(context.Background(), UpsertRequest{Path: "/home", Title: "Homepage"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert should keep the existing row id")
	}
	if second.Title != "Homepage" {
		t.Fatalf("expected replaced title got %q", second.Title)
	}
	if len(store.byPath) != 1 {
		t.Fatalf("expected one row got %d", len(store.byPath))
	}
}

func TestUpsertRejectsEmptyPath(t *testing.T) {
	svc, _ := NewService(newStubMetadataStore())

	_, err := svc.Upsert(context.Background(), UpsertRequest{Path: "   ", Title: "Blank"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestLookupMissingPath(t *testing.T) {
	svc, _ := NewService(newStubMetadataStore())

	_, err := svc.Lookup(context.Background(), "/nowhere")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestDeleteMissingRow(t *testing.T) {
	svc, _ := NewService(newStubMetadataStore())

	err := svc.Delete(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}
