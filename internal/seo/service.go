package seo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/db"
	"github.com/velora-labs/velora-backend/pkg/db/models"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
)

// UpsertRequest sets the meta tags for one storefront path.
type UpsertRequest struct {
	Path        string  `json:"path" validate:"required,max=200"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Keywords    *string `json:"keywords" validate:"omitempty,max=500"`
	OGImage     *string `json:"og_image" validate:"omitempty,max=500"`
}

// Repository persists path-level SEO metadata.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, row *models.SEOMetadata) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SEOMetadata{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) FindByPath(ctx context.Context, path string) (*models.SEOMetadata, error) {
	var row models.SEOMetadata
	if err := r.db.WithContext(ctx).First(&row, "path = ?", path).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) List(ctx context.Context) ([]models.SEOMetadata, error) {
	var rows []models.SEOMetadata
	if err := r.db.WithContext(ctx).Order("path ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type metadataStore interface {
	Save(ctx context.Context, row *models.SEOMetadata) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByPath(ctx context.Context, path string) (*models.SEOMetadata, error)
	List(ctx context.Context) ([]models.SEOMetadata, error)
}

// Service manages path-level SEO metadata: admin upsert plus the public
// lookup the storefront renders into meta tags.
type Service struct {
	repo metadataStore
}

func NewService(repo metadataStore) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("seo repository required")
	}
	return &Service{repo: repo}, nil
}

// Upsert writes the metadata for a path, replacing an existing row.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (*models.SEOMetadata, error) {
	path := normalizePath(req.Path)
	if path == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "path is required")
	}

	row, err := s.repo.FindByPath(ctx, path)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seo metadata")
		}
		row = &models.SEOMetadata{Path: path}
	}

	row.Title = strings.TrimSpace(req.Title)
	row.Description = req.Description
	row.Keywords = req.Keywords
	row.OGImage = req.OGImage

	if err := s.repo.Save(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "path already configured")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save seo metadata")
	}
	return row, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "seo metadata not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete seo metadata")
	}
	return nil
}

// Lookup resolves the metadata for a storefront path.
func (s *Service) Lookup(ctx context.Context, path string) (*models.SEOMetadata, error) {
	row, err := s.repo.FindByPath(ctx, normalizePath(path))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seo metadata not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seo metadata")
	}
	return row, nil
}

func (s *Service) List(ctx context.Context) ([]models.SEOMetadata, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seo metadata")
	}
	return rows, nil
}

// normalizePath lowercases and forces the leading slash so lookups match
// regardless of how the path was typed.
func normalizePath(path string) string {
	path = strings.TrimSpace(strings.ToLower(path))
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
