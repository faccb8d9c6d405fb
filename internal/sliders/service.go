package sliders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/db/models"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
)

// CreateSliderRequest is the admin payload for a new banner slide.
type CreateSliderRequest struct {
	Title    string  `json:"title" validate:"required,max=200"`
	ImageURL string  `json:"image_url" validate:"required,max=500"`
	LinkURL  *string `json:"link_url" validate:"omitempty,max=500"`
	Position int     `json:"position" validate:"gte=0"`
	IsActive *bool   `json:"is_active"`
}

// UpdateSliderRequest mirrors the create payload; nil fields are untouched.
type UpdateSliderRequest struct {
	Title    *string `json:"title" validate:"omitempty,max=200"`
	ImageURL *string `json:"image_url" validate:"omitempty,max=500"`
	LinkURL  *string `json:"link_url" validate:"omitempty,max=500"`
	Position *int    `json:"position" validate:"omitempty,gte=0"`
	IsActive *bool   `json:"is_active"`
}

// Repository persists homepage sliders.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, slider *models.Slider) (*models.Slider, error) {
	if err := r.db.WithContext(ctx).Create(slider).Error; err != nil {
		return nil, err
	}
	return slider, nil
}

func (r *Repository) Update(ctx context.Context, slider *models.Slider) (*models.Slider, error) {
	if err := r.db.WithContext(ctx).Save(slider).Error; err != nil {
		return nil, err
	}
	return slider, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Slider{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Slider, error) {
	var slider models.Slider
	if err := r.db.WithContext(ctx).First(&slider, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slider, nil
}

// List returns slides ordered for display; activeOnly hides disabled ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Slider, error) {
	query := r.db.WithContext(ctx).Order("position ASC, created_at ASC")
	if activeOnly {
		query = query.Where("is_active")
	}
	var rows []models.Slider
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type sliderStore interface {
	Create(ctx context.Context, slider *models.Slider) (*models.Slider, error)
	Update(ctx context.Context, slider *models.Slider) (*models.Slider, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Slider, error)
	List(ctx context.Context, activeOnly bool) ([]models.Slider, error)
}

// Service manages homepage banner slides.
type Service struct {
	repo sliderStore
}

func NewService(repo sliderStore) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("slider repository required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) Create(ctx context.Context, req CreateSliderRequest) (*models.Slider, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	slider := &models.Slider{
		Title:    strings.TrimSpace(req.Title),
		ImageURL: req.ImageURL,
		LinkURL:  req.LinkURL,
		Position: req.Position,
		IsActive: active,
	}
	created, err := s.repo.Create(ctx, slider)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create slider")
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateSliderRequest) (*models.Slider, error) {
	slider, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		slider.Title = strings.TrimSpace(*req.Title)
	}
	if req.ImageURL != nil {
		slider.ImageURL = *req.ImageURL
	}
	if req.LinkURL != nil {
		slider.LinkURL = req.LinkURL
	}
	if req.Position != nil {
		slider.Position = *req.Position
	}
	if req.IsActive != nil {
		slider.IsActive = *req.IsActive
	}

	updated, err := s.repo.Update(ctx, slider)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update slider")
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "slider not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete slider")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Slider, error) {
	slider, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "slider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load slider")
	}
	return slider, nil
}

// ListPublic returns only active slides in display order.
func (s *Service) ListPublic(ctx context.Context) ([]models.Slider, error) {
	rows, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sliders")
	}
	return rows, nil
}

// ListAll returns every slide for the admin panel.
func (s *Service) ListAll(ctx context.Context) ([]models.Slider, error) {
	rows, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sliders")
	}
	return rows, nil
}
