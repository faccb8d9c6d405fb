package sliders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/db/models"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
)

type stubSliderStore struct {
	rows map[uuid.UUID]*models.Slider
}

func newStubSliderStore() *stubSliderStore {
	return &stubSliderStore{rows: map[uuid.UUID]*models.Slider{}}
}

func (s *stubSliderStore) Create(_ context.Context, slider *models.Slider) (*models.Slider, error) {
	slider.ID = uuid.New()
	s.rows[slider.ID] = slider
	return slider, nil
}

func (s *stubSliderStore) Update(_ context.Context, slider *models.Slider) (*models.Slider, error) {
	s.rows[slider.ID] = slider
	return slider, nil
}

func (s *stubSliderStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *stubSliderStore) FindByID(_ context.Context, id uuid.UUID) (*models.Slider, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubSliderStore) List(_ context.Context, activeOnly bool) ([]models.Slider, error) {
	var out []models.Slider
	for _, row := range s.rows {
		if activeOnly && !row.IsActive {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func TestCreateDefaultsToActive(t *testing.T) {
	svc, err := NewService(newStubSliderStore())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	slider, err := svc.Create(context.Background(), CreateSliderRequest{
		Title:    "  Summer Sale ",
		ImageURL: "/uploads/sliders/summer.jpg",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !slider.IsActive {
		t.Fatalf("new slider should default to active")
	}
	if slider.Title != "Summer Sale" {
		t.Fatalf("expected trimmed title got %q", slider.Title)
	}
}

func TestUpdateTouchesOnlyProvidedFields(t *testing.T) {
	store := newStubSliderStore()
	svc, _ := NewService(store)

	created, err := svc.Create(context.Background(), CreateSliderRequest{
		Title:    "Launch",
		ImageURL: "/uploads/sliders/launch.jpg",
		Position: 2,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	inactive := false
	updated, err := svc.Update(context.Background(), created.ID, UpdateSliderRequest{IsActive: &inactive})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.IsActive {
		t.Fatalf("expected slider deactivated")
	}
	if updated.Title != "Launch" || updated.Position != 2 {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestListPublicHidesInactive(t *testing.T) {
	store := newStubSliderStore()
	svc, _ := NewService(store)

	if _, err := svc.Create(context.Background(), CreateSliderRequest{Title: "Visible", ImageURL: "/a.jpg"}); err != nil {
		t.Fatalf("create visible: %v", err)
	}
	hidden := false
	if _, err := svc.Create(context.Background(), CreateSliderRequest{Title: "Hidden", ImageURL: "/b.jpg", IsActive: &hidden}); err != nil {
		t.Fatalf("create hidden: %v", err)
	}

	public, err := svc.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(public) != 1 || public[0].Title != "Visible" {
		t.Fatalf("expected only the active slide, got %+v", public)
	}

	all, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both slides for admin, got %d", len(all))
	}
}

func TestUpdateMissingSlider(t *testing.T) {
	svc, _ := NewService(newStubSliderStore())

	title := "Ghost"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateSliderRequest{Title: &title})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestDeleteMissingSlider(t *testing.T) {
	svc, _ := NewService(newStubSliderStore())

	err := svc.Delete(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}
