package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
)

type stubReviewRepo struct {
	reviews   map[uuid.UUID]*models.Review
	purchased map[uuid.UUID]bool // by user id
}

func newStubReviewRepo() *stubReviewRepo {
	return &stubReviewRepo{
		reviews:   map[uuid.UUID]*models.Review{},
		purchased: map[uuid.UUID]bool{},
	}
}

func (s *stubReviewRepo) WithTx(_ *gorm.DB) ReviewRepository { return s }

func (s *stubReviewRepo) Create(_ context.Context, review *models.Review) (*models.Review, error) {
	review.ID = uuid.New()
	s.reviews[review.ID] = review
	return review, nil
}

func (s *stubReviewRepo) Update(_ context.Context, review *models.Review) (*models.Review, error) {
	s.reviews[review.ID] = review
	return review, nil
}

func (s *stubReviewRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Review, error) {
	review, ok := s.reviews[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return review, nil
}

func (s *stubReviewRepo) ListByProduct(_ context.Context, productID uuid.UUID, status enums.ReviewStatus) ([]models.Review, error) {
	var out []models.Review
	for _, review := range s.reviews {
		if review.ProductID == productID && review.Status == status {
			out = append(out, *review)
		}
	}
	return out, nil
}

func (s *stubReviewRepo) ListByStatus(_ context.Context, status enums.ReviewStatus) ([]models.Review, error) {
	var out []models.Review
	for _, review := range s.reviews {
		if review.Status == status {
			out = append(out, *review)
		}
	}
	return out, nil
}

func (s *stubReviewRepo) AddImage(_ context.Context, image *models.ReviewImage) error {
	review, ok := s.reviews[image.ReviewID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	image.ID = uuid.New()
	review.Images = append(review.Images, *image)
	return nil
}

func (s *stubReviewRepo) AggregatesForProduct(_ context.Context, productID uuid.UUID) (*Aggregates, error) {
	aggregates := &Aggregates{}
	sum := 0
	for _, review := range s.reviews {
		if review.ProductID != productID || review.Status != enums.ReviewStatusApproved {
			continue
		}
		aggregates.ReviewCount++
		sum += review.Rating
		for _, image := range review.Images {
			if image.IsVideo {
				aggregates.HasVideo = true
			}
		}
	}
	if aggregates.ReviewCount > 0 {
		aggregates.AvgRating = float64(sum) / float64(aggregates.ReviewCount)
	}
	return aggregates, nil
}

func (s *stubReviewRepo) ClearFeatured(_ context.Context, productID uuid.UUID) error {
	for _, review := range s.reviews {
		if review.ProductID == productID {
			review.IsFeatured = false
		}
	}
	return nil
}

func (s *stubReviewRepo) HasPurchased(_ context.Context, userID, _ uuid.UUID) (bool, error) {
	return s.purchased[userID], nil
}

type stubAggregateWriter struct {
	productID uuid.UUID
	tx        *gorm.DB
	avg       float64
	count     int
	hasVideo  bool
	calls     int
}

func (s *stubAggregateWriter) UpdateAggregates(_ context.Context, tx *gorm.DB, productID uuid.UUID, avg float64, count int, hasVideo bool) error {
	s.productID = productID
	s.tx = tx
	s.avg = avg
	s.count = count
	s.hasVideo = hasVideo
	s.calls++
	return nil
}

type stubReviewTx struct {
	tx *gorm.DB
}

func (s stubReviewTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(s.tx) }

func newTestReviews(t *testing.T) (Service, *stubReviewRepo, *stubAggregateWriter) {
	t.Helper()
	repo := newStubReviewRepo()
	writer := &stubAggregateWriter{}
	svc, err := NewService(repo, stubReviewTx{}, writer)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, writer
}

func TestCreateStartsPendingWithVerifiedPurchase(t *testing.T) {
	svc, repo, _ := newTestReviews(t)
	userID := uuid.New()
	repo.purchased[userID] = true

	review, err := svc.Create(context.Background(), &userID, CreateReviewRequest{
		ProductID: uuid.New(),
		Rating:    5,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if review.Status != enums.ReviewStatusPending {
		t.Fatalf("status = %q, want pending", review.Status)
	}
	if !review.VerifiedPurchase {
		t.Fatalf("buyer's review should be verified")
	}
}

func TestGuestReviewRequiresNameAndEmail(t *testing.T) {
	svc, _, _ := newTestReviews(t)

	_, err := svc.Create(context.Background(), nil, CreateReviewRequest{
		ProductID: uuid.New(),
		Rating:    4,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	name, email := "Guest", "guest@example.com"
	review, err := svc.Create(context.Background(), nil, CreateReviewRequest{
		ProductID:  uuid.New(),
		Rating:     4,
		GuestName:  &name,
		GuestEmail: &email,
	})
	if err != nil {
		t.Fatalf("guest create: %v", err)
	}
	if review.VerifiedPurchase {
		t.Fatalf("guest review cannot be verified")
	}
}

func TestApprovalRecomputesAggregates(t *testing.T) {
	svc, _, writer := newTestReviews(t)
	productID := uuid.New()

	name, email := "Guest", "guest@example.com"
	first, err := svc.Create(context.Background(), nil, CreateReviewRequest{
		ProductID: productID, Rating: 5, GuestName: &name, GuestEmail: &email,
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(context.Background(), nil, CreateReviewRequest{
		ProductID: productID, Rating: 3, GuestName: &name, GuestEmail: &email,
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if _, err := svc.Moderate(context.Background(), first.ID, ModerateRequest{Status: "approved"}); err != nil {
		t.Fatalf("approve first: %v", err)
	}
	if writer.count != 1 || writer.avg != 5 {
		t.Fatalf("after first approval: count=%d avg=%v", writer.count, writer.avg)
	}

	if _, err := svc.Moderate(context.Background(), second.ID, ModerateRequest{Status: "approved"}); err != nil {
		t.Fatalf("approve second: %v", err)
	}
	if writer.count != 2 || writer.avg != 4 {
		t.Fatalf("after second approval: count=%d avg=%v", writer.count, writer.avg)
	}

	// un-approving drops the review from the rollup
	if _, err := svc.Moderate(context.Background(), second.ID, ModerateRequest{Status: "rejected"}); err != nil {
		t.Fatalf("reject second: %v", err)
	}
	if writer.count != 1 || writer.avg != 5 {
		t.Fatalf("after rejection: count=%d avg=%v", writer.count, writer.avg)
	}
}

func TestAggregateWriteJoinsModerationTx(t *testing.T) {
	repo := newStubReviewRepo()
	writer := &stubAggregateWriter{}
	moderationTx := &gorm.DB{}
	svc, err := NewService(repo, stubReviewTx{tx: moderationTx}, writer)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	name, email := "Guest", "guest@example.com"
	review, err := svc.Create(context.Background(), nil, CreateReviewRequest{
		ProductID: uuid.New(), Rating: 4, GuestName: &name, GuestEmail: &email,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Moderate(context.Background(), review.ID, ModerateRequest{Status: "approved"}); err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if writer.calls != 1 {
		t.Fatalf("expected one aggregate write, got %d", writer.calls)
	}
	if writer.tx != moderationTx {
		t.Fatalf("aggregate write must join the moderation transaction")
	}
}

func TestRejectionBetweenNonApprovedSkipsRecompute(t *testing.T) {
	svc, _, writer := newTestReviews(t)

	name, email := "Guest", "guest@example.com"
	review, err := svc.Create(context.Background(), nil, CreateReviewRequest{
		ProductID: uuid.New(), Rating: 2, GuestName: &name, GuestEmail: &email,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Moderate(context.Background(), review.ID, ModerateRequest{Status: "rejected"}); err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if writer.calls != 0 {
		t.Fatalf("pending->rejected must not touch aggregates")
	}
}

func TestVideoImageFlipsHasVideoFlag(t *testing.T) {
	svc, _, writer := newTestReviews(t)
	productID := uuid.New()

	name, email := "Guest", "guest@example.com"
	review, err := svc.Create(context.Background(), nil, CreateReviewRequest{
		ProductID: productID, Rating: 5, GuestName: &name, GuestEmail: &email,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Moderate(context.Background(), review.ID, ModerateRequest{Status: "approved"}); err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if writer.hasVideo {
		t.Fatalf("no video yet")
	}

	if _, err := svc.AttachImage(context.Background(), review.ID, "/uploads/reviews/clip.mp4", true); err != nil {
		t.Fatalf("AttachImage: %v", err)
	}
	if !writer.hasVideo {
		t.Fatalf("video attachment should set has_video_reviews")
	}
}

func TestSetFeaturedKeepsSingleSlot(t *testing.T) {
	svc, repo, _ := newTestReviews(t)
	productID := uuid.New()

	name, email := "Guest", "guest@example.com"
	var ids []uuid.UUID
	for i := 0; i < 2; i++ {
		review, err := svc.Create(context.Background(), nil, CreateReviewRequest{
			ProductID: productID, Rating: 5, GuestName: &name, GuestEmail: &email,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := svc.Moderate(context.Background(), review.ID, ModerateRequest{Status: "approved"}); err != nil {
			t.Fatalf("Moderate: %v", err)
		}
		ids = append(ids, review.ID)
	}

	if _, err := svc.SetFeatured(context.Background(), ids[0], true); err != nil {
		t.Fatalf("feature first: %v", err)
	}
	if _, err := svc.SetFeatured(context.Background(), ids[1], true); err != nil {
		t.Fatalf("feature second: %v", err)
	}

	featured := 0
	for _, review := range repo.reviews {
		if review.IsFeatured {
			featured++
			if review.ID != ids[1] {
				t.Fatalf("wrong review featured")
			}
		}
	}
	if featured != 1 {
		t.Fatalf("found %d featured reviews, want 1", featured)
	}
}

func TestPendingReviewCannotBeFeatured(t *testing.T) {
	svc, _, _ := newTestReviews(t)

	name, email := "Guest", "guest@example.com"
	review, err := svc.Create(context.Background(), nil, CreateReviewRequest{
		ProductID: uuid.New(), Rating: 5, GuestName: &name, GuestEmail: &email,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.SetFeatured(context.Background(), review.ID, true)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}
