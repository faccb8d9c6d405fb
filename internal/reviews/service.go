package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productAggregateWriter interface {
	UpdateAggregates(ctx context.Context, tx *gorm.DB, productID uuid.UUID, avgRating float64, reviewCount int, hasVideo bool) error
}

// CreateReviewRequest is the payload for a new review. Guest fields are
// required when no authenticated user submits it.
type CreateReviewRequest struct {
	ProductID  uuid.UUID `json:"product_id" validate:"required"`
	Rating     int       `json:"rating" validate:"required,gte=1,lte=5"`
	Title      *string   `json:"title" validate:"omitempty,max=200"`
	Body       *string   `json:"body" validate:"omitempty,max=5000"`
	GuestName  *string   `json:"guest_name" validate:"omitempty,max=100"`
	GuestEmail *string   `json:"guest_email" validate:"omitempty,email"`
}

// ModerateRequest moves a review through the moderation states.
type ModerateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// Service exposes review operations for controllers.
type Service interface {
	Create(ctx context.Context, userID *uuid.UUID, req CreateReviewRequest) (*models.Review, error)
	AttachImage(ctx context.Context, reviewID uuid.UUID, filePath string, isVideo bool) (*models.ReviewImage, error)
	ListApproved(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
	ListPending(ctx context.Context) ([]models.Review, error)
	Moderate(ctx context.Context, reviewID uuid.UUID, req ModerateRequest) (*models.Review, error)
	SetFeatured(ctx context.Context, reviewID uuid.UUID, featured bool) (*models.Review, error)
}

type service struct {
	repo     ReviewRepository
	tx       txRunner
	products productAggregateWriter
}

// NewService builds a review service backed by the provided stack.
func NewService(repo ReviewRepository, tx txRunner, products productAggregateWriter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product aggregate writer required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// Create stores the review in pending state. Authenticated submitters get
// the verified-purchase flag when a non-cancelled order contains the
// product; guests must leave a name and email.
func (s *service) Create(ctx context.Context, userID *uuid.UUID, req CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	review := &models.Review{
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Title:     req.Title,
		Body:      req.Body,
		Status:    enums.ReviewStatusPending,
	}

	if userID != nil && *userID != uuid.Nil {
		review.UserID = userID
		purchased, err := s.repo.HasPurchased(ctx, *userID, req.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase history")
		}
		review.VerifiedPurchase = purchased
	} else {
		if req.GuestName == nil || strings.TrimSpace(*req.GuestName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest name is required")
		}
		if req.GuestEmail == nil || strings.TrimSpace(*req.GuestEmail) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest email is required")
		}
		review.GuestName = req.GuestName
		review.GuestEmail = req.GuestEmail
	}

	created, err := s.repo.Create(ctx, review)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	return created, nil
}

func (s *service) AttachImage(ctx context.Context, reviewID uuid.UUID, filePath string, isVideo bool) (*models.ReviewImage, error) {
	review, err := s.get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(filePath) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file path is required")
	}

	image := &models.ReviewImage{
		ReviewID: review.ID,
		FilePath: filePath,
		IsVideo:  isVideo,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.AddImage(ctx, image); err != nil {
			return err
		}
		// an approved review gaining a video flips the product flag
		if review.Status == enums.ReviewStatusApproved && isVideo {
			return s.recomputeAggregates(ctx, txRepo, tx, review.ProductID)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach review image")
	}
	return image, nil
}

func (s *service) ListApproved(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	rows, err := s.repo.ListByProduct(ctx, productID, enums.ReviewStatusApproved)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return rows, nil
}

func (s *service) ListPending(ctx context.Context) ([]models.Review, error) {
	rows, err := s.repo.ListByStatus(ctx, enums.ReviewStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending reviews")
	}
	return rows, nil
}

// Moderate moves the review into the requested status. Crossing the
// approved boundary in either direction recomputes the product aggregates
// inside the same transaction.
func (s *service) Moderate(ctx context.Context, reviewID uuid.UUID, req ModerateRequest) (*models.Review, error) {
	target, err := enums.ParseReviewStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid review status")
	}

	review, err := s.get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.Status == target {
		return review, nil
	}

	crossesApproved := review.Status == enums.ReviewStatusApproved || target == enums.ReviewStatusApproved

	previous := review.Status
	review.Status = target
	if target != enums.ReviewStatusApproved {
		review.IsFeatured = false
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Update(ctx, review); err != nil {
			return err
		}
		if crossesApproved {
			return s.recomputeAggregates(ctx, txRepo, tx, review.ProductID)
		}
		return nil
	})
	if err != nil {
		review.Status = previous
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "moderate review")
	}
	return review, nil
}

// SetFeatured flags a single review per product: featuring one clears the
// flag on the rest of the product's reviews in the same transaction.
func (s *service) SetFeatured(ctx context.Context, reviewID uuid.UUID, featured bool) (*models.Review, error) {
	review, err := s.get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if featured && review.Status != enums.ReviewStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only approved reviews can be featured")
	}
	if review.IsFeatured == featured {
		return review, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if featured {
			if err := txRepo.ClearFeatured(ctx, review.ProductID); err != nil {
				return err
			}
		}
		review.IsFeatured = featured
		_, err := txRepo.Update(ctx, review)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "feature review")
	}
	return review, nil
}

func (s *service) get(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	return review, nil
}

// recomputeAggregates rereads the approved-review stats and writes them to
// the product row on the same transaction.
func (s *service) recomputeAggregates(ctx context.Context, repo ReviewRepository, tx *gorm.DB, productID uuid.UUID) error {
	aggregates, err := repo.AggregatesForProduct(ctx, productID)
	if err != nil {
		return err
	}
	return s.products.UpdateAggregates(ctx, tx, productID, aggregates.AvgRating, aggregates.ReviewCount, aggregates.HasVideo)
}
