package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/internal/products"
	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations for controllers.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	Add(ctx context.Context, userID uuid.UUID, req AddToCartRequest) (*View, error)
	UpdateLine(ctx context.Context, userID, lineID uuid.UUID, req UpdateLineRequest) (*View, error)
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo    CartRepository
	tx      txRunner
	catalog productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, catalog productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return buildView(cart), nil
}

// Add merges the requested quantity into the matching line, creating it on
// first add. The unit price is snapshotted when the line is created and kept
// on later merges.
func (s *service) Add(ctx context.Context, userID uuid.UUID, req AddToCartRequest) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.catalog.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	variation, err := resolveVariation(product, req.VariationID)
	if err != nil {
		return nil, err
	}
	variationID := variation.ID

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindOrCreateByUser(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := txRepo.LockByUser(ctx, userID); err != nil {
			return err
		}

		line, err := txRepo.FindLine(ctx, cart.ID, product.ID, &variationID)
		switch {
		case err == nil:
			line.Quantity += req.Quantity
			return txRepo.UpdateLine(ctx, line)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return txRepo.CreateLine(ctx, &models.CartItem{
				CartID:      cart.ID,
				ProductID:   product.ID,
				VariationID: &variationID,
				Quantity:    req.Quantity,
				PriceCents:  variation.PriceCents,
			})
		default:
			return err
		}
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add to cart")
	}

	return s.Get(ctx, userID)
}

func (s *service) UpdateLine(ctx context.Context, userID, lineID uuid.UUID, req UpdateLineRequest) (*View, error) {
	if req.Quantity == 0 {
		return s.RemoveLine(ctx, userID, lineID)
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if _, err := txRepo.LockByUser(ctx, userID); err != nil {
			return err
		}

		line, err := s.findLineByID(ctx, txRepo, userID, lineID)
		if err != nil {
			return err
		}
		line.Quantity = req.Quantity
		return txRepo.UpdateLine(ctx, line)
	}); err != nil {
		return nil, translateLineErr(err)
	}

	return s.Get(ctx, userID)
}

func (s *service) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*View, error) {
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		cart, err := txRepo.LockByUser(ctx, userID)
		if err != nil {
			return err
		}
		return txRepo.DeleteLine(ctx, cart.ID, lineID)
	}); err != nil {
		return nil, translateLineErr(err)
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		cart, err := txRepo.LockByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return txRepo.Clear(ctx, cart.ID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) findLineByID(ctx context.Context, repo CartRepository, userID, lineID uuid.UUID) (*models.CartItem, error) {
	cart, err := repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range cart.Items {
		if cart.Items[i].ID == lineID {
			return &cart.Items[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// resolveVariation picks the purchasable variation: the named one when the
// payload carries an id, the product's default otherwise.
func resolveVariation(product *models.Product, variationID *uuid.UUID) (*models.ProductVariation, error) {
	if variationID != nil {
		for i := range product.Variations {
			if product.Variations[i].ID == *variationID {
				return &product.Variations[i], nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variation does not belong to product")
	}
	variation := products.DefaultVariation(product.Variations)
	if variation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product has no purchasable variation")
	}
	return variation, nil
}

func translateLineErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart")
}
