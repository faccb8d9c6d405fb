package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/config"
	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddressRequest is the payload for creating or replacing an address.
type AddressRequest struct {
	Name       string  `json:"name" validate:"required,max=100"`
	Phone      string  `json:"phone" validate:"required,max=20"`
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country" validate:"required,max=100"`
	IsDefault  bool    `json:"is_default"`
}

// UpsertFeeRequest sets the fee for one kind.
type UpsertFeeRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=cod prepaid"`
	AmountCents int    `json:"amount_cents" validate:"gte=0"`
}

// AddressService manages the per-user address book. At most one address per
// user carries the default flag.
type AddressService interface {
	Create(ctx context.Context, userID uuid.UUID, req AddressRequest) (*models.ShippingAddress, error)
	Update(ctx context.Context, userID, id uuid.UUID, req AddressRequest) (*models.ShippingAddress, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Get(ctx context.Context, userID, id uuid.UUID) (*models.ShippingAddress, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error)
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*models.ShippingAddress, error)
}

type addressService struct {
	repo AddressRepository
	tx   txRunner
}

// NewAddressService builds the address book service.
func NewAddressService(repo AddressRepository, tx txRunner) (AddressService, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &addressService{repo: repo, tx: tx}, nil
}

func (s *addressService) Create(ctx context.Context, userID uuid.UUID, req AddressRequest) (*models.ShippingAddress, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	address := addressFromRequest(userID, req)

	existing, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	// first address always becomes the default
	if len(existing) == 0 {
		address.IsDefault = true
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		_, err := txRepo.Create(ctx, address)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return address, nil
}

func (s *addressService) Update(ctx context.Context, userID, id uuid.UUID, req AddressRequest) (*models.ShippingAddress, error) {
	address, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	replacement := addressFromRequest(userID, req)
	replacement.ID = address.ID
	replacement.CreatedAt = address.CreatedAt

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if replacement.IsDefault && !address.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		_, err := txRepo.Update(ctx, replacement)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	return replacement, nil
}

func (s *addressService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

func (s *addressService) Get(ctx context.Context, userID, id uuid.UUID) (*models.ShippingAddress, error) {
	address, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return address, nil
}

func (s *addressService) List(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}

func (s *addressService) SetDefault(ctx context.Context, userID, id uuid.UUID) (*models.ShippingAddress, error) {
	address, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if address.IsDefault {
		return address, nil
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ClearDefault(ctx, userID); err != nil {
			return err
		}
		address.IsDefault = true
		_, err := txRepo.Update(ctx, address)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default address")
	}
	return address, nil
}

func addressFromRequest(userID uuid.UUID, req AddressRequest) *models.ShippingAddress {
	return &models.ShippingAddress{
		UserID:     userID,
		Name:       strings.TrimSpace(req.Name),
		Phone:      strings.TrimSpace(req.Phone),
		Line1:      strings.TrimSpace(req.Line1),
		Line2:      req.Line2,
		City:       strings.TrimSpace(req.City),
		State:      strings.TrimSpace(req.State),
		PostalCode: strings.TrimSpace(req.PostalCode),
		Country:    strings.TrimSpace(req.Country),
		IsDefault:  req.IsDefault,
	}
}

type feeTable interface {
	FindByKind(ctx context.Context, kind enums.ShippingFeeKind) (*models.ShippingFee, error)
	Upsert(ctx context.Context, fee *models.ShippingFee) error
	List(ctx context.Context) ([]models.ShippingFee, error)
}

// FeeService resolves the shipping fee per payment type, falling back to the
// configured defaults when no row exists for the kind.
type FeeService struct {
	repo     feeTable
	fallback config.ShippingConfig
}

func NewFeeService(repo feeTable, fallback config.ShippingConfig) (*FeeService, error) {
	if repo == nil {
		return nil, fmt.Errorf("fee repository required")
	}
	return &FeeService{repo: repo, fallback: fallback}, nil
}

// FeeForPaymentType returns the fee in cents for the payment type.
func (s *FeeService) FeeForPaymentType(ctx context.Context, paymentType enums.PaymentType) (int, error) {
	kind := paymentType.FeeKind()
	fee, err := s.repo.FindByKind(ctx, kind)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if kind == enums.ShippingFeeKindCOD {
				return s.fallback.FallbackCODCents, nil
			}
			return s.fallback.FallbackPrepaidCents, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping fee")
	}
	return fee.AmountCents, nil
}

// Upsert writes the admin-configured fee for a kind.
func (s *FeeService) Upsert(ctx context.Context, req UpsertFeeRequest) (*models.ShippingFee, error) {
	kind, err := enums.ParseShippingFeeKind(req.Kind)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping fee kind")
	}
	fee := &models.ShippingFee{Kind: kind, AmountCents: req.AmountCents}
	if err := s.repo.Upsert(ctx, fee); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert shipping fee")
	}
	return fee, nil
}

// List returns every configured fee row.
func (s *FeeService) List(ctx context.Context) ([]models.ShippingFee, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping fees")
	}
	return rows, nil
}
