package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/db"
	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes coupon operations for controllers and the order pipeline.
type Service interface {
	Validate(ctx context.Context, userID uuid.UUID, code string, lines []Line) (*Preview, error)
	Apply(ctx context.Context, userID uuid.UUID, code string, orderID *uuid.UUID) (*models.Coupon, error)
	ApplyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, code string, orderID *uuid.UUID) (*models.Coupon, error)
	Create(ctx context.Context, req CreateCouponRequest) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateCouponRequest) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
}

type service struct {
	repo CouponRepository
	tx   txRunner
	now  func() time.Time
}

// NewService builds a coupon service backed by the provided stack.
func NewService(repo CouponRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

// Validate evaluates the coupon against the given lines without consuming a
// use. Safe to call repeatedly.
func (s *service) Validate(ctx context.Context, userID uuid.UUID, code string, lines []Line) (*Preview, error) {
	coupon, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.checkLimits(ctx, s.repo, coupon, userID); err != nil {
		return nil, err
	}

	applicable := ApplicableAmount(coupon, lines)
	if applicable == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon does not apply to these items")
	}
	if applicable < coupon.MinPurchaseCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order does not meet the coupon minimum")
	}

	return &Preview{
		Coupon:          coupon,
		ApplicableCents: applicable,
		DiscountCents:   Discount(coupon, applicable),
	}, nil
}

// Apply consumes one use: it locks the coupon row, re-checks limits under the
// lock, records the usage and bumps the counter, all in one transaction.
func (s *service) Apply(ctx context.Context, userID uuid.UUID, code string, orderID *uuid.UUID) (*models.Coupon, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var coupon *models.Coupon
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		applied, err := s.applyLocked(ctx, s.repo.WithTx(tx), userID, code, orderID)
		if err != nil {
			return err
		}
		coupon = applied
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply coupon")
	}
	return coupon, nil
}

// ApplyTx is Apply joined to a caller-managed transaction, used by the
// order pipeline so order creation and coupon accounting commit together.
func (s *service) ApplyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, code string, orderID *uuid.UUID) (*models.Coupon, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	coupon, err := s.applyLocked(ctx, s.repo.WithTx(tx), userID, code, orderID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply coupon")
	}
	return coupon, nil
}

func (s *service) applyLocked(ctx context.Context, repo CouponRepository, userID uuid.UUID, code string, orderID *uuid.UUID) (*models.Coupon, error) {
	locked, err := repo.FindByCodeForUpdate(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, err
	}
	if err := s.checkLimits(ctx, repo, locked, userID); err != nil {
		return nil, err
	}

	if err := repo.CreateUsage(ctx, &models.CouponUsage{
		CouponID: locked.ID,
		UserID:   userID,
		OrderID:  orderID,
	}); err != nil {
		return nil, err
	}
	if err := repo.IncrementUsage(ctx, locked.ID); err != nil {
		return nil, err
	}

	locked.UsageCount++
	return locked, nil
}

func (s *service) Create(ctx context.Context, req CreateCouponRequest) (*models.Coupon, error) {
	couponType, err := enums.ParseCouponType(req.Type)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon type")
	}
	value, err := decimal.NewFromString(req.Value)
	if err != nil || value.IsNegative() || value.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon value must be a positive number")
	}
	if couponType == enums.CouponTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage cannot exceed 100")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	coupon := &models.Coupon{
		Code:                 strings.ToUpper(strings.TrimSpace(req.Code)),
		Type:                 couponType,
		Value:                value,
		MinPurchaseCents:     req.MinPurchaseCents,
		MaxDiscountCents:     req.MaxDiscountCents,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		UsageLimit:           req.UsageLimit,
		PerUserLimit:         req.PerUserLimit,
		ApplicableProducts:   req.ApplicableProducts,
		ApplicableCategories: req.ApplicableCategories,
		IsActive:             active,
	}
	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateCouponRequest) (*models.Coupon, error) {
	coupon, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		parsed, err := enums.ParseCouponType(*req.Type)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon type")
		}
		coupon.Type = parsed
	}
	if req.Value != nil {
		value, err := decimal.NewFromString(*req.Value)
		if err != nil || value.IsNegative() || value.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon value must be a positive number")
		}
		coupon.Value = value
	}
	if req.MinPurchaseCents != nil {
		coupon.MinPurchaseCents = *req.MinPurchaseCents
	}
	if req.MaxDiscountCents != nil {
		coupon.MaxDiscountCents = req.MaxDiscountCents
	}
	if req.StartDate != nil {
		coupon.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		coupon.EndDate = *req.EndDate
	}
	if req.UsageLimit != nil {
		coupon.UsageLimit = req.UsageLimit
	}
	if req.PerUserLimit != nil {
		coupon.PerUserLimit = req.PerUserLimit
	}
	if req.ApplicableProducts != nil {
		coupon.ApplicableProducts = req.ApplicableProducts
	}
	if req.ApplicableCategories != nil {
		coupon.ApplicableCategories = req.ApplicableCategories
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if !coupon.EndDate.After(coupon.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}

	updated, err := s.repo.Update(ctx, coupon)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

func (s *service) List(ctx context.Context) ([]models.Coupon, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return rows, nil
}

func (s *service) load(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

// checkLimits enforces active flag, date window, global limit and per-user
// limit (single use when unset).
func (s *service) checkLimits(ctx context.Context, repo CouponRepository, coupon *models.Coupon, userID uuid.UUID) error {
	now := s.now()

	if !coupon.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active")
	}
	if now.Before(coupon.StartDate) || now.After(coupon.EndDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon is outside its validity window")
	}
	if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit reached")
	}

	perUser := 1
	if coupon.PerUserLimit != nil {
		perUser = *coupon.PerUserLimit
	}
	used, err := repo.CountUserUsages(ctx, coupon.ID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon usages")
	}
	if used >= int64(perUser) {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon already used")
	}
	return nil
}
