package coupons

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
)

type stubCouponRepo struct {
	coupons map[string]*models.Coupon
	usages  []models.CouponUsage
}

func newStubCouponRepo() *stubCouponRepo {
	return &stubCouponRepo{coupons: map[string]*models.Coupon{}}
}

func (s *stubCouponRepo) WithTx(_ *gorm.DB) CouponRepository { return s }

func (s *stubCouponRepo) Create(_ context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	coupon.ID = uuid.New()
	s.coupons[coupon.Code] = coupon
	return coupon, nil
}

func (s *stubCouponRepo) Update(_ context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	s.coupons[coupon.Code] = coupon
	return coupon, nil
}

func (s *stubCouponRepo) Delete(_ context.Context, id uuid.UUID) error {
	for code, coupon := range s.coupons {
		if coupon.ID == id {
			delete(s.coupons, code)
		}
	}
	return nil
}

func (s *stubCouponRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Coupon, error) {
	for _, coupon := range s.coupons {
		if coupon.ID == id {
			return coupon, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	coupon, ok := s.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return coupon, nil
}

func (s *stubCouponRepo) FindByCodeForUpdate(ctx context.Context, code string) (*models.Coupon, error) {
	return s.FindByCode(ctx, code)
}

func (s *stubCouponRepo) List(_ context.Context) ([]models.Coupon, error) {
	var out []models.Coupon
	for _, coupon := range s.coupons {
		out = append(out, *coupon)
	}
	return out, nil
}

func (s *stubCouponRepo) CountUserUsages(_ context.Context, couponID, userID uuid.UUID) (int64, error) {
	var count int64
	for _, usage := range s.usages {
		if usage.CouponID == couponID && usage.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *stubCouponRepo) CreateUsage(_ context.Context, usage *models.CouponUsage) error {
	usage.ID = uuid.New()
	s.usages = append(s.usages, *usage)
	return nil
}

func (s *stubCouponRepo) IncrementUsage(_ context.Context, couponID uuid.UUID) error {
	for _, coupon := range s.coupons {
		if coupon.ID == couponID {
			coupon.UsageCount++
		}
	}
	return nil
}

type stubCouponTx struct{}

func (stubCouponTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func newTestCoupons(t *testing.T) (Service, *stubCouponRepo) {
	t.Helper()
	repo := newStubCouponRepo()
	svc, err := NewService(repo, stubCouponTx{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func seedCoupon(repo *stubCouponRepo, coupon *models.Coupon) *models.Coupon {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	repo.coupons[coupon.Code] = coupon
	return coupon
}

func activeWindow() (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-time.Hour), now.Add(24 * time.Hour)
}

func TestValidatePercentageCappedByMaxDiscount(t *testing.T) {
	svc, repo := newTestCoupons(t)
	start, end := activeWindow()
	maxDiscount := 500
	seedCoupon(repo, &models.Coupon{
		Code:             "SAVE10",
		Type:             enums.CouponTypePercentage,
		Value:            decimal.NewFromInt(10),
		MaxDiscountCents: &maxDiscount,
		StartDate:        start,
		EndDate:          end,
		IsActive:         true,
	})

	preview, err := svc.Validate(context.Background(), uuid.New(), "save10", []Line{
		{ProductID: uuid.New(), AmountCents: 10000},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if preview.DiscountCents != 500 {
		t.Fatalf("discount = %d, want capped 500", preview.DiscountCents)
	}
	if preview.ApplicableCents != 10000 {
		t.Fatalf("applicable = %d, want 10000", preview.ApplicableCents)
	}
}

func TestValidateFixedCappedByApplicableAmount(t *testing.T) {
	svc, repo := newTestCoupons(t)
	start, end := activeWindow()
	seedCoupon(repo, &models.Coupon{
		Code:      "FLAT50",
		Type:      enums.CouponTypeFixed,
		Value:     decimal.NewFromInt(50), // 5000 cents
		StartDate: start,
		EndDate:   end,
		IsActive:  true,
	})

	preview, err := svc.Validate(context.Background(), uuid.New(), "FLAT50", []Line{
		{ProductID: uuid.New(), AmountCents: 1200},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if preview.DiscountCents != 1200 {
		t.Fatalf("discount = %d, want capped at applicable 1200", preview.DiscountCents)
	}
}

func TestValidateRejectsBelowMinimumPurchase(t *testing.T) {
	svc, repo := newTestCoupons(t)
	start, end := activeWindow()
	seedCoupon(repo, &models.Coupon{
		Code:             "BIG",
		Type:             enums.CouponTypePercentage,
		Value:            decimal.NewFromInt(20),
		MinPurchaseCents: 5000,
		StartDate:        start,
		EndDate:          end,
		IsActive:         true,
	})

	_, err := svc.Validate(context.Background(), uuid.New(), "BIG", []Line{
		{ProductID: uuid.New(), AmountCents: 1000},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateScopedToListedProducts(t *testing.T) {
	svc, repo := newTestCoupons(t)
	start, end := activeWindow()
	listed := uuid.New()
	seedCoupon(repo, &models.Coupon{
		Code:               "TEAONLY",
		Type:               enums.CouponTypePercentage,
		Value:              decimal.NewFromInt(10),
		ApplicableProducts: []uuid.UUID{listed},
		StartDate:          start,
		EndDate:            end,
		IsActive:           true,
	})

	preview, err := svc.Validate(context.Background(), uuid.New(), "TEAONLY", []Line{
		{ProductID: listed, AmountCents: 2000},
		{ProductID: uuid.New(), AmountCents: 8000},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if preview.ApplicableCents != 2000 {
		t.Fatalf("applicable = %d, want listed line only", preview.ApplicableCents)
	}
	if preview.DiscountCents != 200 {
		t.Fatalf("discount = %d, want 200", preview.DiscountCents)
	}
}

func TestApplyEnforcesSingleUsePerUser(t *testing.T) {
	svc, repo := newTestCoupons(t)
	start, end := activeWindow()
	seedCoupon(repo, &models.Coupon{
		Code:      "ONCE",
		Type:      enums.CouponTypeFixed,
		Value:     decimal.NewFromInt(5),
		StartDate: start,
		EndDate:   end,
		IsActive:  true,
	})
	userID := uuid.New()
	orderID := uuid.New()

	coupon, err := svc.Apply(context.Background(), userID, "ONCE", &orderID)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if coupon.UsageCount != 1 {
		t.Fatalf("usage count = %d, want 1", coupon.UsageCount)
	}
	if len(repo.usages) != 1 || repo.usages[0].OrderID == nil || *repo.usages[0].OrderID != orderID {
		t.Fatalf("usage row missing order linkage: %+v", repo.usages)
	}

	_, err = svc.Apply(context.Background(), userID, "ONCE", nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("second apply should hit the per-user limit, got %v", err)
	}

	// another user is unaffected
	if _, err := svc.Apply(context.Background(), uuid.New(), "ONCE", nil); err != nil {
		t.Fatalf("other user apply: %v", err)
	}
}

func TestApplyHonorsRaisedPerUserLimit(t *testing.T) {
	svc, repo := newTestCoupons(t)
	start, end := activeWindow()
	perUser := 2
	seedCoupon(repo, &models.Coupon{
		Code:         "TWICE",
		Type:         enums.CouponTypeFixed,
		Value:        decimal.NewFromInt(5),
		PerUserLimit: &perUser,
		StartDate:    start,
		EndDate:      end,
		IsActive:     true,
	})
	userID := uuid.New()

	for i := 0; i < perUser; i++ {
		if _, err := svc.Apply(context.Background(), userID, "TWICE", nil); err != nil {
			t.Fatalf("apply %d of %d: %v", i+1, perUser, err)
		}
	}

	_, err := svc.Apply(context.Background(), userID, "TWICE", nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("apply %d should hit the per-user limit, got %v", perUser+1, err)
	}
}

func TestApplyEnforcesGlobalUsageLimit(t *testing.T) {
	svc, repo := newTestCoupons(t)
	start, end := activeWindow()
	limit := 1
	seedCoupon(repo, &models.Coupon{
		Code:       "SCARCE",
		Type:       enums.CouponTypeFixed,
		Value:      decimal.NewFromInt(5),
		UsageLimit: &limit,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
	})

	if _, err := svc.Apply(context.Background(), uuid.New(), "SCARCE", nil); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	_, err := svc.Apply(context.Background(), uuid.New(), "SCARCE", nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected usage-limit rejection, got %v", err)
	}
}

func TestValidateRejectsExpiredCoupon(t *testing.T) {
	svc, repo := newTestCoupons(t)
	seedCoupon(repo, &models.Coupon{
		Code:      "OLD",
		Type:      enums.CouponTypePercentage,
		Value:     decimal.NewFromInt(10),
		StartDate: time.Now().Add(-48 * time.Hour),
		EndDate:   time.Now().Add(-24 * time.Hour),
		IsActive:  true,
	})

	_, err := svc.Validate(context.Background(), uuid.New(), "OLD", []Line{
		{ProductID: uuid.New(), AmountCents: 1000},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
