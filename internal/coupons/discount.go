package coupons

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
)

// Line is the slice of an order or cart a coupon is evaluated against.
type Line struct {
	ProductID   uuid.UUID
	CategoryID  *uuid.UUID
	AmountCents int // unit price x quantity
}

// ApplicableAmount sums the lines the coupon covers. Empty applicable lists
// cover the whole catalog; otherwise a line qualifies when its product or its
// category is listed.
func ApplicableAmount(coupon *models.Coupon, lines []Line) int {
	total := 0
	for _, line := range lines {
		if !covers(coupon, line) {
			continue
		}
		total += line.AmountCents
	}
	return total
}

func covers(coupon *models.Coupon, line Line) bool {
	if coupon.ApplicableProducts.Unrestricted() && coupon.ApplicableCategories.Unrestricted() {
		return true
	}
	if coupon.ApplicableProducts.Contains(line.ProductID) {
		return true
	}
	if line.CategoryID != nil && coupon.ApplicableCategories.Contains(*line.CategoryID) {
		return true
	}
	return false
}

// Discount computes the discount in cents over the applicable amount.
// Percentage discounts are capped by MaxDiscountCents, fixed discounts by the
// applicable amount itself; the result is never negative.
func Discount(coupon *models.Coupon, applicableCents int) int {
	if applicableCents <= 0 {
		return 0
	}

	var discount int
	switch coupon.Type {
	case enums.CouponTypePercentage:
		discount = int(coupon.Value.
			Mul(decimal.NewFromInt(int64(applicableCents))).
			Div(decimal.NewFromInt(100)).
			IntPart())
		if coupon.MaxDiscountCents != nil && discount > *coupon.MaxDiscountCents {
			discount = *coupon.MaxDiscountCents
		}
	case enums.CouponTypeFixed:
		discount = int(coupon.Value.Mul(decimal.NewFromInt(100)).IntPart())
	}

	if discount > applicableCents {
		discount = applicableCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
