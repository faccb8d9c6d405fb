package coupons

import (
	"time"

	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/types"
)

// CreateCouponRequest is the admin payload for a new coupon. Value is the
// percentage for percentage coupons and the amount in currency units for
// fixed coupons.
type CreateCouponRequest struct {
	Code                 string         `json:"code" validate:"required,max=40"`
	Type                 string         `json:"type" validate:"required,oneof=percentage fixed"`
	Value                string         `json:"value" validate:"required"`
	MinPurchaseCents     int            `json:"min_purchase_cents" validate:"gte=0"`
	MaxDiscountCents     *int           `json:"max_discount_cents" validate:"omitempty,gt=0"`
	StartDate            time.Time      `json:"start_date" validate:"required"`
	EndDate              time.Time      `json:"end_date" validate:"required"`
	UsageLimit           *int           `json:"usage_limit" validate:"omitempty,gt=0"`
	PerUserLimit         *int           `json:"per_user_limit" validate:"omitempty,gt=0"`
	ApplicableProducts   types.UUIDList `json:"applicable_products"`
	ApplicableCategories types.UUIDList `json:"applicable_categories"`
	IsActive             *bool          `json:"is_active"`
}

// UpdateCouponRequest mirrors the create payload; nil fields are untouched.
type UpdateCouponRequest struct {
	Type                 *string        `json:"type" validate:"omitempty,oneof=percentage fixed"`
	Value                *string        `json:"value"`
	MinPurchaseCents     *int           `json:"min_purchase_cents" validate:"omitempty,gte=0"`
	MaxDiscountCents     *int           `json:"max_discount_cents" validate:"omitempty,gt=0"`
	StartDate            *time.Time     `json:"start_date"`
	EndDate              *time.Time     `json:"end_date"`
	UsageLimit           *int           `json:"usage_limit" validate:"omitempty,gt=0"`
	PerUserLimit         *int           `json:"per_user_limit" validate:"omitempty,gt=0"`
	ApplicableProducts   types.UUIDList `json:"applicable_products"`
	ApplicableCategories types.UUIDList `json:"applicable_categories"`
	IsActive             *bool          `json:"is_active"`
}

// ValidateRequest previews a coupon against the caller's cart.
type ValidateRequest struct {
	Code string `json:"code" validate:"required"`
}

// ApplyRequest consumes one use of a coupon, optionally linking the order.
type ApplyRequest struct {
	Code    string  `json:"code" validate:"required"`
	OrderID *string `json:"order_id" validate:"omitempty,uuid"`
}

// Preview is the read-only result of validating a coupon.
type Preview struct {
	Coupon          *models.Coupon `json:"coupon"`
	ApplicableCents int            `json:"applicable_cents"`
	DiscountCents   int            `json:"discount_cents"`
}
