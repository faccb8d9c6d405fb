package products

import (
	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/types"
)

// VariationInput is one purchasable SKU in a create/update payload.
type VariationInput struct {
	SKU               string             `json:"sku" validate:"required,max=64"`
	PriceCents        int                `json:"price_cents" validate:"required,gt=0"`
	ComparePriceCents *int               `json:"compare_price_cents" validate:"omitempty,gt=0"`
	Stock             int                `json:"stock" validate:"gte=0"`
	Attributes        types.AttributeBag `json:"attributes"`
	WeightGrams       *int               `json:"weight_grams" validate:"omitempty,gt=0"`
	Dimensions        *string            `json:"dimensions" validate:"omitempty,max=100"`
	IsDefault         bool               `json:"is_default"`
}

// SEOInput carries the per-product meta tags.
type SEOInput struct {
	MetaTitle       *string `json:"meta_title" validate:"omitempty,max=200"`
	MetaDescription *string `json:"meta_description" validate:"omitempty,max=500"`
	MetaKeywords    *string `json:"meta_keywords" validate:"omitempty,max=500"`
	OGImage         *string `json:"og_image" validate:"omitempty,max=500"`
}

// CreateProductRequest is the admin payload for a new listing.
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Slug        string           `json:"slug" validate:"omitempty,max=200"`
	Description *string          `json:"description"`
	CategoryID  *uuid.UUID       `json:"category_id"`
	Status      string           `json:"status" validate:"omitempty,oneof=active inactive draft"`
	Badge       *string          `json:"badge" validate:"omitempty,max=50"`
	Variations  []VariationInput `json:"variations" validate:"required,min=1,dive"`
	SEO         *SEOInput        `json:"seo"`
}

// UpdateProductRequest mirrors the create payload; nil fields are untouched,
// a non-nil Variations slice replaces the whole set.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Slug        *string          `json:"slug" validate:"omitempty,max=200"`
	Description *string          `json:"description"`
	CategoryID  *uuid.UUID       `json:"category_id"`
	Status      *string          `json:"status" validate:"omitempty,oneof=active inactive draft"`
	Badge       *string          `json:"badge" validate:"omitempty,max=50"`
	Variations  []VariationInput `json:"variations" validate:"omitempty,min=1,dive"`
	SEO         *SEOInput        `json:"seo"`
}

// ListRequest narrows the public catalog listing.
type ListRequest struct {
	CategorySlug string
	Search       string
	Limit        int
	Cursor       string
	IncludeAll   bool // admin listings see non-active products
}
