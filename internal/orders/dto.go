package orders

import (
	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/db/models"
)

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID   uuid.UUID  `json:"product_id" validate:"required"`
	VariationID *uuid.UUID `json:"variation_id"`
	Quantity    int        `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	ShippingAddressID uuid.UUID   `json:"shipping_address_id" validate:"required"`
	PaymentType       string      `json:"payment_type" validate:"required,oneof=cod razorpay card"`
	Items             []ItemInput `json:"items" validate:"required,min=1,dive"`
	CouponCode        *string     `json:"coupon_code" validate:"omitempty,max=40"`
}

// UpdateStatusRequest is the admin transition payload.
type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
	Notes  *string `json:"notes" validate:"omitempty,max=500"`
}

// CancelRequest carries the user's cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListOrdersRequest narrows order listings.
type ListOrdersRequest struct {
	Status string
	Limit  int
	Cursor string
}

// Page is one page of orders.
type Page struct {
	Items      []models.Order `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
