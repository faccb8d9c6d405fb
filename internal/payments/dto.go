package payments

import (
	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/razorpay"
)

// ProcessRequest settles an order through the demo gateway path.
type ProcessRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// GatewayOrderResponse is handed to the storefront to open the gateway
// checkout widget.
type GatewayOrderResponse struct {
	GatewayOrder *razorpay.GatewayOrder `json:"gateway_order"`
	KeyID        string                 `json:"key_id"`
}

// CallbackParams is the signed payload the gateway posts back.
type CallbackParams struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
}

// CallbackResult tells the controller where to redirect the shopper.
type CallbackResult struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirect_url"`
}

// RefundRequest is the admin payload reversing a captured payment.
type RefundRequest struct {
	OrderID     uuid.UUID `json:"order_id" validate:"required"`
	AmountCents *int      `json:"amount_cents" validate:"omitempty,gt=0"`
	Reason      *string   `json:"reason" validate:"omitempty,max=500"`
}
