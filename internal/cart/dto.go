package cart

import (
	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/db/models"
)

// AddToCartRequest adds (or merges) one line into the user's cart.
type AddToCartRequest struct {
	ProductID   uuid.UUID  `json:"product_id" validate:"required"`
	VariationID *uuid.UUID `json:"variation_id"`
	Quantity    int        `json:"quantity" validate:"required,gt=0"`
}

// UpdateLineRequest changes a line's quantity; zero removes the line.
type UpdateLineRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// View is the cart plus derived totals.
type View struct {
	Cart          *models.Cart `json:"cart"`
	ItemCount     int          `json:"item_count"`
	SubtotalCents int          `json:"subtotal_cents"`
}

func buildView(cart *models.Cart) *View {
	view := &View{Cart: cart}
	for _, line := range cart.Items {
		view.ItemCount += line.Quantity
		view.SubtotalCents += line.Quantity * line.PriceCents
	}
	return view
}
