package products

import "github.com/velora-labs/velora-backend/pkg/db/models"

// DefaultVariation picks the variation used when a caller does not name one:
// the variation flagged as default, otherwise the one with the lowest SKU.
// Returns nil when the product has no variations.
func DefaultVariation(variations []models.ProductVariation) *models.ProductVariation {
	var flagged *models.ProductVariation
	var lowest *models.ProductVariation

	for i := range variations {
		v := &variations[i]
		if v.IsDefault {
			if flagged == nil || v.SKU < flagged.SKU {
				flagged = v
			}
		}
		if lowest == nil || v.SKU < lowest.SKU {
			lowest = v
		}
	}

	if flagged != nil {
		return flagged
	}
	return lowest
}
