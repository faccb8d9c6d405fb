package products

import (
	"testing"

	"github.com/velora-labs/velora-backend/pkg/db/models"
)

func TestDefaultVariationPrefersFlagged(t *testing.T) {
	variations := []models.ProductVariation{
		{SKU: "A-1", PriceCents: 100},
		{SKU: "C-3", PriceCents: 300, IsDefault: true},
		{SKU: "B-2", PriceCents: 200, IsDefault: true},
	}

	got := DefaultVariation(variations)
	if got == nil || got.SKU != "B-2" {
		t.Fatalf("DefaultVariation = %+v, want flagged variation with lowest SKU", got)
	}
}

func TestDefaultVariationFallsBackToLowestSKU(t *testing.T) {
	variations := []models.ProductVariation{
		{SKU: "Z-9", PriceCents: 900},
		{SKU: "A-1", PriceCents: 100},
	}

	got := DefaultVariation(variations)
	if got == nil || got.SKU != "A-1" {
		t.Fatalf("DefaultVariation = %+v, want lowest SKU", got)
	}
}

func TestDefaultVariationEmpty(t *testing.T) {
	if got := DefaultVariation(nil); got != nil {
		t.Fatalf("DefaultVariation(nil) = %+v, want nil", got)
	}
}
