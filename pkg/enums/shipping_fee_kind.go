package enums

import "fmt"

// ShippingFeeKind keys the shipping fee table.
type ShippingFeeKind string

const (
	ShippingFeeKindCOD     ShippingFeeKind = "cod"
	ShippingFeeKindPrepaid ShippingFeeKind = "prepaid"
)

var validShippingFeeKinds = []ShippingFeeKind{
	ShippingFeeKindCOD,
	ShippingFeeKindPrepaid,
}

// String implements fmt.Stringer.
func (s ShippingFeeKind) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingFeeKind.
func (s ShippingFeeKind) IsValid() bool {
	for _, candidate := range validShippingFeeKinds {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingFeeKind converts raw input into a ShippingFeeKind.
func ParseShippingFeeKind(value string) (ShippingFeeKind, error) {
	for _, candidate := range validShippingFeeKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping fee kind %q", value)
}
