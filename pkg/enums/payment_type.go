package enums

import "fmt"

// PaymentType names how an order is paid.
type PaymentType string

const (
	PaymentTypeCOD      PaymentType = "cod"
	PaymentTypeRazorpay PaymentType = "razorpay"
	PaymentTypeCard     PaymentType = "card"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeCOD,
	PaymentTypeRazorpay,
	PaymentTypeCard,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsPrepaid reports whether payment is collected before fulfillment.
func (p PaymentType) IsPrepaid() bool {
	return p != PaymentTypeCOD
}

// FeeKind maps the payment type onto the shipping fee table key.
func (p PaymentType) FeeKind() ShippingFeeKind {
	if p == PaymentTypeCOD {
		return ShippingFeeKindCOD
	}
	return ShippingFeeKindPrepaid
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
