package enums

import "fmt"

// PaymentType records how an order was paid.
type PaymentType string

const (
	PaymentTypeWallet PaymentType = "WALLET"
	PaymentTypeCash   PaymentType = "CASH"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeWallet,
	PaymentTypeCash,
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

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
