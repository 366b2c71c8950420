package enums

import "fmt"

// PaymentMode describes how an invoice was paid at commit time.
type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "cash"
	PaymentModeCredit PaymentMode = "credit"
)

var validPaymentModes = []PaymentMode{
	PaymentModeCash,
	PaymentModeCredit,
}

// IsValid reports whether the value matches the canonical payment mode enum.
func (m PaymentMode) IsValid() bool {
	for _, candidate := range validPaymentModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMode converts the raw string to PaymentMode.
func ParsePaymentMode(value string) (PaymentMode, error) {
	for _, candidate := range validPaymentModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment mode %q", value)
}
