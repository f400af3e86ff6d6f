package enums

import "strings"

// PaymentMethod is how the customer says they will pay on delivery.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWallet PaymentMethod = "wallet"
)

const DefaultPaymentMethod = PaymentMethodCash

var paymentMethods = values[PaymentMethod]{PaymentMethodCash, PaymentMethodCard, PaymentMethodWallet}

func (p PaymentMethod) IsValid() bool { return paymentMethods.has(p) }

// ParsePaymentMethod is case insensitive; blank input means cash.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return DefaultPaymentMethod, nil
	}
	return paymentMethods.parse("payment method", raw)
}
