package enums

import "fmt"

// DeliveryMode is the closed set of ways an order reaches the customer.
type DeliveryMode string

const (
	DeliveryModePickup   DeliveryMode = "pickup"
	DeliveryModeDelivery DeliveryMode = "delivery"
)

var validDeliveryModes = []DeliveryMode{
	DeliveryModePickup,
	DeliveryModeDelivery,
}

// IsValid reports whether the value matches the canonical delivery mode enum.
func (d DeliveryMode) IsValid() bool {
	for _, candidate := range validDeliveryModes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryMode converts the raw string to DeliveryMode.
func ParseDeliveryMode(value string) (DeliveryMode, error) {
	for _, candidate := range validDeliveryModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery mode %q", value)
}
