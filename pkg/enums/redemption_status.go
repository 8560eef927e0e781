package enums

import "fmt"

// RedemptionStatus tracks the lifecycle of a loyalty point redemption.
type RedemptionStatus string

const (
	RedemptionStatusPending   RedemptionStatus = "pending"
	RedemptionStatusDelivered RedemptionStatus = "delivered"
	RedemptionStatusCancelled RedemptionStatus = "cancelled"
)

var validRedemptionStatuses = []RedemptionStatus{
	RedemptionStatusPending,
	RedemptionStatusDelivered,
	RedemptionStatusCancelled,
}

// IsValid reports whether the value matches the canonical redemption status enum.
func (r RedemptionStatus) IsValid() bool {
	for _, candidate := range validRedemptionStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRedemptionStatus converts the raw string to RedemptionStatus.
func ParseRedemptionStatus(value string) (RedemptionStatus, error) {
	for _, candidate := range validRedemptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid redemption status %q", value)
}
