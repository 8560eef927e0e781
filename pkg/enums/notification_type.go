package enums

import "fmt"

// NotificationType classifies entries in the per-user notification log.
type NotificationType string

const (
	NotificationTypeOrderStatus    NotificationType = "order_status"
	NotificationTypeOrderCancelled NotificationType = "order_cancelled"
	NotificationTypeRedemption     NotificationType = "redemption"
	NotificationTypeCoupon         NotificationType = "coupon"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderStatus,
	NotificationTypeOrderCancelled,
	NotificationTypeRedemption,
	NotificationTypeCoupon,
}

// IsValid reports whether the value matches the canonical notification type enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts the raw string to NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
