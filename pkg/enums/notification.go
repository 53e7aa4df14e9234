package enums

import "fmt"

// NotificationType categorizes transition notices sent to market parties.
type NotificationType string

const (
	NotificationTypeLotCreated      NotificationType = "lot_created"
	NotificationTypeRateAssigned    NotificationType = "rate_assigned"
	NotificationTypeLotSold         NotificationType = "lot_sold"
	NotificationTypePaymentReceived NotificationType = "payment_received"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeLotCreated,
	NotificationTypeRateAssigned,
	NotificationTypeLotSold,
	NotificationTypePaymentReceived,
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
