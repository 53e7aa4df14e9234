package enums

import "fmt"

// AuditAction identifies the lifecycle event an audit row records.
type AuditAction string

const (
	AuditActionLotCreated      AuditAction = "lot_created"
	AuditActionRateAssigned    AuditAction = "rate_assigned"
	AuditActionWeightFinalized AuditAction = "weight_finalized"
	AuditActionPaymentUpdated  AuditAction = "payment_updated"
	AuditActionUserRegistered  AuditAction = "user_registered"
	AuditActionLotDeleted      AuditAction = "lot_deleted"
)

var validAuditActions = []AuditAction{
	AuditActionLotCreated,
	AuditActionRateAssigned,
	AuditActionWeightFinalized,
	AuditActionPaymentUpdated,
	AuditActionUserRegistered,
	AuditActionLotDeleted,
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
