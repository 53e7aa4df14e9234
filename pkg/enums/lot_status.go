package enums

import "fmt"

// LotStatus tracks a produce lot from farmer intake to settlement.
type LotStatus string

const (
	LotStatusPending      LotStatus = "pending"
	LotStatusRateAssigned LotStatus = "rate_assigned"
	LotStatusWeighed      LotStatus = "weighed"
	LotStatusSold         LotStatus = "sold"
)

var validLotStatuses = []LotStatus{
	LotStatusPending,
	LotStatusRateAssigned,
	LotStatusWeighed,
	LotStatusSold,
}

// String implements fmt.Stringer.
func (s LotStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known LotStatus.
func (s LotStatus) IsValid() bool {
	for _, candidate := range validLotStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLotStatus converts raw input into a LotStatus.
func ParseLotStatus(value string) (LotStatus, error) {
	for _, candidate := range validLotStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lot status %q", value)
}
