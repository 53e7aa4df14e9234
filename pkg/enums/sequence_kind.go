package enums

import "fmt"

// SequenceKind names an entity family that receives year-scoped codes.
type SequenceKind string

const (
	SequenceKindLot         SequenceKind = "lot"
	SequenceKindTransaction SequenceKind = "transaction"
	SequenceKindFarmerBill  SequenceKind = "farmer_bill"
	SequenceKindTraderBill  SequenceKind = "trader_bill"
	SequenceKindUser        SequenceKind = "user"
)

var validSequenceKinds = []SequenceKind{
	SequenceKindLot,
	SequenceKindTransaction,
	SequenceKindFarmerBill,
	SequenceKindTraderBill,
	SequenceKindUser,
}

// IsValid reports whether the value is a known SequenceKind.
func (k SequenceKind) IsValid() bool {
	for _, candidate := range validSequenceKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseSequenceKind converts raw input into a SequenceKind.
func ParseSequenceKind(value string) (SequenceKind, error) {
	for _, candidate := range validSequenceKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sequence kind %q", value)
}
