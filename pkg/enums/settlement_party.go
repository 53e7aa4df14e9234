package enums

import "fmt"

// SettlementParty names the leg of a sale a payment or bill belongs to.
type SettlementParty string

const (
	SettlementPartyFarmer SettlementParty = "farmer"
	SettlementPartyTrader SettlementParty = "trader"
)

var validSettlementParties = []SettlementParty{
	SettlementPartyFarmer,
	SettlementPartyTrader,
}

// String implements fmt.Stringer.
func (p SettlementParty) String() string {
	return string(p)
}

// IsValid reports whether the value is a known SettlementParty.
func (p SettlementParty) IsValid() bool {
	for _, candidate := range validSettlementParties {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseSettlementParty converts raw input into a SettlementParty.
func ParseSettlementParty(value string) (SettlementParty, error) {
	for _, candidate := range validSettlementParties {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid settlement party %q", value)
}
