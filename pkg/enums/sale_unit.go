package enums

import "fmt"

// SaleUnit identifies which measured quantity prices a lot.
type SaleUnit string

const (
	SaleUnitKg    SaleUnit = "kg"
	SaleUnitNag   SaleUnit = "nag"
	SaleUnitCarat SaleUnit = "carat"
)

var validSaleUnits = []SaleUnit{
	SaleUnitKg,
	SaleUnitNag,
	SaleUnitCarat,
}

// String implements fmt.Stringer.
func (u SaleUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known SaleUnit.
func (u SaleUnit) IsValid() bool {
	for _, candidate := range validSaleUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseSaleUnit converts raw input into a SaleUnit.
func ParseSaleUnit(value string) (SaleUnit, error) {
	for _, candidate := range validSaleUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale unit %q", value)
}
