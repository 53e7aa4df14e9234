// Package settlement derives the monetary breakdown of a produce sale.
// It is pure arithmetic with no storage dependency; the computed rates are
// meant to be snapshotted onto the record that requested them.
package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agronond/mandi-backend/pkg/enums"
)

// Market default commission rates applied when a lot carries none.
var (
	DefaultFarmerRate = decimal.NewFromFloat(0.04)
	DefaultTraderRate = decimal.NewFromFloat(0.09)
)

// Input carries the measured quantities and commercial terms of a sale.
type Input struct {
	Unit       enums.SaleUnit
	Quantity   decimal.Decimal // kg, authoritative official weight
	Nag        int             // count-based unit
	Carat      decimal.Decimal // alternate unit for certain produce
	Rate       decimal.Decimal // currency per unit
	FarmerRate decimal.Decimal // zero means DefaultFarmerRate
	TraderRate decimal.Decimal // zero means DefaultTraderRate
}

// Breakdown is the derived financial snapshot of a sale. Commissions are
// rounded to whole rupees so that aggregate reports sum exactly.
type Breakdown struct {
	Quantity            decimal.Decimal
	FarmerRate          decimal.Decimal
	TraderRate          decimal.Decimal
	BaseAmount          decimal.Decimal
	FarmerCommission    decimal.Decimal
	TraderCommission    decimal.Decimal
	NetPayableFarmer    decimal.Decimal
	NetReceivableTrader decimal.Decimal
	TotalAmount         decimal.Decimal
	CommissionTotal     decimal.Decimal
}

// Compute derives the full breakdown for the given sale terms.
func Compute(in Input) (Breakdown, error) {
	if !in.Unit.IsValid() {
		return Breakdown{}, fmt.Errorf("invalid sale unit %q", in.Unit)
	}
	if in.Rate.IsNegative() {
		return Breakdown{}, fmt.Errorf("sale rate must not be negative")
	}

	qty, err := billedQuantity(in)
	if err != nil {
		return Breakdown{}, err
	}

	farmerRate := in.FarmerRate
	if farmerRate.IsZero() {
		farmerRate = DefaultFarmerRate
	}
	traderRate := in.TraderRate
	if traderRate.IsZero() {
		traderRate = DefaultTraderRate
	}
	if farmerRate.IsNegative() || traderRate.IsNegative() {
		return Breakdown{}, fmt.Errorf("commission rates must not be negative")
	}

	base := qty.Mul(in.Rate)
	farmerCommission := base.Mul(farmerRate).Round(0)
	traderCommission := base.Mul(traderRate).Round(0)

	return Breakdown{
		Quantity:            qty,
		FarmerRate:          farmerRate,
		TraderRate:          traderRate,
		BaseAmount:          base,
		FarmerCommission:    farmerCommission,
		TraderCommission:    traderCommission,
		NetPayableFarmer:    base.Sub(farmerCommission),
		NetReceivableTrader: base.Add(traderCommission),
		TotalAmount:         base.Add(traderCommission),
		CommissionTotal:     farmerCommission.Add(traderCommission),
	}, nil
}

func billedQuantity(in Input) (decimal.Decimal, error) {
	switch in.Unit {
	case enums.SaleUnitCarat:
		if in.Carat.IsNegative() {
			return decimal.Zero, fmt.Errorf("carat must not be negative")
		}
		return in.Carat, nil
	case enums.SaleUnitNag:
		if in.Nag < 0 {
			return decimal.Zero, fmt.Errorf("nag count must not be negative")
		}
		return decimal.NewFromInt(int64(in.Nag)), nil
	default:
		if in.Quantity.IsNegative() {
			return decimal.Zero, fmt.Errorf("quantity must not be negative")
		}
		return in.Quantity, nil
	}
}
