package lots

import (
	"time"

	"github.com/agronond/mandi-backend/internal/audit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IntakeInput registers a farmer's produce batch at the market gate.
type IntakeInput struct {
	FarmerID     uuid.UUID
	Vegetable    string
	EstimatedQty decimal.Decimal
	EstimatedNag int
	Actor        audit.Actor
}

// AssignRateInput applies the auction outcome to a lot.
type AssignRateInput struct {
	LotID    uuid.UUID
	TraderID uuid.UUID
	SaleUnit string
	SaleRate decimal.Decimal
	Actor    audit.Actor
}

// FinalizeWeightInput records the official measurement from the weighbridge.
type FinalizeWeightInput struct {
	LotID       uuid.UUID
	OfficialQty *decimal.Decimal
	OfficialNag *int
	Carat       *decimal.Decimal
	Actor       audit.Actor
}

// UpdatePaymentInput marks one settlement leg as paid.
type UpdatePaymentInput struct {
	LotID     uuid.UUID
	Party     string
	Mode      string
	Reference string
	PaidAt    *time.Time
	Actor     audit.Actor
}

// ListInput filters and paginates lot listings.
type ListInput struct {
	Status        string
	PaymentStatus string
	FarmerID      *uuid.UUID
	TraderID      *uuid.UUID
	Vegetable     string
	Limit         int
	Cursor        string
}
