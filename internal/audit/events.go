package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agronond/mandi-backend/pkg/enums"
)

// ChangeSet is implemented by one struct per entity/action pair so every
// audit row carries a known payload shape instead of an untyped blob.
type ChangeSet interface {
	Action() enums.AuditAction
}

// LotCreatedChanges records the intake snapshot of a new lot.
type LotCreatedChanges struct {
	LotCode      string          `json:"lot_code"`
	FarmerID     uuid.UUID       `json:"farmer_id"`
	Vegetable    string          `json:"vegetable"`
	EstimatedQty decimal.Decimal `json:"estimated_qty"`
	EstimatedNag int             `json:"estimated_nag"`
}

// Action implements ChangeSet.
func (LotCreatedChanges) Action() enums.AuditAction { return enums.AuditActionLotCreated }

// RateAssignedChanges records the auction outcome applied to a lot.
type RateAssignedChanges struct {
	TraderID   uuid.UUID       `json:"trader_id"`
	SaleUnit   enums.SaleUnit  `json:"sale_unit"`
	SaleRate   decimal.Decimal `json:"sale_rate"`
	FromStatus enums.LotStatus `json:"from_status"`
	ToStatus   enums.LotStatus `json:"to_status"`
}

// Action implements ChangeSet.
func (RateAssignedChanges) Action() enums.AuditAction { return enums.AuditActionRateAssigned }

// WeightFinalizedChanges records the official measurement of a lot and,
// when the weighing completed the sale, the computed settlement totals.
type WeightFinalizedChanges struct {
	OfficialQty *decimal.Decimal `json:"official_qty,omitempty"`
	OfficialNag *int             `json:"official_nag,omitempty"`
	Carat       *decimal.Decimal `json:"carat,omitempty"`
	FromStatus  enums.LotStatus  `json:"from_status"`
	ToStatus    enums.LotStatus  `json:"to_status"`
	BaseAmount  *decimal.Decimal `json:"base_amount,omitempty"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
}

// Action implements ChangeSet.
func (WeightFinalizedChanges) Action() enums.AuditAction { return enums.AuditActionWeightFinalized }

// PaymentUpdatedChanges records a settlement leg being marked paid.
type PaymentUpdatedChanges struct {
	Party         enums.SettlementParty `json:"party"`
	Mode          enums.PaymentMode     `json:"mode"`
	Reference     string                `json:"reference,omitempty"`
	PaidAt        time.Time             `json:"paid_at"`
	OverallStatus enums.PaymentStatus   `json:"overall_status"`
}

// Action implements ChangeSet.
func (PaymentUpdatedChanges) Action() enums.AuditAction { return enums.AuditActionPaymentUpdated }

// UserRegisteredChanges records a new party or staff account.
type UserRegisteredChanges struct {
	Phone      string         `json:"phone"`
	Role       enums.UserRole `json:"role"`
	CustomCode string         `json:"custom_code,omitempty"`
}

// Action implements ChangeSet.
func (UserRegisteredChanges) Action() enums.AuditAction { return enums.AuditActionUserRegistered }

// LotDeletedChanges records an explicit administrative removal.
type LotDeletedChanges struct {
	LotCode string          `json:"lot_code"`
	Status  enums.LotStatus `json:"status"`
}

// Action implements ChangeSet.
func (LotDeletedChanges) Action() enums.AuditAction { return enums.AuditActionLotDeleted }

func marshalChanges(changes ChangeSet) (json.RawMessage, error) {
	if changes == nil {
		return nil, fmt.Errorf("audit changes payload required")
	}
	raw, err := json.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("marshaling audit changes: %w", err)
	}
	return raw, nil
}
