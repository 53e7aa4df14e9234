package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agronond/mandi-backend/pkg/enums"
)

// Bill is the party-facing settlement artifact, one per party per
// transaction. Amounts are copied at creation and never recomputed.
type Bill struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BillCode      string                `gorm:"column:bill_code;type:text;not null;uniqueIndex"`
	TransactionID uuid.UUID             `gorm:"column:transaction_id;type:uuid;not null;index"`
	LotRecordID   uuid.UUID             `gorm:"column:lot_record_id;type:uuid;not null;index"`
	Party         enums.SettlementParty `gorm:"column:party;type:text;not null"`
	PartyUserID   uuid.UUID             `gorm:"column:party_user_id;type:uuid;not null"`

	Vegetable  string          `gorm:"column:vegetable;type:text;not null"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	SaleRate   decimal.Decimal `gorm:"column:sale_rate;type:numeric(12,2);not null"`
	BaseAmount decimal.Decimal `gorm:"column:base_amount;type:numeric(14,2);not null"`
	Commission decimal.Decimal `gorm:"column:commission;type:numeric(14,2);not null"`
	// Amount is what the party pays or receives: net payable for the
	// farmer, net receivable for the trader.
	Amount decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`

	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMode   *enums.PaymentMode  `gorm:"column:payment_mode;type:text"`
	PaymentRef    *string             `gorm:"column:payment_ref"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table for Bill.
func (Bill) TableName() string {
	return "bills"
}
