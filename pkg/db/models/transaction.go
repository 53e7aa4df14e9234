package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agronond/mandi-backend/pkg/enums"
)

// Transaction is the committee-facing ledger twin of a sold lot. Its
// monetary columns are copied from the lot once at creation and are not
// kept in sync with later lot edits.
type Transaction struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TxnCode     string    `gorm:"column:txn_code;type:text;not null;uniqueIndex"`
	LotRecordID uuid.UUID `gorm:"column:lot_record_id;type:uuid;not null;index"`

	FarmerID uuid.UUID `gorm:"column:farmer_id;type:uuid;not null"`
	TraderID uuid.UUID `gorm:"column:trader_id;type:uuid;not null"`

	Vegetable string          `gorm:"column:vegetable;type:text;not null"`
	SaleUnit  enums.SaleUnit  `gorm:"column:sale_unit;type:text;not null"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	SaleRate  decimal.Decimal `gorm:"column:sale_rate;type:numeric(12,2);not null"`

	FarmerRate decimal.Decimal `gorm:"column:farmer_rate;type:numeric(6,4);not null"`
	TraderRate decimal.Decimal `gorm:"column:trader_rate;type:numeric(6,4);not null"`

	BaseAmount          decimal.Decimal `gorm:"column:base_amount;type:numeric(14,2);not null"`
	FarmerCommission    decimal.Decimal `gorm:"column:farmer_commission;type:numeric(14,2);not null"`
	TraderCommission    decimal.Decimal `gorm:"column:trader_commission;type:numeric(14,2);not null"`
	NetPayableFarmer    decimal.Decimal `gorm:"column:net_payable_farmer;type:numeric(14,2);not null"`
	NetReceivableTrader decimal.Decimal `gorm:"column:net_receivable_trader;type:numeric(14,2);not null"`
	TotalAmount         decimal.Decimal `gorm:"column:total_amount;type:numeric(14,2);not null"`

	FarmerPaymentStatus enums.PaymentStatus `gorm:"column:farmer_payment_status;type:text;not null;default:'pending'"`
	FarmerPaymentMode   *enums.PaymentMode  `gorm:"column:farmer_payment_mode;type:text"`
	FarmerPaymentRef    *string             `gorm:"column:farmer_payment_ref"`
	FarmerPaidAt        *time.Time          `gorm:"column:farmer_paid_at"`

	TraderPaymentStatus enums.PaymentStatus `gorm:"column:trader_payment_status;type:text;not null;default:'pending'"`
	TraderPaymentMode   *enums.PaymentMode  `gorm:"column:trader_payment_mode;type:text"`
	TraderPaymentRef    *string             `gorm:"column:trader_payment_ref"`
	TraderPaidAt        *time.Time          `gorm:"column:trader_paid_at"`

	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table for Transaction.
func (Transaction) TableName() string {
	return "transactions"
}
