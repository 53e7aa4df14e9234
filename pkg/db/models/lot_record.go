package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agronond/mandi-backend/pkg/enums"
)

// LotRecord is one farmer-submitted batch of produce tracked from intake
// through auction, weighing, and settlement. Financial columns hold the
// snapshot computed when the lot was sold and are never recomputed.
type LotRecord struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LotCode string    `gorm:"column:lot_code;type:text;not null;uniqueIndex"`

	FarmerID    uuid.UUID  `gorm:"column:farmer_id;type:uuid;not null"`
	TraderID    *uuid.UUID `gorm:"column:trader_id;type:uuid"`
	WeighedByID *uuid.UUID `gorm:"column:weighed_by_id;type:uuid"`
	SoldByID    *uuid.UUID `gorm:"column:sold_by_id;type:uuid"`

	Vegetable string `gorm:"column:vegetable;type:text;not null"`

	EstimatedQty decimal.Decimal  `gorm:"column:estimated_qty;type:numeric(12,3);not null;default:0"`
	OfficialQty  *decimal.Decimal `gorm:"column:official_qty;type:numeric(12,3)"`
	EstimatedNag int              `gorm:"column:estimated_nag;not null;default:0"`
	OfficialNag  *int             `gorm:"column:official_nag"`
	Carat        *decimal.Decimal `gorm:"column:carat;type:numeric(12,3)"`

	SaleUnit enums.SaleUnit   `gorm:"column:sale_unit;type:text;not null;default:'kg'"`
	SaleRate *decimal.Decimal `gorm:"column:sale_rate;type:numeric(12,2)"`

	// Commission rates snapshotted when financials are computed. Later
	// changes to the market configuration must not alter stored amounts.
	FarmerRate decimal.Decimal `gorm:"column:farmer_rate;type:numeric(6,4);not null;default:0.04"`
	TraderRate decimal.Decimal `gorm:"column:trader_rate;type:numeric(6,4);not null;default:0.09"`

	BaseAmount          decimal.Decimal `gorm:"column:base_amount;type:numeric(14,2);not null;default:0"`
	FarmerCommission    decimal.Decimal `gorm:"column:farmer_commission;type:numeric(14,2);not null;default:0"`
	TraderCommission    decimal.Decimal `gorm:"column:trader_commission;type:numeric(14,2);not null;default:0"`
	NetPayableFarmer    decimal.Decimal `gorm:"column:net_payable_farmer;type:numeric(14,2);not null;default:0"`
	NetReceivableTrader decimal.Decimal `gorm:"column:net_receivable_trader;type:numeric(14,2);not null;default:0"`
	TotalAmount         decimal.Decimal `gorm:"column:total_amount;type:numeric(14,2);not null;default:0"`

	Status enums.LotStatus `gorm:"column:status;type:text;not null;default:'pending'"`

	FarmerPaymentStatus enums.PaymentStatus `gorm:"column:farmer_payment_status;type:text;not null;default:'pending'"`
	FarmerPaymentMode   *enums.PaymentMode  `gorm:"column:farmer_payment_mode;type:text"`
	FarmerPaymentRef    *string             `gorm:"column:farmer_payment_ref"`
	FarmerPaidAt        *time.Time          `gorm:"column:farmer_paid_at"`

	TraderPaymentStatus enums.PaymentStatus `gorm:"column:trader_payment_status;type:text;not null;default:'pending'"`
	TraderPaymentMode   *enums.PaymentMode  `gorm:"column:trader_payment_mode;type:text"`
	TraderPaymentRef    *string             `gorm:"column:trader_payment_ref"`
	TraderPaidAt        *time.Time          `gorm:"column:trader_paid_at"`

	// Overall settlement marker. The market closes a sale once the trader
	// leg is paid, independent of the farmer leg.
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`

	// Version guards concurrent staff edits with a conditional update.
	Version int `gorm:"column:version;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table for LotRecord.
func (LotRecord) TableName() string {
	return "lot_records"
}

// FinancialsComputed reports whether the settlement snapshot is present.
func (l *LotRecord) FinancialsComputed() bool {
	return l.Status == enums.LotStatusSold
}
