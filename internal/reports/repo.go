package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agronond/mandi-backend/pkg/db/models"
)

// TransactionAggregates holds the rollup over settled transactions in a
// time window.
type TransactionAggregates struct {
	LotsSold             int64           `gorm:"column:lots_sold"`
	TotalQuantity        decimal.Decimal `gorm:"column:total_quantity"`
	BaseAmount           decimal.Decimal `gorm:"column:base_amount"`
	FarmerCommission     decimal.Decimal `gorm:"column:farmer_commission"`
	TraderCommission     decimal.Decimal `gorm:"column:trader_commission"`
	NetPayableFarmers    decimal.Decimal `gorm:"column:net_payable_farmers"`
	NetReceivableTraders decimal.Decimal `gorm:"column:net_receivable_traders"`
	TraderOutstanding    decimal.Decimal `gorm:"column:trader_outstanding"`
	TraderCollected      decimal.Decimal `gorm:"column:trader_collected"`
	FarmerOutstanding    decimal.Decimal `gorm:"column:farmer_outstanding"`
}

// Repository provides read-only reporting queries over the transaction
// ledger.
type Repository interface {
	SummarizeTransactions(ctx context.Context, from, to time.Time) (*TransactionAggregates, error)
	StreamTransactions(ctx context.Context, from, to *time.Time, fn func(batch []models.Transaction) error) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reports repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

const summarizeQuery = `
SELECT
  COUNT(*)                                       AS lots_sold,
  COALESCE(SUM(quantity), 0)                     AS total_quantity,
  COALESCE(SUM(base_amount), 0)                  AS base_amount,
  COALESCE(SUM(farmer_commission), 0)            AS farmer_commission,
  COALESCE(SUM(trader_commission), 0)            AS trader_commission,
  COALESCE(SUM(net_payable_farmer), 0)           AS net_payable_farmers,
  COALESCE(SUM(net_receivable_trader), 0)        AS net_receivable_traders,
  COALESCE(SUM(CASE WHEN trader_payment_status <> 'paid' THEN net_receivable_trader ELSE 0 END), 0) AS trader_outstanding,
  COALESCE(SUM(CASE WHEN trader_payment_status = 'paid'  THEN net_receivable_trader ELSE 0 END), 0) AS trader_collected,
  COALESCE(SUM(CASE WHEN farmer_payment_status <> 'paid' THEN net_payable_farmer    ELSE 0 END), 0) AS farmer_outstanding
FROM transactions
WHERE created_at >= ? AND created_at < ?`

func (r *repository) SummarizeTransactions(ctx context.Context, from, to time.Time) (*TransactionAggregates, error) {
	var agg TransactionAggregates
	if err := r.db.WithContext(ctx).Raw(summarizeQuery, from, to).Scan(&agg).Error; err != nil {
		return nil, err
	}
	return &agg, nil
}

const exportBatchSize = 500

func (r *repository) StreamTransactions(ctx context.Context, from, to *time.Time, fn func(batch []models.Transaction) error) error {
	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Order("created_at ASC, txn_code ASC")
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}

	var rows []models.Transaction
	result := query.FindInBatches(&rows, exportBatchSize, func(_ *gorm.DB, _ int) error {
		return fn(rows)
	})
	return result.Error
}
