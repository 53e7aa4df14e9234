package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agronond/mandi-backend/pkg/db/models"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
)

// DailySummaryInput selects the market day to summarize. A zero Date
// means today.
type DailySummaryInput struct {
	Date time.Time
}

// DailySummary is the committee's end-of-day rollup.
type DailySummary struct {
	Date                 string          `json:"date"`
	LotsSold             int64           `json:"lots_sold"`
	TotalQuantity        decimal.Decimal `json:"total_quantity"`
	BaseAmount           decimal.Decimal `json:"base_amount"`
	FarmerCommission     decimal.Decimal `json:"farmer_commission"`
	TraderCommission     decimal.Decimal `json:"trader_commission"`
	TotalCommission      decimal.Decimal `json:"total_commission"`
	NetPayableFarmers    decimal.Decimal `json:"net_payable_farmers"`
	NetReceivableTraders decimal.Decimal `json:"net_receivable_traders"`
	TraderOutstanding    decimal.Decimal `json:"trader_outstanding"`
	TraderCollected      decimal.Decimal `json:"trader_collected"`
	FarmerOutstanding    decimal.Decimal `json:"farmer_outstanding"`
}

// ExportInput bounds the CSV export window. Nil bounds mean unbounded.
type ExportInput struct {
	From *time.Time
	To   *time.Time
}

// Service exposes the committee reporting operations.
type Service interface {
	DailySummary(ctx context.Context, input DailySummaryInput) (*DailySummary, error)
	ExportTransactionsCSV(ctx context.Context, w io.Writer, input ExportInput) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs the reports service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) DailySummary(ctx context.Context, input DailySummaryInput) (*DailySummary, error) {
	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	agg, err := s.repo.SummarizeTransactions(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summarizing transactions")
	}

	return &DailySummary{
		Date:                 dayStart.Format("2006-01-02"),
		LotsSold:             agg.LotsSold,
		TotalQuantity:        agg.TotalQuantity,
		BaseAmount:           agg.BaseAmount,
		FarmerCommission:     agg.FarmerCommission,
		TraderCommission:     agg.TraderCommission,
		TotalCommission:      agg.FarmerCommission.Add(agg.TraderCommission),
		NetPayableFarmers:    agg.NetPayableFarmers,
		NetReceivableTraders: agg.NetReceivableTraders,
		TraderOutstanding:    agg.TraderOutstanding,
		TraderCollected:      agg.TraderCollected,
		FarmerOutstanding:    agg.FarmerOutstanding,
	}, nil
}

var csvHeader = []string{
	"txn_code", "created_at", "vegetable", "quantity", "sale_unit",
	"sale_rate", "base_amount", "farmer_commission", "trader_commission",
	"net_payable_farmer", "net_receivable_trader", "total_amount",
	"farmer_payment_status", "trader_payment_status", "payment_status",
}

func (s *service) ExportTransactionsCSV(ctx context.Context, w io.Writer, input ExportInput) error {
	if input.From != nil && input.To != nil && input.To.Before(*input.From) {
		return pkgerrors.New(pkgerrors.CodeValidation, "export window end precedes its start")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv header")
	}

	err := s.repo.StreamTransactions(ctx, input.From, input.To, func(batch []models.Transaction) error {
		for i := range batch {
			txn := &batch[i]
			record := []string{
				txn.TxnCode,
				txn.CreatedAt.UTC().Format(time.RFC3339),
				txn.Vegetable,
				txn.Quantity.String(),
				string(txn.SaleUnit),
				txn.SaleRate.String(),
				txn.BaseAmount.String(),
				txn.FarmerCommission.String(),
				txn.TraderCommission.String(),
				txn.NetPayableFarmer.String(),
				txn.NetReceivableTrader.String(),
				txn.TotalAmount.String(),
				string(txn.FarmerPaymentStatus),
				string(txn.TraderPaymentStatus),
				string(txn.PaymentStatus),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "exporting transactions")
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flushing csv")
	}
	return nil
}
