package transactions

import (
	"context"
	"time"

	"github.com/agronond/mandi-backend/internal/bills"
	"github.com/agronond/mandi-backend/internal/sequence"
	"github.com/agronond/mandi-backend/pkg/db/models"
	"github.com/agronond/mandi-backend/pkg/enums"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
	"github.com/agronond/mandi-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMirror carries one settled payment leg so the transaction and
// bill rows stay consistent with the lot record.
type PaymentMirror struct {
	Party   enums.SettlementParty
	Mode    enums.PaymentMode
	Ref     *string
	PaidAt  time.Time
	Overall enums.PaymentStatus
}

// Service owns the immutable settlement snapshot of a sold lot: one
// transaction plus one bill per party, all created in the caller's
// database transaction.
type Service interface {
	CreateFromLot(ctx context.Context, tx *gorm.DB, lot *models.LotRecord) (*models.Transaction, error)
	MirrorPayment(ctx context.Context, tx *gorm.DB, lotRecordID uuid.UUID, mirror PaymentMirror) error
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	GetByCode(ctx context.Context, code string) (*models.Transaction, error)
	GetByLotRecord(ctx context.Context, lotRecordID uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo     Repository
	billRepo bills.Repository
	seq      sequence.Allocator
}

// ListParams filters and paginates transaction listings.
type ListParams struct {
	FarmerID      *uuid.UUID
	TraderID      *uuid.UUID
	PaymentStatus string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Cursor        string
}

// ListResult wraps returned transactions and the cursor for the next page.
type ListResult struct {
	Items  []models.Transaction `json:"items"`
	Cursor string               `json:"cursor"`
}

// NewService wires the transactions service dependencies.
func NewService(repo Repository, billRepo bills.Repository, seq sequence.Allocator) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transactions repository required")
	}
	if billRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bills repository required")
	}
	if seq == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sequence allocator required")
	}
	return &service{repo: repo, billRepo: billRepo, seq: seq}, nil
}

// CreateFromLot snapshots the sold lot into a transaction and two bills.
// The lot must already carry computed financials; amounts are copied, not
// derived again.
func (s *service) CreateFromLot(ctx context.Context, tx *gorm.DB, lot *models.LotRecord) (*models.Transaction, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database transaction required")
	}
	if lot == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot record required")
	}
	if !lot.FinancialsComputed() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "lot financials not computed")
	}
	if lot.TraderID == nil || *lot.TraderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "lot has no buyer")
	}
	if lot.SaleRate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "lot has no sale rate")
	}

	txnCode, err := s.seq.NextTransactionCode(ctx, tx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate transaction code")
	}

	quantity := billedQuantity(lot)

	txn := &models.Transaction{
		ID:          uuid.New(),
		TxnCode:     txnCode,
		LotRecordID: lot.ID,
		FarmerID:    lot.FarmerID,
		TraderID:    *lot.TraderID,
		Vegetable:   lot.Vegetable,
		SaleUnit:    lot.SaleUnit,
		Quantity:    quantity,
		SaleRate:    *lot.SaleRate,

		FarmerRate: lot.FarmerRate,
		TraderRate: lot.TraderRate,

		BaseAmount:          lot.BaseAmount,
		FarmerCommission:    lot.FarmerCommission,
		TraderCommission:    lot.TraderCommission,
		NetPayableFarmer:    lot.NetPayableFarmer,
		NetReceivableTrader: lot.NetReceivableTrader,
		TotalAmount:         lot.TotalAmount,

		FarmerPaymentStatus: enums.PaymentStatusPending,
		TraderPaymentStatus: enums.PaymentStatusPending,
		PaymentStatus:       enums.PaymentStatusPending,
	}

	repo := s.repo.WithTx(tx)
	if err := repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
	}

	farmerBillCode, err := s.seq.NextBillCode(ctx, tx, enums.SettlementPartyFarmer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate farmer bill code")
	}
	traderBillCode, err := s.seq.NextBillCode(ctx, tx, enums.SettlementPartyTrader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate trader bill code")
	}

	billRows := []models.Bill{
		{
			ID:            uuid.New(),
			BillCode:      farmerBillCode,
			TransactionID: txn.ID,
			LotRecordID:   lot.ID,
			Party:         enums.SettlementPartyFarmer,
			PartyUserID:   lot.FarmerID,
			Vegetable:     lot.Vegetable,
			Quantity:      quantity,
			SaleRate:      *lot.SaleRate,
			BaseAmount:    lot.BaseAmount,
			Commission:    lot.FarmerCommission,
			Amount:        lot.NetPayableFarmer,
			PaymentStatus: enums.PaymentStatusPending,
		},
		{
			ID:            uuid.New(),
			BillCode:      traderBillCode,
			TransactionID: txn.ID,
			LotRecordID:   lot.ID,
			Party:         enums.SettlementPartyTrader,
			PartyUserID:   *lot.TraderID,
			Vegetable:     lot.Vegetable,
			Quantity:      quantity,
			SaleRate:      *lot.SaleRate,
			BaseAmount:    lot.BaseAmount,
			Commission:    lot.TraderCommission,
			Amount:        lot.NetReceivableTrader,
			PaymentStatus: enums.PaymentStatusPending,
		},
	}
	if err := s.billRepo.WithTx(tx).Create(ctx, billRows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bills")
	}

	return txn, nil
}

// billedQuantity picks the measure the settlement priced for this sale
// unit so the snapshot stays consistent with the lot's amounts.
func billedQuantity(lot *models.LotRecord) decimal.Decimal {
	switch lot.SaleUnit {
	case enums.SaleUnitCarat:
		if lot.Carat != nil {
			return *lot.Carat
		}
		return decimal.Zero
	case enums.SaleUnitNag:
		if lot.OfficialNag != nil {
			return decimal.NewFromInt(int64(*lot.OfficialNag))
		}
		return decimal.NewFromInt(int64(lot.EstimatedNag))
	default:
		if lot.OfficialQty != nil {
			return *lot.OfficialQty
		}
		return lot.EstimatedQty
	}
}

// MirrorPayment applies one paid leg to the transaction and the matching
// bill so every settlement artifact reports the same payment state.
func (s *service) MirrorPayment(ctx context.Context, tx *gorm.DB, lotRecordID uuid.UUID, mirror PaymentMirror) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "database transaction required")
	}
	if lotRecordID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "lot record id required")
	}
	if !mirror.Party.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid settlement party")
	}
	if !mirror.Mode.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment mode")
	}

	prefix := "farmer"
	if mirror.Party == enums.SettlementPartyTrader {
		prefix = "trader"
	}
	txnAssignments := map[string]any{
		prefix + "_payment_status": enums.PaymentStatusPaid,
		prefix + "_payment_mode":   mirror.Mode,
		prefix + "_payment_ref":    mirror.Ref,
		prefix + "_paid_at":        mirror.PaidAt,
		"payment_status":           mirror.Overall,
	}
	if err := s.repo.WithTx(tx).UpdatePaymentByLot(ctx, lotRecordID, txnAssignments); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror payment to transaction")
	}

	billAssignments := map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"payment_mode":   mirror.Mode,
		"payment_ref":    mirror.Ref,
		"paid_at":        mirror.PaidAt,
	}
	if err := s.billRepo.WithTx(tx).UpdatePaymentByLot(ctx, lotRecordID, mirror.Party, billAssignments); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror payment to bill")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return txn, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.Transaction, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction code required")
	}
	txn, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return txn, nil
}

func (s *service) GetByLotRecord(ctx context.Context, lotRecordID uuid.UUID) (*models.Transaction, error) {
	if lotRecordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot record id required")
	}
	txn, err := s.repo.FindByLotRecord(ctx, lotRecordID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return txn, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listTransactionsParams{
		FarmerID:    params.FarmerID,
		TraderID:    params.TraderID,
		CreatedFrom: params.CreatedFrom,
		CreatedTo:   params.CreatedTo,
		Limit:       params.Limit,
	}
	if params.PaymentStatus != "" {
		status, err := enums.ParsePaymentStatus(params.PaymentStatus)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status filter")
		}
		value := string(status)
		query.PaymentStatus = &value
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}
