package lots

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agronond/mandi-backend/pkg/db/models"
	"github.com/agronond/mandi-backend/pkg/enums"
)

func setupLotsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS lot_records (
  id TEXT PRIMARY KEY,
  lot_code TEXT NOT NULL UNIQUE,
  farmer_id TEXT NOT NULL,
  trader_id TEXT,
  weighed_by_id TEXT,
  sold_by_id TEXT,
  vegetable TEXT NOT NULL,
  estimated_qty NUMERIC NOT NULL DEFAULT 0,
  official_qty NUMERIC,
  estimated_nag INTEGER NOT NULL DEFAULT 0,
  official_nag INTEGER,
  carat NUMERIC,
  sale_unit TEXT NOT NULL DEFAULT 'kg',
  sale_rate NUMERIC,
  farmer_rate NUMERIC NOT NULL DEFAULT 0.04,
  trader_rate NUMERIC NOT NULL DEFAULT 0.09,
  base_amount NUMERIC NOT NULL DEFAULT 0,
  farmer_commission NUMERIC NOT NULL DEFAULT 0,
  trader_commission NUMERIC NOT NULL DEFAULT 0,
  net_payable_farmer NUMERIC NOT NULL DEFAULT 0,
  net_receivable_trader NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  farmer_payment_status TEXT NOT NULL DEFAULT 'pending',
  farmer_payment_mode TEXT,
  farmer_payment_ref TEXT,
  farmer_paid_at DATETIME,
  trader_payment_status TEXT NOT NULL DEFAULT 'pending',
  trader_payment_mode TEXT,
  trader_payment_ref TEXT,
  trader_paid_at DATETIME,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(schema).Error)
	return conn
}

func lotRecordFixture(code string) *models.LotRecord {
	return &models.LotRecord{
		ID:           uuid.New(),
		LotCode:      code,
		FarmerID:     uuid.New(),
		Vegetable:    "tomato",
		EstimatedQty: decimal.NewFromInt(22),
		SaleUnit:     enums.SaleUnitKg,
		Status:       enums.LotStatusPending,

		FarmerPaymentStatus: enums.PaymentStatusPending,
		TraderPaymentStatus: enums.PaymentStatusPending,
		PaymentStatus:       enums.PaymentStatusPending,
	}
}

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := setupLotsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	lot := lotRecordFixture("LOT-2026-001")
	require.NoError(t, repo.Create(ctx, lot))

	byID, err := repo.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	require.Equal(t, lot.LotCode, byID.LotCode)

	byCode, err := repo.FindByCode(ctx, "LOT-2026-001")
	require.NoError(t, err)
	require.Equal(t, lot.ID, byCode.ID)

	_, err = repo.FindByCode(ctx, "LOT-2026-999")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateVersioned(t *testing.T) {
	conn := setupLotsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	lot := lotRecordFixture("LOT-2026-001")
	require.NoError(t, repo.Create(ctx, lot))

	lot.Status = enums.LotStatusRateAssigned
	lot.Version = 1
	ok, err := repo.UpdateVersioned(ctx, lot, 0)
	require.NoError(t, err)
	require.True(t, ok)

	reloaded, err := repo.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	require.Equal(t, enums.LotStatusRateAssigned, reloaded.Status)
	require.Equal(t, 1, reloaded.Version)

	// A writer still holding version 0 loses.
	stale := *reloaded
	stale.Status = enums.LotStatusWeighed
	stale.Version = 1
	ok, err = repo.UpdateVersioned(ctx, &stale, 0)
	require.NoError(t, err)
	require.False(t, ok)

	unchanged, err := repo.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	require.Equal(t, enums.LotStatusRateAssigned, unchanged.Status)
}

func TestRepositoryListFilters(t *testing.T) {
	conn := setupLotsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	farmerID := uuid.New()
	sold := lotRecordFixture("LOT-2026-001")
	sold.FarmerID = farmerID
	sold.Status = enums.LotStatusSold
	require.NoError(t, repo.Create(ctx, sold))

	pending := lotRecordFixture("LOT-2026-002")
	pending.FarmerID = farmerID
	require.NoError(t, repo.Create(ctx, pending))

	other := lotRecordFixture("LOT-2026-003")
	other.Vegetable = "onion"
	require.NoError(t, repo.Create(ctx, other))

	status := enums.LotStatusSold
	rows, _, err := repo.List(ctx, listLotsParams{Status: &status})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "LOT-2026-001", rows[0].LotCode)

	rows, _, err = repo.List(ctx, listLotsParams{FarmerID: &farmerID})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, _, err = repo.List(ctx, listLotsParams{Vegetable: "onion"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "LOT-2026-003", rows[0].LotCode)
}

func TestRepositoryDelete(t *testing.T) {
	conn := setupLotsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	lot := lotRecordFixture("LOT-2026-001")
	require.NoError(t, repo.Create(ctx, lot))

	ok, err := repo.Delete(ctx, lot.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Delete(ctx, lot.ID)
	require.NoError(t, err)
	require.False(t, ok)
}
