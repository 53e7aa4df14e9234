package bills

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agronond/mandi-backend/pkg/db/models"
	"github.com/agronond/mandi-backend/pkg/enums"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
)

func setupBillsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`CREATE TABLE IF NOT EXISTS bills (
  id TEXT PRIMARY KEY,
  bill_code TEXT NOT NULL UNIQUE,
  transaction_id TEXT NOT NULL,
  lot_record_id TEXT NOT NULL,
  party TEXT NOT NULL,
  party_user_id TEXT NOT NULL,
  vegetable TEXT NOT NULL,
  quantity NUMERIC NOT NULL,
  sale_rate NUMERIC NOT NULL,
  base_amount NUMERIC NOT NULL,
  commission NUMERIC NOT NULL,
  amount NUMERIC NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_mode TEXT,
  payment_ref TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return conn
}

func newBillsService(t *testing.T, conn *gorm.DB) (Service, Repository) {
	t.Helper()
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func billFixture(code string, party enums.SettlementParty, createdAt time.Time) models.Bill {
	return models.Bill{
		ID:            uuid.New(),
		BillCode:      code,
		TransactionID: uuid.New(),
		LotRecordID:   uuid.New(),
		Party:         party,
		PartyUserID:   uuid.New(),
		Vegetable:     "onion",
		Quantity:      decimal.NewFromInt(105),
		SaleRate:      decimal.NewFromInt(20),
		BaseAmount:    decimal.NewFromInt(2100),
		Commission:    decimal.NewFromInt(84),
		Amount:        decimal.NewFromInt(2016),
		PaymentStatus: enums.PaymentStatusPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestGetBillByCode(t *testing.T) {
	conn := setupBillsTestDB(t)
	svc, repo := newBillsService(t, conn)
	ctx := context.Background()

	bill := billFixture("FB-2026-00007", enums.SettlementPartyFarmer, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, []models.Bill{bill}))

	found, err := svc.GetByCode(ctx, "FB-2026-00007")
	require.NoError(t, err)
	require.Equal(t, bill.ID, found.ID)
	require.True(t, found.Amount.Equal(decimal.NewFromInt(2016)))

	_, err = svc.GetByCode(ctx, "FB-2026-99999")
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestGetBillRejectsNilID(t *testing.T) {
	conn := setupBillsTestDB(t)
	svc, _ := newBillsService(t, conn)

	_, err := svc.Get(context.Background(), uuid.Nil)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListForLotReturnsBothParties(t *testing.T) {
	conn := setupBillsTestDB(t)
	svc, repo := newBillsService(t, conn)
	ctx := context.Background()

	lotID := uuid.New()
	now := time.Now().UTC()
	farmer := billFixture("FB-2026-00001", enums.SettlementPartyFarmer, now)
	farmer.LotRecordID = lotID
	trader := billFixture("TB-2026-00001", enums.SettlementPartyTrader, now)
	trader.LotRecordID = lotID
	trader.Amount = decimal.NewFromInt(2289)
	other := billFixture("FB-2026-00002", enums.SettlementPartyFarmer, now)
	require.NoError(t, repo.Create(ctx, []models.Bill{farmer, trader, other}))

	rows, err := svc.ListForLot(ctx, lotID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, enums.SettlementPartyFarmer, rows[0].Party)
	require.Equal(t, enums.SettlementPartyTrader, rows[1].Party)
}

func TestListBillsFiltersByPartyUser(t *testing.T) {
	conn := setupBillsTestDB(t)
	svc, repo := newBillsService(t, conn)
	ctx := context.Background()

	traderID := uuid.New()
	base := time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)
	var rows []models.Bill
	for i := 0; i < 3; i++ {
		bill := billFixture(fmt.Sprintf("TB-2026-%05d", i+1), enums.SettlementPartyTrader, base.Add(time.Duration(i)*time.Minute))
		bill.PartyUserID = traderID
		rows = append(rows, bill)
	}
	rows = append(rows, billFixture("FB-2026-00009", enums.SettlementPartyFarmer, base))
	require.NoError(t, repo.Create(ctx, rows))

	result, err := svc.List(ctx, ListParams{Party: "trader", PartyUserID: &traderID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	require.NotEmpty(t, result.Cursor)

	rest, err := svc.List(ctx, ListParams{Party: "trader", PartyUserID: &traderID, Limit: 2, Cursor: result.Cursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	require.Empty(t, rest.Cursor)
}

func TestListBillsInvalidPartyFilter(t *testing.T) {
	conn := setupBillsTestDB(t)
	svc, _ := newBillsService(t, conn)

	_, err := svc.List(context.Background(), ListParams{Party: "auctioneer"})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
