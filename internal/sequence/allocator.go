// Package sequence allocates the human-readable year-scoped codes stamped
// on lots, transactions, bills, and privileged users. Numbers come from a
// counter row per (kind, role, year) bumped with a single upsert, so two
// concurrent creations can never observe the same value.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/agronond/mandi-backend/pkg/db"
	"github.com/agronond/mandi-backend/pkg/enums"
)

// Allocator hands out formatted codes inside the caller's transaction.
type Allocator interface {
	NextLotCode(ctx context.Context, tx *gorm.DB) (string, error)
	NextTransactionCode(ctx context.Context, tx *gorm.DB) (string, error)
	NextBillCode(ctx context.Context, tx *gorm.DB, party enums.SettlementParty) (string, error)
	NextUserCode(ctx context.Context, tx *gorm.DB, role enums.UserRole) (string, error)
}

type allocator struct {
	now func() time.Time
}

// NewAllocator returns the production allocator using wall-clock years.
func NewAllocator() Allocator {
	return &allocator{now: time.Now}
}

// NewAllocatorAt returns an allocator pinned to the provided clock.
func NewAllocatorAt(now func() time.Time) Allocator {
	if now == nil {
		now = time.Now
	}
	return &allocator{now: now}
}

const (
	lotPadWidth         = 3
	userPadWidth        = 3
	billPadWidth        = 5
	transactionPadWidth = 6
)

const upsertAttempts = 3

func (a *allocator) NextLotCode(ctx context.Context, tx *gorm.DB) (string, error) {
	year := a.now().Year()
	n, err := a.next(ctx, tx, enums.SequenceKindLot, "", year)
	if err != nil {
		return "", err
	}
	return formatCode("LOT", year, n, lotPadWidth), nil
}

func (a *allocator) NextTransactionCode(ctx context.Context, tx *gorm.DB) (string, error) {
	year := a.now().Year()
	n, err := a.next(ctx, tx, enums.SequenceKindTransaction, "", year)
	if err != nil {
		return "", err
	}
	return formatCode("TXN", year, n, transactionPadWidth), nil
}

func (a *allocator) NextBillCode(ctx context.Context, tx *gorm.DB, party enums.SettlementParty) (string, error) {
	if !party.IsValid() {
		return "", fmt.Errorf("invalid settlement party %q", party)
	}
	kind := enums.SequenceKindFarmerBill
	prefix := "FB"
	if party == enums.SettlementPartyTrader {
		kind = enums.SequenceKindTraderBill
		prefix = "TB"
	}
	year := a.now().Year()
	n, err := a.next(ctx, tx, kind, "", year)
	if err != nil {
		return "", err
	}
	return formatCode(prefix, year, n, billPadWidth), nil
}

func (a *allocator) NextUserCode(ctx context.Context, tx *gorm.DB, role enums.UserRole) (string, error) {
	prefix := role.CodePrefix()
	if prefix == "" {
		return "", fmt.Errorf("role %q does not receive a custom code", role)
	}
	year := a.now().Year()
	n, err := a.next(ctx, tx, enums.SequenceKindUser, string(role), year)
	if err != nil {
		return "", err
	}
	return formatCode(prefix, year, n, userPadWidth), nil
}

// next bumps the counter row and returns the fresh value. The upsert is
// atomic on its own; the retry covers transient serialization failures
// when two transactions race to create the row for a new year.
func (a *allocator) next(ctx context.Context, tx *gorm.DB, kind enums.SequenceKind, role string, year int) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("sequence allocation requires a transaction")
	}

	var value int64
	backoff := retry.WithMaxRetries(upsertAttempts, retry.NewConstant(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		row := tx.WithContext(ctx).Raw(`
INSERT INTO sequence_counters (kind, role, year, value, updated_at)
VALUES (?, ?, ?, 1, CURRENT_TIMESTAMP)
ON CONFLICT (kind, role, year)
DO UPDATE SET value = sequence_counters.value + 1, updated_at = CURRENT_TIMESTAMP
RETURNING value`, kind, role, year).Scan(&value)
		if row.Error != nil {
			if db.IsUniqueViolation(row.Error, "") {
				return retry.RetryableError(row.Error)
			}
			return row.Error
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("allocating %s sequence for %d: %w", kind, year, err)
	}
	return value, nil
}

func formatCode(prefix string, year int, n int64, width int) string {
	return fmt.Sprintf("%s-%d-%0*d", prefix, year, width, n)
}
