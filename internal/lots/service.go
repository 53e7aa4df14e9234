package lots

import (
	"context"
	"fmt"
	"time"

	"github.com/agronond/mandi-backend/internal/audit"
	"github.com/agronond/mandi-backend/internal/notifications"
	"github.com/agronond/mandi-backend/internal/sequence"
	"github.com/agronond/mandi-backend/internal/transactions"
	"github.com/agronond/mandi-backend/pkg/db/models"
	"github.com/agronond/mandi-backend/pkg/enums"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
	"github.com/agronond/mandi-backend/pkg/logger"
	"github.com/agronond/mandi-backend/pkg/metrics"
	"github.com/agronond/mandi-backend/pkg/pagination"
	"github.com/agronond/mandi-backend/pkg/settlement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const entityTypeLot = "lot_record"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// settlementLedger persists the immutable sale snapshot when a lot closes
// and mirrors later payment updates onto it.
type settlementLedger interface {
	CreateFromLot(ctx context.Context, tx *gorm.DB, lot *models.LotRecord) (*models.Transaction, error)
	MirrorPayment(ctx context.Context, tx *gorm.DB, lotRecordID uuid.UUID, mirror transactions.PaymentMirror) error
}

type notifier interface {
	Dispatch(ctx context.Context, input notifications.DispatchInput) error
}

// Service drives a lot through intake, auction, weighing, and settlement.
type Service interface {
	Intake(ctx context.Context, input IntakeInput) (*models.LotRecord, error)
	AssignRate(ctx context.Context, input AssignRateInput) (*models.LotRecord, error)
	FinalizeWeight(ctx context.Context, input FinalizeWeightInput) (*models.LotRecord, error)
	UpdatePayment(ctx context.Context, input UpdatePaymentInput) (*models.LotRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*models.LotRecord, error)
	GetByCode(ctx context.Context, code string) (*models.LotRecord, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Delete(ctx context.Context, id uuid.UUID, actor audit.Actor) error
}

// ListResult wraps returned lots and the cursor for the next page.
type ListResult struct {
	Items  []models.LotRecord `json:"items"`
	Cursor string             `json:"cursor"`
}

// CommissionRates carries the market's configured deduction rates. They
// are stamped onto each lot when its financials are computed.
type CommissionRates struct {
	Farmer decimal.Decimal
	Trader decimal.Decimal
}

type service struct {
	repo     Repository
	tx       txRunner
	seq      sequence.Allocator
	ledger   settlementLedger
	recorder audit.Recorder
	notify   notifier
	rates    CommissionRates
	metrics  *metrics.LotMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the lot lifecycle service. Metrics may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	seq sequence.Allocator,
	ledger settlementLedger,
	recorder audit.Recorder,
	notify notifier,
	rates CommissionRates,
	lotMetrics *metrics.LotMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lots repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if seq == nil {
		return nil, fmt.Errorf("sequence allocator required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("settlement ledger required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		seq:      seq,
		ledger:   ledger,
		recorder: recorder,
		notify:   notify,
		rates:    rates,
		metrics:  lotMetrics,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Intake(ctx context.Context, input IntakeInput) (*models.LotRecord, error) {
	if input.FarmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id required")
	}
	if input.Vegetable == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vegetable required")
	}
	if input.EstimatedQty.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated quantity must not be negative")
	}
	if input.EstimatedNag < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated nag must not be negative")
	}
	if input.EstimatedQty.IsZero() && input.EstimatedNag == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated quantity or nag required")
	}

	var lot *models.LotRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		code, err := s.seq.NextLotCode(ctx, tx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate lot code")
		}

		lot = &models.LotRecord{
			ID:           uuid.New(),
			LotCode:      code,
			FarmerID:     input.FarmerID,
			Vegetable:    input.Vegetable,
			EstimatedQty: input.EstimatedQty,
			EstimatedNag: input.EstimatedNag,
			SaleUnit:     enums.SaleUnitKg,
			Status:       enums.LotStatusPending,

			FarmerPaymentStatus: enums.PaymentStatusPending,
			TraderPaymentStatus: enums.PaymentStatusPending,
			PaymentStatus:       enums.PaymentStatusPending,
		}
		if err := s.repo.WithTx(tx).Create(ctx, lot); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create lot")
		}

		changes := audit.LotCreatedChanges{
			LotCode:      lot.LotCode,
			FarmerID:     lot.FarmerID,
			Vegetable:    lot.Vegetable,
			EstimatedQty: lot.EstimatedQty,
			EstimatedNag: lot.EstimatedNag,
		}
		if err := s.recorder.Record(ctx, tx, entityTypeLot, lot.ID, input.Actor, changes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record lot intake")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(enums.LotStatusPending))
	s.dispatch(ctx, notifications.DispatchInput{
		UserID:      lot.FarmerID,
		Type:        enums.NotificationTypeLotCreated,
		Title:       "Lot registered",
		Body:        fmt.Sprintf("Lot %s (%s) registered at the market", lot.LotCode, lot.Vegetable),
		LotRecordID: &lot.ID,
		Data:        map[string]string{"lot_code": lot.LotCode},
	})
	return lot, nil
}

func (s *service) AssignRate(ctx context.Context, input AssignRateInput) (*models.LotRecord, error) {
	if input.LotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}
	if input.TraderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trader id required")
	}
	unit, err := enums.ParseSaleUnit(input.SaleUnit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sale unit")
	}
	if !input.SaleRate.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale rate must be positive")
	}

	var lot *models.LotRecord
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		lot, err = s.loadLot(ctx, repo, input.LotID)
		if err != nil {
			return err
		}

		fromStatus := lot.Status
		switch lot.Status {
		case enums.LotStatusPending, enums.LotStatusWeighed:
		default:
			s.metrics.IncRejection("assign_rate")
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("rate cannot be assigned while lot is %s", lot.Status))
		}

		rate := input.SaleRate
		lot.TraderID = &input.TraderID
		lot.SaleUnit = unit
		lot.SaleRate = &rate
		lot.SoldByID = &input.Actor.UserID

		if fromStatus == enums.LotStatusWeighed {
			if err := s.computeFinancials(lot); err != nil {
				return err
			}
			lot.Status = enums.LotStatusSold
		} else {
			lot.Status = enums.LotStatusRateAssigned
		}

		if err := s.persistVersioned(ctx, repo, lot); err != nil {
			return err
		}

		if lot.Status == enums.LotStatusSold {
			if _, err := s.ledger.CreateFromLot(ctx, tx, lot); err != nil {
				return err
			}
		}

		changes := audit.RateAssignedChanges{
			TraderID:   input.TraderID,
			SaleUnit:   unit,
			SaleRate:   rate,
			FromStatus: fromStatus,
			ToStatus:   lot.Status,
		}
		if err := s.recorder.Record(ctx, tx, entityTypeLot, lot.ID, input.Actor, changes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record rate assignment")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.IncTransition(string(lot.Status))
	s.notifyRateAssigned(ctx, lot)
	return lot, nil
}

func (s *service) FinalizeWeight(ctx context.Context, input FinalizeWeightInput) (*models.LotRecord, error) {
	if input.LotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}
	if input.OfficialQty == nil && input.OfficialNag == nil && input.Carat == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "official quantity, nag, or carat required")
	}
	if input.OfficialQty != nil && input.OfficialQty.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "official quantity must not be negative")
	}
	if input.OfficialNag != nil && *input.OfficialNag < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "official nag must not be negative")
	}
	if input.Carat != nil && input.Carat.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carat must not be negative")
	}

	var lot *models.LotRecord
	sold := false
	settled := false
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		lot, err = s.loadLot(ctx, repo, input.LotID)
		if err != nil {
			return err
		}

		// Re-weighing a settled lot must not disturb the stored snapshot.
		if lot.Status == enums.LotStatusSold {
			settled = true
			return nil
		}

		fromStatus := lot.Status
		// A re-weigh may supply a subset of measures; leave the rest alone.
		if input.OfficialQty != nil {
			lot.OfficialQty = input.OfficialQty
		}
		if input.OfficialNag != nil {
			lot.OfficialNag = input.OfficialNag
		}
		if input.Carat != nil {
			lot.Carat = input.Carat
		}
		lot.WeighedByID = &input.Actor.UserID

		changes := audit.WeightFinalizedChanges{
			OfficialQty: input.OfficialQty,
			OfficialNag: input.OfficialNag,
			Carat:       input.Carat,
			FromStatus:  fromStatus,
		}

		if fromStatus == enums.LotStatusRateAssigned {
			if err := s.computeFinancials(lot); err != nil {
				return err
			}
			lot.Status = enums.LotStatusSold
			sold = true
			base := lot.BaseAmount
			total := lot.TotalAmount
			changes.BaseAmount = &base
			changes.TotalAmount = &total
		} else {
			lot.Status = enums.LotStatusWeighed
		}
		changes.ToStatus = lot.Status

		if err := s.persistVersioned(ctx, repo, lot); err != nil {
			return err
		}

		if sold {
			if _, err := s.ledger.CreateFromLot(ctx, tx, lot); err != nil {
				return err
			}
		}

		if err := s.recorder.Record(ctx, tx, entityTypeLot, lot.ID, input.Actor, changes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record weight finalization")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	if settled {
		return lot, nil
	}

	s.metrics.IncTransition(string(lot.Status))
	if sold {
		s.notifyLotSold(ctx, lot)
	}
	return lot, nil
}

func (s *service) UpdatePayment(ctx context.Context, input UpdatePaymentInput) (*models.LotRecord, error) {
	if input.LotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}
	party, err := enums.ParseSettlementParty(input.Party)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid settlement party")
	}
	mode, err := enums.ParsePaymentMode(input.Mode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment mode")
	}
	paidAt := s.now()
	if input.PaidAt != nil {
		paidAt = input.PaidAt.UTC()
	}

	var lot *models.LotRecord
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		lot, err = s.loadLot(ctx, repo, input.LotID)
		if err != nil {
			return err
		}

		if lot.Status != enums.LotStatusSold {
			s.metrics.IncRejection("update_payment")
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lot has no settlement to pay")
		}

		var ref *string
		if input.Reference != "" {
			reference := input.Reference
			ref = &reference
		}

		switch party {
		case enums.SettlementPartyFarmer:
			if lot.FarmerPaymentStatus == enums.PaymentStatusPaid {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "farmer leg already paid")
			}
			lot.FarmerPaymentStatus = enums.PaymentStatusPaid
			lot.FarmerPaymentMode = &mode
			lot.FarmerPaymentRef = ref
			lot.FarmerPaidAt = &paidAt
		case enums.SettlementPartyTrader:
			if lot.TraderPaymentStatus == enums.PaymentStatusPaid {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "trader leg already paid")
			}
			lot.TraderPaymentStatus = enums.PaymentStatusPaid
			lot.TraderPaymentMode = &mode
			lot.TraderPaymentRef = ref
			lot.TraderPaidAt = &paidAt
			// The market treats the sale as settled once the buyer has
			// paid in, whatever the state of the farmer payout.
			lot.PaymentStatus = enums.PaymentStatusPaid
		}

		if err := s.persistVersioned(ctx, repo, lot); err != nil {
			return err
		}

		mirror := transactions.PaymentMirror{
			Party:   party,
			Mode:    mode,
			Ref:     ref,
			PaidAt:  paidAt,
			Overall: lot.PaymentStatus,
		}
		if err := s.ledger.MirrorPayment(ctx, tx, lot.ID, mirror); err != nil {
			return err
		}

		changes := audit.PaymentUpdatedChanges{
			Party:         party,
			Mode:          mode,
			Reference:     input.Reference,
			PaidAt:        paidAt,
			OverallStatus: lot.PaymentStatus,
		}
		if err := s.recorder.Record(ctx, tx, entityTypeLot, lot.ID, input.Actor, changes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment update")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.IncPayment(string(party))
	s.notifyPayment(ctx, lot, party)
	return lot, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.LotRecord, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}
	return s.loadLot(ctx, s.repo, id)
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.LotRecord, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot code required")
	}
	lot, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
	}
	return lot, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	query := listLotsParams{
		FarmerID:  input.FarmerID,
		TraderID:  input.TraderID,
		Vegetable: input.Vegetable,
		Limit:     input.Limit,
	}
	if input.Status != "" {
		status, err := enums.ParseLotStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.Status = &status
	}
	if input.PaymentStatus != "" {
		status, err := enums.ParsePaymentStatus(input.PaymentStatus)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status filter")
		}
		query.PaymentStatus = &status
	}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lots")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, actor audit.Actor) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lot, err := s.loadLot(ctx, repo, id)
		if err != nil {
			return err
		}
		// Settled lots are ledger-backed and stay on the books.
		if lot.Status == enums.LotStatusSold {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sold lots cannot be deleted")
		}

		ok, err := repo.Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete lot")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
		}

		changes := audit.LotDeletedChanges{LotCode: lot.LotCode, Status: lot.Status}
		if err := s.recorder.Record(ctx, tx, entityTypeLot, lot.ID, actor, changes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record lot deletion")
		}
		return nil
	})
}

func (s *service) loadLot(ctx context.Context, repo Repository, id uuid.UUID) (*models.LotRecord, error) {
	lot, err := repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
	}
	return lot, nil
}

// computeFinancials derives and stamps the settlement snapshot. The rates
// in effect now are copied onto the lot and never re-read afterwards.
func (s *service) computeFinancials(lot *models.LotRecord) error {
	if lot.SaleRate == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "sale rate missing")
	}

	in := settlement.Input{
		Unit:       lot.SaleUnit,
		Rate:       *lot.SaleRate,
		FarmerRate: s.rates.Farmer,
		TraderRate: s.rates.Trader,
	}
	if lot.OfficialQty != nil {
		in.Quantity = *lot.OfficialQty
	}
	if lot.OfficialNag != nil {
		in.Nag = *lot.OfficialNag
	}
	if lot.Carat != nil {
		in.Carat = *lot.Carat
	}

	breakdown, err := settlement.Compute(in)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "compute settlement")
	}

	lot.FarmerRate = breakdown.FarmerRate
	lot.TraderRate = breakdown.TraderRate
	lot.BaseAmount = breakdown.BaseAmount
	lot.FarmerCommission = breakdown.FarmerCommission
	lot.TraderCommission = breakdown.TraderCommission
	lot.NetPayableFarmer = breakdown.NetPayableFarmer
	lot.NetReceivableTrader = breakdown.NetReceivableTrader
	lot.TotalAmount = breakdown.TotalAmount
	return nil
}

func (s *service) persistVersioned(ctx context.Context, repo Repository, lot *models.LotRecord) error {
	fromVersion := lot.Version
	lot.Version++
	ok, err := repo.UpdateVersioned(ctx, lot, fromVersion)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update lot")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "lot was modified concurrently")
	}
	return nil
}

// dispatch delivers a notification without letting a failure surface to
// the caller. The transition has already committed.
func (s *service) dispatch(ctx context.Context, input notifications.DispatchInput) {
	if err := s.notify.Dispatch(ctx, input); err != nil {
		s.logg.Error(ctx, "dispatch notification", err)
	}
}

func (s *service) notifyRateAssigned(ctx context.Context, lot *models.LotRecord) {
	body := fmt.Sprintf("Lot %s sold at %s per %s", lot.LotCode, lot.SaleRate.StringFixed(2), lot.SaleUnit)
	s.dispatch(ctx, notifications.DispatchInput{
		UserID:      lot.FarmerID,
		Type:        enums.NotificationTypeRateAssigned,
		Title:       "Rate assigned",
		Body:        body,
		LotRecordID: &lot.ID,
		Data:        map[string]string{"lot_code": lot.LotCode},
	})
	if lot.TraderID != nil {
		s.dispatch(ctx, notifications.DispatchInput{
			UserID:      *lot.TraderID,
			Type:        enums.NotificationTypeRateAssigned,
			Title:       "Purchase confirmed",
			Body:        body,
			LotRecordID: &lot.ID,
			Data:        map[string]string{"lot_code": lot.LotCode},
		})
	}
	if lot.Status == enums.LotStatusSold {
		s.notifyLotSold(ctx, lot)
	}
}

func (s *service) notifyLotSold(ctx context.Context, lot *models.LotRecord) {
	s.dispatch(ctx, notifications.DispatchInput{
		UserID:      lot.FarmerID,
		Type:        enums.NotificationTypeLotSold,
		Title:       "Lot settled",
		Body:        fmt.Sprintf("Lot %s settled, net payable %s", lot.LotCode, lot.NetPayableFarmer.StringFixed(2)),
		LotRecordID: &lot.ID,
		Data:        map[string]string{"lot_code": lot.LotCode},
	})
	if lot.TraderID != nil {
		s.dispatch(ctx, notifications.DispatchInput{
			UserID:      *lot.TraderID,
			Type:        enums.NotificationTypeLotSold,
			Title:       "Lot settled",
			Body:        fmt.Sprintf("Lot %s settled, amount due %s", lot.LotCode, lot.NetReceivableTrader.StringFixed(2)),
			LotRecordID: &lot.ID,
			Data:        map[string]string{"lot_code": lot.LotCode},
		})
	}
}

func (s *service) notifyPayment(ctx context.Context, lot *models.LotRecord, party enums.SettlementParty) {
	recipient := lot.FarmerID
	body := fmt.Sprintf("Payout of %s recorded for lot %s", lot.NetPayableFarmer.StringFixed(2), lot.LotCode)
	if party == enums.SettlementPartyTrader && lot.TraderID != nil {
		recipient = *lot.TraderID
		body = fmt.Sprintf("Payment of %s recorded for lot %s", lot.NetReceivableTrader.StringFixed(2), lot.LotCode)
	}
	s.dispatch(ctx, notifications.DispatchInput{
		UserID:      recipient,
		Type:        enums.NotificationTypePaymentReceived,
		Title:       "Payment recorded",
		Body:        body,
		LotRecordID: &lot.ID,
		Data:        map[string]string{"lot_code": lot.LotCode},
	})
}
