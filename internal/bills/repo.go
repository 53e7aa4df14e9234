package bills

import (
	"context"

	"github.com/agronond/mandi-backend/pkg/db/models"
	"github.com/agronond/mandi-backend/pkg/enums"
	"github.com/agronond/mandi-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for party bills.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bills []models.Bill) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bill, error)
	FindByCode(ctx context.Context, code string) (*models.Bill, error)
	FindByLotRecord(ctx context.Context, lotRecordID uuid.UUID) ([]models.Bill, error)
	List(ctx context.Context, params listBillsParams) ([]models.Bill, *pagination.Cursor, error)
	UpdatePaymentByLot(ctx context.Context, lotRecordID uuid.UUID, party enums.SettlementParty, assignments map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a bills repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listBillsParams struct {
	Party         *enums.SettlementParty
	PartyUserID   *uuid.UUID
	PaymentStatus *enums.PaymentStatus
	Limit         int
	Cursor        *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, bills []models.Bill) error {
	if len(bills) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&bills).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&bill).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Bill, error) {
	var bill models.Bill
	if err := r.db.WithContext(ctx).Where("bill_code = ?", code).First(&bill).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *repository) FindByLotRecord(ctx context.Context, lotRecordID uuid.UUID) ([]models.Bill, error) {
	var rows []models.Bill
	err := r.db.WithContext(ctx).
		Where("lot_record_id = ?", lotRecordID).
		Order("party ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, params listBillsParams) ([]models.Bill, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Bill{})
	if params.Party != nil {
		query = query.Where("party = ?", *params.Party)
	}
	if params.PartyUserID != nil {
		query = query.Where("party_user_id = ?", *params.PartyUserID)
	}
	if params.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.PaymentStatus)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Bill
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repository) UpdatePaymentByLot(ctx context.Context, lotRecordID uuid.UUID, party enums.SettlementParty, assignments map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Bill{}).
		Where("lot_record_id = ? AND party = ?", lotRecordID, party).
		Updates(assignments).Error
}
