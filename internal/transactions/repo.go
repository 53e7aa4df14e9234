package transactions

import (
	"context"
	"time"

	"github.com/agronond/mandi-backend/pkg/db/models"
	"github.com/agronond/mandi-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for sale transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByCode(ctx context.Context, code string) (*models.Transaction, error)
	FindByLotRecord(ctx context.Context, lotRecordID uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, params listTransactionsParams) ([]models.Transaction, *pagination.Cursor, error)
	UpdatePaymentByLot(ctx context.Context, lotRecordID uuid.UUID, assignments map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transactions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listTransactionsParams struct {
	FarmerID      *uuid.UUID
	TraderID      *uuid.UUID
	PaymentStatus *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Cursor        *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Where("txn_code = ?", code).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindByLotRecord(ctx context.Context, lotRecordID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Where("lot_record_id = ?", lotRecordID).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) List(ctx context.Context, params listTransactionsParams) ([]models.Transaction, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Transaction{})
	if params.FarmerID != nil {
		query = query.Where("farmer_id = ?", *params.FarmerID)
	}
	if params.TraderID != nil {
		query = query.Where("trader_id = ?", *params.TraderID)
	}
	if params.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.PaymentStatus)
	}
	if params.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *params.CreatedFrom)
	}
	if params.CreatedTo != nil {
		query = query.Where("created_at < ?", *params.CreatedTo)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Transaction
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

func (r *repository) UpdatePaymentByLot(ctx context.Context, lotRecordID uuid.UUID, assignments map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("lot_record_id = ?", lotRecordID).
		Updates(assignments).Error
}
