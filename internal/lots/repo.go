package lots

import (
	"context"

	"github.com/agronond/mandi-backend/pkg/db/models"
	"github.com/agronond/mandi-backend/pkg/enums"
	"github.com/agronond/mandi-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for lot records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, lot *models.LotRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.LotRecord, error)
	FindByCode(ctx context.Context, code string) (*models.LotRecord, error)
	List(ctx context.Context, params listLotsParams) ([]models.LotRecord, *pagination.Cursor, error)
	// UpdateVersioned persists the full row only when the stored version
	// still matches fromVersion; false signals a concurrent edit.
	UpdateVersioned(ctx context.Context, lot *models.LotRecord, fromVersion int) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a lots repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listLotsParams struct {
	Status        *enums.LotStatus
	PaymentStatus *enums.PaymentStatus
	FarmerID      *uuid.UUID
	TraderID      *uuid.UUID
	Vegetable     string
	Limit         int
	Cursor        *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, lot *models.LotRecord) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LotRecord, error) {
	var lot models.LotRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lot).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.LotRecord, error) {
	var lot models.LotRecord
	if err := r.db.WithContext(ctx).Where("lot_code = ?", code).First(&lot).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *repository) List(ctx context.Context, params listLotsParams) ([]models.LotRecord, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.LotRecord{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.PaymentStatus)
	}
	if params.FarmerID != nil {
		query = query.Where("farmer_id = ?", *params.FarmerID)
	}
	if params.TraderID != nil {
		query = query.Where("trader_id = ?", *params.TraderID)
	}
	if params.Vegetable != "" {
		query = query.Where("vegetable = ?", params.Vegetable)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var lots []models.LotRecord
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&lots).Error; err != nil {
		return nil, nil, err
	}

	if len(lots) > normalized {
		next := lots[normalized]
		lots = lots[:normalized]
		return lots, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return lots, nil, nil
}

func (r *repository) UpdateVersioned(ctx context.Context, lot *models.LotRecord, fromVersion int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LotRecord{}).
		Where("id = ? AND version = ?", lot.ID, fromVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(lot)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.LotRecord{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
