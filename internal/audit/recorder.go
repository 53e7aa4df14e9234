// Package audit persists immutable lifecycle events for market entities.
package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agronond/mandi-backend/pkg/db/models"
	"github.com/agronond/mandi-backend/pkg/enums"
)

// Repository manages persistence for audit rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, row *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, row *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Actor identifies who performed a recorded action.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Recorder writes audit rows inside the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID, actor Actor, changes ChangeSet) error
}

type recorder struct {
	repo Repository
}

// NewRecorder wires an audit recorder with the provided repository.
func NewRecorder(repo Repository) (Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &recorder{repo: repo}, nil
}

func (r *recorder) Record(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID, actor Actor, changes ChangeSet) error {
	if entityType == "" {
		return fmt.Errorf("entity type is required")
	}
	if entityID == uuid.Nil {
		return fmt.Errorf("entity id is required")
	}
	if actor.UserID == uuid.Nil {
		return fmt.Errorf("actor user id is required")
	}
	if !actor.Role.IsValid() {
		return fmt.Errorf("invalid actor role %q", actor.Role)
	}

	raw, err := marshalChanges(changes)
	if err != nil {
		return err
	}

	row := &models.AuditLog{
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      changes.Action(),
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		Changes:     raw,
	}
	return r.repo.WithTx(tx).Create(ctx, row)
}
