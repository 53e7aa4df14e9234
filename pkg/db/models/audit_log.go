package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/agronond/mandi-backend/pkg/enums"
)

// AuditLog records an immutable lifecycle event against a market entity.
// Changes holds the typed per-action payload serialized to JSONB.
type AuditLog struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntityType  string            `gorm:"column:entity_type;type:text;not null"`
	EntityID    uuid.UUID         `gorm:"column:entity_id;type:uuid;not null;index"`
	Action      enums.AuditAction `gorm:"column:action;type:text;not null"`
	ActorUserID uuid.UUID         `gorm:"column:actor_user_id;type:uuid;not null"`
	ActorRole   enums.UserRole    `gorm:"column:actor_role;type:text;not null"`
	Changes     json.RawMessage   `gorm:"column:changes;type:jsonb"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table for AuditLog.
func (AuditLog) TableName() string {
	return "audit_logs"
}
