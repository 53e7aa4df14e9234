package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/agronond/mandi-backend/pkg/enums"
)

// Notification is a per-user transition notice. Delivery is best-effort;
// a failed insert never rolls back the transition that produced it.
type Notification struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Type        enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title       string                 `gorm:"column:title;type:text;not null"`
	Body        string                 `gorm:"column:body;type:text;not null"`
	Data        json.RawMessage        `gorm:"column:data;type:jsonb"`
	LotRecordID *uuid.UUID             `gorm:"column:lot_record_id;type:uuid"`
	ReadAt      *time.Time             `gorm:"column:read_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table for Notification.
func (Notification) TableName() string {
	return "notifications"
}
