package models

import (
	"time"

	"github.com/agronond/mandi-backend/pkg/enums"
)

// SequenceCounter is the atomic allocator row behind year-scoped codes.
// One row per (kind, role, year); Value is bumped with a single upsert so
// concurrent creations can never observe the same number.
type SequenceCounter struct {
	Kind  enums.SequenceKind `gorm:"column:kind;type:text;not null;primaryKey"`
	Role  string             `gorm:"column:role;type:text;not null;default:'';primaryKey"`
	Year  int                `gorm:"column:year;not null;primaryKey"`
	Value int64              `gorm:"column:value;not null;default:0"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table for SequenceCounter.
func (SequenceCounter) TableName() string {
	return "sequence_counters"
}
