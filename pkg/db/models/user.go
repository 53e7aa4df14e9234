package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agronond/mandi-backend/pkg/enums"
)

// User is a market party or staff member, identified primarily by phone.
type User struct {
	ID    uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Phone string    `gorm:"column:phone;type:text;not null;uniqueIndex"`
	Name  string    `gorm:"column:name;type:text;not null"`
	Email *string   `gorm:"column:email;type:text"`

	Role enums.UserRole `gorm:"column:role;type:text;not null"`

	// CustomCode is the role-prefixed code assigned to privileged roles
	// (TRD-, ADM-, MCDB-, LLV-), empty for farmers and unprefixed staff.
	CustomCode *string `gorm:"column:custom_code;type:text;uniqueIndex"`

	// PasswordHash is set for staff roles only; farmers and traders log in
	// with a one-time code.
	PasswordHash *string `gorm:"column:password_hash"`

	Village  *string `gorm:"column:village;type:text"`
	IsActive bool    `gorm:"column:is_active;not null;default:true"`

	LastLoginAt *time.Time `gorm:"column:last_login_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table for User.
func (User) TableName() string {
	return "users"
}
