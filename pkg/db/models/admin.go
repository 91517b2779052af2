package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin represents a back-office operator account. New accounts stay
// unverified until an existing operator approves them; unverified accounts
// cannot log in.
type Admin struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Username     string     `gorm:"column:username;not null;uniqueIndex"`
	Email        string     `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	FullName     string     `gorm:"column:full_name;not null"`
	Verified     bool       `gorm:"column:verified;not null;default:false"`
	VerifiedBy   *uuid.UUID `gorm:"column:verified_by;type:uuid"`
	VerifiedAt   *time.Time `gorm:"column:verified_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
