package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer represents a registered shopper account.
type Customer struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Username           string     `gorm:"column:username;not null;uniqueIndex"`
	Email              string     `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash       string     `gorm:"column:password_hash;not null"`
	FirstName          string     `gorm:"column:first_name;not null"`
	LastName           string     `gorm:"column:last_name;not null"`
	PhoneNumber        *string    `gorm:"column:phone_number"`
	Address            *string    `gorm:"column:address"`
	Enabled            bool       `gorm:"column:enabled;not null;default:true"`
	EmailNotifications bool       `gorm:"column:email_notifications;not null;default:true"`
	SMSNotifications   bool       `gorm:"column:sms_notifications;not null;default:false"`
	VisitCount         int64      `gorm:"column:visit_count;not null;default:0"`
	PurchaseCount      int64      `gorm:"column:purchase_count;not null;default:0"`
	LastVisitAt        *time.Time `gorm:"column:last_visit_at"`
	LastPurchaseAt     *time.Time `gorm:"column:last_purchase_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
