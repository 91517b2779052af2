package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nathanrivera/shopstream-backend/pkg/enums"
)

// CustomerActivity is a best-effort analytics event tied to a customer.
type CustomerActivity struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID   uuid.UUID          `gorm:"column:customer_id;type:uuid;not null;index"`
	ActivityType enums.ActivityType `gorm:"column:activity_type;not null"`
	ActivityTime time.Time          `gorm:"column:activity_time;not null"`
	SessionID    *string            `gorm:"column:session_id"`
	IPAddress    *string            `gorm:"column:ip_address"`
	UserAgent    *string            `gorm:"column:user_agent"`
	PageURL      *string            `gorm:"column:page_url"`
	Referrer     *string            `gorm:"column:referrer"`
	ActivityData *string            `gorm:"column:activity_data"`
}
