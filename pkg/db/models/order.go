package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nathanrivera/shopstream-backend/pkg/enums"
)

// Order is the immutable record produced by checkout. Only status,
// delivery_date and the payment fields change after creation. A nil
// CustomerID marks a guest order, which must carry guest name/email.
type Order struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber        string            `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID         *uuid.UUID        `gorm:"column:customer_id;type:uuid;index"`
	GuestCustomerName  *string           `gorm:"column:guest_customer_name"`
	GuestCustomerEmail *string           `gorm:"column:guest_customer_email"`
	Status             enums.OrderStatus `gorm:"column:status;not null;default:'PENDING'"`
	OrderDate          time.Time         `gorm:"column:order_date;not null"`
	DeliveryDate       *time.Time        `gorm:"column:delivery_date"`
	ShippingAddress    string            `gorm:"column:shipping_address;not null"`
	PhoneNumber        *string           `gorm:"column:phone_number"`
	Notes              *string           `gorm:"column:notes"`
	TotalAmount        decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentID          *string           `gorm:"column:payment_id"`
	PaymentStatus      *string           `gorm:"column:payment_status"`
	PaymentMethod      *string           `gorm:"column:payment_method"`
	Items              []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// IsGuest reports whether the order was placed without a registered customer.
func (o Order) IsGuest() bool {
	return o.CustomerID == nil
}
