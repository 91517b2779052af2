package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem freezes the product snapshot and pricing of one ordered line.
// The name/brand/description copies must survive later catalog edits or
// deletions.
type OrderItem struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID          uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity           int             `gorm:"column:quantity;not null"`
	UnitPrice          decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	TotalPrice         decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	ProductName        string          `gorm:"column:product_name;not null"`
	ProductBrand       string          `gorm:"column:product_brand;not null;default:''"`
	ProductDescription string          `gorm:"column:product_description;not null;default:''"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
}
