package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog listing. Stock is mutated only by the order
// engine's conditional decrement or an explicit admin update.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	Brand         string          `gorm:"column:brand;not null"`
	Description   string          `gorm:"column:description;not null;default:''"`
	Category      string          `gorm:"column:category;not null;default:''"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0"`
	ImageName     *string         `gorm:"column:image_name"`
	ImageType     *string         `gorm:"column:image_type"`
	ImageURL      *string         `gorm:"column:image_url"`
	ReleaseDate   *time.Time      `gorm:"column:release_date"`
	Available     bool            `gorm:"column:available;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
