package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
)

// CartItemDTO is one cart line priced at the current catalog price.
type CartItemDTO struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Brand       string    `json:"brand"`
	UnitPrice   string    `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	LineTotal   string    `json:"line_total"`
	AddedAt     time.Time `json:"added_at"`
}

// CartDTO is the aggregate view returned to clients. Total is the exact
// decimal sum of the line totals.
type CartDTO struct {
	ID        uuid.UUID     `json:"id"`
	Items     []CartItemDTO `json:"items"`
	ItemCount int           `json:"item_count"`
	Total     string        `json:"total"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// UpdateItemResult reports the outcome of a quantity update. Removed is set
// when the update dropped the line instead of changing it.
type UpdateItemResult struct {
	Cart    *CartDTO `json:"cart"`
	Removed bool     `json:"removed"`
}

func newCartDTO(cart *models.Cart, items []models.CartItem) *CartDTO {
	total := decimal.Zero
	count := 0

	dtoItems := lo.Map(items, func(item models.CartItem, _ int) CartItemDTO {
		unit := decimal.Zero
		name := ""
		brand := ""
		if item.Product != nil {
			unit = item.Product.Price
			name = item.Product.Name
			brand = item.Product.Brand
		}
		line := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
		count += item.Quantity
		return CartItemDTO{
			ProductID:   item.ProductID,
			ProductName: name,
			Brand:       brand,
			UnitPrice:   unit.StringFixed(2),
			Quantity:    item.Quantity,
			LineTotal:   line.StringFixed(2),
			AddedAt:     item.AddedAt,
		}
	})

	return &CartDTO{
		ID:        cart.ID,
		Items:     dtoItems,
		ItemCount: count,
		Total:     total.StringFixed(2),
		UpdatedAt: cart.UpdatedAt,
	}
}
