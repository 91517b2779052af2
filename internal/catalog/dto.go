package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
)

// ListFilters describe the inputs supported by the product list.
type ListFilters struct {
	Category      string
	AvailableOnly bool
}

// ProductDTO is the catalog representation returned to clients.
type ProductDTO struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Brand         string     `json:"brand"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Price         string     `json:"price"`
	StockQuantity int        `json:"stock_quantity"`
	ImageURL      *string    `json:"image_url,omitempty"`
	ReleaseDate   *time.Time `json:"release_date,omitempty"`
	Available     bool       `json:"available"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ProductListResult wraps a page of products plus the next page cursor.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// NewProductDTO maps the model onto the API shape.
func NewProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	return &ProductDTO{
		ID:            product.ID,
		Name:          product.Name,
		Brand:         product.Brand,
		Description:   product.Description,
		Category:      product.Category,
		Price:         product.Price.StringFixed(2),
		StockQuantity: product.StockQuantity,
		ImageURL:      product.ImageURL,
		ReleaseDate:   product.ReleaseDate,
		Available:     product.Available,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

func newProductList(products []models.Product, nextCursor string) *ProductListResult {
	return &ProductListResult{
		Products: lo.Map(products, func(p models.Product, _ int) ProductDTO {
			return *NewProductDTO(&p)
		}),
		NextCursor: nextCursor,
	}
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name          string
	Brand         string
	Description   string
	Category      string
	Price         decimal.Decimal
	StockQuantity int
	ImageName     *string
	ImageType     *string
	ImageURL      *string
	ReleaseDate   *time.Time
	Available     bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name          *string
	Brand         *string
	Description   *string
	Category      *string
	Price         *decimal.Decimal
	StockQuantity *int
	ImageName     *string
	ImageType     *string
	ImageURL      *string
	ReleaseDate   *time.Time
	Available     *bool
}
