package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
)

// Repository defines persistence operations for carts and cart lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	InsertItem(ctx context.Context, item *models.CartItem) error
	AddItemQuantity(ctx context.Context, cartID, productID uuid.UUID, delta int) (bool, error)
	SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
	DeleteAllItems(ctx context.Context, cartID uuid.UUID) error
	LoadItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
}
