package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanrivera/shopstream-backend/internal/catalog"
	"github.com/nathanrivera/shopstream-backend/internal/customers"
	"github.com/nathanrivera/shopstream-backend/pkg/db"
	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
)

// Service exposes the shopping cart operations for a registered customer.
type Service interface {
	GetCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*CartDTO, error)
	UpdateItemQuantity(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*UpdateItemResult, error)
	RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type service struct {
	repo          Repository
	catalogRepo   catalog.Repository
	customersRepo customers.Repository
	dbClient      *db.Client
}

// NewService constructs a cart service instance.
func NewService(repo Repository, catalogRepo catalog.Repository, customersRepo customers.Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if customersRepo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, catalogRepo: catalogRepo, customersRepo: customersRepo, dbClient: dbClient}, nil
}

// GetCart returns the customer's cart, creating an empty one on first use.
func (s *service) GetCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	cart, err := s.getOrCreate(ctx, s.repo, customerID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, s.repo, cart)
}

// AddItem merges quantity into an existing line for the product or inserts a
// new line. Two concurrent adds for the same product must both be counted.
func (s *service) AddItem(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.catalogRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if !product.Available {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	var cart *models.Cart
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err = s.getOrCreate(ctx, txRepo, customerID)
		if err != nil {
			return err
		}

		merged, err := txRepo.AddItemQuantity(ctx, cart.ID, productID, quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: merge cart line")
		}
		if merged {
			return nil
		}

		item := &models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
		}
		if err := txRepo.InsertItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "idx_cart_items_cart_product") {
				// lost the insert race, fold into the winning line
				if _, mergeErr := txRepo.AddItemQuantity(ctx, cart.ID, productID, quantity); mergeErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, mergeErr, "db: merge cart line after race")
				}
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert cart line")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.view(ctx, s.repo, cart)
}

// UpdateItemQuantity sets the line quantity. A quantity of zero or less
// removes the line; the result carries the Removed flag in that case.
func (s *service) UpdateItemQuantity(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*UpdateItemResult, error) {
	cart, err := s.getOrCreate(ctx, s.repo, customerID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindItem(ctx, cart.ID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart line")
	}

	removed := quantity <= 0
	if removed {
		if err := s.repo.DeleteItem(ctx, cart.ID, productID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart line")
		}
	} else {
		if err := s.repo.SetItemQuantity(ctx, cart.ID, productID, quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart line")
		}
	}

	view, err := s.view(ctx, s.repo, cart)
	if err != nil {
		return nil, err
	}
	return &UpdateItemResult{Cart: view, Removed: removed}, nil
}

// RemoveItem drops the product's line. Removing a product that is not in the
// cart is a no-op, and a customer with no cart yet gets an empty one.
func (s *service) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*CartDTO, error) {
	cart, err := s.getOrCreate(ctx, s.repo, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart line")
	}
	return s.view(ctx, s.repo, cart)
}

// Clear empties the cart. Clearing an already-empty cart succeeds.
func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	cart, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}
	if err := s.repo.DeleteAllItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
	}
	return nil
}

// getOrCreate resolves the customer's cart, creating one on first use. The
// customer must exist before a cart row is written for them.
func (s *service) getOrCreate(ctx context.Context, repo Repository, customerID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByCustomer(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}

	if _, err := s.customersRepo.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load customer")
	}

	created, err := repo.Create(ctx, &models.Cart{CustomerID: customerID})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			// a concurrent request created the cart first
			existing, findErr := repo.FindByCustomer(ctx, customerID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "db: load cart after race")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
	}
	return created, nil
}

func (s *service) view(ctx context.Context, repo Repository, cart *models.Cart) (*CartDTO, error) {
	items, err := repo.LoadItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart lines")
	}
	return newCartDTO(cart, items), nil
}
