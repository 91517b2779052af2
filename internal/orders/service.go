package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nathanrivera/shopstream-backend/internal/cart"
	"github.com/nathanrivera/shopstream-backend/internal/catalog"
	"github.com/nathanrivera/shopstream-backend/internal/customers"
	"github.com/nathanrivera/shopstream-backend/pkg/db"
	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
	"github.com/nathanrivera/shopstream-backend/pkg/logger"
	"github.com/nathanrivera/shopstream-backend/pkg/pagination"
)

const (
	orderNumberAttempts = 2 // retries after the first collision
	orderNumberBackoff  = 25 * time.Millisecond
)

// Service exposes order placement, tracking, and fulfillment operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	CreateFromCart(ctx context.Context, customerID uuid.UUID, input CheckoutInput) (*OrderDTO, error)
	Track(ctx context.Context, query TrackQuery) (*OrderDTO, error)
	GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
}

type purchaseRecorder interface {
	RecordPurchase(ctx context.Context, customerID uuid.UUID, orderNumber string) error
}

type service struct {
	repo          Repository
	catalogRepo   catalog.Repository
	cartRepo      cart.Repository
	customersRepo customers.Repository
	dbClient      *db.Client
	purchases     purchaseRecorder
	logg          *logger.Logger
}

// NewService constructs an orders service instance. The purchase recorder is
// optional; pass nil to skip purchase activity.
func NewService(repo Repository, catalogRepo catalog.Repository, cartRepo cart.Repository, customersRepo customers.Repository, dbClient *db.Client, purchases purchaseRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if customersRepo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:          repo,
		catalogRepo:   catalogRepo,
		cartRepo:      cartRepo,
		customersRepo: customersRepo,
		dbClient:      dbClient,
		purchases:     purchases,
		logg:          logg,
	}, nil
}

// Create places an order. Stock is taken with a conditional decrement inside
// the transaction, so a failed line rolls back every earlier decrement and the
// order insert. Line prices and snapshots come from the catalog row at
// placement time.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if err := input.Owner.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	lines, err := mergeLines(input.Items)
	if err != nil {
		return nil, err
	}

	return s.place(ctx, input, lines, uuid.Nil)
}

// CreateFromCart places an order from the customer's saved cart and empties
// the cart in the same transaction.
func (s *service) CreateFromCart(ctx context.Context, customerID uuid.UUID, input CheckoutInput) (*OrderDTO, error) {
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}

	cartRecord, err := s.cartRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}
	items, err := s.cartRepo.LoadItems(ctx, cartRecord.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart lines")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines := make([]OrderLineInput, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	orderInput := CreateOrderInput{
		Owner:           RegisteredOwner(customerID),
		ShippingAddress: input.ShippingAddress,
		PhoneNumber:     input.PhoneNumber,
		Notes:           input.Notes,
	}
	return s.place(ctx, orderInput, lines, cartRecord.ID)
}

// place runs the transactional creation. A non-nil clearCartID empties that
// cart inside the same transaction. The whole transaction is retried on an
// order number collision so rolled-back stock is taken again cleanly.
func (s *service) place(ctx context.Context, input CreateOrderInput, lines []OrderLineInput, clearCartID uuid.UUID) (*OrderDTO, error) {
	var created *models.Order

	backoff := retry.WithMaxRetries(orderNumberAttempts, retry.NewConstant(orderNumberBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptErr := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txOrders := s.repo.WithTx(tx)
			txCatalog := s.catalogRepo.WithTx(tx)

			if ownerID := input.Owner.CustomerID(); ownerID != nil {
				if _, err := s.customersRepo.WithTx(tx).FindByID(ctx, *ownerID); err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
					}
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load customer")
				}
			}

			now := time.Now().UTC()
			total := decimal.Zero
			orderItems := make([]models.OrderItem, 0, len(lines))

			for _, line := range lines {
				product, err := txCatalog.FindByID(ctx, line.ProductID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
							WithDetails(map[string]any{"product_id": line.ProductID})
					}
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
				}
				if !product.Available {
					return pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
						WithDetails(map[string]any{"product_id": product.ID})
				}

				taken, err := txCatalog.DecrementStock(ctx, product.ID, line.Quantity)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement stock")
				}
				if !taken {
					return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
						WithDetails(map[string]any{
							"product_id": product.ID,
							"requested":  line.Quantity,
							"available":  product.StockQuantity,
						})
				}

				lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
				total = total.Add(lineTotal)
				orderItems = append(orderItems, models.OrderItem{
					ProductID:          product.ID,
					Quantity:           line.Quantity,
					UnitPrice:          product.Price,
					TotalPrice:         lineTotal,
					ProductName:        product.Name,
					ProductBrand:       product.Brand,
					ProductDescription: product.Description,
				})
			}

			order := &models.Order{
				OrderNumber:     generateOrderNumber(now),
				CustomerID:      input.Owner.CustomerID(),
				Status:          enums.OrderStatusPending,
				OrderDate:       now,
				ShippingAddress: strings.TrimSpace(input.ShippingAddress),
				PhoneNumber:     input.PhoneNumber,
				Notes:           input.Notes,
				TotalAmount:     total,
				PaymentID:       input.PaymentID,
				PaymentStatus:   input.PaymentStatus,
				PaymentMethod:   input.PaymentMethod,
				Items:           orderItems,
			}
			if input.Owner.IsGuest() {
				order.GuestCustomerName = &input.Owner.guestName
				order.GuestCustomerEmail = &input.Owner.guestEmail
			}

			persisted, err := txOrders.Create(ctx, order)
			if err != nil {
				return err
			}
			created = persisted

			if clearCartID != uuid.Nil {
				txCart := s.cartRepo.WithTx(tx)
				if err := txCart.DeleteAllItems(ctx, clearCartID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
				}
			}
			return nil
		})
		if attemptErr != nil {
			if db.IsUniqueViolation(attemptErr, "idx_orders_order_number") && pkgerrors.As(attemptErr) == nil {
				return retry.RetryableError(attemptErr)
			}
			return attemptErr
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if db.IsUniqueViolation(err, "idx_orders_order_number") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "could not allocate order number")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	if s.purchases != nil && created.CustomerID != nil {
		if err := s.purchases.RecordPurchase(ctx, *created.CustomerID, created.OrderNumber); err != nil {
			s.logg.Error(ctx, "recording purchase activity failed", err)
		}
	}

	return NewOrderDTO(created), nil
}

// Track resolves an order by its public number. Admins see every order.
// Registered orders are only visible to their owner, so the number alone can
// never probe another customer's order. Guest orders carry no owner and are
// visible to anyone holding the number. Misses and denials both read as not
// found.
func (s *service) Track(ctx context.Context, query TrackQuery) (*OrderDTO, error) {
	number := strings.TrimSpace(query.OrderNumber)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}

	order, err := s.repo.FindByOrderNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}

	if query.IsAdmin {
		return NewOrderDTO(order), nil
	}

	if order.CustomerID != nil {
		if query.CustomerID == nil || *query.CustomerID != *order.CustomerID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	}
	return NewOrderDTO(order), nil
}

// GetForCustomer loads one order scoped to its owner. Orders belonging to
// someone else read as not found.
func (s *service) GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if order.CustomerID == nil || *order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return NewOrderDTO(order), nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	orders, nextCursor, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	return newOrderList(orders, nextCursor), nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	orders, nextCursor, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	return newOrderList(orders, nextCursor), nil
}

// UpdateStatus moves an order along the fulfillment pipeline. Backward moves
// and transitions out of a terminal state are rejected. Cancelling restores
// the stock every line took; delivering stamps the delivery date.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.repo.WithTx(tx)

		order, err := txOrders.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
		}

		if !order.Status.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition disallowed").
				WithDetails(map[string]any{"from": order.Status, "to": status})
		}

		updates := map[string]any{}
		switch status {
		case enums.OrderStatusDelivered:
			now := time.Now().UTC()
			updates["delivery_date"] = now
		case enums.OrderStatusCancelled:
			txCatalog := s.catalogRepo.WithTx(tx)
			for _, item := range order.Items {
				if err := txCatalog.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: restore stock")
				}
			}
		}

		if err := txOrders.UpdateStatus(ctx, orderID, status, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload order")
	}
	return NewOrderDTO(order), nil
}

// mergeLines validates quantities and folds duplicate product lines together.
func mergeLines(items []OrderLineInput) ([]OrderLineInput, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	index := map[uuid.UUID]int{}
	merged := make([]OrderLineInput, 0, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if at, ok := index[item.ProductID]; ok {
			merged[at].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}
