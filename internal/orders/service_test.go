package orders

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nathanrivera/shopstream-backend/internal/cart"
	"github.com/nathanrivera/shopstream-backend/internal/catalog"
	"github.com/nathanrivera/shopstream-backend/internal/customers"
	"github.com/nathanrivera/shopstream-backend/pkg/db"
	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
	"github.com/nathanrivera/shopstream-backend/pkg/logger"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  brand TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  image_name TEXT,
  image_type TEXT,
  image_url TEXT,
  release_date DATETIME,
  available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  added_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_id TEXT,
  guest_customer_name TEXT,
  guest_customer_email TEXT,
  status TEXT NOT NULL DEFAULT 'PENDING',
  order_date DATETIME NOT NULL,
  delivery_date DATETIME,
  shipping_address TEXT NOT NULL,
  phone_number TEXT,
  notes TEXT,
  total_amount TEXT NOT NULL,
  payment_id TEXT,
  payment_status TEXT,
  payment_method TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  total_price TEXT NOT NULL,
  product_name TEXT NOT NULL,
  product_brand TEXT NOT NULL DEFAULT '',
  product_description TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone_number TEXT,
  address TEXT,
  enabled INTEGER NOT NULL DEFAULT 1,
  email_notifications INTEGER NOT NULL DEFAULT 1,
  sms_notifications INTEGER NOT NULL DEFAULT 0,
  visit_count INTEGER NOT NULL DEFAULT 0,
  purchase_count INTEGER NOT NULL DEFAULT 0,
  last_visit_at DATETIME,
  last_purchase_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type purchaseSpy struct {
	customers    []uuid.UUID
	orderNumbers []string
}

func (p *purchaseSpy) RecordPurchase(_ context.Context, customerID uuid.UUID, orderNumber string) error {
	p.customers = append(p.customers, customerID)
	p.orderNumbers = append(p.orderNumbers, orderNumber)
	return nil
}

func newOrdersServiceWithConn(t *testing.T, conn *gorm.DB) (Service, *purchaseSpy) {
	t.Helper()

	spy := &purchaseSpy{}
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc, err := NewService(
		NewRepository(conn),
		catalog.NewRepository(conn),
		cart.NewRepository(conn),
		customers.NewRepository(conn),
		db.NewWithConn(conn),
		spy,
		logg,
	)
	require.NoError(t, err)
	return svc, spy
}

func newOrdersService(t *testing.T) (Service, *gorm.DB, *purchaseSpy) {
	t.Helper()

	conn := setupOrdersTestDB(t)
	svc, spy := newOrdersServiceWithConn(t, conn)
	return svc, conn, spy
}

func seedCustomer(t *testing.T, conn *gorm.DB) uuid.UUID {
	t.Helper()

	customer := &models.Customer{
		ID:           uuid.New(),
		Username:     gofakeit.Username(),
		Email:        gofakeit.Email(),
		PasswordHash: "x",
		Enabled:      true,
	}
	require.NoError(t, conn.Create(customer).Error)
	return customer.ID
}

func seedOrderProduct(t *testing.T, conn *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:            uuid.New(),
		Name:          name,
		Brand:         "Acme",
		Category:      "electronics",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		Available:     true,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func productStock(t *testing.T, conn *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var product models.Product
	require.NoError(t, conn.Where("id = ?", productID).First(&product).Error)
	return product.StockQuantity
}

func TestCreateOrderRegistered(t *testing.T) {
	svc, conn, spy := newOrdersService(t)
	ctx := context.Background()

	keyboard := seedOrderProduct(t, conn, "Keyboard", "19.99", 5)
	mouse := seedOrderProduct(t, conn, "Mouse", "0.01", 10)
	customerID := seedCustomer(t, conn)

	order, err := svc.Create(ctx, CreateOrderInput{
		Owner: RegisteredOwner(customerID),
		Items: []OrderLineInput{
			{ProductID: keyboard.ID, Quantity: 2},
			{ProductID: mouse.ID, Quantity: 3},
		},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	// 19.99*2 + 0.01*3 must not pick up float drift
	assert.Equal(t, "40.01", order.TotalAmount)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Regexp(t, `^ORD\d{17}$`, order.OrderNumber)
	require.NotNil(t, order.CustomerID)
	assert.Equal(t, customerID, *order.CustomerID)
	assert.Len(t, order.Items, 2)

	assert.Equal(t, 3, productStock(t, conn, keyboard.ID))
	assert.Equal(t, 7, productStock(t, conn, mouse.ID))
	assert.Equal(t, []uuid.UUID{customerID}, spy.customers)
	assert.Equal(t, []string{order.OrderNumber}, spy.orderNumbers)
}

func TestCreateOrderSnapshotsProduct(t *testing.T) {
	svc, conn, _ := newOrdersService(t)
	ctx := context.Background()

	product := seedOrderProduct(t, conn, "Headphones", "99.50", 4)

	order, err := svc.Create(ctx, CreateOrderInput{
		Owner:           GuestOwner("Dana Cole", "dana@example.com"),
		Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: "2 Side St",
	})
	require.NoError(t, err)

	// later catalog edits must not rewrite the frozen line
	require.NoError(t, conn.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{"name": "Renamed", "price": "1.00"}).Error)

	reloaded, err := svc.Track(ctx, TrackQuery{OrderNumber: order.OrderNumber})
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "Headphones", reloaded.Items[0].ProductName)
	assert.Equal(t, "99.50", reloaded.Items[0].UnitPrice)
	assert.Equal(t, "99.50", reloaded.TotalAmount)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	svc, conn, spy := newOrdersService(t)
	ctx := context.Background()

	keyboard := seedOrderProduct(t, conn, "Keyboard", "19.99", 5)
	mouse := seedOrderProduct(t, conn, "Mouse", "5.00", 1)

	_, err := svc.Create(ctx, CreateOrderInput{
		Owner: RegisteredOwner(seedCustomer(t, conn)),
		Items: []OrderLineInput{
			{ProductID: keyboard.ID, Quantity: 2},
			{ProductID: mouse.ID, Quantity: 2},
		},
		ShippingAddress: "1 Main St",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	// the keyboard decrement from the same attempt must roll back
	assert.Equal(t, 5, productStock(t, conn, keyboard.ID))
	assert.Equal(t, 1, productStock(t, conn, mouse.ID))

	var count int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, spy.customers)
}

func TestCreateOrderLastUnit(t *testing.T) {
	svc, conn, _ := newOrdersService(t)
	ctx := context.Background()

	product := seedOrderProduct(t, conn, "Limited", "10.00", 1)
	input := func() CreateOrderInput {
		return CreateOrderInput{
			Owner:           RegisteredOwner(seedCustomer(t, conn)),
			Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
			ShippingAddress: "1 Main St",
		}
	}

	_, err := svc.Create(ctx, input())
	require.NoError(t, err)

	_, err = svc.Create(ctx, input())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Zero(t, productStock(t, conn, product.ID))
}

func TestCreateOrderValidation(t *testing.T) {
	svc, conn, _ := newOrdersService(t)
	ctx := context.Background()
	product := seedOrderProduct(t, conn, "Keyboard", "19.99", 5)

	cases := []struct {
		name  string
		input CreateOrderInput
	}{
		{
			name: "no items",
			input: CreateOrderInput{
				Owner:           RegisteredOwner(uuid.New()),
				ShippingAddress: "1 Main St",
			},
		},
		{
			name: "zero quantity",
			input: CreateOrderInput{
				Owner:           RegisteredOwner(uuid.New()),
				Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 0}},
				ShippingAddress: "1 Main St",
			},
		},
		{
			name: "missing shipping address",
			input: CreateOrderInput{
				Owner: RegisteredOwner(uuid.New()),
				Items: []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
			},
		},
		{
			name: "guest without email",
			input: CreateOrderInput{
				Owner:           GuestOwner("Dana", ""),
				Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
				ShippingAddress: "1 Main St",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	svc, conn, _ := newOrdersService(t)

	_, err := svc.Create(context.Background(), CreateOrderInput{
		Owner:           RegisteredOwner(seedCustomer(t, conn)),
		Items:           []OrderLineInput{{ProductID: uuid.New(), Quantity: 1}},
		ShippingAddress: "1 Main St",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateOrderUnknownCustomer(t *testing.T) {
	svc, conn, spy := newOrdersService(t)

	product := seedOrderProduct(t, conn, "Keyboard", "19.99", 5)
	_, err := svc.Create(context.Background(), CreateOrderInput{
		Owner:           RegisteredOwner(uuid.New()),
		Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: "1 Main St",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	// nothing may be written on behalf of an unresolved customer
	assert.Equal(t, 5, productStock(t, conn, product.ID))
	var count int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, spy.customers)
}

func TestCreateOrderUnavailableProduct(t *testing.T) {
	svc, conn, _ := newOrdersService(t)

	product := seedOrderProduct(t, conn, "Retired", "9.99", 5)
	require.NoError(t, conn.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("available", false).Error)

	_, err := svc.Create(context.Background(), CreateOrderInput{
		Owner:           RegisteredOwner(seedCustomer(t, conn)),
		Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: "1 Main St",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, 5, productStock(t, conn, product.ID))
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	svc, conn, _ := newOrdersService(t)

	product := seedOrderProduct(t, conn, "Keyboard", "10.00", 5)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		Owner: RegisteredOwner(seedCustomer(t, conn)),
		Items: []OrderLineInput{
			{ProductID: product.ID, Quantity: 1},
			{ProductID: product.ID, Quantity: 2},
		},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, "30.00", order.TotalAmount)
	assert.Equal(t, 2, productStock(t, conn, product.ID))
}

func TestCreateFromCartClearsCart(t *testing.T) {
	svc, conn, spy := newOrdersService(t)
	ctx := context.Background()

	keyboard := seedOrderProduct(t, conn, "Keyboard", "19.99", 5)
	mouse := seedOrderProduct(t, conn, "Mouse", "5.00", 5)
	customerID := seedCustomer(t, conn)

	cartRepo := cart.NewRepository(conn)
	cartRecord, err := cartRepo.Create(ctx, &models.Cart{CustomerID: customerID})
	require.NoError(t, err)
	require.NoError(t, cartRepo.InsertItem(ctx, &models.CartItem{
		CartID: cartRecord.ID, ProductID: keyboard.ID, Quantity: 2,
	}))
	require.NoError(t, cartRepo.InsertItem(ctx, &models.CartItem{
		CartID: cartRecord.ID, ProductID: mouse.ID, Quantity: 1,
	}))

	order, err := svc.CreateFromCart(ctx, customerID, CheckoutInput{ShippingAddress: "1 Main St"})
	require.NoError(t, err)
	assert.Equal(t, "44.98", order.TotalAmount)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, []uuid.UUID{customerID}, spy.customers)
	assert.Equal(t, []string{order.OrderNumber}, spy.orderNumbers)

	remaining, err := cartRepo.LoadItems(ctx, cartRecord.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestCreateFromCartEmptyCart(t *testing.T) {
	svc, conn, _ := newOrdersService(t)
	ctx := context.Background()
	customerID := seedCustomer(t, conn)

	// no cart at all
	_, err := svc.CreateFromCart(ctx, customerID, CheckoutInput{ShippingAddress: "1 Main St"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	// cart exists but holds nothing
	cartRepo := cart.NewRepository(conn)
	_, err = cartRepo.Create(ctx, &models.Cart{CustomerID: customerID})
	require.NoError(t, err)

	_, err = svc.CreateFromCart(ctx, customerID, CheckoutInput{ShippingAddress: "1 Main St"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestTrackGuestOrder(t *testing.T) {
	svc, conn, _ := newOrdersService(t)
	ctx := context.Background()

	product := seedOrderProduct(t, conn, "Keyboard", "19.99", 5)
	order, err := svc.Create(ctx, CreateOrderInput{
		Owner:           GuestOwner("Dana Cole", "Dana@Example.com"),
		Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	// the number alone is enough for a guest order
	found, err := svc.Track(ctx, TrackQuery{OrderNumber: order.OrderNumber})
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	// an unrelated signed-in customer can still track it
	otherID := uuid.New()
	found, err = svc.Track(ctx, TrackQuery{OrderNumber: order.OrderNumber, CustomerID: &otherID})
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	found, err = svc.Track(ctx, TrackQuery{OrderNumber: order.OrderNumber, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	// an unknown number is a plain miss
	_, err = svc.Track(ctx, TrackQuery{OrderNumber: "ORD00000000000000000"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestTrackRegisteredOrder(t *testing.T) {
	svc, conn, _ := newOrdersService(t)
	ctx := context.Background()

	product := seedOrderProduct(t, conn, "Keyboard", "19.99", 5)
	customerID := seedCustomer(t, conn)
	order, err := svc.Create(ctx, CreateOrderInput{
		Owner:           RegisteredOwner(customerID),
		Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	found, err := svc.Track(ctx, TrackQuery{OrderNumber: order.OrderNumber, CustomerID: &customerID})
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	// another customer's order reads as a miss, not a denial
	otherID := uuid.New()
	_, err = svc.Track(ctx, TrackQuery{OrderNumber: order.OrderNumber, CustomerID: &otherID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	// the number alone never unlocks a registered order
	_, err = svc.Track(ctx, TrackQuery{OrderNumber: order.OrderNumber})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	found, err = svc.Track(ctx, TrackQuery{OrderNumber: order.OrderNumber, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
}

func TestGetForCustomerScopesOwnership(t *testing.T) {
	svc, conn, _ := newOrdersService(t)
	ctx := context.Background()

	product := seedOrderProduct(t, conn, "Keyboard", "19.99", 5)
	customerID := seedCustomer(t, conn)
	order, err := svc.Create(ctx, CreateOrderInput{
		Owner:           RegisteredOwner(customerID),
		Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	found, err := svc.GetForCustomer(ctx, customerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = svc.GetForCustomer(ctx, uuid.New(), order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateStatusTransitions(t *testing.T) {
	svc, conn, _ := newOrdersService(t)
	ctx := context.Background()

	product := seedOrderProduct(t, conn, "Keyboard", "19.99", 5)
	order, err := svc.Create(ctx, CreateOrderInput{
		Owner:           RegisteredOwner(seedCustomer(t, conn)),
		Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)

	// backward move is rejected
	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPending)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// skipping forward is allowed
	updated, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveryDate)

	// delivered is terminal
	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestUpdateStatusUnknownValue(t *testing.T) {
	svc, _, _ := newOrdersService(t)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatus("MISPLACED"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCancelRestoresStock(t *testing.T) {
	svc, conn, _ := newOrdersService(t)
	ctx := context.Background()

	keyboard := seedOrderProduct(t, conn, "Keyboard", "19.99", 5)
	mouse := seedOrderProduct(t, conn, "Mouse", "5.00", 4)

	order, err := svc.Create(ctx, CreateOrderInput{
		Owner: RegisteredOwner(seedCustomer(t, conn)),
		Items: []OrderLineInput{
			{ProductID: keyboard.ID, Quantity: 3},
			{ProductID: mouse.ID, Quantity: 2},
		},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)
	require.Equal(t, 2, productStock(t, conn, keyboard.ID))
	require.Equal(t, 2, productStock(t, conn, mouse.ID))

	cancelled, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	assert.Equal(t, 5, productStock(t, conn, keyboard.ID))
	assert.Equal(t, 4, productStock(t, conn, mouse.ID))

	// cancelled is terminal
	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatusConfirmed)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCreateOrderKeepsPaymentReference(t *testing.T) {
	svc, conn, _ := newOrdersService(t)
	ctx := context.Background()

	product := seedOrderProduct(t, conn, "Keyboard", "19.99", 5)
	paymentID := "pay_8f2c1"
	paymentStatus := "COMPLETED"
	paymentMethod := "UPI"

	order, err := svc.Create(ctx, CreateOrderInput{
		Owner:           GuestOwner("Dana Cole", "dana@example.com"),
		Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: "1 Main St",
		PaymentID:       &paymentID,
		PaymentStatus:   &paymentStatus,
		PaymentMethod:   &paymentMethod,
	})
	require.NoError(t, err)

	reloaded, err := svc.Track(ctx, TrackQuery{OrderNumber: order.OrderNumber})
	require.NoError(t, err)
	require.NotNil(t, reloaded.PaymentID)
	assert.Equal(t, paymentID, *reloaded.PaymentID)
	require.NotNil(t, reloaded.PaymentStatus)
	assert.Equal(t, paymentStatus, *reloaded.PaymentStatus)
	require.NotNil(t, reloaded.PaymentMethod)
	assert.Equal(t, paymentMethod, *reloaded.PaymentMethod)
}

func TestCreateOrderConcurrentLastUnit(t *testing.T) {
	conn := setupOrdersTestDB(t)

	// a shared in-memory sqlite DB needs a single pooled connection, every
	// extra connection would open its own empty database
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	svc, _ := newOrdersServiceWithConn(t, conn)
	ctx := context.Background()

	product := seedOrderProduct(t, conn, "Limited", "10.00", 1)
	first := seedCustomer(t, conn)
	second := seedCustomer(t, conn)

	start := make(chan struct{})
	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, customerID := range []uuid.UUID{first, second} {
		wg.Add(1)
		go func(slot int, owner uuid.UUID) {
			defer wg.Done()
			<-start
			_, err := svc.Create(ctx, CreateOrderInput{
				Owner:           RegisteredOwner(owner),
				Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
				ShippingAddress: "1 Main St",
			})
			results[slot] = err
		}(i, customerID)
	}
	close(start)
	wg.Wait()

	var won, lost int
	for _, err := range results {
		if err == nil {
			won++
			continue
		}
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
		lost++
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
	assert.Zero(t, productStock(t, conn, product.ID))

	var count int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
