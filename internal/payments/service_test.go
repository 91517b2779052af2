package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nathanrivera/shopstream-backend/internal/orders"
	"github.com/nathanrivera/shopstream-backend/pkg/config"
	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
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
);`}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func paymentsTestConfig() config.PaymentsConfig {
	return config.PaymentsConfig{
		MerchantName:  "ShopStream",
		UPIID:         "shopstream@upi",
		SigningSecret: "test-signing-secret",
	}
}

func newPaymentsService(t *testing.T) (Service, orders.Repository, *gorm.DB) {
	t.Helper()

	conn := setupPaymentsTestDB(t)
	ordersRepo := orders.NewRepository(conn)
	svc, err := NewService(ordersRepo, paymentsTestConfig())
	require.NoError(t, err)
	return svc, ordersRepo, conn
}

func seedPayableOrder(t *testing.T, ordersRepo orders.Repository, number, total string) *models.Order {
	t.Helper()

	customerID := uuid.New()
	order, err := ordersRepo.Create(context.Background(), &models.Order{
		OrderNumber:     number,
		CustomerID:      &customerID,
		Status:          enums.OrderStatusPending,
		OrderDate:       time.Now().UTC(),
		ShippingAddress: "1 Main St",
		TotalAmount:     decimal.RequireFromString(total),
	})
	require.NoError(t, err)
	return order
}

func TestCreatePaymentOrder(t *testing.T) {
	svc, ordersRepo, _ := newPaymentsService(t)
	ctx := context.Background()

	order := seedPayableOrder(t, ordersRepo, "ORD20260829120000500", "44.98")

	created, err := svc.CreatePaymentOrder(ctx, CreatePaymentInput{
		OrderNumber: order.OrderNumber,
		Amount:      decimal.RequireFromString("44.98"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.PaymentID, "pay_"))
	assert.Equal(t, "44.98", created.Amount)
	assert.Equal(t, "INR", created.Currency)
	assert.Equal(t, "upi", created.Method)
	assert.Equal(t, "shopstream@upi", created.UPIID)
	assert.Contains(t, created.UPIURL, "upi://pay?")
	assert.Contains(t, created.UPIURL, "pa=shopstream%40upi")

	reloaded, err := ordersRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.PaymentID)
	assert.Equal(t, created.PaymentID, *reloaded.PaymentID)
	require.NotNil(t, reloaded.PaymentStatus)
	assert.Equal(t, "CREATED", *reloaded.PaymentStatus)
}

func TestCreatePaymentOrderAmountMismatch(t *testing.T) {
	svc, ordersRepo, _ := newPaymentsService(t)

	order := seedPayableOrder(t, ordersRepo, "ORD20260829120000501", "44.98")

	_, err := svc.CreatePaymentOrder(context.Background(), CreatePaymentInput{
		OrderNumber: order.OrderNumber,
		Amount:      decimal.RequireFromString("0.01"),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreatePaymentOrderUnknownOrder(t *testing.T) {
	svc, _, _ := newPaymentsService(t)

	_, err := svc.CreatePaymentOrder(context.Background(), CreatePaymentInput{
		OrderNumber: "ORD20260829999999999",
		Amount:      decimal.RequireFromString("10.00"),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreatePaymentOrderUnsupportedMethod(t *testing.T) {
	svc, ordersRepo, _ := newPaymentsService(t)

	order := seedPayableOrder(t, ordersRepo, "ORD20260829120000502", "10.00")

	_, err := svc.CreatePaymentOrder(context.Background(), CreatePaymentInput{
		OrderNumber: order.OrderNumber,
		Amount:      decimal.RequireFromString("10.00"),
		Method:      "barter",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestVerifyPayment(t *testing.T) {
	svc, ordersRepo, _ := newPaymentsService(t)
	ctx := context.Background()

	order := seedPayableOrder(t, ordersRepo, "ORD20260829120000503", "19.99")
	created, err := svc.CreatePaymentOrder(ctx, CreatePaymentInput{
		OrderNumber: order.OrderNumber,
		Amount:      decimal.RequireFromString("19.99"),
	})
	require.NoError(t, err)

	signature := Sign(paymentsTestConfig().SigningSecret, order.OrderNumber, created.PaymentID)
	result, err := svc.VerifyPayment(ctx, VerifyPaymentInput{
		OrderNumber: order.OrderNumber,
		PaymentID:   created.PaymentID,
		Signature:   signature,
	})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", result.Status)

	reloaded, err := ordersRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.PaymentStatus)
	assert.Equal(t, "COMPLETED", *reloaded.PaymentStatus)
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	svc, ordersRepo, _ := newPaymentsService(t)
	ctx := context.Background()

	order := seedPayableOrder(t, ordersRepo, "ORD20260829120000504", "19.99")
	created, err := svc.CreatePaymentOrder(ctx, CreatePaymentInput{
		OrderNumber: order.OrderNumber,
		Amount:      decimal.RequireFromString("19.99"),
	})
	require.NoError(t, err)

	_, err = svc.VerifyPayment(ctx, VerifyPaymentInput{
		OrderNumber: order.OrderNumber,
		PaymentID:   created.PaymentID,
		Signature:   "doctored",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	// status must stay as created
	reloaded, err := ordersRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.PaymentStatus)
	assert.Equal(t, "CREATED", *reloaded.PaymentStatus)
}

func TestVerifyPaymentUnknownPaymentID(t *testing.T) {
	svc, ordersRepo, _ := newPaymentsService(t)
	ctx := context.Background()

	order := seedPayableOrder(t, ordersRepo, "ORD20260829120000505", "19.99")

	signature := Sign(paymentsTestConfig().SigningSecret, order.OrderNumber, "pay_unknown")
	_, err := svc.VerifyPayment(ctx, VerifyPaymentInput{
		OrderNumber: order.OrderNumber,
		PaymentID:   "pay_unknown",
		Signature:   signature,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestSettings(t *testing.T) {
	svc, _, _ := newPaymentsService(t)

	settings := svc.Settings()
	assert.Equal(t, "ShopStream", settings.MerchantName)
	assert.Equal(t, "shopstream@upi", settings.UPIID)
	assert.Contains(t, settings.SupportedMethods, "upi")
}
