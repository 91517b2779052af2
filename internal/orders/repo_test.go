package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nathanrivera/shopstream-backend/pkg/db"
	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
	"github.com/nathanrivera/shopstream-backend/pkg/pagination"
)

func seedOrder(t *testing.T, conn *gorm.DB, customerID *uuid.UUID, number string, createdAt time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     number,
		CustomerID:      customerID,
		Status:          enums.OrderStatusPending,
		OrderDate:       createdAt,
		ShippingAddress: "1 Main St",
		TotalAmount:     decimal.RequireFromString("10.00"),
		Items: []models.OrderItem{{
			ID:          uuid.New(),
			ProductID:   uuid.New(),
			Quantity:    1,
			UnitPrice:   decimal.RequireFromString("10.00"),
			TotalPrice:  decimal.RequireFromString("10.00"),
			ProductName: "Widget",
		}},
		CreatedAt: createdAt,
	}
	if customerID == nil {
		name := "Dana Cole"
		email := "dana@example.com"
		order.GuestCustomerName = &name
		order.GuestCustomerEmail = &email
	}
	order.Items[0].OrderID = order.ID
	require.NoError(t, conn.Create(order).Error)
	return order
}

func TestOrdersRepoCreateAssignsIDs(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customerID := uuid.New()
	order := &models.Order{
		OrderNumber:     "ORD20260829120000001",
		CustomerID:      &customerID,
		Status:          enums.OrderStatusPending,
		OrderDate:       time.Now().UTC(),
		ShippingAddress: "1 Main St",
		TotalAmount:     decimal.RequireFromString("19.99"),
		Items: []models.OrderItem{{
			ProductID:   uuid.New(),
			Quantity:    1,
			UnitPrice:   decimal.RequireFromString("19.99"),
			TotalPrice:  decimal.RequireFromString("19.99"),
			ProductName: "Keyboard",
		}},
	}

	created, err := repo.Create(ctx, order)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	require.Len(t, created.Items, 1)
	assert.NotEqual(t, uuid.Nil, created.Items[0].ID)
	assert.Equal(t, created.ID, created.Items[0].OrderID)

	found, err := repo.FindByOrderNumber(ctx, "ORD20260829120000001")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Keyboard", found.Items[0].ProductName)
}

func TestOrdersRepoDuplicateNumberRejected(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customerID := uuid.New()
	seedOrder(t, conn, &customerID, "ORD20260829120000002", time.Now().UTC())

	_, err := repo.Create(ctx, &models.Order{
		OrderNumber:     "ORD20260829120000002",
		CustomerID:      &customerID,
		Status:          enums.OrderStatusPending,
		OrderDate:       time.Now().UTC(),
		ShippingAddress: "1 Main St",
		TotalAmount:     decimal.RequireFromString("5.00"),
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "order_number"))
}

func TestOrdersRepoListByCustomerPagination(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customerID := uuid.New()
	otherID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedOrder(t, conn, &customerID, fmt.Sprintf("ORD2026082912000010%d", i), base.Add(time.Duration(i)*time.Minute))
	}
	seedOrder(t, conn, &otherID, "ORD20260829120000200", base)

	page1, cursor, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotEmpty(t, cursor)
	// newest first
	assert.Equal(t, "ORD20260829120000104", page1[0].OrderNumber)

	page2, cursor, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotEmpty(t, cursor)

	page3, cursor, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Empty(t, cursor)

	seen := map[string]bool{}
	for _, order := range append(append(page1, page2...), page3...) {
		seen[order.OrderNumber] = true
		require.NotNil(t, order.CustomerID)
		assert.Equal(t, customerID, *order.CustomerID)
	}
	assert.Len(t, seen, 5)
}

func TestOrdersRepoListAllStatusFilter(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customerID := uuid.New()
	now := time.Now().UTC()
	pending := seedOrder(t, conn, &customerID, "ORD20260829120000300", now.Add(-2*time.Minute))
	shipped := seedOrder(t, conn, &customerID, "ORD20260829120000301", now.Add(-time.Minute))
	require.NoError(t, repo.UpdateStatus(ctx, shipped.ID, enums.OrderStatusShipped, nil))

	status := enums.OrderStatusShipped
	orders, _, err := repo.ListAll(ctx, pagination.Params{}, ListFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, shipped.ID, orders[0].ID)

	orders, _, err = repo.ListAll(ctx, pagination.Params{}, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	found, err := repo.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, found.Status)
}

func TestOrdersRepoUpdatePayment(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customerID := uuid.New()
	order := seedOrder(t, conn, &customerID, "ORD20260829120000400", time.Now().UTC())

	require.NoError(t, repo.UpdatePayment(ctx, order.ID, map[string]any{
		"payment_id":     "pay_123",
		"payment_status": "COMPLETED",
		"payment_method": "UPI",
	}))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found.PaymentID)
	assert.Equal(t, "pay_123", *found.PaymentID)
	require.NotNil(t, found.PaymentStatus)
	assert.Equal(t, "COMPLETED", *found.PaymentStatus)
}

func TestGenerateOrderNumberShape(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	number := generateOrderNumber(now)
	assert.Len(t, number, 20)
	assert.Regexp(t, `^ORD20260829120000\d{3}$`, number)
}
