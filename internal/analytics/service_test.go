package analytics

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
	"github.com/nathanrivera/shopstream-backend/pkg/logger"
	"github.com/nathanrivera/shopstream-backend/pkg/pagination"
)

func setupAnalyticsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS customer_activities (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  activity_type TEXT NOT NULL,
  activity_time DATETIME NOT NULL,
  session_id TEXT,
  ip_address TEXT,
  user_agent TEXT,
  page_url TEXT,
  referrer TEXT,
  activity_data TEXT
);
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
  total_amount NUMERIC NOT NULL,
  payment_id TEXT,
  payment_status TEXT,
  payment_method TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(schema).Error)
	return conn
}

func seedOrder(t *testing.T, conn *gorm.DB, status enums.OrderStatus, total string, orderDate time.Time) {
	t.Helper()

	amount, err := decimal.NewFromString(total)
	require.NoError(t, err)
	require.NoError(t, conn.Create(&models.Order{
		ID:              uuid.New(),
		OrderNumber:     "ORD" + uuid.NewString()[:14],
		Status:          status,
		OrderDate:       orderDate,
		ShippingAddress: "1 Main St",
		TotalAmount:     amount,
	}).Error)
}

type engagementSpy struct {
	visits    []uuid.UUID
	purchases []uuid.UUID
}

func (e *engagementSpy) RecordVisit(_ context.Context, customerID uuid.UUID, _ time.Time) error {
	e.visits = append(e.visits, customerID)
	return nil
}

func (e *engagementSpy) RecordPurchase(_ context.Context, customerID uuid.UUID, _ time.Time) error {
	e.purchases = append(e.purchases, customerID)
	return nil
}

func newAnalyticsService(t *testing.T, now func() time.Time) (Service, *gorm.DB, *engagementSpy) {
	t.Helper()

	conn := setupAnalyticsTestDB(t)
	spy := &engagementSpy{}
	logg := logger.New(logger.Options{ServiceName: "analytics-test", Output: io.Discard})
	svc, err := NewService(NewRepository(conn), spy, NewSessionDeduper(time.Hour, now), logg, now)
	require.NoError(t, err)
	return svc, conn, spy
}

func countActivities(t *testing.T, conn *gorm.DB, activityType enums.ActivityType) int64 {
	t.Helper()

	var count int64
	require.NoError(t, conn.Model(&models.CustomerActivity{}).
		Where("activity_type = ?", activityType).
		Count(&count).Error)
	return count
}

func TestRecordVisitDeduplicatesPerSession(t *testing.T) {
	svc, conn, spy := newAnalyticsService(t, nil)
	ctx := context.Background()
	customerID := uuid.New()

	url := "/products"
	require.NoError(t, svc.RecordVisit(ctx, VisitInput{
		CustomerID: customerID,
		SessionID:  "sess-1",
		PageURL:    &url,
	}))
	require.NoError(t, svc.RecordVisit(ctx, VisitInput{
		CustomerID: customerID,
		SessionID:  "sess-1",
	}))

	// the counter moved once, the event log twice
	assert.Equal(t, []uuid.UUID{customerID}, spy.visits)
	assert.EqualValues(t, 2, countActivities(t, conn, enums.ActivityTypePageView))
}

func TestRecordVisitNewSessionCountsAgain(t *testing.T) {
	svc, _, spy := newAnalyticsService(t, nil)
	ctx := context.Background()
	customerID := uuid.New()

	require.NoError(t, svc.RecordVisit(ctx, VisitInput{CustomerID: customerID, SessionID: "sess-1"}))
	require.NoError(t, svc.RecordVisit(ctx, VisitInput{CustomerID: customerID, SessionID: "sess-2"}))

	assert.Len(t, spy.visits, 2)
}

func TestRecordVisitRequiresCustomer(t *testing.T) {
	svc, _, _ := newAnalyticsService(t, nil)

	err := svc.RecordVisit(context.Background(), VisitInput{SessionID: "sess-1"})
	require.Error(t, err)
}

func TestRecordPurchase(t *testing.T) {
	svc, conn, spy := newAnalyticsService(t, nil)
	ctx := context.Background()
	customerID := uuid.New()

	require.NoError(t, svc.RecordPurchase(ctx, customerID, "ORD20260829120000001"))

	assert.Equal(t, []uuid.UUID{customerID}, spy.purchases)

	var activity models.CustomerActivity
	require.NoError(t, conn.Where("activity_type = ?", enums.ActivityTypePurchase).First(&activity).Error)
	require.NotNil(t, activity.ActivityData)
	assert.Contains(t, *activity.ActivityData, "ORD20260829120000001")
}

func TestRecordActivityValidatesType(t *testing.T) {
	svc, conn, _ := newAnalyticsService(t, nil)
	ctx := context.Background()
	customerID := uuid.New()

	require.NoError(t, svc.RecordActivity(ctx, ActivityInput{
		CustomerID: customerID,
		Type:       enums.ActivityTypeSearch,
		SessionID:  "sess-1",
	}))
	assert.EqualValues(t, 1, countActivities(t, conn, enums.ActivityTypeSearch))

	err := svc.RecordActivity(ctx, ActivityInput{
		CustomerID: customerID,
		Type:       enums.ActivityType("INVENTED"),
	})
	require.Error(t, err)
}

func TestListForCustomerPagination(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	current := base
	svc, _, _ := newAnalyticsService(t, func() time.Time { return current })
	ctx := context.Background()
	customerID := uuid.New()

	for i := 0; i < 5; i++ {
		current = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, svc.RecordActivity(ctx, ActivityInput{
			CustomerID: customerID,
			Type:       enums.ActivityTypeProductView,
		}))
	}

	page1, err := svc.ListForCustomer(ctx, customerID, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page1.Activities, 3)
	require.NotEmpty(t, page1.NextCursor)
	// newest first
	assert.Equal(t, base.Add(4*time.Minute), page1.Activities[0].ActivityTime)

	page2, err := svc.ListForCustomer(ctx, customerID, pagination.Params{Limit: 3, Cursor: page1.NextCursor})
	require.NoError(t, err)
	require.Len(t, page2.Activities, 2)
	assert.Empty(t, page2.NextCursor)
}

func TestSummaryCountsByType(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	current := base
	svc, _, _ := newAnalyticsService(t, func() time.Time { return current })
	ctx := context.Background()
	customerID := uuid.New()

	require.NoError(t, svc.RecordActivity(ctx, ActivityInput{CustomerID: customerID, Type: enums.ActivityTypeSearch}))
	require.NoError(t, svc.RecordActivity(ctx, ActivityInput{CustomerID: customerID, Type: enums.ActivityTypeSearch}))
	require.NoError(t, svc.RecordVisit(ctx, VisitInput{CustomerID: customerID, SessionID: "sess-1"}))

	// outside the summary window
	current = base.Add(-2 * time.Hour)
	require.NoError(t, svc.RecordActivity(ctx, ActivityInput{CustomerID: customerID, Type: enums.ActivityTypeSearch}))

	summary, err := svc.Summary(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.Totals[enums.ActivityTypeSearch.String()])
	assert.EqualValues(t, 1, summary.Totals[enums.ActivityTypePageView.String()])
}

func TestSummaryOrderStatsExcludeCancelled(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	svc, conn, _ := newAnalyticsService(t, func() time.Time { return base })
	ctx := context.Background()

	seedOrder(t, conn, enums.OrderStatusDelivered, "100.00", base)
	seedOrder(t, conn, enums.OrderStatusPending, "50.00", base.Add(-time.Minute))
	seedOrder(t, conn, enums.OrderStatusCancelled, "999.00", base)
	// outside the window
	seedOrder(t, conn, enums.OrderStatusDelivered, "10.00", base.Add(-2*time.Hour))

	summary, err := svc.Summary(ctx, base.Add(-time.Hour))
	require.NoError(t, err)

	assert.EqualValues(t, 2, summary.Orders.TotalOrders)
	assert.EqualValues(t, 1, summary.Orders.CountsByStatus[string(enums.OrderStatusDelivered)])
	assert.EqualValues(t, 1, summary.Orders.CountsByStatus[string(enums.OrderStatusCancelled)])
	assert.Equal(t, "150.00", summary.Orders.Revenue)
	assert.Equal(t, "75.00", summary.Orders.AverageOrderValue)
}

func TestRepoDeleteOlderThan(t *testing.T) {
	conn := setupAnalyticsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	customerID := uuid.New()

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(ctx, &models.CustomerActivity{
			CustomerID:   customerID,
			ActivityType: enums.ActivityTypePageView,
			ActivityTime: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	removed, err := repo.DeleteOlderThan(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
}
