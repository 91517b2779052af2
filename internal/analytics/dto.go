package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
)

// VisitInput describes one page visit to record.
type VisitInput struct {
	CustomerID uuid.UUID
	SessionID  string
	IPAddress  *string
	UserAgent  *string
	PageURL    *string
	Referrer   *string
}

// ActivityInput describes one arbitrary activity event to record.
type ActivityInput struct {
	CustomerID   uuid.UUID
	Type         enums.ActivityType
	SessionID    string
	PageURL      *string
	ActivityData *string
}

// ActivityDTO is one recorded event as returned to clients.
type ActivityDTO struct {
	ID           uuid.UUID          `json:"id"`
	CustomerID   uuid.UUID          `json:"customer_id"`
	ActivityType enums.ActivityType `json:"activity_type"`
	ActivityTime time.Time          `json:"activity_time"`
	SessionID    *string            `json:"session_id,omitempty"`
	PageURL      *string            `json:"page_url,omitempty"`
	Referrer     *string            `json:"referrer,omitempty"`
	ActivityData *string            `json:"activity_data,omitempty"`
}

// ActivityList wraps a page of events plus the next page cursor.
type ActivityList struct {
	Activities []ActivityDTO `json:"activities"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// OrderStats is the raw order aggregate the repository reads for the
// dashboard. Revenue and OrderCount exclude cancelled orders.
type OrderStats struct {
	CountsByStatus map[enums.OrderStatus]int64
	OrderCount     int64
	Revenue        decimal.Decimal
}

// OrderSummaryDTO reports order volume and revenue for the dashboard.
type OrderSummaryDTO struct {
	TotalOrders       int64            `json:"total_orders"`
	CountsByStatus    map[string]int64 `json:"counts_by_status"`
	Revenue           string           `json:"revenue"`
	AverageOrderValue string           `json:"average_order_value"`
}

// SummaryDTO aggregates event counts by type and order stats since a point
// in time.
type SummaryDTO struct {
	Since  time.Time        `json:"since"`
	Totals map[string]int64 `json:"totals"`
	Orders OrderSummaryDTO  `json:"orders"`
}

func newActivityDTO(activity *models.CustomerActivity) ActivityDTO {
	return ActivityDTO{
		ID:           activity.ID,
		CustomerID:   activity.CustomerID,
		ActivityType: activity.ActivityType,
		ActivityTime: activity.ActivityTime,
		SessionID:    activity.SessionID,
		PageURL:      activity.PageURL,
		Referrer:     activity.Referrer,
		ActivityData: activity.ActivityData,
	}
}

func newActivityList(activities []models.CustomerActivity, nextCursor string) *ActivityList {
	return &ActivityList{
		Activities: lo.Map(activities, func(a models.CustomerActivity, _ int) ActivityDTO {
			return newActivityDTO(&a)
		}),
		NextCursor: nextCursor,
	}
}
