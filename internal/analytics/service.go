package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
	"github.com/nathanrivera/shopstream-backend/pkg/logger"
	"github.com/nathanrivera/shopstream-backend/pkg/pagination"
)

// Service records customer activity and serves the analytics read side.
// Recording is best effort: callers log failures and move on, a lost event
// never fails the request that produced it.
type Service interface {
	RecordVisit(ctx context.Context, input VisitInput) error
	RecordPurchase(ctx context.Context, customerID uuid.UUID, orderNumber string) error
	RecordActivity(ctx context.Context, input ActivityInput) error
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ActivityList, error)
	Summary(ctx context.Context, since time.Time) (*SummaryDTO, error)
	PruneSessions() int
}

type engagementRecorder interface {
	RecordVisit(ctx context.Context, customerID uuid.UUID, at time.Time) error
	RecordPurchase(ctx context.Context, customerID uuid.UUID, at time.Time) error
}

type service struct {
	repo       Repository
	engagement engagementRecorder
	sessions   *SessionDeduper
	logg       *logger.Logger
	now        func() time.Time
}

// NewService constructs the analytics service. The now function is injectable
// for tests; pass nil to use the wall clock.
func NewService(repo Repository, engagement engagementRecorder, sessions *SessionDeduper, logg *logger.Logger, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if engagement == nil {
		return nil, fmt.Errorf("engagement recorder required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session deduper required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:       repo,
		engagement: engagement,
		sessions:   sessions,
		logg:       logg,
		now:        now,
	}, nil
}

// RecordVisit logs a page view and bumps the customer's visit counter at most
// once per session window. Both writes are attempted even when one fails.
func (s *service) RecordVisit(ctx context.Context, input VisitInput) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	now := s.now().UTC()
	var errs error

	if s.sessions.FirstSeen(input.CustomerID, input.SessionID) {
		errs = multierr.Append(errs, s.engagement.RecordVisit(ctx, input.CustomerID, now))
	}

	activity := &models.CustomerActivity{
		CustomerID:   input.CustomerID,
		ActivityType: enums.ActivityTypePageView,
		ActivityTime: now,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
		PageURL:      input.PageURL,
		Referrer:     input.Referrer,
	}
	if input.SessionID != "" {
		activity.SessionID = &input.SessionID
	}
	errs = multierr.Append(errs, s.repo.Insert(ctx, activity))

	return errs
}

// RecordPurchase logs a purchase event and bumps the customer's purchase
// counter.
func (s *service) RecordPurchase(ctx context.Context, customerID uuid.UUID, orderNumber string) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	now := s.now().UTC()
	var errs error

	errs = multierr.Append(errs, s.engagement.RecordPurchase(ctx, customerID, now))

	data, err := json.Marshal(map[string]string{"order_number": orderNumber})
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	payload := string(data)
	errs = multierr.Append(errs, s.repo.Insert(ctx, &models.CustomerActivity{
		CustomerID:   customerID,
		ActivityType: enums.ActivityTypePurchase,
		ActivityTime: now,
		ActivityData: &payload,
	}))

	return errs
}

// RecordActivity logs an arbitrary event without touching engagement counters.
func (s *service) RecordActivity(ctx context.Context, input ActivityInput) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown activity type")
	}

	activity := &models.CustomerActivity{
		CustomerID:   input.CustomerID,
		ActivityType: input.Type,
		ActivityTime: s.now().UTC(),
		PageURL:      input.PageURL,
		ActivityData: input.ActivityData,
	}
	if input.SessionID != "" {
		activity.SessionID = &input.SessionID
	}
	return s.repo.Insert(ctx, activity)
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ActivityList, error) {
	activities, nextCursor, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list activities")
	}
	return newActivityList(activities, nextCursor), nil
}

func (s *service) Summary(ctx context.Context, since time.Time) (*SummaryDTO, error) {
	counts, err := s.repo.CountByType(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count activities")
	}

	totals := make(map[string]int64, len(counts))
	for activityType, total := range counts {
		totals[activityType.String()] = total
	}

	stats, err := s.repo.OrderStats(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: order stats")
	}

	orders := OrderSummaryDTO{
		TotalOrders:       stats.OrderCount,
		CountsByStatus:    make(map[string]int64, len(stats.CountsByStatus)),
		Revenue:           stats.Revenue.StringFixed(2),
		AverageOrderValue: decimal.Zero.StringFixed(2),
	}
	for status, total := range stats.CountsByStatus {
		orders.CountsByStatus[string(status)] = total
	}
	if stats.OrderCount > 0 {
		avg := stats.Revenue.Div(decimal.NewFromInt(stats.OrderCount)).Round(2)
		orders.AverageOrderValue = avg.StringFixed(2)
	}

	return &SummaryDTO{Since: since, Totals: totals, Orders: orders}, nil
}

// PruneSessions drops lapsed session dedup entries and reports how many were
// removed. The cron worker calls this on a schedule.
func (s *service) PruneSessions() int {
	return s.sessions.Prune()
}
