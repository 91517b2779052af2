package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
	"github.com/nathanrivera/shopstream-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an analytics repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, activity *models.CustomerActivity) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(activity).Error
}

// ListByCustomer pages through a customer's events newest first, keyed on
// activity_time rather than an insert timestamp.
func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.CustomerActivity, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Model(&models.CustomerActivity{}).
		Where("customer_id = ?", customerID)
	if cursor != nil {
		query = query.Where(
			"(activity_time < ?) OR (activity_time = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var activities []models.CustomerActivity
	err = query.
		Order("activity_time DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&activities).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(activities) > limit {
		activities = activities[:limit]
		last := activities[len(activities)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.ActivityTime,
			ID:        last.ID,
		})
	}
	return activities, nextCursor, nil
}

func (r *repository) CountByType(ctx context.Context, since time.Time) (map[enums.ActivityType]int64, error) {
	type row struct {
		ActivityType enums.ActivityType
		Total        int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.CustomerActivity{}).
		Select("activity_type, COUNT(*) AS total").
		Where("activity_time >= ?", since).
		Group("activity_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.ActivityType]int64, len(rows))
	for _, r := range rows {
		counts[r.ActivityType] = r.Total
	}
	return counts, nil
}

// OrderStats aggregates orders placed since the cutoff. Revenue and the order
// count used for averages exclude cancelled orders.
func (r *repository) OrderStats(ctx context.Context, since time.Time) (*OrderStats, error) {
	type row struct {
		Status enums.OrderStatus
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS total").
		Where("order_date >= ?", since).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &OrderStats{CountsByStatus: make(map[enums.OrderStatus]int64, len(rows))}
	for _, r := range rows {
		stats.CountsByStatus[r.Status] = r.Total
		if r.Status != enums.OrderStatusCancelled {
			stats.OrderCount += r.Total
		}
	}

	err = r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("order_date >= ? AND status <> ?", since, enums.OrderStatusCancelled).
		Scan(&stats.Revenue).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("activity_time < ?", cutoff).
		Delete(&models.CustomerActivity{})
	return result.RowsAffected, result.Error
}
