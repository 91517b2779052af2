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

// Repository defines persistence operations for customer activity events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, activity *models.CustomerActivity) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.CustomerActivity, string, error)
	CountByType(ctx context.Context, since time.Time) (map[enums.ActivityType]int64, error)
	OrderStats(ctx context.Context, since time.Time) (*OrderStats, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
