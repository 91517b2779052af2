package customers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
)

// Repository defines persistence operations for customer accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	FindByID(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
	FindByUsername(ctx context.Context, username string) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	Update(ctx context.Context, customerID uuid.UUID, updates map[string]any) error
	IncrementVisit(ctx context.Context, customerID uuid.UUID, at time.Time) error
	IncrementPurchase(ctx context.Context, customerID uuid.UUID, at time.Time) error
}

// AdminRepository defines persistence operations for back-office accounts.
type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) (*models.Admin, error)
	FindByID(ctx context.Context, adminID uuid.UUID) (*models.Admin, error)
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	ListByVerified(ctx context.Context, verified bool) ([]models.Admin, error)
	ListByVerifier(ctx context.Context, approverID uuid.UUID) ([]models.Admin, error)
	Count(ctx context.Context) (int64, error)
	CountByVerified(ctx context.Context, verified bool) (int64, error)
	Update(ctx context.Context, adminID uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, adminID uuid.UUID) error
}
