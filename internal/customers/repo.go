package customers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *repository) FindByID(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ?", customerID).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindByUsername(ctx context.Context, username string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) Update(ctx context.Context, customerID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(updates).Error
}

func (r *repository) IncrementVisit(ctx context.Context, customerID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]any{
			"visit_count":   gorm.Expr("visit_count + 1"),
			"last_visit_at": at,
		}).Error
}

func (r *repository) IncrementPurchase(ctx context.Context, customerID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]any{
			"purchase_count":   gorm.Expr("purchase_count + 1"),
			"last_purchase_at": at,
		}).Error
}

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository builds an admin repository bound to the provided DB.
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, admin *models.Admin) (*models.Admin, error) {
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

func (r *adminRepository) FindByID(ctx context.Context, adminID uuid.UUID) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.WithContext(ctx).
		Where("id = ?", adminID).
		First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) ListByVerified(ctx context.Context, verified bool) ([]models.Admin, error) {
	var admins []models.Admin
	err := r.db.WithContext(ctx).
		Where("verified = ?", verified).
		Order("created_at ASC").
		Find(&admins).Error
	if err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *adminRepository) ListByVerifier(ctx context.Context, approverID uuid.UUID) ([]models.Admin, error) {
	var admins []models.Admin
	err := r.db.WithContext(ctx).
		Where("verified_by = ?", approverID).
		Order("verified_at ASC").
		Find(&admins).Error
	if err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *adminRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Admin{}).
		Count(&count).Error
	return count, err
}

func (r *adminRepository) CountByVerified(ctx context.Context, verified bool) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("verified = ?", verified).
		Count(&count).Error
	return count, err
}

func (r *adminRepository) Update(ctx context.Context, adminID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("id = ?", adminID).
		Updates(updates).Error
}

func (r *adminRepository) Delete(ctx context.Context, adminID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", adminID).
		Delete(&models.Admin{}).Error
}
