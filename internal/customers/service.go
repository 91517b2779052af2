package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanrivera/shopstream-backend/pkg/config"
	"github.com/nathanrivera/shopstream-backend/pkg/db"
	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
	"github.com/nathanrivera/shopstream-backend/pkg/security"
)

// Service exposes customer account operations.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (*CustomerDTO, error)
	AdminSignup(ctx context.Context, input AdminSignupInput) (*AdminDTO, error)
	Authenticate(ctx context.Context, login, password string) (*Principal, error)
	AuthenticateAdmin(ctx context.Context, username, password string) (*Principal, error)
	GetProfile(ctx context.Context, customerID uuid.UUID) (*CustomerDTO, error)
	UpdateProfile(ctx context.Context, customerID uuid.UUID, input UpdateProfileInput) (*CustomerDTO, error)
	ChangePassword(ctx context.Context, customerID uuid.UUID, currentPassword, newPassword string) error
	RecordVisit(ctx context.Context, customerID uuid.UUID, at time.Time) error
	RecordPurchase(ctx context.Context, customerID uuid.UUID, at time.Time) error
	ListPendingAdmins(ctx context.Context) ([]AdminDTO, error)
	ListVerifiedAdmins(ctx context.Context) ([]AdminDTO, error)
	CountPendingAdmins(ctx context.Context) (int64, error)
	ApproveAdmin(ctx context.Context, adminID, approverID uuid.UUID) (*AdminDTO, error)
	RejectAdmin(ctx context.Context, adminID uuid.UUID) error
	ListAdminApprovals(ctx context.Context, approverID uuid.UUID) ([]AdminDTO, error)
}

type service struct {
	repo        Repository
	adminRepo   AdminRepository
	dbClient    *db.Client
	passwordCfg config.PasswordConfig
}

// NewService constructs a customers service instance.
func NewService(repo Repository, adminRepo AdminRepository, dbClient *db.Client, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if adminRepo == nil {
		return nil, fmt.Errorf("admin repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:        repo,
		adminRepo:   adminRepo,
		dbClient:    dbClient,
		passwordCfg: passwordCfg,
	}, nil
}

func (s *service) Signup(ctx context.Context, input SignupInput) (*CustomerDTO, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	customer := &models.Customer{
		Username:           username,
		Email:              email,
		PasswordHash:       hash,
		FirstName:          strings.TrimSpace(input.FirstName),
		LastName:           strings.TrimSpace(input.LastName),
		PhoneNumber:        input.PhoneNumber,
		Address:            input.Address,
		Enabled:            true,
		EmailNotifications: true,
	}

	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username or email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert customer")
	}
	return NewCustomerDTO(created), nil
}

// AdminSignup registers a back-office account. The very first admin is
// verified on creation so someone can approve the rest; everyone after that
// waits in the pending queue.
func (s *service) AdminSignup(ctx context.Context, input AdminSignupInput) (*AdminDTO, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	existing, err := s.adminRepo.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count admins")
	}

	admin := &models.Admin{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
	}
	if existing == 0 {
		now := time.Now().UTC()
		admin.Verified = true
		admin.VerifiedAt = &now
	}

	created, err := s.adminRepo.Create(ctx, admin)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username or email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert admin")
	}
	return NewAdminDTO(created), nil
}

// Authenticate verifies customer credentials against the username first,
// then the email. Lookup misses and bad passwords return the same error.
func (s *service) Authenticate(ctx context.Context, login, password string) (*Principal, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	customer, err := s.repo.FindByUsername(ctx, login)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load customer")
		}
		customer, err = s.repo.FindByEmail(ctx, strings.ToLower(login))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load customer")
		}
	}

	ok, err := security.VerifyPassword(password, customer.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !customer.Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account disabled")
	}

	return &Principal{ID: customer.ID, Role: enums.RoleCustomer}, nil
}

func (s *service) AuthenticateAdmin(ctx context.Context, username, password string) (*Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	admin, err := s.adminRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load admin")
	}

	ok, err := security.VerifyPassword(password, admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	// an unverified account reads as a bad login, not a distinct state
	if !admin.Verified {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	return &Principal{ID: admin.ID, Role: enums.RoleAdmin}, nil
}

func (s *service) ListPendingAdmins(ctx context.Context) ([]AdminDTO, error) {
	admins, err := s.adminRepo.ListByVerified(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list admins")
	}
	return newAdminList(admins), nil
}

func (s *service) ListVerifiedAdmins(ctx context.Context) ([]AdminDTO, error) {
	admins, err := s.adminRepo.ListByVerified(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list admins")
	}
	return newAdminList(admins), nil
}

func (s *service) CountPendingAdmins(ctx context.Context) (int64, error) {
	count, err := s.adminRepo.CountByVerified(ctx, false)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count admins")
	}
	return count, nil
}

// ApproveAdmin marks a pending account verified and records who approved it.
func (s *service) ApproveAdmin(ctx context.Context, adminID, approverID uuid.UUID) (*AdminDTO, error) {
	admin, err := s.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load admin")
	}
	if admin.Verified {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "admin already verified")
	}

	now := time.Now().UTC()
	if err := s.adminRepo.Update(ctx, adminID, map[string]any{
		"verified":    true,
		"verified_by": approverID,
		"verified_at": now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: verify admin")
	}

	admin, err = s.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload admin")
	}
	return NewAdminDTO(admin), nil
}

// RejectAdmin deletes a pending account. Verified accounts cannot be rejected.
func (s *service) RejectAdmin(ctx context.Context, adminID uuid.UUID) error {
	admin, err := s.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load admin")
	}
	if admin.Verified {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "admin already verified")
	}

	if err := s.adminRepo.Delete(ctx, adminID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete admin")
	}
	return nil
}

func (s *service) ListAdminApprovals(ctx context.Context, approverID uuid.UUID) ([]AdminDTO, error) {
	admins, err := s.adminRepo.ListByVerifier(ctx, approverID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list admins")
	}
	return newAdminList(admins), nil
}

func (s *service) GetProfile(ctx context.Context, customerID uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load customer")
	}
	return NewCustomerDTO(customer), nil
}

func (s *service) UpdateProfile(ctx context.Context, customerID uuid.UUID, input UpdateProfileInput) (*CustomerDTO, error) {
	updates := map[string]any{}
	if input.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.PhoneNumber != nil {
		updates["phone_number"] = *input.PhoneNumber
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.EmailNotifications != nil {
		updates["email_notifications"] = *input.EmailNotifications
	}
	if input.SMSNotifications != nil {
		updates["sms_notifications"] = *input.SMSNotifications
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindByID(ctx, customerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load customer")
		}
		if err := txRepo.Update(ctx, customerID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update customer")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, customerID)
}

// ChangePassword verifies the current password before writing the new hash.
func (s *service) ChangePassword(ctx context.Context, customerID uuid.UUID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		customer, err := txRepo.FindByID(ctx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load customer")
		}

		ok, err := security.VerifyPassword(currentPassword, customer.PasswordHash)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}

		hash, err := security.HashPassword(newPassword, s.passwordCfg)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		if err := txRepo.Update(ctx, customerID, map[string]any{"password_hash": hash}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update password")
		}
		return nil
	})
}

func (s *service) RecordVisit(ctx context.Context, customerID uuid.UUID, at time.Time) error {
	if err := s.repo.IncrementVisit(ctx, customerID, at); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: increment visit")
	}
	return nil
}

func (s *service) RecordPurchase(ctx context.Context, customerID uuid.UUID, at time.Time) error {
	if err := s.repo.IncrementPurchase(ctx, customerID, at); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: increment purchase")
	}
	return nil
}
