package customers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
)

// CustomerDTO is the profile representation returned to clients.
type CustomerDTO struct {
	ID                 uuid.UUID  `json:"id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	PhoneNumber        *string    `json:"phone_number,omitempty"`
	Address            *string    `json:"address,omitempty"`
	EmailNotifications bool       `json:"email_notifications"`
	SMSNotifications   bool       `json:"sms_notifications"`
	VisitCount         int64      `json:"visit_count"`
	PurchaseCount      int64      `json:"purchase_count"`
	LastVisitAt        *time.Time `json:"last_visit_at,omitempty"`
	LastPurchaseAt     *time.Time `json:"last_purchase_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// NewCustomerDTO maps the model onto the API shape.
func NewCustomerDTO(customer *models.Customer) *CustomerDTO {
	if customer == nil {
		return nil
	}
	return &CustomerDTO{
		ID:                 customer.ID,
		Username:           customer.Username,
		Email:              customer.Email,
		FirstName:          customer.FirstName,
		LastName:           customer.LastName,
		PhoneNumber:        customer.PhoneNumber,
		Address:            customer.Address,
		EmailNotifications: customer.EmailNotifications,
		SMSNotifications:   customer.SMSNotifications,
		VisitCount:         customer.VisitCount,
		PurchaseCount:      customer.PurchaseCount,
		LastVisitAt:        customer.LastVisitAt,
		LastPurchaseAt:     customer.LastPurchaseAt,
		CreatedAt:          customer.CreatedAt,
	}
}

// SignupInput holds the validated payload to register a customer.
type SignupInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber *string
	Address     *string
}

// UpdateProfileInput holds optional mutation values for a profile.
type UpdateProfileInput struct {
	FirstName          *string
	LastName           *string
	PhoneNumber        *string
	Address            *string
	EmailNotifications *bool
	SMSNotifications   *bool
}

// AdminDTO is the back-office account representation returned to clients.
type AdminDTO struct {
	ID         uuid.UUID  `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewAdminDTO maps the model onto the API shape.
func NewAdminDTO(admin *models.Admin) *AdminDTO {
	if admin == nil {
		return nil
	}
	return &AdminDTO{
		ID:         admin.ID,
		Username:   admin.Username,
		Email:      admin.Email,
		FullName:   admin.FullName,
		Verified:   admin.Verified,
		VerifiedAt: admin.VerifiedAt,
		CreatedAt:  admin.CreatedAt,
	}
}

func newAdminList(admins []models.Admin) []AdminDTO {
	return lo.Map(admins, func(admin models.Admin, _ int) AdminDTO {
		return *NewAdminDTO(&admin)
	})
}

// AdminSignupInput holds the validated payload to register an operator.
type AdminSignupInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// Principal identifies an authenticated account and its role.
type Principal struct {
	ID   uuid.UUID
	Role enums.Role
}
