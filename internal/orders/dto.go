package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/nathanrivera/shopstream-backend/pkg/db/models"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
)

// Owner identifies who an order belongs to. Exactly one of the two shapes is
// valid: a registered customer ID, or a guest name/email pair.
type Owner struct {
	customerID *uuid.UUID
	guestName  string
	guestEmail string
}

// RegisteredOwner builds the owner for a signed-in customer.
func RegisteredOwner(customerID uuid.UUID) Owner {
	return Owner{customerID: &customerID}
}

// GuestOwner builds the owner for an anonymous checkout.
func GuestOwner(name, email string) Owner {
	return Owner{
		guestName:  strings.TrimSpace(name),
		guestEmail: strings.ToLower(strings.TrimSpace(email)),
	}
}

// IsGuest reports whether the owner is an anonymous checkout.
func (o Owner) IsGuest() bool {
	return o.customerID == nil
}

// CustomerID returns the registered customer, or nil for guests.
func (o Owner) CustomerID() *uuid.UUID {
	return o.customerID
}

func (o Owner) validate() error {
	if o.customerID != nil {
		if *o.customerID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
		}
		return nil
	}
	if o.guestName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest name is required")
	}
	if o.guestEmail == "" || !strings.Contains(o.guestEmail, "@") {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest email is required")
	}
	return nil
}

// OrderLineInput is one requested (product, quantity) pair.
type OrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput holds the validated payload to place an order. Line prices
// always come from the catalog, never from the client. The payment fields are
// opaque references from the payment flow; stored as-is when present.
type CreateOrderInput struct {
	Owner           Owner
	Items           []OrderLineInput
	ShippingAddress string
	PhoneNumber     *string
	Notes           *string
	PaymentID       *string
	PaymentStatus   *string
	PaymentMethod   *string
}

// CheckoutInput places an order from the customer's saved cart.
type CheckoutInput struct {
	ShippingAddress string
	PhoneNumber     *string
	Notes           *string
}

// TrackQuery identifies the caller asking after an order number. Admins see
// every order, registered orders are visible only to their owner, and guest
// orders are visible to anyone holding the number.
type TrackQuery struct {
	OrderNumber string
	CustomerID  *uuid.UUID
	IsAdmin     bool
}

// ListFilters describe the inputs supported by the admin order list.
type ListFilters struct {
	Status *enums.OrderStatus
}

// OrderItemDTO is one frozen order line.
type OrderItemDTO struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Brand       string    `json:"brand"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	TotalPrice  string    `json:"total_price"`
}

// OrderDTO is the order representation returned to clients.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	OrderNumber     string            `json:"order_number"`
	CustomerID      *uuid.UUID        `json:"customer_id,omitempty"`
	GuestName       *string           `json:"guest_name,omitempty"`
	GuestEmail      *string           `json:"guest_email,omitempty"`
	Status          enums.OrderStatus `json:"status"`
	OrderDate       time.Time         `json:"order_date"`
	DeliveryDate    *time.Time        `json:"delivery_date,omitempty"`
	ShippingAddress string            `json:"shipping_address"`
	PhoneNumber     *string           `json:"phone_number,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	TotalAmount     string            `json:"total_amount"`
	PaymentID       *string           `json:"payment_id,omitempty"`
	PaymentStatus   *string           `json:"payment_status,omitempty"`
	PaymentMethod   *string           `json:"payment_method,omitempty"`
	Items           []OrderItemDTO    `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// NewOrderDTO maps the model onto the API shape.
func NewOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	return &OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		GuestName:       order.GuestCustomerName,
		GuestEmail:      order.GuestCustomerEmail,
		Status:          order.Status,
		OrderDate:       order.OrderDate,
		DeliveryDate:    order.DeliveryDate,
		ShippingAddress: order.ShippingAddress,
		PhoneNumber:     order.PhoneNumber,
		Notes:           order.Notes,
		TotalAmount:     order.TotalAmount.StringFixed(2),
		PaymentID:       order.PaymentID,
		PaymentStatus:   order.PaymentStatus,
		PaymentMethod:   order.PaymentMethod,
		Items: lo.Map(order.Items, func(item models.OrderItem, _ int) OrderItemDTO {
			return OrderItemDTO{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Brand:       item.ProductBrand,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice.StringFixed(2),
				TotalPrice:  item.TotalPrice.StringFixed(2),
			}
		}),
		CreatedAt: order.CreatedAt,
	}
}

func newOrderList(orders []models.Order, nextCursor string) *OrderList {
	return &OrderList{
		Orders: lo.Map(orders, func(o models.Order, _ int) OrderDTO {
			return *NewOrderDTO(&o)
		}),
		NextCursor: nextCursor,
	}
}
