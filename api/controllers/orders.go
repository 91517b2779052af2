package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nathanrivera/shopstream-backend/api/middleware"
	"github.com/nathanrivera/shopstream-backend/api/responses"
	"github.com/nathanrivera/shopstream-backend/api/validators"
	"github.com/nathanrivera/shopstream-backend/internal/orders"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
	"github.com/nathanrivera/shopstream-backend/pkg/logger"
)

type orderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type createOrderRequest struct {
	Items              []orderLineRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress    string             `json:"shipping_address" validate:"required"`
	PhoneNumber        *string            `json:"phone_number,omitempty"`
	Notes              *string            `json:"notes,omitempty"`
	GuestCustomerName  string             `json:"guest_customer_name,omitempty"`
	GuestCustomerEmail string             `json:"guest_customer_email,omitempty" validate:"omitempty,email"`
	PaymentID          *string            `json:"payment_id,omitempty"`
	PaymentStatus      *string            `json:"payment_status,omitempty"`
	PaymentMethod      *string            `json:"payment_method,omitempty"`
}

type checkoutRequest struct {
	ShippingAddress string  `json:"shipping_address" validate:"required"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateOrder places an order. Authenticated callers own the order; anonymous
// callers must supply guest name and email.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var owner orders.Owner
		if customerID, ok := middleware.CustomerIDFromContext(r.Context()); ok {
			owner = orders.RegisteredOwner(customerID)
		} else {
			owner = orders.GuestOwner(payload.GuestCustomerName, payload.GuestCustomerEmail)
		}

		lines := make([]orders.OrderLineInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			lines = append(lines, orders.OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		order, err := svc.Create(r.Context(), orders.CreateOrderInput{
			Owner:           owner,
			Items:           lines,
			ShippingAddress: payload.ShippingAddress,
			PhoneNumber:     payload.PhoneNumber,
			Notes:           payload.Notes,
			PaymentID:       payload.PaymentID,
			PaymentStatus:   payload.PaymentStatus,
			PaymentMethod:   payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Checkout places an order from the customer's saved cart and empties it.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := middleware.CustomerIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateFromCart(r.Context(), customerID, orders.CheckoutInput{
			ShippingAddress: payload.ShippingAddress,
			PhoneNumber:     payload.PhoneNumber,
			Notes:           payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListMyOrders pages through the authenticated customer's orders.
func ListMyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := middleware.CustomerIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		params, err := validators.PaginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListForCustomer(r.Context(), customerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetMyOrder returns one of the authenticated customer's orders. Orders
// owned by anyone else read as not found.
func GetMyOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := middleware.CustomerIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		order, err := svc.GetForCustomer(r.Context(), customerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// TrackOrder resolves an order by its public number. The access rule lives in
// the service: guest orders track by number alone, registered orders only for
// their owner.
func TrackOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := orders.TrackQuery{
			OrderNumber: chi.URLParam(r, "orderNumber"),
		}
		if customerID, ok := middleware.CustomerIDFromContext(r.Context()); ok {
			query.CustomerID = &customerID
		}
		if middleware.RoleFromContext(r.Context()) == string(enums.RoleAdmin) {
			query.IsAdmin = true
		}

		order, err := svc.Track(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminListOrders pages through every order, optionally filtered by status.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.PaginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := orders.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
				return
			}
			filters.Status = &status
		}

		result, err := svc.ListAll(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminUpdateOrderStatus moves an order along the fulfillment pipeline.
func AdminUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
