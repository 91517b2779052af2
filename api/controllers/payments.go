package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nathanrivera/shopstream-backend/api/responses"
	"github.com/nathanrivera/shopstream-backend/api/validators"
	"github.com/nathanrivera/shopstream-backend/internal/payments"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
	"github.com/nathanrivera/shopstream-backend/pkg/logger"
)

type createPaymentRequest struct {
	OrderNumber string `json:"order_number" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Method      string `json:"method,omitempty"`
}

type verifyPaymentRequest struct {
	OrderNumber string `json:"order_number" validate:"required"`
	PaymentID   string `json:"payment_id" validate:"required"`
	Signature   string `json:"signature" validate:"required"`
}

// CreatePaymentOrder mints a payment reference for an order.
func CreatePaymentOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(payload.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a decimal number"))
			return
		}

		result, err := svc.CreatePaymentOrder(r.Context(), payments.CreatePaymentInput{
			OrderNumber: payload.OrderNumber,
			Amount:      amount,
			Method:      payload.Method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// VerifyPayment checks a signed confirmation and marks the order paid.
func VerifyPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyPayment(r.Context(), payments.VerifyPaymentInput{
			OrderNumber: payload.OrderNumber,
			PaymentID:   payload.PaymentID,
			Signature:   payload.Signature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PaymentSettings exposes the merchant configuration clients need to start a
// payment. The route is public.
func PaymentSettings(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Settings())
	}
}
