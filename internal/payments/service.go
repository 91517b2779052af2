package payments

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/nathanrivera/shopstream-backend/internal/orders"
	"github.com/nathanrivera/shopstream-backend/pkg/config"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
)

const (
	paymentIDPrefix = "pay_"
	currencyINR     = "INR"

	statusCreated   = "CREATED"
	statusCompleted = "COMPLETED"
)

var supportedMethods = []string{"card", "netbanking", "wallet", "upi"}

// Service is the payment collaborator. It never talks to a real gateway: it
// mints opaque payment references, verifies HMAC-signed confirmations, and
// writes the resulting opaque strings onto the order.
type Service interface {
	CreatePaymentOrder(ctx context.Context, input CreatePaymentInput) (*PaymentOrderDTO, error)
	VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*VerifyResultDTO, error)
	Settings() SettingsDTO
}

type service struct {
	ordersRepo orders.Repository
	cfg        config.PaymentsConfig
}

// NewService constructs the payments stub.
func NewService(ordersRepo orders.Repository, cfg config.PaymentsConfig) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("payments signing secret required")
	}
	return &service{ordersRepo: ordersRepo, cfg: cfg}, nil
}

// CreatePaymentOrder mints a payment reference for an existing order. The
// amount must match the order total so a client cannot pay a doctored figure.
func (s *service) CreatePaymentOrder(ctx context.Context, input CreatePaymentInput) (*PaymentOrderDTO, error) {
	number := strings.TrimSpace(input.OrderNumber)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	method := strings.ToLower(strings.TrimSpace(input.Method))
	if method == "" {
		method = "upi"
	}
	if !methodSupported(method) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").
			WithDetails(map[string]any{"method": method})
	}

	order, err := s.ordersRepo.FindByOrderNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if !order.TotalAmount.Equal(input.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount does not match order total")
	}

	paymentID, err := newPaymentID()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate payment id")
	}

	if err := s.ordersRepo.UpdatePayment(ctx, order.ID, map[string]any{
		"payment_id":     paymentID,
		"payment_status": statusCreated,
		"payment_method": method,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: attach payment to order")
	}

	dto := &PaymentOrderDTO{
		PaymentID:    paymentID,
		OrderNumber:  order.OrderNumber,
		Amount:       order.TotalAmount.StringFixed(2),
		Currency:     currencyINR,
		Method:       method,
		MerchantName: s.cfg.MerchantName,
	}
	if method == "upi" && s.cfg.UPIID != "" {
		dto.UPIID = s.cfg.UPIID
		dto.UPIURL = s.upiURL(order.TotalAmount.StringFixed(2), order.OrderNumber)
	}
	return dto, nil
}

// VerifyPayment checks the client-presented signature against the configured
// secret and marks the order paid on success. A bad signature reads as a
// validation failure, never a hint about which part mismatched.
func (s *service) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*VerifyResultDTO, error) {
	number := strings.TrimSpace(input.OrderNumber)
	if number == "" || input.PaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number, payment id and signature are required")
	}

	order, err := s.ordersRepo.FindByOrderNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if order.PaymentID == nil || *order.PaymentID != input.PaymentID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment signature")
	}

	expected := Sign(s.cfg.SigningSecret, number, input.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(input.Signature)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment signature")
	}

	if err := s.ordersRepo.UpdatePayment(ctx, order.ID, map[string]any{
		"payment_status": statusCompleted,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark payment complete")
	}

	return &VerifyResultDTO{
		OrderNumber: order.OrderNumber,
		PaymentID:   input.PaymentID,
		Status:      statusCompleted,
	}, nil
}

func (s *service) Settings() SettingsDTO {
	return SettingsDTO{
		MerchantName:     s.cfg.MerchantName,
		UPIID:            s.cfg.UPIID,
		SupportedMethods: supportedMethods,
	}
}

// Sign computes the confirmation signature over (order number, payment id).
// Clients of the stub, and tests, produce signatures with the same function.
func Sign(secret, orderNumber, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderNumber + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newPaymentID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return paymentIDPrefix + hex.EncodeToString(buf), nil
}

func (s *service) upiURL(amount, orderNumber string) string {
	values := url.Values{}
	values.Set("pa", s.cfg.UPIID)
	values.Set("pn", s.cfg.MerchantName)
	values.Set("am", amount)
	values.Set("cu", currencyINR)
	values.Set("tn", "Payment for order "+orderNumber)
	return "upi://pay?" + values.Encode()
}

func methodSupported(method string) bool {
	for _, candidate := range supportedMethods {
		if candidate == method {
			return true
		}
	}
	return false
}
