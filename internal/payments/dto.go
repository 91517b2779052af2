package payments

import "github.com/shopspring/decimal"

// CreatePaymentInput asks for a payment reference against an existing order.
type CreatePaymentInput struct {
	OrderNumber string
	Amount      decimal.Decimal
	Method      string
}

// VerifyPaymentInput carries the signed confirmation a client presents after
// completing a payment.
type VerifyPaymentInput struct {
	OrderNumber string
	PaymentID   string
	Signature   string
}

// PaymentOrderDTO is the reference handed to the client to pay against.
type PaymentOrderDTO struct {
	PaymentID    string `json:"payment_id"`
	OrderNumber  string `json:"order_number"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Method       string `json:"method"`
	MerchantName string `json:"merchant_name"`
	UPIID        string `json:"upi_id,omitempty"`
	UPIURL       string `json:"upi_url,omitempty"`
}

// VerifyResultDTO reports a successful verification.
type VerifyResultDTO struct {
	OrderNumber string `json:"order_number"`
	PaymentID   string `json:"payment_id"`
	Status      string `json:"status"`
}

// SettingsDTO exposes the merchant configuration to the admin console.
type SettingsDTO struct {
	MerchantName     string   `json:"merchant_name"`
	UPIID            string   `json:"upi_id"`
	SupportedMethods []string `json:"supported_methods"`
}
