package model

import "time"

// PaymentStatus enumerates the states of a payment record.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

// Payment methods.
const (
	MethodPayPal       = "paypal"
	MethodCreditCard   = "credit_card"
	MethodBankTransfer = "bank_transfer"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case MethodPayPal, MethodCreditCard, MethodBankTransfer:
		return true
	}
	return false
}

// Payment mirrors the `payments` table. OrderID is the unique
// correlation key shared with the external payment provider.
type Payment struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	OrderID   string        `json:"orderId"`
	Amount    float64       `json:"amount"`
	Currency  string        `json:"currency"`
	Status    PaymentStatus `json:"status"`
	Method    string        `json:"method"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
