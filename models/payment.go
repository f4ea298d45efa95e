package models

import "time"

// Payment status values. A payment is created as pending and moves exactly
// once to completed or failed; both are terminal.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment is one enrollment attempt. Rows are never deleted; failed attempts
// stay queryable in history.
type Payment struct {
	ID                int       `json:"id"`
	UserID            int       `json:"user_id"`
	CourseID          int       `json:"course_id"`
	Amount            int64     `json:"amount"` // minor units (paise)
	Currency          string    `json:"currency"`
	RazorpayOrderID   string    `json:"razorpay_order_id"`
	RazorpayPaymentID string    `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string    `json:"razorpay_signature,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PaymentHistoryEntry is a payment joined with course display fields,
// as returned by the history listing.
type PaymentHistoryEntry struct {
	Course            CourseSummary `json:"course"`
	Amount            int64         `json:"amount"`
	Status            string        `json:"status"`
	CreatedAt         time.Time     `json:"createdAt"`
	RazorpayPaymentID string        `json:"razorpayPaymentId,omitempty"`
}
