package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// RefundStatus tracks the compensating refund owed after cancelling a paid booking.
type RefundStatus string

const (
	RefundStatusNone     RefundStatus = "NONE"
	RefundStatusRequired RefundStatus = "REQUIRED"
	RefundStatusRefunded RefundStatus = "REFUNDED"
)

type Booking struct {
	ID              string        `json:"id"`
	BookingNumber   string        `json:"booking_number"`
	UserID          string        `json:"user_id"`
	DestinationID   string        `json:"destination_id"`
	PackageID       *string       `json:"package_id,omitempty"`
	StartDate       time.Time     `json:"start_date"`
	EndDate         time.Time     `json:"end_date"`
	Travelers       int           `json:"travelers"`
	Subtotal        Money         `json:"subtotal"`
	Taxes           Money         `json:"taxes"`
	Total           Money         `json:"total"`
	Currency        string        `json:"currency"`
	ContactName     string        `json:"contact_name"`
	ContactEmail    string        `json:"contact_email"`
	ContactPhone    string        `json:"contact_phone"`
	SpecialRequests string        `json:"special_requests,omitempty"`
	IdempotencyKey  *string       `json:"-"`
	BookingStatus   BookingStatus `json:"booking_status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	PaymentIntentID *string       `json:"payment_intent_id,omitempty"`
	PaidAt          *time.Time    `json:"paid_at,omitempty"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`
	RefundStatus    RefundStatus  `json:"refund_status"`
	RefundID        *string       `json:"refund_id,omitempty"`
	RefundError     *string       `json:"refund_error,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (b *Booking) HasPaymentIntent() bool {
	return b.PaymentIntentID != nil && *b.PaymentIntentID != ""
}

// PaymentIntent is the processor-side record of an in-progress charge.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       Money
	Currency     string
}

const (
	IntentStatusSucceeded       = "succeeded"
	IntentStatusProcessing      = "processing"
	IntentStatusRequiresCapture = "requires_capture"
	IntentStatusCanceled        = "canceled"
)

type Refund struct {
	ID     string
	Status string
	Amount Money
}
