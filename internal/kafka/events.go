package kafka

import (
	"time"

	"github.com/Domenick1991/travelagent/internal/domain"
)

type EventType string

const (
	EventBookingCreated   EventType = "booking_created"
	EventBookingConfirmed EventType = "booking_confirmed"
	EventBookingCancelled EventType = "booking_cancelled"
	EventPaymentFailed    EventType = "payment_failed"
	EventRefundIssued     EventType = "refund_issued"
	EventRefundFailed     EventType = "refund_failed"
)

// BookingEvent is published to the booking events topic, keyed by booking id.
type BookingEvent struct {
	Type          EventType            `json:"type"`
	BookingID     string               `json:"booking_id"`
	BookingNumber string               `json:"booking_number"`
	UserID        string               `json:"user_id"`
	DestinationID string               `json:"destination_id"`
	Status        domain.BookingStatus `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	RefundStatus  domain.RefundStatus  `json:"refund_status"`
	Total         domain.Money         `json:"total"`
	Currency      string               `json:"currency"`
	Reason        string               `json:"reason,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func NewBookingEvent(t EventType, b *domain.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:          t,
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		UserID:        b.UserID,
		DestinationID: b.DestinationID,
		Status:        b.BookingStatus,
		PaymentStatus: b.PaymentStatus,
		RefundStatus:  b.RefundStatus,
		Total:         b.Total,
		Currency:      b.Currency,
		OccurredAt:    at,
	}
}
