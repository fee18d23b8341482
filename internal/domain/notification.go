package domain

import "time"

type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	BookingID *string          `json:"booking_id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// DestinationView is one analytics row per destination and calendar day.
type DestinationView struct {
	DestinationID string    `json:"destination_id"`
	Date          time.Time `json:"date"`
	Views         int       `json:"views"`
}
