package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/Domenick1991/travelagent/internal/email"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Dispatcher interface {
	SendBookingConfirmation(ctx context.Context, to string, data email.ConfirmationData) error
	SendPaymentReceipt(ctx context.Context, to string, data email.ReceiptData) error
	NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking, destinationName string) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
}

type Service struct {
	sender email.Sender
	store  NotificationStore
	logger *zap.Logger
	now    func() time.Time
}

func NewService(sender email.Sender, store NotificationStore, logger *zap.Logger) *Service {
	return &Service{sender: sender, store: store, logger: logger.Named("notification"), now: time.Now}
}

func (s *Service) SendBookingConfirmation(ctx context.Context, to string, data email.ConfirmationData) error {
	msg, err := email.RenderConfirmation(to, data)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg)
}

func (s *Service) SendPaymentReceipt(ctx context.Context, to string, data email.ReceiptData) error {
	msg, err := email.RenderReceipt(to, data)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg)
}

// NotifyBookingConfirmed appends an in-app notification for the booking owner.
func (s *Service) NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking, destinationName string) error {
	bookingID := booking.ID
	n := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    booking.UserID,
		BookingID: &bookingID,
		Type:      domain.NotificationBookingConfirmed,
		Title:     "Booking Confirmed",
		Message:   fmt.Sprintf("Your booking %s for %s has been confirmed.", booking.BookingNumber, destinationName),
		CreatedAt: s.now(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return fmt.Errorf("notify booking confirmed: %w", err)
	}
	s.logger.Debug("notification created", zap.String("booking_id", booking.ID), zap.String("notification_id", n.ID))
	return nil
}

var _ Dispatcher = (*Service)(nil)
