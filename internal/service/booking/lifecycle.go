package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/Domenick1991/travelagent/internal/email"
	"github.com/Domenick1991/travelagent/internal/kafka"
	"go.uber.org/zap"
)

var errNoPaymentIntent = errors.New("booking has no payment intent to refund")

// receiptPaymentMethod is what the receipt shows; checkout only collects cards.
const receiptPaymentMethod = "card"

// ConfirmBooking is idempotent: an already CONFIRMED booking is returned unchanged and no side effect
// runs again.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	b, changed, err := s.bookings.Confirm(ctx, bookingID, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		if b.BookingStatus == domain.BookingStatusConfirmed {
			return b, nil
		}
		return nil, fmt.Errorf("confirm booking %s in status %s: %w", b.BookingNumber, b.BookingStatus, domain.ErrInvalidState)
	}

	s.logger.Info("booking confirmed", zap.String("booking_id", b.ID), zap.String("booking_number", b.BookingNumber))
	s.afterConfirm(ctx, b)
	return b, nil
}

// afterConfirm starts the post-commit side effects. None of them can undo the confirmation.
func (s *BookingService) afterConfirm(ctx context.Context, b *domain.Booking) {
	booking := *b

	s.runner.Go(ctx, "confirmation-notify", func(ctx context.Context) error {
		dest, err := s.destinations.GetByID(ctx, booking.DestinationID)
		if err != nil {
			return fmt.Errorf("load destination: %w", err)
		}

		var errs []error
		if err := s.notifier.SendBookingConfirmation(ctx, booking.ContactEmail, email.ConfirmationData{
			BookingNumber:   booking.BookingNumber,
			DestinationName: dest.Name,
			StartDate:       booking.StartDate.Format("January 2, 2006"),
			EndDate:         booking.EndDate.Format("January 2, 2006"),
			TotalFormatted:  booking.Total.Format(),
		}); err != nil {
			errs = append(errs, fmt.Errorf("confirmation email: %w", err))
		}
		if err := s.notifier.NotifyBookingConfirmed(ctx, &booking, dest.Name); err != nil {
			errs = append(errs, fmt.Errorf("in-app notification: %w", err))
		}
		return errors.Join(errs...)
	})

	s.runner.Go(ctx, "payment-receipt", func(ctx context.Context) error {
		return s.notifier.SendPaymentReceipt(ctx, booking.ContactEmail, email.ReceiptData{
			BookingNumber:   booking.BookingNumber,
			AmountFormatted: booking.Total.Format(),
			PaymentMethod:   receiptPaymentMethod,
		})
	})

	s.runner.Go(ctx, "booking-count", func(ctx context.Context) error {
		return s.destinations.IncrementBookingCount(ctx, booking.DestinationID)
	})

	s.runner.Go(ctx, "booking-confirmed-event", func(ctx context.Context) error {
		s.publish(ctx, kafka.EventBookingConfirmed, &booking, "")
		return nil
	})
}

// ConfirmByPaymentIntent applies a succeeded charge. When the booking was cancelled before the charge
// landed, the payment is recorded on the cancelled booking and refunded instead.
func (s *BookingService) ConfirmByPaymentIntent(ctx context.Context, intentID string) (*domain.Booking, error) {
	b, err := s.bookings.GetByPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.ConfirmBooking(ctx, b.ID)
	if errors.Is(err, domain.ErrInvalidState) {
		return s.recordLatePayment(ctx, intentID)
	}
	return confirmed, err
}

// recordLatePayment flags the refund before attempting it, so a failed attempt is left for RetryRefunds.
func (s *BookingService) recordLatePayment(ctx context.Context, intentID string) (*domain.Booking, error) {
	b, changed, err := s.bookings.MarkLatePayment(ctx, intentID, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return b, nil
	}

	s.logger.Warn("payment received for cancelled booking",
		zap.String("booking_id", b.ID), zap.String("intent_id", intentID))
	_ = s.refund(ctx, b)
	return b, nil
}

// MarkPaymentFailed records a failed charge on a PENDING booking. The booking stays PENDING so the
// customer can retry with the same intent.
func (s *BookingService) MarkPaymentFailed(ctx context.Context, intentID string) (*domain.Booking, error) {
	b, changed, err := s.bookings.MarkPaymentFailed(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if changed {
		s.logger.Warn("payment failed", zap.String("booking_id", b.ID), zap.String("intent_id", intentID))
		s.publish(ctx, kafka.EventPaymentFailed, b, "")
	}
	return b, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID string) (*CancelResult, error) {
	if userID == "" {
		return nil, missingUser()
	}
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, fmt.Errorf("booking %s: %w", bookingID, domain.ErrNotFound)
	}
	return s.cancel(ctx, current.ID, "cancelled by customer")
}

// cancel commits the CANCELLED transition first, then attempts the refund the transition flagged.
func (s *BookingService) cancel(ctx context.Context, bookingID, reason string) (*CancelResult, error) {
	b, changed, err := s.bookings.Cancel(ctx, bookingID, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("booking %s already cancelled: %w", b.BookingNumber, domain.ErrInvalidState)
	}

	s.logger.Info("booking cancelled", zap.String("booking_id", b.ID), zap.String("reason", reason))
	s.publish(ctx, kafka.EventBookingCancelled, b, reason)

	result := &CancelResult{Booking: b}
	switch {
	case b.RefundStatus == domain.RefundStatusRequired:
		if err := s.refund(ctx, b); err != nil {
			result.RefundPending = true
			result.RefundErr = err
		}
	case b.HasPaymentIntent() && b.PaymentStatus != domain.PaymentStatusCompleted:
		// A charge that still slips through is handled by ConfirmByPaymentIntent.
		if err := s.payments.CancelIntent(ctx, *b.PaymentIntentID); err != nil {
			s.logger.Warn("failed to cancel payment intent", zap.String("booking_id", b.ID), zap.Error(err))
		}
	}
	return result, nil
}

// refund issues the full refund for a cancelled paid booking and records the outcome on b.
func (s *BookingService) refund(ctx context.Context, b *domain.Booking) error {
	var refundErr error
	var refund *domain.Refund
	if !b.HasPaymentIntent() {
		refundErr = errNoPaymentIntent
	} else {
		refund, refundErr = s.payments.Refund(ctx, *b.PaymentIntentID, nil, "refund-"+b.BookingNumber)
	}

	if refundErr != nil {
		msg := refundErr.Error()
		b.RefundError = &msg
		if err := s.bookings.UpdateRefund(ctx, b.ID, domain.RefundStatusRequired, nil, &msg); err != nil {
			s.logger.Error("failed to record refund error", zap.String("booking_id", b.ID), zap.Error(err))
		}
		s.logger.Error("refund failed", zap.String("booking_id", b.ID), zap.Error(refundErr))
		s.publish(ctx, kafka.EventRefundFailed, b, msg)
		return refundErr
	}

	if err := s.bookings.UpdateRefund(ctx, b.ID, domain.RefundStatusRefunded, &refund.ID, nil); err != nil {
		// The processor has the refund. A retry reuses the idempotency key and gets the same one back.
		s.logger.Error("refund issued but not recorded", zap.String("booking_id", b.ID), zap.String("refund_id", refund.ID), zap.Error(err))
		return err
	}
	b.RefundStatus = domain.RefundStatusRefunded
	b.RefundID = &refund.ID
	b.RefundError = nil

	s.logger.Info("refund issued", zap.String("booking_id", b.ID), zap.String("refund_id", refund.ID))
	s.publish(ctx, kafka.EventRefundIssued, b, "")
	return nil
}
