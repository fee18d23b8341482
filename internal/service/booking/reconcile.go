package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/travelagent/internal/domain"
	"go.uber.org/zap"
)

type RefundReport struct {
	Attempted int
	Refunded  int
	Failed    int
}

type ReconcileReport struct {
	Confirmed int
	Cancelled int
	Skipped   int
	Failed    int
}

// RetryRefunds re-issues refunds still marked REQUIRED. The processor idempotency key makes repeats safe.
func (s *BookingService) RetryRefunds(ctx context.Context, limit int) (RefundReport, error) {
	var report RefundReport
	due, err := s.bookings.ListRefundsDue(ctx, limit)
	if err != nil {
		return report, err
	}

	for i := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Attempted++
		if err := s.refund(ctx, &due[i]); err != nil {
			report.Failed++
			continue
		}
		report.Refunded++
	}
	return report, nil
}

// ExpirePendingBookings settles PENDING bookings older than olderThan against the payment processor:
// paid intents are confirmed, in-flight ones are left alone, the rest are cancelled.
func (s *BookingService) ExpirePendingBookings(ctx context.Context, olderThan time.Duration) (ReconcileReport, error) {
	var report ReconcileReport
	stale, err := s.bookings.ListStalePending(ctx, s.now().Add(-olderThan), s.staleBatch)
	if err != nil {
		return report, err
	}

	for _, b := range stale {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		action, err := s.reconcileOne(ctx, &b)
		if err != nil {
			report.Failed++
			s.logger.Warn("reconcile pending booking failed", zap.String("booking_id", b.ID), zap.Error(err))
			continue
		}
		switch action {
		case actionConfirm:
			report.Confirmed++
		case actionCancel:
			report.Cancelled++
		default:
			report.Skipped++
		}
	}
	return report, nil
}

type reconcileAction int

const (
	actionSkip reconcileAction = iota
	actionConfirm
	actionCancel
)

func (s *BookingService) reconcileOne(ctx context.Context, b *domain.Booking) (reconcileAction, error) {
	if b.HasPaymentIntent() {
		intent, err := s.payments.RetrieveIntent(ctx, *b.PaymentIntentID)
		if err != nil {
			return actionSkip, err
		}
		switch intent.Status {
		case domain.IntentStatusSucceeded:
			if _, err := s.ConfirmBooking(ctx, b.ID); err != nil {
				return actionSkip, fmt.Errorf("confirm paid booking: %w", err)
			}
			return actionConfirm, nil
		case domain.IntentStatusProcessing, domain.IntentStatusRequiresCapture:
			return actionSkip, nil
		}
	}

	if _, err := s.cancel(ctx, b.ID, "payment hold expired"); err != nil {
		return actionSkip, err
	}
	return actionCancel, nil
}
