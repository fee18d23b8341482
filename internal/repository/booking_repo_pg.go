package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Booking, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	List(ctx context.Context, status *domain.BookingStatus) ([]domain.Booking, error)
	SetPaymentIntent(ctx context.Context, id, intentID string) error
	// Confirm moves a PENDING booking to CONFIRMED/COMPLETED. When the row is not PENDING it is
	// returned as-is with changed=false.
	Confirm(ctx context.Context, id string, paidAt time.Time) (booking *domain.Booking, changed bool, err error)
	// Cancel moves a non-cancelled booking to CANCELLED, flagging a refund when it was paid.
	Cancel(ctx context.Context, id string, cancelledAt time.Time) (booking *domain.Booking, changed bool, err error)
	MarkPaymentFailed(ctx context.Context, intentID string) (booking *domain.Booking, changed bool, err error)
	// MarkLatePayment records a charge that succeeded after the booking was cancelled and flags it for
	// refund. changed=false when the charge was already recorded or the booking is not cancelled.
	MarkLatePayment(ctx context.Context, intentID string, paidAt time.Time) (booking *domain.Booking, changed bool, err error)
	UpdateRefund(ctx context.Context, id string, status domain.RefundStatus, refundID, refundErr *string) error
	ListRefundsDue(ctx context.Context, limit int) ([]domain.Booking, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Booking, error)
}

const bookingColumns = `id, booking_number, user_id, destination_id, package_id, start_date, end_date, travelers,
	subtotal, taxes, total, currency, contact_name, contact_email, contact_phone, special_requests, idempotency_key,
	booking_status, payment_status, payment_intent_id, paid_at, cancelled_at, refund_status, refund_id, refund_error,
	created_at, updated_at`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.BookingNumber, &b.UserID, &b.DestinationID, &b.PackageID, &b.StartDate, &b.EndDate,
		&b.Travelers, &b.Subtotal, &b.Taxes, &b.Total, &b.Currency, &b.ContactName, &b.ContactEmail, &b.ContactPhone,
		&b.SpecialRequests, &b.IdempotencyKey, &b.BookingStatus, &b.PaymentStatus, &b.PaymentIntentID, &b.PaidAt,
		&b.CancelledAt, &b.RefundStatus, &b.RefundID, &b.RefundError, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *PGBookingRepository) getOne(ctx context.Context, op, query string, args ...any) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &b, nil
}

func (r *PGBookingRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		bookings = append(bookings, b)
	}
	return bookings, wrapErr(op, rows.Err())
}

// transition runs a conditional UPDATE. If it matched nothing the current row is loaded so the caller can
// tell a missing booking from one in the wrong state.
func (r *PGBookingRepository) transition(ctx context.Context, op, update, lookup string, args ...any) (*domain.Booking, bool, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, update, args...))
	if err == nil {
		return &b, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, wrapErr(op, err)
	}

	current, err := r.getOne(ctx, op, `SELECT `+bookingColumns+` FROM bookings WHERE `+lookup, args[0])
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (id, booking_number, user_id, destination_id, package_id, start_date,
		end_date, travelers, subtotal, taxes, total, currency, contact_name, contact_email, contact_phone, special_requests,
		idempotency_key, booking_status, payment_status, refund_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at, updated_at`,
		booking.ID, booking.BookingNumber, booking.UserID, booking.DestinationID, booking.PackageID, booking.StartDate,
		booking.EndDate, booking.Travelers, booking.Subtotal, booking.Taxes, booking.Total, booking.Currency,
		booking.ContactName, booking.ContactEmail, booking.ContactPhone, booking.SpecialRequests, booking.IdempotencyKey,
		booking.BookingStatus, booking.PaymentStatus, booking.RefundStatus).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
	return wrapErr("create booking", err)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.getOne(ctx, "get booking "+id, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
}

func (r *PGBookingRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Booking, error) {
	return r.getOne(ctx, "get booking by idempotency key",
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 AND idempotency_key=$2`, userID, key)
}

func (r *PGBookingRepository) GetByPaymentIntent(ctx context.Context, intentID string) (*domain.Booking, error) {
	return r.getOne(ctx, "get booking by payment intent "+intentID,
		`SELECT `+bookingColumns+` FROM bookings WHERE payment_intent_id=$1`, intentID)
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	return r.list(ctx, "list user bookings",
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
}

func (r *PGBookingRepository) List(ctx context.Context, status *domain.BookingStatus) ([]domain.Booking, error) {
	if status == nil {
		return r.list(ctx, "list bookings", `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC, id DESC`)
	}
	return r.list(ctx, "list bookings",
		`SELECT `+bookingColumns+` FROM bookings WHERE booking_status=$1 ORDER BY created_at DESC, id DESC`, *status)
}

func (r *PGBookingRepository) SetPaymentIntent(ctx context.Context, id, intentID string) error {
	res, err := r.db.Exec(ctx, `UPDATE bookings SET payment_intent_id=$2, updated_at=now() WHERE id=$1`, id, intentID)
	if err != nil {
		return wrapErr("set payment intent", err)
	}
	if res.RowsAffected() == 0 {
		return wrapErr("set payment intent "+id, pgx.ErrNoRows)
	}
	return nil
}

func (r *PGBookingRepository) Confirm(ctx context.Context, id string, paidAt time.Time) (*domain.Booking, bool, error) {
	return r.transition(ctx, "confirm booking "+id,
		`UPDATE bookings SET booking_status='CONFIRMED', payment_status='COMPLETED', paid_at=$2, updated_at=now()
		WHERE id=$1 AND booking_status='PENDING' RETURNING `+bookingColumns,
		`id=$1`, id, paidAt)
}

func (r *PGBookingRepository) Cancel(ctx context.Context, id string, cancelledAt time.Time) (*domain.Booking, bool, error) {
	return r.transition(ctx, "cancel booking "+id,
		`UPDATE bookings SET booking_status='CANCELLED', cancelled_at=$2, updated_at=now(),
			refund_status = CASE WHEN payment_status='COMPLETED' THEN 'REQUIRED' ELSE refund_status END
		WHERE id=$1 AND booking_status <> 'CANCELLED' RETURNING `+bookingColumns,
		`id=$1`, id, cancelledAt)
}

func (r *PGBookingRepository) MarkPaymentFailed(ctx context.Context, intentID string) (*domain.Booking, bool, error) {
	return r.transition(ctx, "mark payment failed "+intentID,
		`UPDATE bookings SET payment_status='FAILED', updated_at=now()
		WHERE payment_intent_id=$1 AND booking_status='PENDING' AND payment_status='PENDING' RETURNING `+bookingColumns,
		`payment_intent_id=$1`, intentID)
}

func (r *PGBookingRepository) MarkLatePayment(ctx context.Context, intentID string, paidAt time.Time) (*domain.Booking, bool, error) {
	return r.transition(ctx, "mark late payment "+intentID,
		`UPDATE bookings SET payment_status='COMPLETED', paid_at=$2, refund_status='REQUIRED', updated_at=now()
		WHERE payment_intent_id=$1 AND booking_status='CANCELLED' AND payment_status<>'COMPLETED' RETURNING `+bookingColumns,
		`payment_intent_id=$1`, intentID, paidAt)
}

func (r *PGBookingRepository) UpdateRefund(ctx context.Context, id string, status domain.RefundStatus, refundID, refundErr *string) error {
	res, err := r.db.Exec(ctx, `UPDATE bookings SET refund_status=$2, refund_id=COALESCE($3, refund_id), refund_error=$4,
		updated_at=now() WHERE id=$1`, id, status, refundID, refundErr)
	if err != nil {
		return wrapErr("update refund", err)
	}
	if res.RowsAffected() == 0 {
		return wrapErr("update refund "+id, pgx.ErrNoRows)
	}
	return nil
}

func (r *PGBookingRepository) ListRefundsDue(ctx context.Context, limit int) ([]domain.Booking, error) {
	return r.list(ctx, "list refunds due", `SELECT `+bookingColumns+` FROM bookings
		WHERE refund_status='REQUIRED' ORDER BY cancelled_at, id LIMIT $1`, limit)
}

func (r *PGBookingRepository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Booking, error) {
	return r.list(ctx, "list stale pending bookings", `SELECT `+bookingColumns+` FROM bookings
		WHERE booking_status='PENDING' AND created_at < $1 ORDER BY created_at, id LIMIT $2`, createdBefore, limit)
}

var _ BookingRepository = (*PGBookingRepository)(nil)
