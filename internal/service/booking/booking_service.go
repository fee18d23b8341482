package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/travelagent/internal/background"
	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/Domenick1991/travelagent/internal/kafka"
	"github.com/Domenick1991/travelagent/internal/pricing"
	"github.com/Domenick1991/travelagent/internal/repository"
	"github.com/Domenick1991/travelagent/internal/service/notification"
	"github.com/Domenick1991/travelagent/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, userID string, input CreateBookingInput) (*CreateBookingResult, error)
	ConfirmBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID, userID string) (*CancelResult, error)
	GetUserBookings(ctx context.Context, userID string) ([]domain.Booking, error)
	GetBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error)
	GetAllBookings(ctx context.Context, status *domain.BookingStatus) ([]domain.Booking, error)
	ConfirmByPaymentIntent(ctx context.Context, intentID string) (*domain.Booking, error)
	MarkPaymentFailed(ctx context.Context, intentID string) (*domain.Booking, error)
	RetryRefunds(ctx context.Context, limit int) (RefundReport, error)
	ExpirePendingBookings(ctx context.Context, olderThan time.Duration) (ReconcileReport, error)
}

type DestinationStore interface {
	GetActiveByIDOrSlug(ctx context.Context, idOrSlug string) (*domain.Destination, error)
	GetByID(ctx context.Context, id string) (*domain.Destination, error)
	GetPackage(ctx context.Context, id string) (*domain.Package, error)
	IncrementBookingCount(ctx context.Context, id string) error
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string, idempotencyKey string) (*domain.PaymentIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error)
	CancelIntent(ctx context.Context, intentID string) error
	Refund(ctx context.Context, intentID string, amount *decimal.Decimal, idempotencyKey string) (*domain.Refund, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type CreateBookingInput struct {
	DestinationID   string    `json:"destination_id" validate:"required"`
	PackageID       *string   `json:"package_id,omitempty" validate:"omitempty,min=1"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Travelers       int       `json:"travelers" validate:"min=1,max=20"`
	ContactName     string    `json:"contact_name" validate:"required,min=2"`
	ContactEmail    string    `json:"contact_email" validate:"required,email"`
	ContactPhone    string    `json:"contact_phone" validate:"required,min=10"`
	SpecialRequests string    `json:"special_requests,omitempty" validate:"max=2000"`
	// IdempotencyKey lets a client safely retry a create whose response it never saw.
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
}

type CreateBookingResult struct {
	Booking      *domain.Booking `json:"booking"`
	ClientSecret string          `json:"client_secret"`
}

// CancelResult reports a committed cancellation. RefundPending is set when a refund is owed but has not
// gone through yet; the worker retries it.
type CancelResult struct {
	Booking       *domain.Booking `json:"booking"`
	RefundPending bool            `json:"refund_pending"`
	RefundErr     error           `json:"-"`
}

const maxNumberAttempts = 3

type BookingService struct {
	bookings     repository.BookingRepository
	destinations DestinationStore
	calculator   *pricing.Calculator
	payments     PaymentGateway
	notifier     notification.Dispatcher
	runner       *background.Runner
	logger       *zap.Logger

	producer    Producer
	eventsTopic string
	currency    string
	now         func() time.Time
	newNumber   func(time.Time) string
	staleBatch  int
}

type BookingServiceOption func(*BookingService)

func WithProducer(p Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = p
		s.eventsTopic = topic
	}
}

func WithCurrency(currency string) BookingServiceOption {
	return func(s *BookingService) {
		s.currency = strings.ToLower(currency)
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithNumberGenerator(gen func(time.Time) string) BookingServiceOption {
	return func(s *BookingService) {
		s.newNumber = gen
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	destinations DestinationStore,
	calculator *pricing.Calculator,
	payments PaymentGateway,
	notifier notification.Dispatcher,
	runner *background.Runner,
	logger *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		destinations: destinations,
		calculator:   calculator,
		payments:     payments,
		notifier:     notifier,
		runner:       runner,
		logger:       logger.Named("booking"),
		currency:     "usd",
		now:          time.Now,
		newNumber:    NewBookingNumber,
		staleBatch:   100,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, userID string, input CreateBookingInput) (*CreateBookingResult, error) {
	input.StartDate = calendarDate(input.StartDate)
	input.EndDate = calendarDate(input.EndDate)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, missingUser()
	}

	if input.IdempotencyKey != "" {
		existing, err := s.bookings.GetByIdempotencyKey(ctx, userID, input.IdempotencyKey)
		switch {
		case err == nil:
			return s.resume(ctx, existing)
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}

	dest, err := s.destinations.GetActiveByIDOrSlug(ctx, input.DestinationID)
	if err != nil {
		return nil, err
	}

	var pkg *domain.Package
	if input.PackageID != nil {
		pkg, err = s.destinations.GetPackage(ctx, *input.PackageID)
		if err != nil {
			return nil, err
		}
		if pkg.DestinationID != dest.ID || !pkg.IsActive {
			return nil, fmt.Errorf("package %s for destination %s: %w", pkg.ID, dest.ID, domain.ErrNotFound)
		}
	}

	quote, err := s.calculator.Calculate(pricing.UnitPrice(dest, pkg), input.Travelers)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:              uuid.NewString(),
		UserID:          userID,
		DestinationID:   dest.ID,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Travelers:       input.Travelers,
		Subtotal:        quote.Subtotal,
		Taxes:           quote.Taxes,
		Total:           quote.Total,
		Currency:        s.currency,
		ContactName:     strings.TrimSpace(input.ContactName),
		ContactEmail:    strings.TrimSpace(input.ContactEmail),
		ContactPhone:    strings.TrimSpace(input.ContactPhone),
		SpecialRequests: input.SpecialRequests,
		BookingStatus:   domain.BookingStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		RefundStatus:    domain.RefundStatusNone,
	}
	if pkg != nil {
		booking.PackageID = &pkg.ID
	}
	if input.IdempotencyKey != "" {
		key := input.IdempotencyKey
		booking.IdempotencyKey = &key
	}

	if err := s.insert(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicate) && booking.IdempotencyKey != nil {
			// A concurrent request with the same key won the insert.
			existing, getErr := s.bookings.GetByIdempotencyKey(ctx, userID, *booking.IdempotencyKey)
			if getErr != nil {
				return nil, getErr
			}
			return s.resume(ctx, existing)
		}
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("booking_number", booking.BookingNumber),
		zap.Int64("total", int64(booking.Total)))

	secret, err := s.attachIntent(ctx, booking, dest.Name)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingCreated, booking, "")
	return &CreateBookingResult{Booking: booking, ClientSecret: secret}, nil
}

// insert retries on booking number collisions. Other unique violations are returned to the caller.
func (s *BookingService) insert(ctx context.Context, booking *domain.Booking) error {
	var err error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		booking.BookingNumber = s.newNumber(s.now())
		err = s.bookings.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) || !strings.Contains(err.Error(), "booking_number") {
			return err
		}
	}
	return err
}

// resume continues a create that stopped after the insert, reusing the existing PENDING booking.
func (s *BookingService) resume(ctx context.Context, booking *domain.Booking) (*CreateBookingResult, error) {
	if booking.BookingStatus != domain.BookingStatusPending {
		return nil, fmt.Errorf("booking %s is %s: %w", booking.BookingNumber, booking.BookingStatus, domain.ErrInvalidState)
	}

	if booking.HasPaymentIntent() {
		intent, err := s.payments.RetrieveIntent(ctx, *booking.PaymentIntentID)
		if err != nil {
			return nil, err
		}
		return &CreateBookingResult{Booking: booking, ClientSecret: intent.ClientSecret}, nil
	}

	dest, err := s.destinations.GetByID(ctx, booking.DestinationID)
	if err != nil {
		return nil, err
	}
	secret, err := s.attachIntent(ctx, booking, dest.Name)
	if err != nil {
		return nil, err
	}
	return &CreateBookingResult{Booking: booking, ClientSecret: secret}, nil
}

// attachIntent requests the payment intent and records its id on the booking. On failure the booking stays
// PENDING without an intent, which resume can pick up.
func (s *BookingService) attachIntent(ctx context.Context, booking *domain.Booking, destinationName string) (string, error) {
	metadata := map[string]string{
		"bookingId":       booking.ID,
		"bookingNumber":   booking.BookingNumber,
		"destinationName": destinationName,
	}
	intent, err := s.payments.CreateIntent(ctx, booking.Total.Major(), booking.Currency, metadata, "booking-"+booking.BookingNumber)
	if err != nil {
		s.logger.Error("payment intent failed", zap.String("booking_id", booking.ID), zap.Error(err))
		return "", err
	}

	if err := s.bookings.SetPaymentIntent(ctx, booking.ID, intent.ID); err != nil {
		s.logger.Error("payment intent not recorded", zap.String("booking_id", booking.ID), zap.String("intent_id", intent.ID), zap.Error(err))
		return "", err
	}
	booking.PaymentIntentID = &intent.ID
	return intent.ClientSecret, nil
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	if userID == "" {
		return nil, missingUser()
	}
	return s.bookings.ListByUser(ctx, userID)
}

// GetBooking hides bookings of other users behind NotFound.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	if userID == "" {
		return nil, missingUser()
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, fmt.Errorf("booking %s: %w", bookingID, domain.ErrNotFound)
	}
	return b, nil
}

func (s *BookingService) GetAllBookings(ctx context.Context, status *domain.BookingStatus) ([]domain.Booking, error) {
	if status != nil && !status.Valid() {
		verr := domain.NewValidationError()
		verr.Add("status", "must be one of: PENDING CONFIRMED CANCELLED")
		return nil, verr
	}
	return s.bookings.List(ctx, status)
}

func (s *BookingService) publish(ctx context.Context, eventType kafka.EventType, booking *domain.Booking, reason string) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(eventType, booking, s.now())
	event.Reason = reason
	if err := s.producer.Publish(ctx, s.eventsTopic, booking.ID, event); err != nil {
		s.logger.Warn("failed to publish booking event",
			zap.String("type", string(eventType)),
			zap.String("booking_id", booking.ID),
			zap.Error(err))
	}
}

// calendarDate drops the time of day. Travel dates are stored as DATE columns.
func calendarDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func missingUser() error {
	verr := domain.NewValidationError()
	verr.Add("user_id", "is required")
	return verr
}

var _ BookingUseCase = (*BookingService)(nil)
