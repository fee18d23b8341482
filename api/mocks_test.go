package api

import (
	"context"
	"time"

	"github.com/Domenick1991/travelagent/internal/cache"
	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/Domenick1991/travelagent/internal/payment"
	"github.com/Domenick1991/travelagent/internal/service/booking"
	"github.com/Domenick1991/travelagent/internal/service/destinations"
	"github.com/stretchr/testify/mock"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func bookingOrNil(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, userID string, input booking.CreateBookingInput) (*booking.CreateBookingResult, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CreateBookingResult), args.Error(1)
}

func (m *MockBookingUseCase) ConfirmBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return bookingOrNil(m.Called(ctx, bookingID))
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, bookingID, userID string) (*booking.CancelResult, error) {
	args := m.Called(ctx, bookingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CancelResult), args.Error(1)
}

func (m *MockBookingUseCase) GetUserBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	return bookingOrNil(m.Called(ctx, bookingID, userID))
}

func (m *MockBookingUseCase) GetAllBookings(ctx context.Context, status *domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ConfirmByPaymentIntent(ctx context.Context, intentID string) (*domain.Booking, error) {
	return bookingOrNil(m.Called(ctx, intentID))
}

func (m *MockBookingUseCase) MarkPaymentFailed(ctx context.Context, intentID string) (*domain.Booking, error) {
	return bookingOrNil(m.Called(ctx, intentID))
}

func (m *MockBookingUseCase) RetryRefunds(ctx context.Context, limit int) (booking.RefundReport, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).(booking.RefundReport), args.Error(1)
}

func (m *MockBookingUseCase) ExpirePendingBookings(ctx context.Context, olderThan time.Duration) (booking.ReconcileReport, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(booking.ReconcileReport), args.Error(1)
}

type MockDestinationUseCase struct {
	mock.Mock
}

func destinationsOrNil(args mock.Arguments) ([]domain.Destination, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Destination), args.Error(1)
}

func destinationOrNil(args mock.Arguments) (*domain.Destination, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Destination), args.Error(1)
}

func (m *MockDestinationUseCase) SearchDestinations(ctx context.Context, params destinations.SearchParams) (*domain.DestinationPage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DestinationPage), args.Error(1)
}

func (m *MockDestinationUseCase) GetFeaturedDestinations(ctx context.Context) ([]domain.Destination, error) {
	return destinationsOrNil(m.Called(ctx))
}

func (m *MockDestinationUseCase) GetDestination(ctx context.Context, idOrSlug string) (*domain.Destination, error) {
	return destinationOrNil(m.Called(ctx, idOrSlug))
}

func (m *MockDestinationUseCase) GetPopularDestinations(ctx context.Context, limit int) ([]domain.Destination, error) {
	return destinationsOrNil(m.Called(ctx, limit))
}

func (m *MockDestinationUseCase) GetDestinationsByCountry(ctx context.Context, country string) ([]domain.Destination, error) {
	return destinationsOrNil(m.Called(ctx, country))
}

func (m *MockDestinationUseCase) CreateDestination(ctx context.Context, input destinations.CreateDestinationInput) (*domain.Destination, error) {
	return destinationOrNil(m.Called(ctx, input))
}

func (m *MockDestinationUseCase) UpdateDestination(ctx context.Context, id string, input destinations.UpdateDestinationInput) (*domain.Destination, error) {
	return destinationOrNil(m.Called(ctx, id, input))
}

func (m *MockDestinationUseCase) DeleteDestination(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockWebhookParser struct {
	mock.Mock
}

func (m *MockWebhookParser) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (cache.RateLimitResult, error) {
	args := m.Called(ctx, identifier, limit, window)
	return args.Get(0).(cache.RateLimitResult), args.Error(1)
}
