package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/Domenick1991/travelagent/internal/email"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func bookingResult(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func transitionResult(args mock.Arguments) (*domain.Booking, bool, error) {
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Booking), args.Bool(1), args.Error(2)
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return bookingResult(m.Called(ctx, id))
}

func (m *MockBookingRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Booking, error) {
	return bookingResult(m.Called(ctx, userID, key))
}

func (m *MockBookingRepository) GetByPaymentIntent(ctx context.Context, intentID string) (*domain.Booking, error) {
	return bookingResult(m.Called(ctx, intentID))
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context, status *domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) SetPaymentIntent(ctx context.Context, id, intentID string) error {
	args := m.Called(ctx, id, intentID)
	return args.Error(0)
}

func (m *MockBookingRepository) Confirm(ctx context.Context, id string, paidAt time.Time) (*domain.Booking, bool, error) {
	return transitionResult(m.Called(ctx, id, paidAt))
}

func (m *MockBookingRepository) Cancel(ctx context.Context, id string, cancelledAt time.Time) (*domain.Booking, bool, error) {
	return transitionResult(m.Called(ctx, id, cancelledAt))
}

func (m *MockBookingRepository) MarkPaymentFailed(ctx context.Context, intentID string) (*domain.Booking, bool, error) {
	return transitionResult(m.Called(ctx, intentID))
}

func (m *MockBookingRepository) MarkLatePayment(ctx context.Context, intentID string, paidAt time.Time) (*domain.Booking, bool, error) {
	return transitionResult(m.Called(ctx, intentID, paidAt))
}

func (m *MockBookingRepository) UpdateRefund(ctx context.Context, id string, status domain.RefundStatus, refundID, refundErr *string) error {
	args := m.Called(ctx, id, status, refundID, refundErr)
	return args.Error(0)
}

func (m *MockBookingRepository) ListRefundsDue(ctx context.Context, limit int) ([]domain.Booking, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Booking, error) {
	args := m.Called(ctx, createdBefore, limit)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockDestinationStore struct {
	mock.Mock
}

func (m *MockDestinationStore) GetActiveByIDOrSlug(ctx context.Context, idOrSlug string) (*domain.Destination, error) {
	args := m.Called(ctx, idOrSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Destination), args.Error(1)
}

func (m *MockDestinationStore) GetByID(ctx context.Context, id string) (*domain.Destination, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Destination), args.Error(1)
}

func (m *MockDestinationStore) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Package), args.Error(1)
}

func (m *MockDestinationStore) IncrementBookingCount(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string, idempotencyKey string) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, amount, currency, metadata, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) RetrieveIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) CancelIntent(ctx context.Context, intentID string) error {
	args := m.Called(ctx, intentID)
	return args.Error(0)
}

func (m *MockPaymentGateway) Refund(ctx context.Context, intentID string, amount *decimal.Decimal, idempotencyKey string) (*domain.Refund, error) {
	args := m.Called(ctx, intentID, amount, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Refund), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) SendBookingConfirmation(ctx context.Context, to string, data email.ConfirmationData) error {
	args := m.Called(ctx, to, data)
	return args.Error(0)
}

func (m *MockDispatcher) SendPaymentReceipt(ctx context.Context, to string, data email.ReceiptData) error {
	args := m.Called(ctx, to, data)
	return args.Error(0)
}

func (m *MockDispatcher) NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking, destinationName string) error {
	args := m.Called(ctx, booking, destinationName)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value any) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}
