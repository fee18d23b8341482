package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/Domenick1991/travelagent/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func bookingRouter(service booking.BookingUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewBookingHandler(service).Register(router.Group("/api/bookings", RequireUser()))
	return router
}

func doJSON(router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleBooking() *domain.Booking {
	return &domain.Booking{
		ID:            "b-1",
		BookingNumber: "TRV-260115-ABC123",
		UserID:        "u-1",
		DestinationID: "d-1",
		Total:         230000,
		BookingStatus: domain.BookingStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		RefundStatus:  domain.RefundStatusNone,
	}
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := createBookingRequest{
		DestinationID: "d-1",
		StartDate:     "2026-06-01",
		EndDate:       "2026-06-08",
		Travelers:     2,
		ContactName:   "Ann Lee",
		ContactEmail:  "ann@example.com",
		ContactPhone:  "+15555550100",
	}
	body, _ := json.Marshal(req)
	c.Request = httptest.NewRequest("POST", "/api/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set(idempotencyHeader, "key-1")
	c.Set(userIDKey, "u-1")

	expected := booking.CreateBookingInput{
		DestinationID:  "d-1",
		StartDate:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC),
		Travelers:      2,
		ContactName:    "Ann Lee",
		ContactEmail:   "ann@example.com",
		ContactPhone:   "+15555550100",
		IdempotencyKey: "key-1",
	}
	mockService.On("CreateBooking", c.Request.Context(), "u-1", expected).
		Return(&booking.CreateBookingResult{Booking: sampleBooking(), ClientSecret: "pi_1_secret"}, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response booking.CreateBookingResult
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "pi_1_secret", response.ClientSecret)
	assert.Equal(t, "TRV-260115-ABC123", response.Booking.BookingNumber)
	assert.Equal(t, domain.BookingStatusPending, response.Booking.BookingStatus)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_BadDates(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := bookingRouter(mockService)

	w := doJSON(router, http.MethodPost, "/api/bookings", gin.H{
		"destination_id": "d-1",
		"start_date":     "06/01/2026",
		"end_date":       "2026-06-08",
	}, map[string]string{userIDHeader: "u-1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.Fields, "start_date")
	mockService.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_RequiresUser(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := bookingRouter(mockService)

	w := doJSON(router, http.MethodGet, "/api/bookings", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingHandler_ErrorMapping(t *testing.T) {
	validation := domain.NewValidationError()
	validation.Add("travelers", "must be at least 1")

	testCases := []struct {
		name           string
		err            error
		expectedStatus int
		expectedError  string
	}{
		{name: "not found", err: fmt.Errorf("booking b-1: %w", domain.ErrNotFound), expectedStatus: http.StatusNotFound, expectedError: "booking b-1: not found"},
		{name: "invalid state", err: fmt.Errorf("booking already cancelled: %w", domain.ErrInvalidState), expectedStatus: http.StatusConflict, expectedError: "booking already cancelled: invalid state"},
		{name: "validation", err: validation, expectedStatus: http.StatusBadRequest, expectedError: "validation error: travelers: must be at least 1"},
		{name: "dependency", err: domain.NewDependencyError("stripe", errors.New("secret detail")), expectedStatus: http.StatusBadGateway, expectedError: "upstream service unavailable"},
		{name: "unknown", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError, expectedError: "internal server error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			router := bookingRouter(mockService)
			mockService.On("CancelBooking", mock.Anything, "b-1", "u-1").Return(nil, tc.err).Once()

			w := doJSON(router, http.MethodDelete, "/api/bookings/b-1", nil, map[string]string{userIDHeader: "u-1"})

			assert.Equal(t, tc.expectedStatus, w.Code)
			var response errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tc.expectedError, response.Error)
		})
	}
}

func TestBookingHandler_cancel_RefundPending(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := bookingRouter(mockService)

	cancelled := sampleBooking()
	cancelled.BookingStatus = domain.BookingStatusCancelled
	cancelled.RefundStatus = domain.RefundStatusRequired
	mockService.On("CancelBooking", mock.Anything, "b-1", "u-1").Return(&booking.CancelResult{
		Booking:       cancelled,
		RefundPending: true,
		RefundErr:     domain.NewDependencyError("stripe", errors.New("timeout")),
	}, nil).Once()

	w := doJSON(router, http.MethodDelete, "/api/bookings/b-1", nil, map[string]string{userIDHeader: "u-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	var response cancelBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.RefundPending)
	assert.NotEmpty(t, response.RefundError)
	assert.Equal(t, domain.BookingStatusCancelled, response.Booking.BookingStatus)
}

func TestBookingHandler_listAndGet(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := bookingRouter(mockService)

	mockService.On("GetUserBookings", mock.Anything, "u-1").Return([]domain.Booking{*sampleBooking()}, nil).Once()
	mockService.On("GetBooking", mock.Anything, "b-1", "u-1").Return(sampleBooking(), nil).Once()

	w := doJSON(router, http.MethodGet, "/api/bookings", nil, map[string]string{userIDHeader: "u-1"})
	assert.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Bookings []domain.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Bookings, 1)

	w = doJSON(router, http.MethodGet, "/api/bookings/b-1", nil, map[string]string{userIDHeader: "u-1"})
	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}
