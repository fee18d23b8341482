package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/Domenick1991/travelagent/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const (
	dateLayout        = "2006-01-02"
	idempotencyHeader = "Idempotency-Key"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	DestinationID   string  `json:"destination_id"`
	PackageID       *string `json:"package_id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	Travelers       int     `json:"travelers"`
	ContactName     string  `json:"contact_name"`
	ContactEmail    string  `json:"contact_email"`
	ContactPhone    string  `json:"contact_phone"`
	SpecialRequests string  `json:"special_requests"`
}

type cancelBookingResponse struct {
	Booking       *domain.Booking `json:"booking"`
	RefundPending bool            `json:"refund_pending"`
	RefundError   string          `json:"refund_error,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return
	}
	input.IdempotencyKey = c.GetHeader(idempotencyHeader)

	result, err := h.service.CreateBooking(c.Request.Context(), currentUser(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (r createBookingRequest) toInput() (booking.CreateBookingInput, error) {
	verr := domain.NewValidationError()
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		verr.Add("start_date", "must be a date in YYYY-MM-DD format")
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		verr.Add("end_date", "must be a date in YYYY-MM-DD format")
	}
	if err := verr.OrNil(); err != nil {
		return booking.CreateBookingInput{}, err
	}

	return booking.CreateBookingInput{
		DestinationID:   r.DestinationID,
		PackageID:       r.PackageID,
		StartDate:       start,
		EndDate:         end,
		Travelers:       r.Travelers,
		ContactName:     r.ContactName,
		ContactEmail:    r.ContactEmail,
		ContactPhone:    r.ContactPhone,
		SpecialRequests: r.SpecialRequests,
	}, nil
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.GetUserBookings(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	result, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := cancelBookingResponse{Booking: result.Booking, RefundPending: result.RefundPending}
	if result.RefundErr != nil {
		resp.RefundError = "refund could not be issued yet and will be retried"
	}
	c.JSON(http.StatusOK, resp)
}
