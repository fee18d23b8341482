package api

import (
	"net/http"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/Domenick1991/travelagent/internal/service/booking"
	"github.com/Domenick1991/travelagent/internal/service/destinations"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves back-office operations. Routes are expected behind RequireAdmin.
type AdminHandler struct {
	bookings     booking.BookingUseCase
	destinations destinations.DestinationUseCase
}

func NewAdminHandler(bookings booking.BookingUseCase, destinations destinations.DestinationUseCase) *AdminHandler {
	return &AdminHandler{bookings: bookings, destinations: destinations}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.GET("/bookings", h.listBookings)
	router.POST("/bookings/:id/confirm", h.confirmBooking)
	router.POST("/destinations", h.createDestination)
	router.PUT("/destinations/:id", h.updateDestination)
	router.DELETE("/destinations/:id", h.deleteDestination)
}

func (h *AdminHandler) listBookings(c *gin.Context) {
	var status *domain.BookingStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.BookingStatus(raw)
		status = &s
	}

	bookings, err := h.bookings.GetAllBookings(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *AdminHandler) confirmBooking(c *gin.Context) {
	b, err := h.bookings.ConfirmBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *AdminHandler) createDestination(c *gin.Context) {
	var input destinations.CreateDestinationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "body", err.Error())
		return
	}

	d, err := h.destinations.CreateDestination(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *AdminHandler) updateDestination(c *gin.Context) {
	var input destinations.UpdateDestinationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "body", err.Error())
		return
	}

	d, err := h.destinations.UpdateDestination(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *AdminHandler) deleteDestination(c *gin.Context) {
	if err := h.destinations.DeleteDestination(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
