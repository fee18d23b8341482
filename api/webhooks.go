package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/Domenick1991/travelagent/internal/payment"
	"github.com/Domenick1991/travelagent/internal/service/booking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error)
}

// WebhookHandler applies Stripe payment events to bookings. Stripe retries on any non-2xx response.
type WebhookHandler struct {
	parser   WebhookParser
	bookings booking.BookingUseCase
	logger   *zap.Logger
}

func NewWebhookHandler(parser WebhookParser, bookings booking.BookingUseCase, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{parser: parser, bookings: bookings, logger: logger.Named("webhooks")}
}

func (h *WebhookHandler) Register(router *gin.RouterGroup) {
	router.POST("/stripe", h.stripe)
}

func (h *WebhookHandler) stripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "payload too large"})
		return
	}

	event, err := h.parser.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("rejected webhook", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid signature"})
		return
	}

	log := h.logger.With(zap.String("event_id", event.ID), zap.String("type", event.Type), zap.String("intent_id", event.IntentID))
	ctx := c.Request.Context()

	var b *domain.Booking
	switch event.Type {
	case payment.EventIntentSucceeded:
		b, err = h.bookings.ConfirmByPaymentIntent(ctx, event.IntentID)
	case payment.EventIntentFailed:
		b, err = h.bookings.MarkPaymentFailed(ctx, event.IntentID)
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	switch {
	case err == nil:
		log.Info("webhook applied", zap.String("booking_id", b.ID), zap.String("booking_status", string(b.BookingStatus)))
	case errors.Is(err, domain.ErrNotFound):
		log.Warn("webhook for unknown payment intent")
	case errors.Is(err, domain.ErrInvalidState):
		log.Warn("webhook for booking that can no longer change", zap.Error(err))
	default:
		log.Error("webhook processing failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
