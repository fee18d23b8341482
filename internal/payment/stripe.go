package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/travelagent/config"
	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/refund"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

const dependency = "stripe"

// WebhookEvent is the subset of a verified Stripe event the booking flow reacts to.
type WebhookEvent struct {
	ID       string
	Type     string
	IntentID string
}

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// StripeGateway talks to Stripe PaymentIntents and Refunds. Amounts cross the boundary in major units.
type StripeGateway struct {
	webhookSecret string
	logger        *zap.Logger
}

func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	if cfg.IsTestMode && !strings.HasPrefix(cfg.SecretKey, "sk_test_") {
		return nil, errors.New("stripe test mode enabled but secret key is not a test key")
	}
	if !cfg.IsTestMode && strings.HasPrefix(cfg.SecretKey, "sk_test_") {
		return nil, errors.New("stripe live mode enabled but secret key is not a live key")
	}

	stripe.Key = cfg.SecretKey
	return &StripeGateway{webhookSecret: cfg.WebhookSecret, logger: logger.Named("stripe")}, nil
}

// ToMinor converts a major-unit amount to cents, rounding half away from zero.
func ToMinor(amount decimal.Decimal) int64 {
	return int64(domain.MoneyFromMajor(amount))
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string, idempotencyKey string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinor(amount)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error("create payment intent failed", zap.String("idempotency_key", idempotencyKey), zap.Error(err))
		return nil, fmt.Errorf("create payment intent: %w", domain.NewDependencyError(dependency, err))
	}

	g.logger.Info("payment intent created", zap.String("intent_id", pi.ID), zap.Int64("amount", pi.Amount))
	return toIntent(pi), nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", intentID, domain.NewDependencyError(dependency, err))
	}
	return toIntent(pi), nil
}

// CancelIntent voids an unpaid intent so its client secret can no longer be charged.
func (g *StripeGateway) CancelIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx

	if _, err := paymentintent.Cancel(intentID, params); err != nil {
		g.logger.Warn("cancel payment intent failed", zap.String("intent_id", intentID), zap.Error(err))
		return fmt.Errorf("cancel payment intent %s: %w", intentID, domain.NewDependencyError(dependency, err))
	}

	g.logger.Info("payment intent cancelled", zap.String("intent_id", intentID))
	return nil
}

// Refund refunds the intent in full when amount is nil.
func (g *StripeGateway) Refund(ctx context.Context, intentID string, amount *decimal.Decimal, idempotencyKey string) (*domain.Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	params.Context = ctx
	if amount != nil {
		params.Amount = stripe.Int64(ToMinor(*amount))
	}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	r, err := refund.New(params)
	if err != nil {
		g.logger.Error("refund failed", zap.String("intent_id", intentID), zap.Error(err))
		return nil, fmt.Errorf("refund payment intent %s: %w", intentID, domain.NewDependencyError(dependency, err))
	}

	g.logger.Info("refund created", zap.String("intent_id", intentID), zap.String("refund_id", r.ID))
	return &domain.Refund{ID: r.ID, Status: string(r.Status), Amount: domain.Money(r.Amount)}, nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts the payment intent id.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.IntentID = pi.ID
	}
	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       domain.Money(pi.Amount),
		Currency:     string(pi.Currency),
	}
}
