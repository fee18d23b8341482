package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Domenick1991/travelagent/config"
	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"go.uber.org/zap"
)

type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func setupMockBackend(t *testing.T, handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) {
	stripe.SetBackend(stripe.APIBackend, &mockBackend{handler: handler})
	t.Cleanup(func() { stripe.SetBackend(stripe.APIBackend, nil) })
}

func testGateway(t *testing.T) *StripeGateway {
	t.Helper()
	g, err := NewStripeGateway(config.StripeConfig{
		SecretKey:     "sk_test_123456789",
		WebhookSecret: "whsec_test_secret",
		IsTestMode:    true,
	}, zap.NewNop())
	require.NoError(t, err)
	return g
}

func TestNewStripeGateway_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name        string
		cfg         config.StripeConfig
		expectedErr string
	}{
		{name: "missing key", cfg: config.StripeConfig{IsTestMode: true}, expectedErr: "secret key is required"},
		{name: "live key in test mode", cfg: config.StripeConfig{SecretKey: "sk_live_1", IsTestMode: true}, expectedErr: "not a test key"},
		{name: "test key in live mode", cfg: config.StripeConfig{SecretKey: "sk_test_1"}, expectedErr: "not a live key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStripeGateway(tc.cfg, zap.NewNop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestToMinor(t *testing.T) {
	assert.Equal(t, int64(230000), ToMinor(decimal.RequireFromString("2300")))
	assert.Equal(t, int64(1999), ToMinor(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(1000), ToMinor(decimal.RequireFromString("9.995")))
}

func TestStripeGateway_CreateIntent(t *testing.T) {
	g := testGateway(t)

	var captured *stripe.PaymentIntentParams
	setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		assert.Equal(t, "POST", method)
		assert.Equal(t, "/v1/payment_intents", path)
		captured = params.(*stripe.PaymentIntentParams)
		return []byte(`{"id":"pi_123","client_secret":"pi_123_secret","status":"requires_payment_method","amount":230000,"currency":"usd"}`), nil
	})

	intent, err := g.CreateIntent(context.Background(), decimal.RequireFromString("2300.00"), "usd",
		map[string]string{"bookingId": "b-1", "bookingNumber": "TRV-260101-ABC123"}, "booking-TRV-260101-ABC123")
	require.NoError(t, err)

	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)
	assert.Equal(t, domain.Money(230000), intent.Amount)

	require.NotNil(t, captured)
	assert.Equal(t, int64(230000), *captured.Amount)
	assert.Equal(t, "usd", *captured.Currency)
	assert.Equal(t, "b-1", captured.Metadata["bookingId"])
	require.NotNil(t, captured.IdempotencyKey)
	assert.Equal(t, "booking-TRV-260101-ABC123", *captured.IdempotencyKey)
}

func TestStripeGateway_CreateIntentFailureIsDependencyError(t *testing.T) {
	g := testGateway(t)
	setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, errors.New("card network down")
	})

	_, err := g.CreateIntent(context.Background(), decimal.NewFromInt(10), "usd", nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependency)
}

func TestStripeGateway_RetrieveIntent(t *testing.T) {
	g := testGateway(t)
	setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		assert.Equal(t, "GET", method)
		assert.Equal(t, "/v1/payment_intents/pi_9", path)
		return []byte(`{"id":"pi_9","client_secret":"sec","status":"succeeded","amount":500,"currency":"usd"}`), nil
	})

	intent, err := g.RetrieveIntent(context.Background(), "pi_9")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusSucceeded, intent.Status)
}

func TestStripeGateway_CancelIntent(t *testing.T) {
	g := testGateway(t)

	var captured *stripe.PaymentIntentCancelParams
	setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		assert.Equal(t, "POST", method)
		assert.Equal(t, "/v1/payment_intents/pi_9/cancel", path)
		captured = params.(*stripe.PaymentIntentCancelParams)
		return []byte(`{"id":"pi_9","status":"canceled"}`), nil
	})

	require.NoError(t, g.CancelIntent(context.Background(), "pi_9"))
	require.NotNil(t, captured)
	assert.Equal(t, "abandoned", *captured.CancellationReason)

	setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, errors.New("intent already succeeded")
	})
	err := g.CancelIntent(context.Background(), "pi_9")
	assert.ErrorIs(t, err, domain.ErrDependency)
}

func TestStripeGateway_Refund(t *testing.T) {
	g := testGateway(t)

	var captured *stripe.RefundParams
	setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		assert.Equal(t, "/v1/refunds", path)
		captured = params.(*stripe.RefundParams)
		return []byte(`{"id":"re_1","status":"succeeded","amount":230000}`), nil
	})

	r, err := g.Refund(context.Background(), "pi_123", nil, "refund-TRV-260101-ABC123")
	require.NoError(t, err)
	assert.Equal(t, "re_1", r.ID)
	assert.Equal(t, domain.Money(230000), r.Amount)

	assert.Equal(t, "pi_123", *captured.PaymentIntent)
	assert.Nil(t, captured.Amount)
	assert.Equal(t, "refund-TRV-260101-ABC123", *captured.IdempotencyKey)

	partial := decimal.RequireFromString("100.50")
	_, err = g.Refund(context.Background(), "pi_123", &partial, "")
	require.NoError(t, err)
	assert.Equal(t, int64(10050), *captured.Amount)
}

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts.Unix())))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeGateway_ParseWebhook(t *testing.T) {
	g := testGateway(t)
	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","api_version":%q,"type":"payment_intent.succeeded",`+
		`"data":{"object":{"id":"pi_123","object":"payment_intent","status":"succeeded"}}}`, stripe.APIVersion))

	event, err := g.ParseWebhook(payload, sign(payload, "whsec_test_secret", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventIntentSucceeded, event.Type)
	assert.Equal(t, "pi_123", event.IntentID)

	_, err = g.ParseWebhook(payload, sign(payload, "whsec_wrong", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature verification failed")
}
