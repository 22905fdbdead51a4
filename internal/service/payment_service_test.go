package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centralmei/backend/internal/config"
	"github.com/centralmei/backend/internal/mercadopago"
	"github.com/centralmei/backend/internal/model"
)

const webhookSecret = "test-webhook-secret"

// gatewayStub emulates the payment gateway endpoints the service calls.
type gatewayStub struct {
	preferenceCalls int
	paymentStatus   string
	externalRef     string
}

func newPaymentEnv(t *testing.T) (*testEnv, *PaymentService, *gatewayStub) {
	t.Helper()
	env := newTestEnv(t)
	stub := &gatewayStub{}
	stub.paymentStatus = "approved"

	mux := http.NewServeMux()
	mux.HandleFunc("/checkout/preferences", func(w http.ResponseWriter, r *http.Request) {
		stub.preferenceCalls++
		var req mercadopago.PreferenceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		stub.externalRef = req.ExternalReference
		_ = json.NewEncoder(w).Encode(mercadopago.Preference{
			ID:                "pref-1",
			InitPoint:         "https://gateway.test/init/pref-1",
			ExternalReference: req.ExternalReference,
		})
	})
	mux.HandleFunc("/v1/payments/", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/v1/payments/"), 10, 64)
		_ = json.NewEncoder(w).Encode(mercadopago.Payment{
			ID:                id,
			Status:            stub.paymentStatus,
			ExternalReference: stub.externalRef,
			PaymentMethodID:   "pix",
			TransactionAmount: 97,
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := config.MercadoPagoConfig{
		AccessToken:   "token",
		PublicKey:     "public-key",
		WebhookSecret: webhookSecret,
		BaseURL:       server.URL,
	}
	gateway := mercadopago.NewClient(server.URL, cfg.AccessToken)
	payments := NewPaymentService(env.payments, env.requestRepo, gateway, cfg, zerolog.Nop())
	return env, payments, stub
}

func signWebhook(secret, requestID string, body []byte) string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	payload := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", body, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestStartCheckoutCreatesPaymentAndPreference(t *testing.T) {
	env, payments, stub := newPaymentEnv(t)
	ctx := context.Background()

	req := env.createRequest(t, testCPF)

	result, err := payments.StartCheckout(ctx, req.ID, "")
	require.NoError(t, err)

	assert.Equal(t, "pref-1", result.PreferenceID)
	assert.Equal(t, "https://gateway.test/init/pref-1", result.InitPoint)
	assert.Equal(t, "public-key", result.PublicKey)
	assert.Equal(t, model.PaymentStatusPending, result.Payment.Status)
	assert.Equal(t, model.ServiceTypeOpenMEI, result.Payment.ServiceType)
	assert.True(t, strings.HasPrefix(result.Payment.ExternalReference, "CMEI-"))
	assert.True(t, result.Payment.Amount.Equal(mustDecimal(t, "97.00")))

	// A second checkout for the same request reuses the open payment.
	again, err := payments.StartCheckout(ctx, req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, result.Payment.ID, again.Payment.ID)
	assert.Equal(t, result.Payment.ExternalReference, again.Payment.ExternalReference)
	assert.Equal(t, 2, stub.preferenceCalls)
}

func TestWebhookApprovedPaymentMovesRequestToProcessing(t *testing.T) {
	env, payments, _ := newPaymentEnv(t)
	ctx := context.Background()

	req := env.createRequest(t, testCPF)
	result, err := payments.StartCheckout(ctx, req.ID, "")
	require.NoError(t, err)

	body := []byte(`{"type":"payment","data":{"id":"123"}}`)
	signature := signWebhook(webhookSecret, "req-1", body)

	require.NoError(t, payments.HandleWebhook(ctx, signature, "req-1", body))

	payment, err := payments.Get(ctx, result.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusApproved, payment.Status)
	assert.Equal(t, "123", payment.GatewayPaymentID)
	assert.Equal(t, model.PaymentMethodPix, payment.PaymentMethod)

	updated, err := env.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusProcessing, updated.Status)
}

func TestWebhookRejectedPaymentKeepsRequestPending(t *testing.T) {
	env, payments, stub := newPaymentEnv(t)
	ctx := context.Background()
	stub.paymentStatus = "rejected"

	req := env.createRequest(t, testCPF)
	result, err := payments.StartCheckout(ctx, req.ID, "")
	require.NoError(t, err)

	body := []byte(`{"type":"payment","data":{"id":"55"}}`)
	require.NoError(t, payments.HandleWebhook(ctx, signWebhook(webhookSecret, "req-2", body), "req-2", body))

	payment, err := payments.Get(ctx, result.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRejected, payment.Status)

	updated, err := env.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, updated.Status)
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	_, payments, _ := newPaymentEnv(t)

	body := []byte(`{"type":"payment","data":{"id":"123"}}`)
	signature := signWebhook("wrong-secret", "req-1", body)

	err := payments.HandleWebhook(context.Background(), signature, "req-1", body)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = payments.HandleWebhook(context.Background(), "garbage", "req-1", body)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestWebhookWithoutSecretSkipsSignatureCheck(t *testing.T) {
	env, payments, _ := newPaymentEnv(t)
	ctx := context.Background()

	noSecret := *payments
	noSecret.cfg.WebhookSecret = ""

	req := env.createRequest(t, testCPF)
	result, err := payments.StartCheckout(ctx, req.ID, "")
	require.NoError(t, err)

	body := []byte(`{"type":"payment","data":{"id":"77"}}`)
	require.NoError(t, noSecret.HandleWebhook(ctx, "ts=1,v1=deadbeef", "req-1", body))

	payment, err := payments.Get(ctx, result.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusApproved, payment.Status)
}

func TestWebhookMalformedBodyMutatesNothing(t *testing.T) {
	env, payments, _ := newPaymentEnv(t)
	ctx := context.Background()

	req := env.createRequest(t, testCPF)
	result, err := payments.StartCheckout(ctx, req.ID, "")
	require.NoError(t, err)

	body := []byte(`{"type":"payment",`)
	err = payments.HandleWebhook(ctx, signWebhook(webhookSecret, "req-1", body), "req-1", body)
	assert.ErrorIs(t, err, ErrInvalidInput)

	payment, err := payments.Get(ctx, result.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)

	updated, err := env.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, updated.Status)
}

func TestWebhookIgnoresOtherTopics(t *testing.T) {
	_, payments, stub := newPaymentEnv(t)

	body := []byte(`{"type":"plan","data":{"id":"9"}}`)
	require.NoError(t, payments.HandleWebhook(context.Background(), signWebhook(webhookSecret, "req-1", body), "req-1", body))
	assert.Equal(t, 0, stub.preferenceCalls)
}

func TestStartCheckoutGatewayDownIsBadGateway(t *testing.T) {
	env := newTestEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	cfg := config.MercadoPagoConfig{AccessToken: "token", WebhookSecret: webhookSecret, BaseURL: server.URL}
	payments := NewPaymentService(env.payments, env.requestRepo, mercadopago.NewClient(server.URL, "token"), cfg, zerolog.Nop())

	req := env.createRequest(t, testCPF)
	_, err := payments.StartCheckout(context.Background(), req.ID, "")
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}
