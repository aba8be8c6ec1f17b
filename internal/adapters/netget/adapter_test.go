package netget

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/signature"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := NewAdapter(Config{
		MerchantID: "casino-01",
		Secret:     "hmac-secret",
		BaseURL:    srv.URL,
		Timeout:    100 * time.Millisecond,
	})
	a.now = func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) }
	a.newID = func() string { return "tx-fixed" }
	return a
}

func validRequest() domain.PaymentSessionRequest {
	return domain.PaymentSessionRequest{Amount: 27500, OrderID: "ord-1", CustomerEmail: "a@b.cl"}
}

func TestCreateSessionSignsPayload(t *testing.T) {
	var sent map[string]any
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, paymentsPath, r.URL.Path)
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		assert.NoError(t, dec.Decode(&sent))
		w.Write([]byte(`{"success":true,"payment_id":"np-55","transaction_id":"tx-fixed","redirect_url":"https://pay.netget.test/np-55"}`))
	})

	handle, err := a.CreateSession(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "np-55", handle.RequestID)
	assert.Equal(t, "tx-fixed", handle.TransactionID)
	assert.Equal(t, "https://pay.netget.test/np-55", handle.RedirectURL)

	sig, _ := sent[signature.SignatureField].(string)
	ok, err := signature.VerifyHMAC(sent, sig, "hmac-secret")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ord-1", sent["order_id"])
	assert.Equal(t, "2024-03-04T12:10:00Z", sent["expires_at"])
}

func TestCreateSessionRejections(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{"success false", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"message":"Monto fuera de rango"}`))
		}, domain.ErrProviderBusiness},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"invalid signature"}`))
		}, domain.ErrProviderAuth},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}, domain.ErrProviderTransport},
		{"no redirect", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true}`))
		}, domain.ErrProviderTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t, tt.handler)
			_, err := a.CreateSession(context.Background(), validRequest())
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateSessionMissingSecret(t *testing.T) {
	called := false
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	a.cfg.Secret = ""

	_, err := a.CreateSession(context.Background(), validRequest())
	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.False(t, called)
}

func TestVerifyNotification(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {})

	raw := []byte(`{"order_id":"ord-1","transaction":{"id":"tx-9","status":"PAID","amount":27500}}`)
	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&payload))

	sig, err := signature.SignHMAC(payload, "hmac-secret")
	require.NoError(t, err)
	payload[signature.SignatureField] = sig
	require.NoError(t, a.VerifyNotification(payload, nil))

	payload["order_id"] = "ord-2"
	require.ErrorIs(t, a.VerifyNotification(payload, nil), domain.ErrSignatureInvalid)
}
