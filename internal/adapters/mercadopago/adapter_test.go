package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

type fakePreferences struct {
	got  preference.Request
	resp *preference.Response
	err  error
}

func (f *fakePreferences) Create(_ context.Context, req preference.Request) (*preference.Response, error) {
	f.got = req
	return f.resp, f.err
}

type fakePayments struct {
	resp *payment.Response
	err  error
}

func (f *fakePayments) Get(_ context.Context, id int) (*payment.Response, error) {
	return f.resp, f.err
}

func newTestAdapter(prefs *fakePreferences, pays *fakePayments) *Adapter {
	a := NewAdapter(Config{AccessToken: "TEST-token", WebhookSecret: "wh-secret"})
	a.preferences = func(string) (PreferenceCreator, error) { return prefs, nil }
	a.payments = func(string) (PaymentGetter, error) { return pays, nil }
	a.now = func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestCreateSession(t *testing.T) {
	prefs := &fakePreferences{resp: &preference.Response{ID: "pref-1", InitPoint: "https://mp.test/init/pref-1"}}
	a := newTestAdapter(prefs, nil)

	handle, err := a.CreateSession(context.Background(), domain.PaymentSessionRequest{
		Amount: 27500, OrderID: "ord-1", CustomerEmail: "a@b.cl", ReturnURL: "https://casino.test/back",
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", handle.RequestID)
	assert.Equal(t, "https://mp.test/init/pref-1", handle.RedirectURL)

	assert.Equal(t, "ord-1", prefs.got.ExternalReference)
	require.Len(t, prefs.got.Items, 1)
	assert.InDelta(t, 27500.0, prefs.got.Items[0].UnitPrice, 0.001)
	assert.True(t, prefs.got.Expires)
	assert.Equal(t, 10*time.Minute, prefs.got.ExpirationDateTo.Sub(*prefs.got.ExpirationDateFrom))
	require.NotNil(t, prefs.got.BackURLs)
	assert.Equal(t, "approved", prefs.got.AutoReturn)
}

func TestCreateSessionSDKFailureIsTransport(t *testing.T) {
	a := newTestAdapter(&fakePreferences{err: errors.New("dial tcp: timeout")}, nil)
	_, err := a.CreateSession(context.Background(), domain.PaymentSessionRequest{
		Amount: 100, OrderID: "ord-1", CustomerEmail: "a@b.cl",
	})
	require.ErrorIs(t, err, domain.ErrProviderTransport)

	a.cfg.AccessToken = ""
	_, err = a.CreateSession(context.Background(), domain.PaymentSessionRequest{
		Amount: 100, OrderID: "ord-1", CustomerEmail: "a@b.cl",
	})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestEnrichNotification(t *testing.T) {
	pays := &fakePayments{resp: &payment.Response{
		ID:                123456,
		Status:            "approved",
		StatusDetail:      "accredited",
		ExternalReference: "ord-1",
		PaymentMethodID:   "visa",
		DateApproved:      time.Date(2024, 3, 4, 13, 0, 0, 0, time.UTC),
		TransactionAmount: 27500,
		CurrencyID:        "CLP",
	}}
	a := newTestAdapter(nil, pays)

	thin := map[string]any{"type": "payment", "data": map[string]any{"id": json.Number("123456")}}
	got, err := a.EnrichNotification(context.Background(), thin)
	require.NoError(t, err)
	assert.Equal(t, "ord-1", got["external_reference"])
	assert.Equal(t, "approved", got["collection_status"])
	assert.Equal(t, "123456", got["payment_id"])
	assert.Equal(t, "2024-03-04T13:00:00Z", got["date_approved"])
	assert.Equal(t, "27500", got["amount_minor"])
	assert.Equal(t, "27500", got["transaction_amount"])
	assert.Equal(t, "CLP", got["currency_id"])

	inline := map[string]any{"type": "payment", "data": map[string]any{"id": "123456"}, "status": "rejected", "external_reference": "ord-9"}
	got, err = a.EnrichNotification(context.Background(), inline)
	require.NoError(t, err)
	assert.Equal(t, "approved", got["collection_status"])
	assert.Equal(t, "ord-1", got["external_reference"])
	assert.NotContains(t, got, "status")

	full := map[string]any{"external_reference": "ord-1", "status": "approved"}
	_, err = a.EnrichNotification(context.Background(), full)
	require.ErrorIs(t, err, domain.ErrNotificationParse)

	_, err = a.EnrichNotification(context.Background(), map[string]any{"type": "plan", "data": map[string]any{"id": "9"}})
	require.ErrorIs(t, err, domain.ErrNotificationParse)

	pays.err = errors.New("502")
	_, err = a.EnrichNotification(context.Background(), thin)
	require.ErrorIs(t, err, domain.ErrProviderTransport)
}

func TestVerifyNotification(t *testing.T) {
	a := newTestAdapter(nil, nil)
	payload := map[string]any{"type": "payment", "data": map[string]any{"id": "123456"}}

	sig := calculateHMAC(buildManifest("123456", "req-1", "1704908010"), "wh-secret")
	header := http.Header{}
	header.Set("X-Signature", "ts=1704908010,v1="+sig)
	header.Set("X-Request-Id", "req-1")
	require.NoError(t, a.VerifyNotification(payload, header))

	header.Set("X-Request-Id", "req-2")
	require.ErrorIs(t, a.VerifyNotification(payload, header), domain.ErrSignatureInvalid)

	require.ErrorIs(t, a.VerifyNotification(payload, http.Header{}), domain.ErrSignatureInvalid)

	a.cfg.WebhookSecret = ""
	require.NoError(t, a.VerifyNotification(payload, http.Header{}))
}

func TestParseSignatureHeader(t *testing.T) {
	ts, hash := parseSignatureHeader("ts=1704908010, v1=abc123")
	assert.Equal(t, "1704908010", ts)
	assert.Equal(t, "abc123", hash)

	ts, hash = parseSignatureHeader("garbage")
	assert.Empty(t, ts)
	assert.Empty(t, hash)
}

func TestRequiresSignature(t *testing.T) {
	a := newTestAdapter(nil, nil)
	assert.True(t, a.RequiresSignature())

	a.cfg.WebhookSecret = ""
	assert.False(t, a.RequiresSignature())
}
