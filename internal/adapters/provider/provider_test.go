package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

func TestValidateSession(t *testing.T) {
	ok := domain.PaymentSessionRequest{Amount: 27500, OrderID: "ord-1", CustomerEmail: "a@b.cl"}
	require.NoError(t, ValidateSession(ok))

	tests := []struct {
		name string
		mut  func(*domain.PaymentSessionRequest)
		want string
	}{
		{"zero amount", func(r *domain.PaymentSessionRequest) { r.Amount = 0 }, "amount must be greater than zero"},
		{"negative amount", func(r *domain.PaymentSessionRequest) { r.Amount = -1 }, "amount must be greater than zero"},
		{"blank order", func(r *domain.PaymentSessionRequest) { r.OrderID = "  " }, "orderId is required"},
		{"bad email", func(r *domain.PaymentSessionRequest) { r.CustomerEmail = "not-an-email" }, "customerEmail must be a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ok
			tt.mut(&req)
			err := ValidateSession(req)
			require.ErrorIs(t, err, domain.ErrValidation)
			var se *domain.ServiceError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.want, se.Message)
		})
	}
}

func TestMajorUnits(t *testing.T) {
	assert.Equal(t, "27500", MajorUnits(27500, "CLP").String())
	assert.Equal(t, "275.00", MajorUnits(27500, "usd").String())
	assert.InDelta(t, 275.0, MajorUnitsFloat(27500, "ARS"), 0.0001)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(27500), MinorUnits(27500, "CLP"))
	assert.Equal(t, int64(27500), MinorUnits(275, "usd"))
	assert.Equal(t, int64(1235), MinorUnits(12.345, "USD"))
	assert.Equal(t, "27500", DecimalText(27500))
	assert.Equal(t, "12.5", DecimalText(12.5))
}

func TestCheckResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"ok":true}`))
		case "/html":
			w.Write([]byte(`<html>maintenance</html>`))
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"bad login"}`))
		case "/rejected":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"buyer email rejected"}`))
		case "/rejected-html":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`Bad Request`))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	client := resty.New().SetBaseURL(srv.URL).SetTimeout(50 * time.Millisecond)
	message := func(body []byte) string { return "buyer email rejected" }

	tests := []struct {
		path string
		want error
	}{
		{"/ok", nil},
		{"/html", domain.ErrProviderTransport},
		{"/unauthorized", domain.ErrProviderAuth},
		{"/rejected", domain.ErrProviderBusiness},
		{"/rejected-html", domain.ErrProviderTransport},
		{"/slow", domain.ErrProviderTransport},
		{"/down", domain.ErrProviderTransport},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := client.R().SetContext(context.Background()).Get(tt.path)
			got := CheckResponse("getnet", resp, err, message)
			if tt.want == nil {
				require.NoError(t, got)
				return
			}
			require.ErrorIs(t, got, tt.want)
		})
	}
}

type stubAdapter struct{ name string }

func (s stubAdapter) Name() string { return s.name }
func (s stubAdapter) CreateSession(context.Context, domain.PaymentSessionRequest) (*domain.SessionHandle, error) {
	return &domain.SessionHandle{Provider: s.name}, nil
}

func TestRegistry(t *testing.T) {
	_, err := NewRegistry("netget", stubAdapter{"getnet"})
	require.ErrorIs(t, err, domain.ErrConfiguration)

	r, err := NewRegistry("GetNet", stubAdapter{"getnet"}, stubAdapter{"netget"})
	require.NoError(t, err)

	a, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "getnet", a.Name())

	a, err = r.Get(" NetGet ")
	require.NoError(t, err)
	assert.Equal(t, "netget", a.Name())

	_, err = r.Get("paypal")
	require.ErrorIs(t, err, domain.ErrUnknownProvider)
	assert.Equal(t, []string{"getnet", "netget"}, r.Names())
}
