// Package mercadopago implements the Checkout Pro gateway using the official SDK.
package mercadopago

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/adapters/provider"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

// Name is the registry key.
const Name = "mercadopago"

// Config is built once at startup.
type Config struct {
	AccessToken   string
	WebhookSecret string
	Currency      string
	Sandbox       bool
	Expiration    time.Duration
}

// PreferenceCreator is the part of the SDK preference client the adapter uses.
type PreferenceCreator interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

// PaymentGetter is the part of the SDK payment client the adapter uses.
type PaymentGetter interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// Adapter implements ports.ProviderAdapter and ports.NotificationEnricher.
type Adapter struct {
	cfg         Config
	validator   *WebhookValidator
	preferences func(accessToken string) (PreferenceCreator, error)
	payments    func(accessToken string) (PaymentGetter, error)
	now         func() time.Time
}

// NewAdapter creates a new Mercado Pago adapter.
func NewAdapter(cfg Config) *Adapter {
	if cfg.Currency == "" {
		cfg.Currency = "CLP"
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = 10 * time.Minute
	}
	return &Adapter{
		cfg:         cfg,
		validator:   NewWebhookValidator(),
		preferences: newPreferenceClient,
		payments:    newPaymentClient,
		now:         time.Now,
	}
}

func newPreferenceClient(accessToken string) (PreferenceCreator, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, err
	}
	return preference.NewClient(cfg), nil
}

func newPaymentClient(accessToken string) (PaymentGetter, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, err
	}
	return payment.NewClient(cfg), nil
}

// Name implements ports.ProviderAdapter.
func (a *Adapter) Name() string { return Name }

// CreateSession creates a Checkout Pro preference that expires after the
// configured window.
func (a *Adapter) CreateSession(ctx context.Context, req domain.PaymentSessionRequest) (*domain.SessionHandle, error) {
	if err := provider.ValidateSession(req); err != nil {
		return nil, err
	}
	if a.cfg.AccessToken == "" {
		return nil, provider.MissingCredential(Name, "access token")
	}

	client, err := a.preferences(a.cfg.AccessToken)
	if err != nil {
		return nil, domain.NewServiceError(domain.ErrConfiguration,
			"failed to create MP config", "MP_CONFIG_ERROR")
	}

	now := a.now()
	expiresAt := now.Add(a.cfg.Expiration)
	title := strings.TrimSpace(req.Description)
	if title == "" {
		title = "Pedido casino " + req.OrderID
	}

	prefRequest := preference.Request{
		Items: []preference.ItemRequest{
			{
				ID:         req.OrderID,
				Title:      title,
				Quantity:   1,
				UnitPrice:  provider.MajorUnitsFloat(req.Amount, a.cfg.Currency),
				CurrencyID: a.cfg.Currency,
			},
		},
		Payer: &preference.PayerRequest{
			Name:  req.CustomerName,
			Email: strings.TrimSpace(req.CustomerEmail),
		},
		ExternalReference:  req.OrderID,
		NotificationURL:    req.NotifyURL,
		Expires:            true,
		ExpirationDateFrom: &now,
		ExpirationDateTo:   &expiresAt,
	}
	if req.ReturnURL != "" {
		prefRequest.AutoReturn = "approved"
		prefRequest.BackURLs = &preference.BackURLsRequest{
			Success: req.ReturnURL,
			Failure: req.ReturnURL,
			Pending: req.ReturnURL,
		}
	}

	result, err := client.Create(ctx, prefRequest)
	if err != nil {
		return nil, provider.Transport(Name, "failed to create preference: "+err.Error())
	}

	redirect := result.InitPoint
	if a.cfg.Sandbox && result.SandboxInitPoint != "" {
		redirect = result.SandboxInitPoint
	}
	if result.ID == "" || redirect == "" {
		return nil, provider.Transport(Name, "preference without id or init point")
	}

	return &domain.SessionHandle{
		Provider:      Name,
		RequestID:     result.ID,
		TransactionID: result.ID,
		RedirectURL:   redirect,
		ExpiresAt:     expiresAt,
	}, nil
}

// RequiresSignature implements ports.SignaturePolicy. With a webhook secret
// every callback must carry a valid x-signature.
func (a *Adapter) RequiresSignature() bool { return a.cfg.WebhookSecret != "" }

// EnrichNotification turns a thin {"type":"payment","data":{"id":...}} webhook
// into a flat payload the status extractor understands. Only the payment fetched
// from the API is trusted: statuses inlined in the callback are discarded.
func (a *Adapter) EnrichNotification(ctx context.Context, payload map[string]any) (map[string]any, error) {
	dataID := notificationDataID(payload)
	if dataID == "" {
		return nil, domain.NewServiceError(domain.ErrNotificationParse,
			"mercadopago notification has no payment id", "MISSING_PAYMENT_ID")
	}
	if kind, _ := payload["type"].(string); kind != "" && kind != "payment" {
		return nil, domain.NewServiceError(domain.ErrNotificationParse,
			fmt.Sprintf("unsupported notification type %q", kind), "UNSUPPORTED_TYPE")
	}
	if a.cfg.AccessToken == "" {
		return nil, provider.MissingCredential(Name, "access token")
	}

	id, err := strconv.Atoi(dataID)
	if err != nil {
		return nil, domain.NewServiceError(domain.ErrNotificationParse,
			"invalid payment ID format", "INVALID_PAYMENT_ID")
	}

	client, err := a.payments(a.cfg.AccessToken)
	if err != nil {
		return nil, domain.NewServiceError(domain.ErrConfiguration,
			"failed to create MP config", "MP_CONFIG_ERROR")
	}
	result, err := client.Get(ctx, id)
	if err != nil {
		return nil, provider.Transport(Name, "failed to get payment info: "+err.Error())
	}

	enriched := map[string]any{
		"external_reference": result.ExternalReference,
		"collection_status":  result.Status,
		"payment_id":         strconv.Itoa(result.ID),
		"status_detail":      result.StatusDetail,
		"payment_method_id":  result.PaymentMethodID,
		"currency_id":        result.CurrencyID,
		"transaction_amount": provider.DecimalText(result.TransactionAmount),
		"amount_minor":       strconv.FormatInt(provider.MinorUnits(result.TransactionAmount, result.CurrencyID), 10),
	}
	if !result.DateApproved.IsZero() {
		enriched["date_approved"] = result.DateApproved.UTC().Format(time.RFC3339)
	}
	if result.Payer.Email != "" {
		enriched["payer_email"] = result.Payer.Email
	}
	enriched["data"] = map[string]any{"id": dataID}
	return enriched, nil
}

func notificationDataID(payload map[string]any) string {
	if data, ok := payload["data"].(map[string]any); ok {
		if v := text(data["id"]); v != "" {
			return v
		}
	}
	if topic, _ := payload["topic"].(string); topic == "payment" {
		return text(payload["id"])
	}
	return ""
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}
