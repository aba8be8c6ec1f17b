// Package netget implements the NetGet payments API. Requests and callbacks are
// flat JSON objects signed with HMAC-SHA256 over the sorted key=value string.
package netget

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/adapters/provider"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/signature"
)

// Name is the registry key.
const Name = "netget"

const paymentsPath = "/api/v1/payments"

// Config is built once at startup.
type Config struct {
	MerchantID       string
	Secret           string
	BaseURL          string
	Currency         string
	Timeout          time.Duration
	Expiration       time.Duration
	RequireSignature bool
}

// Adapter creates NetGet payments.
type Adapter struct {
	cfg    Config
	client *resty.Client
	now    func() time.Time
	newID  func() string
}

// NewAdapter creates the adapter.
func NewAdapter(cfg Config) *Adapter {
	if cfg.Currency == "" {
		cfg.Currency = "CLP"
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = 10 * time.Minute
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Adapter{cfg: cfg, client: client, now: time.Now, newID: uuid.NewString}
}

// Name implements ports.ProviderAdapter.
func (a *Adapter) Name() string { return Name }

type paymentResponse struct {
	Success       *bool  `json:"success"`
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
	PaymentURL    string `json:"payment_url"`
	Message       string `json:"message"`
	Error         string `json:"error"`
}

// CreateSession validates, signs and posts a payment request.
func (a *Adapter) CreateSession(ctx context.Context, req domain.PaymentSessionRequest) (*domain.SessionHandle, error) {
	if err := provider.ValidateSession(req); err != nil {
		return nil, err
	}
	if a.cfg.MerchantID == "" {
		return nil, provider.MissingCredential(Name, "merchant id")
	}
	if a.cfg.BaseURL == "" {
		return nil, provider.MissingCredential(Name, "base URL")
	}

	now := a.now()
	expiresAt := now.Add(a.cfg.Expiration)
	transactionID := a.newID()
	payload := map[string]any{
		"merchant_id":    a.cfg.MerchantID,
		"transaction_id": transactionID,
		"order_id":       req.OrderID,
		"amount":         provider.MajorUnits(req.Amount, a.cfg.Currency),
		"currency":       a.cfg.Currency,
		"description":    req.Description,
		"customer_email": strings.TrimSpace(req.CustomerEmail),
		"customer_name":  req.CustomerName,
		"return_url":     req.ReturnURL,
		"notify_url":     req.NotifyURL,
		"expires_at":     expiresAt.UTC().Format(time.RFC3339),
		"timestamp":      now.UTC().Unix(),
	}
	sig, err := signature.SignHMAC(payload, a.cfg.Secret)
	if err != nil {
		return nil, err
	}
	payload[signature.SignatureField] = sig

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(paymentsPath)
	if err := provider.CheckResponse(Name, resp, err, errorMessage); err != nil {
		return nil, err
	}

	var out paymentResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, provider.Transport(Name, "undecodable payment response")
	}
	if out.Success != nil && !*out.Success {
		return nil, provider.Business(firstNonEmpty(out.Message, out.Error, "payment request rejected"))
	}
	redirect := firstNonEmpty(out.RedirectURL, out.PaymentURL)
	if redirect == "" {
		return nil, provider.Transport(Name, "payment response without redirect url")
	}

	return &domain.SessionHandle{
		Provider:      Name,
		RequestID:     firstNonEmpty(out.PaymentID, out.TransactionID, transactionID),
		TransactionID: firstNonEmpty(out.TransactionID, transactionID),
		RedirectURL:   redirect,
		ExpiresAt:     expiresAt,
	}, nil
}

// RequiresSignature implements ports.SignaturePolicy.
func (a *Adapter) RequiresSignature() bool { return a.cfg.RequireSignature }

// VerifyNotification checks the HMAC carried in the callback body.
func (a *Adapter) VerifyNotification(payload map[string]any, _ http.Header) error {
	sig, _ := payload[signature.SignatureField].(string)
	if sig == "" {
		if a.cfg.RequireSignature {
			return domain.NewServiceError(domain.ErrSignatureInvalid, "netget notification is unsigned", "SIGNATURE_MISSING")
		}
		return nil
	}
	ok, err := signature.VerifyHMAC(payload, sig, a.cfg.Secret)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewServiceError(domain.ErrSignatureInvalid, "netget notification signature mismatch", "SIGNATURE_INVALID")
	}
	return nil
}

func errorMessage(body []byte) string {
	var out paymentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return ""
	}
	return firstNonEmpty(out.Message, out.Error)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
