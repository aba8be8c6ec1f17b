// Package getnet implements the GetNet web checkout gateway. Requests carry a
// nonce/seed transaction key; callbacks carry a SHA-1 digest.
package getnet

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/adapters/provider"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/signature"
)

// Name is the registry key.
const Name = "getnet"

const sessionPath = "/api/session"

// Config is built once at startup.
type Config struct {
	Login            string
	Secret           string
	BaseURL          string
	Currency         string
	Locale           string
	Timeout          time.Duration
	Expiration       time.Duration
	RequireSignature bool
}

// Adapter creates GetNet sessions.
type Adapter struct {
	cfg    Config
	client *resty.Client
	signer *signature.Engine
	now    func() time.Time
}

// NewAdapter creates the adapter. Missing credentials are reported per request,
// not here, so the service still boots with the gateway disabled.
func NewAdapter(cfg Config, signer *signature.Engine) *Adapter {
	if cfg.Currency == "" {
		cfg.Currency = "CLP"
	}
	if cfg.Locale == "" {
		cfg.Locale = "es_CL"
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = 10 * time.Minute
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Adapter{cfg: cfg, client: client, signer: signer, now: time.Now}
}

// Name implements ports.ProviderAdapter.
func (a *Adapter) Name() string { return Name }

type auth struct {
	Login   string `json:"login"`
	TranKey string `json:"tranKey"`
	Nonce   string `json:"nonce"`
	Seed    string `json:"seed"`
}

type amount struct {
	Currency string      `json:"currency"`
	Total    json.Number `json:"total"`
}

type payment struct {
	Reference   string `json:"reference"`
	Description string `json:"description"`
	Amount      amount `json:"amount"`
}

type buyer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type sessionRequest struct {
	Auth            auth    `json:"auth"`
	Locale          string  `json:"locale"`
	Buyer           buyer   `json:"buyer"`
	Payment         payment `json:"payment"`
	Expiration      string  `json:"expiration"`
	ReturnURL       string  `json:"returnUrl"`
	NotificationURL string  `json:"notificationUrl,omitempty"`
	IPAddress       string  `json:"ipAddress"`
	UserAgent       string  `json:"userAgent"`
}

type responseStatus struct {
	Status  string `json:"status"`
	Reason  any    `json:"reason"`
	Message string `json:"message"`
	Date    string `json:"date"`
}

type sessionResponse struct {
	Status     responseStatus  `json:"status"`
	RequestID  json.RawMessage `json:"requestId"`
	ProcessURL string          `json:"processUrl"`
}

// CreateSession validates, signs and posts a session request.
func (a *Adapter) CreateSession(ctx context.Context, req domain.PaymentSessionRequest) (*domain.SessionHandle, error) {
	if err := provider.ValidateSession(req); err != nil {
		return nil, err
	}
	if a.cfg.Login == "" {
		return nil, provider.MissingCredential(Name, "login")
	}
	if a.cfg.BaseURL == "" {
		return nil, provider.MissingCredential(Name, "base URL")
	}
	key, err := a.signer.TransactionKey(a.cfg.Secret)
	if err != nil {
		return nil, err
	}

	expiresAt := a.now().Add(a.cfg.Expiration)
	body := sessionRequest{
		Auth:   auth{Login: a.cfg.Login, TranKey: key.TranKey, Nonce: key.Nonce, Seed: key.Seed},
		Locale: a.cfg.Locale,
		Buyer:  buyer{Name: req.CustomerName, Email: strings.TrimSpace(req.CustomerEmail)},
		Payment: payment{
			Reference:   req.OrderID,
			Description: description(req),
			Amount:      amount{Currency: a.cfg.Currency, Total: provider.MajorUnits(req.Amount, a.cfg.Currency)},
		},
		Expiration:      expiresAt.UTC().Format(time.RFC3339),
		ReturnURL:       req.ReturnURL,
		NotificationURL: req.NotifyURL,
		IPAddress:       fallback(req.IPAddress, "127.0.0.1"),
		UserAgent:       fallback(req.UserAgent, "casino-escolar-payments"),
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(sessionPath)
	if err := provider.CheckResponse(Name, resp, err, errorMessage); err != nil {
		return nil, err
	}

	var out sessionResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, provider.Transport(Name, "undecodable session response")
	}
	if !strings.EqualFold(out.Status.Status, "OK") {
		return nil, provider.Business(fallback(out.Status.Message, "payment request rejected"))
	}
	requestID := strings.Trim(string(out.RequestID), `"`)
	if out.ProcessURL == "" || requestID == "" || requestID == "null" {
		return nil, provider.Transport(Name, "session response without processUrl or requestId")
	}

	return &domain.SessionHandle{
		Provider:      Name,
		RequestID:     requestID,
		TransactionID: requestID,
		RedirectURL:   out.ProcessURL,
		ExpiresAt:     expiresAt,
	}, nil
}

// RequiresSignature implements ports.SignaturePolicy.
func (a *Adapter) RequiresSignature() bool { return a.cfg.RequireSignature }

// VerifyNotification checks the callback digest. Unsigned callbacks pass
// unless RequireSignature is set.
func (a *Adapter) VerifyNotification(payload map[string]any, _ http.Header) error {
	sig, _ := payload[signature.SignatureField].(string)
	if sig == "" {
		if a.cfg.RequireSignature {
			return domain.NewServiceError(domain.ErrSignatureInvalid, "getnet notification is unsigned", "SIGNATURE_MISSING")
		}
		return nil
	}

	requestID := text(payload["requestId"])
	var st, date string
	if m, ok := payload["status"].(map[string]any); ok {
		st = text(m["status"])
		date = text(m["date"])
	}
	ok, err := signature.VerifyNotificationDigest(requestID, st, date, a.cfg.Secret, sig)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewServiceError(domain.ErrSignatureInvalid, "getnet notification signature mismatch", "SIGNATURE_INVALID")
	}
	return nil
}

func errorMessage(body []byte) string {
	var out sessionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return ""
	}
	return out.Status.Message
}

func description(req domain.PaymentSessionRequest) string {
	if d := strings.TrimSpace(req.Description); d != "" {
		return d
	}
	return "Pedido casino " + req.OrderID
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return ""
	}
	b, _ := json.Marshal(v)
	return string(b)
}
