package provider

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

// MessageFunc extracts a payer-safe rejection message from a JSON error body.
type MessageFunc func(body []byte) string

// CheckResponse maps a finished resty call onto the error taxonomy:
// transport failures, timeouts, 5xx and unreadable bodies are transport errors;
// 401/403 are credential errors; other 4xx are business rejections carrying the
// provider's message. A nil error means a 2xx JSON body.
func CheckResponse(name string, resp *resty.Response, err error, message MessageFunc) error {
	if err != nil {
		return Transport(name, err.Error())
	}

	code := resp.StatusCode()
	body := resp.Body()
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return domain.NewServiceError(domain.ErrProviderAuth,
			fmt.Sprintf("%s returned %d", name, code), "PROVIDER_AUTH")
	case code >= http.StatusInternalServerError:
		return Transport(name, fmt.Sprintf("status %d", code))
	case code >= http.StatusBadRequest:
		if !json.Valid(body) {
			return Transport(name, fmt.Sprintf("status %d with non-JSON body", code))
		}
		msg := ""
		if message != nil {
			msg = message(body)
		}
		if msg == "" {
			msg = "payment request rejected"
		}
		return Business(msg)
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		if !json.Valid(body) {
			return Transport(name, "non-JSON success body")
		}
		return nil
	}
	return Transport(name, fmt.Sprintf("unexpected status %d", code))
}

// Transport builds a provider-unavailable error. detail is for logs only.
func Transport(name, detail string) error {
	return domain.NewServiceError(domain.ErrProviderTransport, name+": "+detail, "PROVIDER_UNAVAILABLE")
}

// Business builds a rejection whose message may be shown to the payer.
func Business(msg string) error {
	return domain.NewServiceError(domain.ErrProviderBusiness, msg, "PROVIDER_REJECTED")
}

// MissingCredential reports an unset login or secret.
func MissingCredential(name, what string) error {
	return domain.NewServiceError(domain.ErrConfiguration,
		fmt.Sprintf("%s %s is not configured", name, what), "MISSING_CREDENTIALS")
}
