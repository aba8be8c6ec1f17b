package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

// WebhookValidator validates Mercado Pago webhook signatures.
//
// The x-signature header contains: ts=<timestamp>,v1=<signature>
// The signature is HMAC-SHA256 of: id:<data.id>;request-id:<x-request-id>;ts:<timestamp>;
type WebhookValidator struct{}

// NewWebhookValidator creates a new webhook validator.
func NewWebhookValidator() *WebhookValidator {
	return &WebhookValidator{}
}

// ValidateSignature reports whether xSignature matches the manifest built from
// dataID, xRequestID and the header timestamp.
func (v *WebhookValidator) ValidateSignature(xSignature, xRequestID, dataID, secret string) bool {
	if xSignature == "" || secret == "" {
		return false
	}
	ts, hash := parseSignatureHeader(xSignature)
	if ts == "" || hash == "" {
		return false
	}
	expected := calculateHMAC(buildManifest(strings.ToLower(dataID), xRequestID, ts), secret)
	return hmac.Equal([]byte(strings.ToLower(hash)), []byte(expected))
}

// VerifyNotification implements ports.NotificationVerifier. Without a webhook
// secret configured every notification is accepted and then enriched through
// the API, which is the source of truth for the status.
func (a *Adapter) VerifyNotification(payload map[string]any, header http.Header) error {
	if a.cfg.WebhookSecret == "" {
		return nil
	}
	xSignature := header.Get("X-Signature")
	if xSignature == "" {
		return domain.NewServiceError(domain.ErrSignatureInvalid, "mercadopago notification is unsigned", "SIGNATURE_MISSING")
	}
	if !a.validator.ValidateSignature(xSignature, header.Get("X-Request-Id"), notificationDataID(payload), a.cfg.WebhookSecret) {
		return domain.NewServiceError(domain.ErrSignatureInvalid, "mercadopago notification signature mismatch", "SIGNATURE_INVALID")
	}
	return nil
}

// parseSignatureHeader extracts ts and v1 values from x-signature header.
func parseSignatureHeader(header string) (ts, hash string) {
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "ts":
			ts = v
		case "v1":
			hash = v
		}
	}
	return ts, hash
}

// buildManifest constructs the string to be signed. Empty parts are omitted.
func buildManifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		b.WriteString("id:" + dataID + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	if ts != "" {
		b.WriteString("ts:" + ts + ";")
	}
	return b.String()
}

func calculateHMAC(manifest, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(manifest))
	return hex.EncodeToString(h.Sum(nil))
}
