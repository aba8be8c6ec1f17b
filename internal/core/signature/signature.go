// Package signature computes and verifies provider request signatures.
// Everything here is pure: no I/O beyond the injected random source.
package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

// Scheme names a signing scheme.
type Scheme string

const (
	// SchemeHMAC is HMAC-SHA256 over the sorted key=value canonical string.
	SchemeHMAC Scheme = "hmac-sha256"
	// SchemeNonceSeed is the nonce/seed transaction key used by GetNet.
	SchemeNonceSeed Scheme = "nonce-seed"
)

// SignatureField is excluded from the canonical string.
const SignatureField = "signature"

// NonceSize is the number of random bytes in a nonce.
const NonceSize = 16

// TransactionKey is the credential block of the nonce/seed scheme.
type TransactionKey struct {
	TranKey string `json:"tranKey"`
	Nonce   string `json:"nonce"`
	Seed    string `json:"seed"`
}

// Engine signs with an injectable random source and clock.
type Engine struct {
	rand io.Reader
	now  func() time.Time
}

// NewEngine creates an engine backed by crypto/rand and the wall clock.
func NewEngine() *Engine {
	return &Engine{rand: rand.Reader, now: time.Now}
}

// NewEngineWith creates an engine with a fixed random source and clock, for tests.
func NewEngineWith(random io.Reader, now func() time.Time) *Engine {
	return &Engine{rand: random, now: now}
}

// Sign returns the signature of payload under scheme. For SchemeNonceSeed the
// payload is ignored and the returned string is the tranKey; use TransactionKey
// to also obtain the nonce and seed.
func (e *Engine) Sign(payload map[string]any, secret string, scheme Scheme) (string, error) {
	switch scheme {
	case SchemeHMAC:
		return SignHMAC(payload, secret)
	case SchemeNonceSeed:
		key, err := e.TransactionKey(secret)
		if err != nil {
			return "", err
		}
		return key.TranKey, nil
	default:
		return "", domain.NewServiceError(domain.ErrConfiguration,
			fmt.Sprintf("unsupported signature scheme %q", scheme), "SIGNATURE_SCHEME")
	}
}

// Verify checks signature against payload under scheme. For SchemeNonceSeed the
// payload must carry the transmitted "nonce" (Base64) and "seed", and signature
// is the tranKey.
func (e *Engine) Verify(payload map[string]any, signature, secret string, scheme Scheme) (bool, error) {
	switch scheme {
	case SchemeHMAC:
		return VerifyHMAC(payload, signature, secret)
	case SchemeNonceSeed:
		if secret == "" {
			return false, missingSecret()
		}
		nonce, _ := payload["nonce"].(string)
		seed, _ := payload["seed"].(string)
		raw, err := base64.StdEncoding.DecodeString(nonce)
		if err != nil || seed == "" {
			return false, nil
		}
		expected := DeriveTranKey(raw, seed, secret)
		return hmac.Equal([]byte(signature), []byte(expected)), nil
	default:
		return false, domain.NewServiceError(domain.ErrConfiguration,
			fmt.Sprintf("unsupported signature scheme %q", scheme), "SIGNATURE_SCHEME")
	}
}

// TransactionKey generates a fresh nonce and seed and derives the tranKey:
// Base64(SHA-256(rawNonce || seed || secret)). The hash runs over the raw nonce
// bytes, the transmitted nonce is their Base64 text.
func (e *Engine) TransactionKey(secret string) (TransactionKey, error) {
	if secret == "" {
		return TransactionKey{}, missingSecret()
	}
	raw := make([]byte, NonceSize)
	if _, err := io.ReadFull(e.rand, raw); err != nil {
		return TransactionKey{}, fmt.Errorf("failed to read nonce: %w", err)
	}
	seed := e.now().UTC().Format(time.RFC3339)
	return TransactionKey{
		TranKey: DeriveTranKey(raw, seed, secret),
		Nonce:   base64.StdEncoding.EncodeToString(raw),
		Seed:    seed,
	}, nil
}

// DeriveTranKey computes the tranKey for a given raw nonce and seed.
func DeriveTranKey(rawNonce []byte, seed, secret string) string {
	h := sha256.New()
	h.Write(rawNonce)
	h.Write([]byte(seed))
	h.Write([]byte(secret))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// SignHMAC computes the hex HMAC-SHA256 of the canonical string of payload.
func SignHMAC(payload map[string]any, secret string) (string, error) {
	if secret == "" {
		return "", missingSecret()
	}
	canonical, err := Canonical(payload)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifyHMAC checks signature against payload in constant time.
func VerifyHMAC(payload map[string]any, signature, secret string) (bool, error) {
	expected, err := SignHMAC(payload, secret)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)), nil
}

// Canonical renders payload as key=value pairs sorted by key and joined by &.
// The signature field is skipped. Nested values are rendered as compact JSON.
func Canonical(payload map[string]any) (string, error) {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k == SignatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := canonicalValue(payload[k])
		if err != nil {
			return "", fmt.Errorf("field %s: %w", k, err)
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, "&"), nil
}

func canonicalValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case json.Number:
		return t.String(), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// NotificationDigest is the GetNet callback signature:
// hex(SHA-1(requestId || status || date || secret)).
func NotificationDigest(requestID, status, date, secret string) (string, error) {
	if secret == "" {
		return "", missingSecret()
	}
	sum := sha1.Sum([]byte(requestID + status + date + secret))
	return hex.EncodeToString(sum[:]), nil
}

// VerifyNotificationDigest checks a GetNet callback signature in constant time.
// Signatures prefixed with "sha256:" are checked against SHA-256 instead of SHA-1.
func VerifyNotificationDigest(requestID, status, date, secret, signature string) (bool, error) {
	if secret == "" {
		return false, missingSecret()
	}
	var expected string
	if rest, ok := strings.CutPrefix(signature, "sha256:"); ok {
		sum := sha256.Sum256([]byte(requestID + status + date + secret))
		expected = hex.EncodeToString(sum[:])
		signature = rest
	} else {
		expected, _ = NotificationDigest(requestID, status, date, secret)
	}
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)), nil
}

func missingSecret() error {
	return domain.NewServiceError(domain.ErrConfiguration, "signing secret is not configured", "MISSING_SECRET")
}
