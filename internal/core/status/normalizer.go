// Package status maps provider status vocabularies onto the canonical order
// state machine.
package status

import (
	"fmt"
	"sort"
	"strings"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

// Bucket is the class a raw provider token falls into.
type Bucket string

const (
	BucketSuccess Bucket = "success"
	BucketFailure Bucket = "failure"
	BucketPending Bucket = "pending"
	BucketUnknown Bucket = "unknown"
)

// TokenSets are the three disjoint allow-lists. They come from the catalog file,
// so new synonyms never need a code change.
type TokenSets struct {
	Success []string `mapstructure:"success"`
	Failure []string `mapstructure:"failure"`
	Pending []string `mapstructure:"pending"`
}

// DefaultTokenSets is the vocabulary observed across GetNet, NetGet and
// Mercado Pago, in English and Spanish.
func DefaultTokenSets() TokenSets {
	return TokenSets{
		Success: []string{
			"APPROVED", "APROBADO", "APROBADA", "OK", "PAID", "PAGADO", "PAGADA",
			"SUCCESS", "SUCCEEDED", "EXITOSO", "EXITOSA", "COMPLETED", "COMPLETADO",
			"AUTHORIZED", "AUTORIZADO", "CAPTURED", "SETTLED", "ACCREDITED",
		},
		Failure: []string{
			"REJECTED", "RECHAZADO", "RECHAZADA", "FAILED", "FAILURE", "FALLIDO",
			"DECLINED", "DENIED", "CANCELLED", "CANCELED", "CANCELADO", "CANCELADA",
			"ERROR", "EXPIRED", "EXPIRADO", "VOIDED", "ANULADO", "ANULADA",
		},
		Pending: []string{
			"PENDING", "PENDIENTE", "PENDING_VALIDATION", "PENDING_PROCESS",
			"IN_PROCESS", "IN_PROGRESS", "PROCESSING", "PROCESANDO", "CREATED",
			"AUTHORIZATION_PENDING", "WAITING", "EN_PROCESO",
		},
	}
}

// Normalization is the result of classifying one raw token.
type Normalization struct {
	Raw    string
	Token  string
	Bucket Bucket
}

// Target returns the canonical status the bucket asks for and false for the
// unknown bucket, which never changes status.
func (n Normalization) Target() (domain.OrderStatus, bool) {
	switch n.Bucket {
	case BucketSuccess:
		return domain.StatusPaid, true
	case BucketFailure:
		return domain.StatusCancelled, true
	case BucketPending:
		return domain.StatusProcessing, true
	}
	return "", false
}

// Normalizer classifies tokens. It is immutable after construction and safe
// for concurrent use.
type Normalizer struct {
	buckets map[string]Bucket
}

// NewNormalizer builds a normalizer and rejects overlapping sets.
func NewNormalizer(sets TokenSets) (*Normalizer, error) {
	n := &Normalizer{buckets: make(map[string]Bucket)}
	for _, group := range []struct {
		bucket Bucket
		tokens []string
	}{
		{BucketSuccess, sets.Success},
		{BucketFailure, sets.Failure},
		{BucketPending, sets.Pending},
	} {
		for _, raw := range group.tokens {
			tok := Canonicalize(raw)
			if tok == "" {
				continue
			}
			if prev, ok := n.buckets[tok]; ok && prev != group.bucket {
				return nil, domain.NewServiceError(domain.ErrConfiguration,
					fmt.Sprintf("status token %q is listed as both %s and %s", tok, prev, group.bucket),
					"STATUS_TOKENS_OVERLAP")
			}
			n.buckets[tok] = group.bucket
		}
	}
	return n, nil
}

// MustDefault returns a normalizer over DefaultTokenSets.
func MustDefault() *Normalizer {
	n, err := NewNormalizer(DefaultTokenSets())
	if err != nil {
		panic(err)
	}
	return n
}

// Canonicalize trims and uppercases a raw token. Inner spaces and dashes become
// underscores so "in process" and "IN-PROCESS" match IN_PROCESS.
func Canonicalize(raw string) string {
	tok := strings.ToUpper(strings.TrimSpace(raw))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, tok)
}

// Normalize classifies raw. Unrecognized tokens land in BucketUnknown.
func (n *Normalizer) Normalize(raw string) Normalization {
	tok := Canonicalize(raw)
	bucket, ok := n.buckets[tok]
	if !ok {
		bucket = BucketUnknown
	}
	return Normalization{Raw: raw, Token: tok, Bucket: bucket}
}

// Tokens returns the sorted tokens of one bucket.
func (n *Normalizer) Tokens(bucket Bucket) []string {
	var out []string
	for tok, b := range n.buckets {
		if b == bucket {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}
