package status

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

// Path is a dotted field path into a decoded JSON object. Numeric segments
// index into arrays, so "payment.0.receipt" reads the first payment entry.
type Path string

// Lookup walks payload along p and returns the scalar found there as text.
// Objects, arrays, nulls and empty strings count as absent.
func (p Path) Lookup(payload map[string]any) (string, bool) {
	var cur any = payload
	for _, seg := range strings.Split(string(p), ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return "", false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return "", false
			}
			cur = node[idx]
		default:
			return "", false
		}
	}
	return scalarText(cur)
}

func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// Strategy describes one known notification shape. Paths inside each list are
// tried in order.
type Strategy struct {
	Name      string
	Status    []Path
	PaymentID []Path
	Date      []Path
	Reason    []Path
}

// DefaultStrategies lists the known shapes, most specific first. Nested status
// fields win over flat ones because providers fill the richer field first.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Name:      "getnet",
			Status:    []Path{"status.status"},
			PaymentID: []Path{"requestId", "internalReference", "payment.0.internalReference"},
			Date:      []Path{"status.date"},
			Reason:    []Path{"status.message", "status.reason"},
		},
		{
			Name:      "netget",
			Status:    []Path{"transaction.status", "payment.status"},
			PaymentID: []Path{"transaction.id", "transaction.transaction_id", "transaction_id", "transactionId"},
			Date:      []Path{"transaction.date", "transaction.created_at"},
			Reason:    []Path{"transaction.message", "transaction.reason"},
		},
		{
			Name:      "flat",
			Status:    []Path{"status", "state", "payment_status", "paymentStatus", "collection_status"},
			PaymentID: []Path{"payment_id", "paymentId", "request_id", "collection_id"},
			Date:      []Path{"date", "timestamp", "date_approved", "created_at"},
			Reason:    []Path{"message", "reason", "status_detail"},
		},
	}
}

// DefaultReferencePaths is the probe order for the order reference, flat
// spellings first.
var DefaultReferencePaths = []Path{
	"reference", "order_id", "orderId", "transaction.reference",
	"external_reference", "externalReference", "payment.reference",
	"transaction.order_id", "transaction.orderId",
}

// SessionPaths locate the provider session id a callback is signed for.
var SessionPaths = []Path{"requestId", "request_id"}

// AmountPaths locate the settled amount in minor units, as written by enrichers.
var AmountPaths = []Path{"amount_minor"}

// diagnosticPaths feed the non-deciding metadata keys.
var diagnosticPaths = map[string][]Path{
	domain.MetaAuthorizationCode: {"authorization_code", "authorizationCode", "authorization", "payment.0.authorization", "transaction.authorization_code"},
	domain.MetaFranchise:         {"franchise", "franchiseName", "payment.0.franchise", "payment.0.franchiseName", "card_brand", "transaction.franchise"},
	domain.MetaBank:              {"bank", "bank_name", "issuerName", "issuer_name", "payment.0.issuerName", "transaction.bank"},
	domain.MetaReceipt:           {"receipt", "payment.0.receipt", "transaction.receipt"},
	domain.MetaPaymentMethod:     {"payment_method", "paymentMethod", "payment_method_id", "payment.0.paymentMethod", "transaction.payment_method"},
}

// Extraction is what could be read from one notification.
type Extraction struct {
	Reference   string
	Status      string
	StatusPath  Path
	Shape       string
	PaymentID   string
	Date        string
	Reason      string
	SessionID   string
	Amount      string
	Diagnostics map[string]string
}

// WebhookData renders the deciding fields as compact JSON for the
// metadata.webhookData audit convention. Output is deterministic.
func (e Extraction) WebhookData() string {
	snapshot := map[string]string{
		"reference": e.Reference,
		"status":    e.Status,
	}
	if e.PaymentID != "" {
		snapshot["paymentId"] = e.PaymentID
	}
	if e.Date != "" {
		snapshot["date"] = e.Date
	}
	if e.Reason != "" {
		snapshot["reason"] = e.Reason
	}
	if e.Amount != "" {
		snapshot["amount"] = e.Amount
	}
	b, _ := json.Marshal(snapshot)
	return string(b)
}

// Extractor runs strategies in priority order.
type Extractor struct {
	strategies []Strategy
	references []Path
}

// NewExtractor creates an extractor. With no strategies it uses DefaultStrategies.
func NewExtractor(strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Extractor{strategies: strategies, references: DefaultReferencePaths}
}

// ExtractStatus returns the first status found, the path it came from and the
// shape that owns the path.
func (x *Extractor) ExtractStatus(payload map[string]any) (string, Path, string, bool) {
	for _, s := range x.strategies {
		for _, p := range s.Status {
			if v, ok := p.Lookup(payload); ok {
				return v, p, s.Name, true
			}
		}
	}
	return "", "", "", false
}

// ExtractReference returns the order reference. The plain "reference" key wins
// over alternate spellings and nested fields.
func (x *Extractor) ExtractReference(payload map[string]any) (string, bool) {
	for _, p := range x.references {
		if v, ok := p.Lookup(payload); ok {
			return v, true
		}
	}
	return "", false
}

// Extract reads everything it can. Missing fields are left empty.
func (x *Extractor) Extract(payload map[string]any) Extraction {
	var e Extraction
	e.Status, e.StatusPath, e.Shape, _ = x.ExtractStatus(payload)
	e.Reference, _ = x.ExtractReference(payload)
	e.PaymentID, _ = x.first(payload, func(s Strategy) []Path { return s.PaymentID })
	e.Date, _ = x.first(payload, func(s Strategy) []Path { return s.Date })
	e.Reason, _ = x.first(payload, func(s Strategy) []Path { return s.Reason })
	e.SessionID = lookupFirst(payload, SessionPaths)
	e.Amount = lookupFirst(payload, AmountPaths)

	e.Diagnostics = make(map[string]string)
	for key, paths := range diagnosticPaths {
		for _, p := range paths {
			if v, ok := p.Lookup(payload); ok {
				e.Diagnostics[key] = v
				break
			}
		}
	}
	return e
}

func (x *Extractor) first(payload map[string]any, pick func(Strategy) []Path) (string, bool) {
	for _, s := range x.strategies {
		for _, p := range pick(s) {
			if v, ok := p.Lookup(payload); ok {
				return v, true
			}
		}
	}
	return "", false
}

func lookupFirst(payload map[string]any, paths []Path) string {
	for _, p := range paths {
		if v, ok := p.Lookup(payload); ok {
			return v
		}
	}
	return ""
}
