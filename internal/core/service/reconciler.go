package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/ports"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/status"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/logger"
)

// Notification is one inbound provider callback.
type Notification struct {
	// Provider comes from the route; empty means infer it from the payload.
	Provider string
	Body     []byte
	Header   http.Header
}

// Reconciler applies provider notifications to orders.
type Reconciler struct {
	store      ports.OrderStore
	providers  ports.ProviderResolver
	normalizer *status.Normalizer
	extractor  *status.Extractor
	events     *logger.Events
	now        func() time.Time
}

// NewReconciler creates a reconciler. providers may be nil, in which case no
// signature verification or enrichment happens.
func NewReconciler(store ports.OrderStore, providers ports.ProviderResolver, normalizer *status.Normalizer, events *logger.Events) *Reconciler {
	if events == nil {
		events = logger.NewEvents(nil)
	}
	return &Reconciler{
		store:      store,
		providers:  providers,
		normalizer: normalizer,
		extractor:  status.NewExtractor(),
		events:     events,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile parses, verifies and applies one notification. Every understood
// notification returns an outcome, including unknown statuses, terminal orders
// and rejected backward moves. Errors are returned only for input the provider
// should fix or retry.
func (r *Reconciler) Reconcile(ctx context.Context, n Notification) (*domain.ReconciliationOutcome, error) {
	payload, err := decodePayload(n.Body)
	if err != nil {
		return nil, err
	}

	name, inferred := n.Provider, false
	if name == "" {
		name, inferred = inferProvider(payload), true
	}
	payload, err = r.prepare(ctx, name, inferred, payload, n.Header)
	if err != nil {
		r.events.Warn(logger.EventNotificationRejected, "", name, zap.Error(err))
		return nil, err
	}

	ext := r.extractor.Extract(payload)
	r.events.Info(logger.EventNotificationReceived, ext.Reference, name,
		zap.String("shape", ext.Shape), zap.String("raw_status", ext.Status))
	if ext.Reference == "" {
		return nil, domain.NewServiceError(domain.ErrNotificationParse,
			"notification has no order reference", "MISSING_REFERENCE")
	}
	if ext.Status == "" {
		// An unknown order is reported as such even when the status is missing.
		if _, err := r.lookup(ctx, ext.Reference); err != nil {
			return nil, err
		}
		return nil, domain.NewServiceError(domain.ErrNotificationParse,
			"notification has no status", "MISSING_STATUS")
	}

	norm := r.normalizer.Normalize(ext.Status)
	r.events.Info(logger.EventStatusNormalized, ext.Reference, name,
		zap.String("raw_status", ext.Status),
		zap.String("status_path", string(ext.StatusPath)),
		zap.String("bucket", string(norm.Bucket)))

	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		order, err := r.lookup(ctx, ext.Reference)
		if err != nil {
			return nil, err
		}
		if err := checkSession(order, ext); err != nil {
			r.events.Warn(logger.EventNotificationRejected, order.ID, name,
				zap.String("session_id", ext.SessionID), zap.Error(err))
			return nil, err
		}

		m := planMutation(order, ext, norm, name, r.now())
		out := &domain.ReconciliationOutcome{
			Provider:       name,
			OrderID:        order.ID,
			RawStatus:      ext.Status,
			PreviousStatus: order.Status,
			Status:         order.Status,
			Outcome:        m.outcome,
			PaymentID:      order.PaymentID,
		}
		if m.patch.Empty() {
			if m.outcome == domain.OutcomeApplied || m.outcome == domain.OutcomeTerminalNoop {
				out.Outcome = domain.OutcomeDuplicate
			}
			r.report(out, m)
			return out, nil
		}

		updated, err := r.store.Update(ctx, order.ID, m.patch)
		if errors.Is(err, domain.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out.Status = updated.Status
		out.PaymentID = updated.PaymentID
		r.report(out, m)
		return out, nil
	}
	return nil, domain.NewServiceError(domain.ErrVersionConflict,
		"order "+ext.Reference+" kept changing", "VERSION_CONFLICT")
}

func (r *Reconciler) lookup(ctx context.Context, id string) (*domain.Order, error) {
	order, err := r.store.GetByID(ctx, id)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, domain.NewServiceError(domain.ErrOrderNotFound, "order "+id, "ORDER_NOT_FOUND")
	}
	return order, err
}

// prepare runs the provider's verifier and enricher, when it has them. A
// notification that cannot be attributed to a registered provider is only
// accepted while no provider requires signed callbacks.
func (r *Reconciler) prepare(ctx context.Context, name string, inferred bool, payload map[string]any, header http.Header) (map[string]any, error) {
	if r.providers == nil {
		return payload, nil
	}
	var adapter ports.ProviderAdapter
	if name != "" {
		a, err := r.providers.Get(name)
		if err != nil && !inferred {
			return nil, err
		}
		adapter = a
	}
	if adapter == nil {
		if r.signaturesRequired() {
			return nil, domain.NewServiceError(domain.ErrSignatureInvalid,
				"notification cannot be attributed to a provider", "UNATTRIBUTED_NOTIFICATION")
		}
		return payload, nil
	}
	if v, ok := adapter.(ports.NotificationVerifier); ok {
		if err := v.VerifyNotification(payload, header); err != nil {
			return nil, err
		}
	}
	if e, ok := adapter.(ports.NotificationEnricher); ok {
		return e.EnrichNotification(ctx, payload)
	}
	return payload, nil
}

func (r *Reconciler) signaturesRequired() bool {
	for _, name := range r.providers.Names() {
		a, err := r.providers.Get(name)
		if err != nil {
			continue
		}
		if p, ok := a.(ports.SignaturePolicy); ok && p.RequiresSignature() {
			return true
		}
	}
	return false
}

// checkSession rejects a callback signed for a session this order never opened.
// Orders without a recorded session, and callbacks without a session id, pass.
func checkSession(order *domain.Order, ext status.Extraction) error {
	if ext.SessionID == "" {
		return nil
	}
	known := domain.MetadataValues(order.Metadata, domain.MetaSessionRequestID)
	if len(known) == 0 || slices.Contains(known, ext.SessionID) {
		return nil
	}
	return domain.NewServiceError(domain.ErrSignatureInvalid,
		fmt.Sprintf("session %s does not belong to order %s", ext.SessionID, order.ID), "SESSION_MISMATCH")
}

func (r *Reconciler) report(out *domain.ReconciliationOutcome, m mutation) {
	fields := []zap.Field{
		zap.String("outcome", string(out.Outcome)),
		zap.String("previous_status", string(out.PreviousStatus)),
		zap.String("status", string(out.Status)),
		zap.String("raw_status", out.RawStatus),
	}
	switch out.Outcome {
	case domain.OutcomeUnknownStatus:
		r.events.Warn(logger.EventStatusUnknown, out.OrderID, out.Provider, fields...)
	case domain.OutcomeDuplicate:
		r.events.Info(logger.EventNotificationDuplicate, out.OrderID, out.Provider, fields...)
	case domain.OutcomeRejected:
		r.events.Warn(logger.EventTransitionRejected, out.OrderID, out.Provider,
			append(fields, zap.String("attempted", string(m.target)))...)
	case domain.OutcomeAmountMismatch:
		r.events.Warn(logger.EventAmountMismatch, out.OrderID, out.Provider,
			append(fields, zap.String("paid_amount", m.patch.Metadata[domain.MetaPaidAmount]))...)
	default:
		r.events.Info(logger.EventOrderMutated, out.OrderID, out.Provider, fields...)
	}
}

type mutation struct {
	patch   domain.OrderPatch
	outcome domain.Outcome
	target  domain.OrderStatus
}

// planMutation computes what a notification does to order. It never touches
// total, and never moves status out of a terminal state.
func planMutation(order *domain.Order, ext status.Extraction, norm status.Normalization, provider string, now time.Time) mutation {
	meta := map[string]string{domain.MetaWebhookData: ext.WebhookData()}
	if provider != "" {
		meta[domain.MetaProvider] = provider
	}
	for k, v := range ext.Diagnostics {
		meta[k] = v
	}
	if ext.Amount != "" {
		meta[domain.MetaPaidAmount] = ext.Amount
	}

	m := mutation{patch: domain.OrderPatch{ExpectedVersion: order.Version}}
	target, known := norm.Target()
	m.target = target

	switch {
	case !known:
		m.outcome = domain.OutcomeUnknownStatus
		meta[domain.MetaUnknownStatus] = ext.Status
	case order.Status.IsTerminal() && target == order.Status:
		m.outcome = domain.OutcomeTerminalNoop
	case !domain.CanTransition(order.Status, target):
		m.outcome = domain.OutcomeRejected
		meta[domain.MetaRejectedTransition] = fmt.Sprintf("%s->%s (%s)", order.Status, target, ext.Status)
	case target == domain.StatusPaid && amountDiffers(order, ext.Amount):
		m.outcome = domain.OutcomeAmountMismatch
		meta[domain.MetaAmountMismatch] = fmt.Sprintf("paid %s, expected %d (%s)", ext.Amount, order.Total, ext.Status)
	default:
		m.outcome = domain.OutcomeApplied
		if target != order.Status {
			m.patch.Status = &target
		}
		if target == domain.StatusPaid {
			if order.PaidAt == nil {
				paidAt := now
				m.patch.PaidAt = &paidAt
			}
			if order.PaymentID == "" {
				id := paymentIDFor(order, ext, provider)
				m.patch.PaymentID = &id
			}
		}
	}

	if merged := domain.MergeMetadata(order.Metadata, meta); len(merged) != len(order.Metadata) {
		m.patch.Metadata = meta
	}
	return m
}

// paymentIDFor picks the provider transaction id, falling back to the session
// request id and then to a stable id derived from provider and order.
func paymentIDFor(order *domain.Order, ext status.Extraction, provider string) string {
	if ext.PaymentID != "" {
		return ext.PaymentID
	}
	if id := domain.LatestMetadata(order.Metadata, domain.MetaSessionRequestID); id != "" {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(provider+"/"+order.ID)).String()
}

// amountDiffers reports whether a settled amount is known and is not the order
// total. Orders without a total are not checked.
func amountDiffers(order *domain.Order, amount string) bool {
	if amount == "" || order.Total <= 0 {
		return false
	}
	paid, err := strconv.ParseInt(amount, 10, 64)
	return err != nil || paid != order.Total
}

func decodePayload(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, domain.NewServiceError(domain.ErrNotificationParse, "empty notification body", "EMPTY_BODY")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, domain.NewServiceError(domain.ErrNotificationParse, "notification is not a JSON object", "MALFORMED_JSON")
	}
	return payload, nil
}

// inferProvider guesses the sender of a notification posted to the generic
// endpoint: Mercado Pago sends {type, data.id}; the others are told apart by
// which status field they fill.
func inferProvider(payload map[string]any) string {
	if data, ok := payload["data"].(map[string]any); ok {
		if _, ok := data["id"]; ok {
			return "mercadopago"
		}
	}
	if _, ok := status.Path("status.status").Lookup(payload); ok {
		return "getnet"
	}
	if _, ok := status.Path("transaction.status").Lookup(payload); ok {
		return "netget"
	}
	return ""
}
