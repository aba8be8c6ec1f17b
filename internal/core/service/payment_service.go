// Package service implements the core business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/ports"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/logger"
)

// maxCommitAttempts bounds compare-and-swap retries against the order store.
const maxCommitAttempts = 5

// PaymentService creates payment sessions for orders.
type PaymentService struct {
	providers ports.ProviderResolver
	store     ports.OrderStore
	events    *logger.Events
}

// NewPaymentService creates a new payment service.
func NewPaymentService(providers ports.ProviderResolver, store ports.OrderStore, events *logger.Events) *PaymentService {
	if events == nil {
		events = logger.NewEvents(nil)
	}
	return &PaymentService{providers: providers, store: store, events: events}
}

// CreateSession opens a checkout session with the requested provider. When the
// order is known, the amount must match its total and the order moves to
// procesando_pago. The provider request id is recorded in metadata only;
// paymentId is left for the confirming notification.
func (s *PaymentService) CreateSession(ctx context.Context, req domain.PaymentSessionRequest) (*domain.PaymentSessionResult, error) {
	adapter, err := s.providers.Get(req.Provider)
	if err != nil {
		return nil, err
	}
	name := adapter.Name()
	req.OrderID = strings.TrimSpace(req.OrderID)

	order, err := s.lookupOrder(ctx, req, name)
	if err != nil {
		return nil, err
	}

	handle, err := adapter.CreateSession(ctx, req)
	if err != nil {
		s.sessionFailed(req.OrderID, name, err)
		return nil, err
	}

	if order != nil {
		s.markProcessing(ctx, order, handle)
	}

	s.events.Info(logger.EventSessionCreated, req.OrderID, name,
		zap.String("request_id", handle.RequestID),
		zap.Int64("amount", req.Amount),
		zap.Time("expires_at", handle.ExpiresAt))

	return &domain.PaymentSessionResult{
		Success:       true,
		PaymentID:     handle.RequestID,
		RedirectURL:   handle.RedirectURL,
		TransactionID: handle.TransactionID,
	}, nil
}

// lookupOrder returns the stored order, or nil when the order lives outside this
// service's store.
func (s *PaymentService) lookupOrder(ctx context.Context, req domain.PaymentSessionRequest, provider string) (*domain.Order, error) {
	if req.OrderID == "" {
		return nil, nil
	}
	order, err := s.store.GetByID(ctx, req.OrderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		s.events.Warn(logger.EventSessionCreated, req.OrderID, provider,
			zap.String("detail", "order not in store, amount not checked"))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if order.Status.IsTerminal() {
		return nil, domain.NewServiceError(domain.ErrValidation,
			fmt.Sprintf("order is already %s", order.Status), "ORDER_CLOSED")
	}
	if order.Total > 0 && req.Amount != order.Total {
		return nil, domain.NewServiceError(domain.ErrValidation,
			"amount does not match order total", "AMOUNT_MISMATCH")
	}
	return order, nil
}

// markProcessing records the session on the order. The provider session already
// exists at this point, so failures are logged and not returned.
func (s *PaymentService) markProcessing(ctx context.Context, order *domain.Order, handle *domain.SessionHandle) {
	id := order.ID
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		patch := domain.OrderPatch{
			ExpectedVersion: order.Version,
			Metadata: map[string]string{
				domain.MetaSessionProvider:  handle.Provider,
				domain.MetaSessionRequestID: handle.RequestID,
			},
		}
		if domain.CanTransition(order.Status, domain.StatusProcessing) {
			processing := domain.StatusProcessing
			patch.Status = &processing
		}

		_, err := s.store.Update(ctx, id, patch)
		if err == nil {
			return
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			s.events.Error(logger.EventSessionCreated, id, handle.Provider,
				zap.String("detail", "failed to mark order as processing"), zap.Error(err))
			return
		}
		if order, err = s.store.GetByID(ctx, id); err != nil {
			s.events.Error(logger.EventSessionCreated, id, handle.Provider, zap.Error(err))
			return
		}
		if order.Status.IsTerminal() {
			return
		}
	}
	s.events.Error(logger.EventSessionCreated, id, handle.Provider,
		zap.String("detail", "order kept changing, session not recorded"))
}

func (s *PaymentService) sessionFailed(orderID, provider string, err error) {
	fields := []zap.Field{zap.Error(err)}
	var se *domain.ServiceError
	if errors.As(err, &se) {
		fields = append(fields, zap.String("code", se.Code))
	}
	switch {
	case domain.IsConfigurationKind(err):
		s.events.Error(logger.EventConfigurationError, orderID, provider, fields...)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrProviderBusiness):
		s.events.Info(logger.EventSessionFailed, orderID, provider, fields...)
	default:
		s.events.Warn(logger.EventSessionFailed, orderID, provider, fields...)
	}
}
