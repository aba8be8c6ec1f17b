// Package ports defines the interfaces (ports) for the payment service.
// These are contracts that adapters must implement.
package ports

import (
	"context"
	"net/http"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

// ProviderAdapter creates payment sessions with one gateway.
type ProviderAdapter interface {
	// Name is the registry key, also written to logs and order metadata.
	Name() string

	// CreateSession validates req, signs and sends the session request.
	// Errors are always *domain.ServiceError wrapping one taxonomy kind.
	CreateSession(ctx context.Context, req domain.PaymentSessionRequest) (*domain.SessionHandle, error)
}

// NotificationVerifier is implemented by adapters whose callbacks carry a
// signature, in the body or in headers. Returns domain.ErrSignatureInvalid on
// mismatch.
type NotificationVerifier interface {
	VerifyNotification(payload map[string]any, header http.Header) error
}

// SignaturePolicy is implemented by adapters that can be configured to refuse
// unsigned callbacks.
type SignaturePolicy interface {
	RequiresSignature() bool
}

// NotificationEnricher is implemented by adapters whose callbacks only carry an
// id; Enrich fetches the full payment and returns a payload the extractor can read.
type NotificationEnricher interface {
	EnrichNotification(ctx context.Context, payload map[string]any) (map[string]any, error)
}

// OrderStore is the persisted order collaborator.
type OrderStore interface {
	// GetByID returns domain.ErrOrderNotFound when the order does not exist.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// Create stores a new order. Returns domain.ErrOrderExists on id collision.
	Create(ctx context.Context, order *domain.Order) error

	// Update applies patch atomically when the stored version equals
	// patch.ExpectedVersion, merging metadata without overwriting keys.
	// Returns domain.ErrVersionConflict when the version moved.
	Update(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error)
}

// ProviderResolver looks adapters up by name; "" selects the default provider.
// Returns domain.ErrUnknownProvider for unregistered names.
type ProviderResolver interface {
	Get(name string) (ProviderAdapter, error)
	Default() string
	Names() []string
}
