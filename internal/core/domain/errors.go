// Package domain contains the core business entities for the payment service.
package domain

import "errors"

// Domain errors - each one is a kind in the error taxonomy.
var (
	// ErrValidation is returned for client-caused input problems. No external call is made.
	ErrValidation = errors.New("validation error")

	// ErrConfiguration is returned when a secret, login or endpoint is missing.
	ErrConfiguration = errors.New("configuration error")

	// ErrProviderTransport covers network failure, timeouts and unreadable provider bodies.
	ErrProviderTransport = errors.New("payment provider unavailable")

	// ErrProviderAuth is returned when the provider rejects our credentials.
	ErrProviderAuth = errors.New("payment provider rejected credentials")

	// ErrProviderBusiness is returned when the provider rejects the request itself.
	ErrProviderBusiness = errors.New("payment provider rejected request")

	// ErrNotificationParse is returned for malformed or incomplete notifications.
	ErrNotificationParse = errors.New("notification could not be parsed")

	// ErrSignatureInvalid is returned when a signed notification fails verification.
	ErrSignatureInvalid = errors.New("notification signature invalid")

	// ErrOrderNotFound is returned when the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderExists is returned when creating an order whose id is taken.
	ErrOrderExists = errors.New("order already exists")

	// ErrStoreUnavailable is returned when the order store cannot be reached.
	ErrStoreUnavailable = errors.New("order store unavailable")

	// ErrVersionConflict is returned by the store when a compare-and-swap loses.
	ErrVersionConflict = errors.New("order version conflict")

	// ErrUnknownProvider is returned when no adapter is registered under a name.
	ErrUnknownProvider = errors.New("unknown payment provider")
)

// ServiceError wraps errors with additional context.
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(err error, message, code string) *ServiceError {
	return &ServiceError{Err: err, Message: message, Code: code}
}

// IsConfigurationKind reports whether err should be treated as an operator problem
// rather than a payer problem.
func IsConfigurationKind(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrProviderAuth)
}
