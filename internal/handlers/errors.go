package handlers

import (
	"errors"
	"net/http"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

// httpError is what a failed request turns into at the HTTP boundary. Only
// client-caused problems carry their own message; everything else gets a
// generic one.
type httpError struct {
	Status  int
	Message string
	Code    string
}

func mapError(err error) httpError {
	var se *domain.ServiceError
	errors.As(err, &se)
	detail := func(fallback, code string) (string, string) {
		if se != nil {
			if se.Code != "" {
				code = se.Code
			}
			if se.Message != "" {
				return se.Message, code
			}
		}
		return fallback, code
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		msg, code := detail("invalid request", "VALIDATION_ERROR")
		return httpError{http.StatusBadRequest, msg, code}
	case errors.Is(err, domain.ErrNotificationParse):
		msg, code := detail("notification could not be parsed", "INVALID_NOTIFICATION")
		return httpError{http.StatusBadRequest, msg, code}
	case errors.Is(err, domain.ErrUnknownProvider):
		msg, code := detail("unknown payment provider", "UNKNOWN_PROVIDER")
		return httpError{http.StatusBadRequest, msg, code}
	case errors.Is(err, domain.ErrSignatureInvalid):
		return httpError{http.StatusUnauthorized, "invalid notification signature", "INVALID_SIGNATURE"}
	case errors.Is(err, domain.ErrOrderNotFound):
		return httpError{http.StatusNotFound, "order not found", "ORDER_NOT_FOUND"}
	case errors.Is(err, domain.ErrOrderExists):
		return httpError{http.StatusConflict, "order already exists", "ORDER_EXISTS"}
	case errors.Is(err, domain.ErrProviderBusiness):
		msg, code := detail("payment provider rejected the request", "PROVIDER_REJECTED")
		return httpError{http.StatusUnprocessableEntity, msg, code}
	case errors.Is(err, domain.ErrProviderTransport):
		return httpError{http.StatusBadGateway, "payment provider unavailable", "PROVIDER_UNAVAILABLE"}
	case domain.IsConfigurationKind(err):
		return httpError{http.StatusInternalServerError, "payment service is not configured correctly", "CONFIGURATION_ERROR"}
	default:
		return httpError{http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR"}
	}
}
