// Package provider holds what the gateway adapters share: request validation,
// response classification, amount formatting and the adapter registry.
package provider

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

var validate = validator.New()

type sessionInput struct {
	Amount        int64  `validate:"gt=0"`
	OrderID       string `validate:"required"`
	CustomerEmail string `validate:"required,email"`
}

var fieldMessages = map[string]string{
	"Amount":        "amount must be greater than zero",
	"OrderID":       "orderId is required",
	"CustomerEmail": "customerEmail must be a valid email address",
}

// ValidateSession checks the fields every gateway needs. It runs before any
// signing or network call.
func ValidateSession(req domain.PaymentSessionRequest) error {
	in := sessionInput{
		Amount:        req.Amount,
		OrderID:       strings.TrimSpace(req.OrderID),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
	}
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessages[fe.Field()])
		}
		return domain.NewServiceError(domain.ErrValidation, strings.Join(msgs, "; "), "VALIDATION_ERROR")
	}
	return domain.NewServiceError(domain.ErrValidation, err.Error(), "VALIDATION_ERROR")
}

// ValidEmail reports whether s is a well-formed email address.
func ValidEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}
