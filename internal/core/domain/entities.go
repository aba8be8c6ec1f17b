// Package domain contains the core business entities for the payment service.
// This is the innermost layer - no external dependencies.
package domain

import "time"

// OrderStatus is the canonical order state. The string values are persisted
// and must stay stable.
type OrderStatus string

const (
	StatusDraft      OrderStatus = "draft"
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "procesando_pago"
	StatusPaid       OrderStatus = "pagado"
	StatusCancelled  OrderStatus = "cancelado"
)

// IsTerminal reports whether no further status change is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Valid reports whether s is one of the canonical values.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusProcessing, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) rank() int {
	switch s {
	case StatusDraft:
		return 0
	case StatusPending:
		return 1
	case StatusProcessing:
		return 2
	case StatusPaid, StatusCancelled:
		return 3
	}
	return -1
}

// CanTransition reports whether an order in status from may move to status to.
// Terminal states never move; everything else only moves forward, except the
// procesando_pago self-loop.
func CanTransition(from, to OrderStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from.IsTerminal() {
		return false
	}
	if from == to {
		return from == StatusProcessing
	}
	return to.rank() > from.rank()
}

// Category is a line-item category selectable per day.
type Category string

const (
	CategoryAlmuerzo Category = "almuerzo"
	CategoryColacion Category = "colacion"
)

// UserType keys the price table.
type UserType string

const (
	UserTypeApoderado   UserType = "apoderado"
	UserTypeFuncionario UserType = "funcionario"
)

// LineItem is a priced menu item inside a day selection.
type LineItem struct {
	Code  string `json:"code"`
	Price int64  `json:"price"`
}

// DaySelection is one day of an order, optionally for a dependent.
type DaySelection struct {
	Date      string    `json:"date"` // YYYY-MM-DD
	Dependent string    `json:"dependent,omitempty"`
	Almuerzo  *LineItem `json:"almuerzo,omitempty"`
	Colacion  *LineItem `json:"colacion,omitempty"`
}

// Subtotal returns the sum of the selected item prices.
func (d DaySelection) Subtotal() int64 {
	var sum int64
	if d.Almuerzo != nil {
		sum += d.Almuerzo.Price
	}
	if d.Colacion != nil {
		sum += d.Colacion.Price
	}
	return sum
}

// Order is the unit of payment reconciliation.
type Order struct {
	ID         string            `json:"id"`
	UserID     string            `json:"userId"`
	UserType   UserType          `json:"userType,omitempty"`
	WeekStart  string            `json:"weekStart"`
	Selections []DaySelection    `json:"selections"`
	Total      int64             `json:"total"`
	Status     OrderStatus       `json:"status"`
	PaymentID  string            `json:"paymentId,omitempty"`
	PaidAt     *time.Time        `json:"paidAt,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Version    int64             `json:"version"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (o *Order) Clone() *Order {
	c := *o
	if o.Selections != nil {
		c.Selections = make([]DaySelection, len(o.Selections))
		for i, s := range o.Selections {
			if s.Almuerzo != nil {
				a := *s.Almuerzo
				s.Almuerzo = &a
			}
			if s.Colacion != nil {
				col := *s.Colacion
				s.Colacion = &col
			}
			c.Selections[i] = s
		}
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	if o.Metadata != nil {
		c.Metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// OrderPatch is a partial update applied atomically against ExpectedVersion.
// Nil fields are left untouched. Metadata is merged, never replaced.
type OrderPatch struct {
	ExpectedVersion int64
	Status          *OrderStatus
	PaymentID       *string
	PaidAt          *time.Time
	Metadata        map[string]string
}

// Empty reports whether the patch would change nothing.
func (p OrderPatch) Empty() bool {
	return p.Status == nil && p.PaymentID == nil && p.PaidAt == nil && len(p.Metadata) == 0
}

// Apply writes patch onto o and bumps the version. paymentId and paidAt are
// write-once: a value already present is kept. Metadata goes through
// MergeMetadata. Stores call this after their own version check.
func (o *Order) Apply(patch OrderPatch, now time.Time) {
	if patch.Status != nil {
		o.Status = *patch.Status
	}
	if patch.PaymentID != nil && o.PaymentID == "" {
		o.PaymentID = *patch.PaymentID
	}
	if patch.PaidAt != nil && o.PaidAt == nil {
		t := *patch.PaidAt
		o.PaidAt = &t
	}
	if len(patch.Metadata) > 0 {
		o.Metadata = MergeMetadata(o.Metadata, patch.Metadata)
	}
	o.Version++
	o.UpdatedAt = now
}

// PaymentSessionRequest is built fresh per checkout attempt.
type PaymentSessionRequest struct {
	Provider      string `json:"provider,omitempty"`
	Amount        int64  `json:"amount"`
	OrderID       string `json:"orderId"`
	Description   string `json:"description,omitempty"`
	CustomerEmail string `json:"customerEmail"`
	CustomerName  string `json:"customerName,omitempty"`
	ReturnURL     string `json:"returnUrl,omitempty"`
	NotifyURL     string `json:"notifyUrl,omitempty"`
	IPAddress     string `json:"-"`
	UserAgent     string `json:"-"`
}

// SessionHandle is what a provider returns when a session is created.
type SessionHandle struct {
	Provider      string    `json:"provider"`
	RequestID     string    `json:"paymentId"`
	TransactionID string    `json:"transactionId"`
	RedirectURL   string    `json:"redirectUrl"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// PaymentSessionResult is the canonical answer of the create endpoint.
type PaymentSessionResult struct {
	Success       bool   `json:"success"`
	PaymentID     string `json:"paymentId,omitempty"`
	RedirectURL   string `json:"redirectUrl,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	Error         string `json:"error,omitempty"`
	Code          string `json:"code,omitempty"`
}

// Outcome describes what reconciliation did with a notification.
type Outcome string

const (
	OutcomeApplied       Outcome = "applied"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeTerminalNoop  Outcome = "terminal_noop"
	OutcomeRejected      Outcome = "transition_rejected"
	OutcomeUnknownStatus Outcome = "unknown_status"

	// OutcomeAmountMismatch is an approval for a different amount than the
	// order total. The order is left unchanged.
	OutcomeAmountMismatch Outcome = "amount_mismatch"
)

// ReconciliationOutcome is returned for every understood notification.
type ReconciliationOutcome struct {
	Provider       string      `json:"provider"`
	OrderID        string      `json:"orderId"`
	RawStatus      string      `json:"rawStatus"`
	PreviousStatus OrderStatus `json:"previousStatus"`
	Status         OrderStatus `json:"status"`
	Outcome        Outcome     `json:"outcome"`
	PaymentID      string      `json:"paymentId,omitempty"`
}
