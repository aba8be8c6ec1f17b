// Package handlers contains the HTTP handlers for the payment service.
package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/service"
)

const maxNotificationBytes = 1 << 20

// SessionCreator opens provider checkout sessions.
type SessionCreator interface {
	CreateSession(ctx context.Context, req domain.PaymentSessionRequest) (*domain.PaymentSessionResult, error)
}

// NotificationReconciler applies provider notifications to orders.
type NotificationReconciler interface {
	Reconcile(ctx context.Context, n service.Notification) (*domain.ReconciliationOutcome, error)
}

// Pinger is implemented by stores that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	sessions   SessionCreator
	reconciler NotificationReconciler
	providers  []string
	publicURL  string
	pinger     Pinger
	now        func() time.Time
}

// PaymentDeps lists what PaymentHandler needs. Pinger may be nil.
type PaymentDeps struct {
	Sessions   SessionCreator
	Reconciler NotificationReconciler
	Providers  []string
	PublicURL  string
	Pinger     Pinger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(deps PaymentDeps) *PaymentHandler {
	return &PaymentHandler{
		sessions:   deps.Sessions,
		reconciler: deps.Reconciler,
		providers:  deps.Providers,
		publicURL:  strings.TrimRight(deps.PublicURL, "/"),
		pinger:     deps.Pinger,
		now:        time.Now,
	}
}

// NotifyResponse is the acknowledgement returned to providers.
type NotifyResponse struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	OrderID   string             `json:"orderId,omitempty"`
	Status    domain.OrderStatus `json:"status,omitempty"`
	Code      string             `json:"code,omitempty"`
	Timestamp string             `json:"timestamp"`
}

// CreatePayment handles POST /payment/create
// Opens a checkout session and returns where to send the payer.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req domain.PaymentSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, domain.PaymentSessionResult{
			Success: false,
			Error:   "invalid request body",
			Code:    "VALIDATION_ERROR",
		})
		return
	}
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()
	if req.NotifyURL == "" && h.publicURL != "" {
		req.NotifyURL = h.publicURL + "/payment/notify"
		if p := strings.ToLower(strings.TrimSpace(req.Provider)); p != "" {
			req.NotifyURL += "/" + p
		}
	}

	result, err := h.sessions.CreateSession(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		he := mapError(err)
		c.JSON(he.Status, domain.PaymentSessionResult{
			Success: false,
			Error:   he.Message,
			Code:    he.Code,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Notify handles POST /payment/notify and POST /payment/notify/:provider
// Every understood notification is acknowledged with 200, including duplicates
// and unknown statuses. Store failures answer 5xx so the provider retries.
func (h *PaymentHandler) Notify(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxNotificationBytes))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, h.notifyError("notification body could not be read", "UNREADABLE_BODY"))
		return
	}

	outcome, err := h.reconciler.Reconcile(c.Request.Context(), service.Notification{
		Provider: c.Param("provider"),
		Body:     body,
		Header:   c.Request.Header,
	})
	if err != nil {
		_ = c.Error(err)
		he := mapError(err)
		c.JSON(he.Status, h.notifyError(he.Message, he.Code))
		return
	}

	c.JSON(http.StatusOK, NotifyResponse{
		Success:   true,
		Message:   outcomeMessage(outcome.Outcome),
		OrderID:   outcome.OrderID,
		Status:    outcome.Status,
		Timestamp: h.timestamp(),
	})
}

// NotifyProbe handles GET /payment/notify
// Providers and uptime checks probe the callback URL before using it.
func (h *PaymentHandler) NotifyProbe(c *gin.Context) {
	c.JSON(http.StatusOK, NotifyResponse{
		Success:   true,
		Message:   "payment notification endpoint is up",
		Timestamp: h.timestamp(),
	})
}

// Health handles GET /health
func (h *PaymentHandler) Health(c *gin.Context) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "degraded",
				"service": "casino-payments",
				"store":   "unavailable",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "casino-payments",
		"providers": h.providers,
	})
}

func (h *PaymentHandler) notifyError(message, code string) NotifyResponse {
	return NotifyResponse{
		Success:   false,
		Message:   message,
		Code:      code,
		Timestamp: h.timestamp(),
	}
}

func (h *PaymentHandler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}

func outcomeMessage(o domain.Outcome) string {
	switch o {
	case domain.OutcomeApplied:
		return "order updated"
	case domain.OutcomeDuplicate, domain.OutcomeTerminalNoop:
		return "notification already processed"
	case domain.OutcomeRejected:
		return "status change ignored"
	case domain.OutcomeUnknownStatus:
		return "status not recognized, order unchanged"
	case domain.OutcomeAmountMismatch:
		return "paid amount does not match order total, order unchanged"
	}
	return "notification received"
}
