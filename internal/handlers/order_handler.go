package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/ledger"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/ports"
)

// OrderBuilder prices a week of selections into a draft order.
type OrderBuilder interface {
	BuildOrder(userID string, userType domain.UserType, weekStart string, selections []ledger.Selection) (*domain.Order, *ledger.Summary, error)
}

// OrderHandler serves the order endpoints used by the ordering backend and
// support tooling.
type OrderHandler struct {
	builder OrderBuilder
	store   ports.OrderStore
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(builder OrderBuilder, store ports.OrderStore) *OrderHandler {
	return &OrderHandler{builder: builder, store: store}
}

type createOrderRequest struct {
	UserID     string             `json:"userId" binding:"required"`
	UserType   domain.UserType    `json:"userType" binding:"required"`
	WeekStart  string             `json:"weekStart" binding:"required"`
	Selections []ledger.Selection `json:"selections" binding:"required,dive"`
}

type orderResponse struct {
	Success bool            `json:"success"`
	Order   *domain.Order   `json:"order,omitempty"`
	Summary *ledger.Summary `json:"summary,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// CreateOrder handles POST /orders
// Prices the selections and stores a draft order whose total the checkout
// must charge.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, orderResponse{
			Error: "Invalid request: userId, userType, weekStart and selections are required",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	order, summary, err := h.builder.BuildOrder(req.UserID, req.UserType, req.WeekStart, req.Selections)
	if err == nil {
		err = h.store.Create(c.Request.Context(), order)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	stored, err := h.store.GetByID(c.Request.Context(), order.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderResponse{Success: true, Order: stored, Summary: summary})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse{Success: true, Order: order})
}

func (h *OrderHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	he := mapError(err)
	c.JSON(he.Status, orderResponse{Error: he.Message, Code: he.Code})
}
