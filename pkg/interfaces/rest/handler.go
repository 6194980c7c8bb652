// Package rest exposes the warehouse operations over HTTP.
package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quayside/stockflow/pkg/application/services"
	"github.com/quayside/stockflow/pkg/stockflow"
)

// Handler adapts the warehouse service to gin
type Handler struct {
	svc    *services.WarehouseService
	logger *zap.Logger
}

// NewHandler creates a REST handler
func NewHandler(svc *services.WarehouseService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

type splitRequest struct {
	Quantity         decimal.Decimal `json:"quantity" binding:"required"`
	TargetLocationID string          `json:"target_location_id" binding:"required"`
	Disposition      string          `json:"disposition" binding:"required"`
	PalletID         string          `json:"pallet_id"`
}

type putawayRequest struct {
	ReceiptLineID string         `json:"receipt_line_id" binding:"required"`
	Splits        []splitRequest `json:"splits" binding:"required"`
	Actor         string         `json:"actor"`
}

type outcomeResponse struct {
	Ref   string `json:"ref"`
	Error string `json:"error,omitempty"`
}

func outcomes(in []stockflow.Outcome) []outcomeResponse {
	out := make([]outcomeResponse, 0, len(in))
	for _, o := range in {
		resp := outcomeResponse{Ref: o.Ref}
		if o.Err != nil {
			resp.Error = o.Err.Error()
		}
		out = append(out, resp)
	}
	return out
}

// Putaway handles POST /putaway
func (h *Handler) Putaway(c *gin.Context) {
	var req putawayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	splits := make([]stockflow.Split, 0, len(req.Splits))
	for _, s := range req.Splits {
		splits = append(splits, stockflow.Split{
			Quantity:         s.Quantity,
			TargetLocationID: s.TargetLocationID,
			Disposition:      stockflow.Disposition(s.Disposition),
			PalletID:         s.PalletID,
		})
	}

	result, err := h.svc.Putaway(c.Request.Context(), req.ReceiptLineID, splits, req.Actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"receipt_line_id": result.ReceiptLineID,
		"pallet_ids":      result.PalletIDs,
		"all_ok":          result.AllOK(),
		"outcomes":        outcomes(result.Outcomes),
	})
}

type allocateRequest struct {
	DemandLineID string          `json:"demand_line_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	Actor        string          `json:"actor"`
}

// Allocate handles POST /allocate
func (h *Handler) Allocate(c *gin.Context) {
	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Allocate(c.Request.Context(), req.DemandLineID, req.Quantity, req.Actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"demand_line_id":     result.DemandLineID,
		"allocated_quantity": result.AllocatedQuantity,
		"shortage":           result.Shortage,
		"outcomes":           outcomes(result.Outcomes),
	})
}

type confirmationRequest struct {
	AllocationID   string          `json:"allocation_id" binding:"required"`
	QuantityPicked decimal.Decimal `json:"quantity_picked" binding:"required"`
}

type confirmPicksRequest struct {
	DemandHeaderID string                `json:"demand_header_id" binding:"required"`
	Confirmations  []confirmationRequest `json:"confirmations" binding:"required"`
	Actor          string                `json:"actor"`
}

// ConfirmPicks handles POST /picks/confirm
func (h *Handler) ConfirmPicks(c *gin.Context) {
	var req confirmPicksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	confirmations := make([]stockflow.PickConfirmation, 0, len(req.Confirmations))
	for _, conf := range req.Confirmations {
		confirmations = append(confirmations, stockflow.PickConfirmation{
			AllocationID:   conf.AllocationID,
			QuantityPicked: conf.QuantityPicked,
		})
	}

	result, err := h.svc.ConfirmPicks(c.Request.Context(), req.DemandHeaderID, confirmations, req.Actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"demand_header_id": result.DemandHeaderID,
		"picked_count":     result.PickedCount,
		"outcomes":         outcomes(result.Outcomes),
	})
}

type shipRequest struct {
	DemandHeaderID string `json:"demand_header_id" binding:"required"`
	Actor          string `json:"actor"`
}

// Ship handles POST /ship
func (h *Handler) Ship(c *gin.Context) {
	var req shipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Ship(c.Request.Context(), req.DemandHeaderID, req.Actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"demand_header_id": result.DemandHeaderID,
		"deductions":       result.Deductions,
		"all_ok":           result.AllOK(),
		"outcomes":         outcomes(result.Outcomes),
	})
}

type adjustRequest struct {
	StockUnitID string          `json:"stock_unit_id" binding:"required"`
	Delta       decimal.Decimal `json:"delta" binding:"required"`
	Actor       string          `json:"actor"`
}

// Adjust handles POST /adjust
func (h *Handler) Adjust(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.Adjust(c.Request.Context(), req.StockUnitID, req.Delta, req.Actor); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock_unit_id": req.StockUnitID})
}

// Rollup handles GET /items/:id/rollup
func (h *Handler) Rollup(c *gin.Context) {
	rollup, err := h.svc.Rollup(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rollup)
}

// Health handles GET /healthz
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail maps the engine error taxonomy onto HTTP status codes
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, stockflow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, stockflow.ErrQuantityMismatch), errors.Is(err, stockflow.ErrInsufficientQuantity):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, stockflow.ErrInvalidStateTransition):
		status = http.StatusConflict
	case errors.Is(err, stockflow.ErrNoStagingLocation):
		status = http.StatusConflict
	case errors.Is(err, stockflow.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
