package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"referral-service/internal/services"
	"referral-service/pkg/common"
)

type BalanceHandler struct {
	Balance *services.BalanceService
	Audit   *services.AuditService
}

func NewBalanceHandler(balance *services.BalanceService, audit *services.AuditService) *BalanceHandler {
	return &BalanceHandler{Balance: balance, Audit: audit}
}

// GetBalance returns the owner's commission balance. Owners without a balance
// row yet read as all zeros.
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	ownerId, err := strconv.Atoi(c.Param("ownerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid owner id", nil, http.StatusBadRequest))
		return
	}

	bal, err := h.Balance.GetBalance(ownerId)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(bal, "Balance fetched"))
}

// ListEvents returns the owner's commission journal for dashboard rendering.
func (h *BalanceHandler) ListEvents(c *gin.Context) {
	ownerId, err := strconv.Atoi(c.Param("ownerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid owner id", nil, http.StatusBadRequest))
		return
	}

	events, err := h.Balance.ListEvents(ownerId)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(events, "Events fetched"))
}

// Reconcile runs the conservation audit on demand (admin).
func (h *BalanceHandler) Reconcile(c *gin.Context) {
	drift, err := h.Audit.Reconcile()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"clean": len(drift) == 0,
		"drift": drift,
	}, "Reconciliation complete"))
}
