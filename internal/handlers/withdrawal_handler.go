package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"referral-service/internal/services"
	"referral-service/pkg/common"
)

type WithdrawalHandler struct {
	Withdrawal *services.WithdrawalService
}

func NewWithdrawalHandler(withdrawal *services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{Withdrawal: withdrawal}
}

type WithdrawalRequestBody struct {
	OwnerId int                      `json:"owner_id" binding:"required"`
	Amount  int64                    `json:"amount" binding:"required"`
	Payout  services.PayoutMethodDTO `json:"payout" binding:"required"`
}

// RequestWithdrawal debits the balance and records the pending request. An
// insufficient balance leaves no record behind.
func (h *WithdrawalHandler) RequestWithdrawal(c *gin.Context) {
	var req WithdrawalRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	wr, err := h.Withdrawal.RequestWithdrawal(req.OwnerId, req.Amount, req.Payout)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(wr, "Withdrawal requested"))
}

// ListOwnerWithdrawals returns the owner's requests, optionally pending only.
func (h *WithdrawalHandler) ListOwnerWithdrawals(c *gin.Context) {
	ownerId, err := strconv.Atoi(c.Query("owner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid owner_id", nil, http.StatusBadRequest))
		return
	}

	withdrawals, err := h.Withdrawal.FetchOwnerWithdrawals(services.FetchWithdrawalsDTO{
		OwnerId: ownerId,
		Pending: c.Query("pending") == "true",
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(withdrawals, "Withdrawals fetched"))
}

// ListWithdrawalRequests is the admin approval queue.
func (h *WithdrawalHandler) ListWithdrawalRequests(c *gin.Context) {
	ownerId, _ := strconv.Atoi(c.Query("owner_id"))
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.Withdrawal.ListWithdrawalRequests(services.ListWithdrawalRequestsDTO{
		From:    c.Query("from"),
		To:      c.Query("to"),
		Status:  c.Query("status"),
		OwnerId: ownerId,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Confirm settles a pending withdrawal. Idempotent.
func (h *WithdrawalHandler) Confirm(c *gin.Context) {
	if err := h.Withdrawal.Confirm(c.Param("id"), c.GetHeader("X-User-Id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Withdrawal confirmed"))
}

// Reject cancels a pending withdrawal and restores the balance. Idempotent.
func (h *WithdrawalHandler) Reject(c *gin.Context) {
	if err := h.Withdrawal.Reject(c.Param("id"), c.GetHeader("X-User-Id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Withdrawal rejected"))
}
