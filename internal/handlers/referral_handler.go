package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"referral-service/internal/services"
	"referral-service/pkg/common"
)

type ReferralHandler struct {
	Code     *services.CodeService
	Referral *services.ReferralService
}

func NewReferralHandler(code *services.CodeService, referral *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{Code: code, Referral: referral}
}

type IssueCodeRequest struct {
	OwnerId     int    `json:"owner_id" binding:"required"`
	OwnerRole   string `json:"owner_role" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
}

// IssueCode handles the role-granted hook. Safe to call on every dashboard
// load: an existing code is returned unchanged.
func (h *ReferralHandler) IssueCode(c *gin.Context) {
	var req IssueCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	code, err := h.Code.IssueCode(services.IssueCodeDTO{
		OwnerId:      req.OwnerId,
		OwnerRole:    req.OwnerRole,
		DisplayName:  req.DisplayName,
		ActorId:      actorId(c),
		ActorIsAdmin: actorIsAdmin(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(code, "Referral code active"))
}

// LookupCode resolves a code entered during signup to its owner.
func (h *ReferralHandler) LookupCode(c *gin.Context) {
	rec, err := h.Referral.LookupOwnerByCode(c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"code":       rec.Code,
		"owner_id":   rec.OwnerId,
		"owner_role": rec.OwnerRole,
	}, "Code resolved"))
}

func (h *ReferralHandler) GetAccount(c *gin.Context) {
	ownerId, err := strconv.Atoi(c.Param("ownerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid owner id", nil, http.StatusBadRequest))
		return
	}

	acct, err := h.Referral.GetAccount(ownerId)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(acct, "Account fetched"))
}

func (h *ReferralHandler) ListTrackingEntries(c *gin.Context) {
	ownerId, err := strconv.Atoi(c.Query("owner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid owner_id", nil, http.StatusBadRequest))
		return
	}

	entries, err := h.Referral.ListTrackingEntries(ownerId)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(entries, "Tracking entries fetched"))
}

type RegistrationRequest struct {
	ReferrerId     int    `json:"referrer_id" binding:"required"`
	ReferredUserId int    `json:"referred_user_id" binding:"required"`
	Code           string `json:"code" binding:"required"`
}

// RecordRegistration handles the signup-with-code hook from the registration
// collaborator.
func (h *ReferralHandler) RecordRegistration(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	entry, err := h.Referral.RecordRegistration(req.ReferrerId, req.ReferredUserId, req.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(entry, "Registration recorded"))
}

// PaymentSubmitted handles the payment-proof notification. Duplicate delivery
// is a no-op.
func (h *ReferralHandler) PaymentSubmitted(c *gin.Context) {
	if err := h.Referral.MarkPaymentSubmitted(c.Param("entryId")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Payment submission recorded"))
}

type ApprovePaymentRequest struct {
	// Amount overrides the rate fixed on the referral code. Zero means use the
	// configured rate.
	Amount int64 `json:"amount"`
}

// PaymentApproved finalizes a conversion and credits the referrer.
func (h *ReferralHandler) PaymentApproved(c *gin.Context) {
	entryId := c.Param("entryId")

	var req ApprovePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	amount := req.Amount
	if amount == 0 {
		var err error
		amount, err = h.Referral.CommissionForEntry(entryId)
		if err != nil {
			respondServiceError(c, err)
			return
		}
	}

	if err := h.Referral.ApproveConversion(entryId, amount); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Conversion approved"))
}

func (h *ReferralHandler) PaymentRejected(c *gin.Context) {
	if err := h.Referral.RejectConversion(c.Param("entryId")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Conversion rejected"))
}

// Caller identity comes from the gateway's auth headers; this service trusts
// the perimeter, matching the rest of the platform.
func actorId(c *gin.Context) int {
	id, _ := strconv.Atoi(c.GetHeader("X-User-Id"))
	return id
}

func actorIsAdmin(c *gin.Context) bool {
	return c.GetHeader("X-User-Role") == "admin"
}
