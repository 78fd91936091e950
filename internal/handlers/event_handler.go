package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"referral-service/internal/consumers"
	"referral-service/internal/worker"
	"referral-service/pkg/common"
)

// EventHandler is the asynchronous intake for collaborator events. Callers
// that only need fire-and-forget semantics (the registration flow, the
// role-upgrade flow, payment webhooks) post here and the worker applies the
// event; callers needing a synchronous answer use the direct endpoints.
type EventHandler struct {
	Client *asynq.Client
}

func NewEventHandler(client *asynq.Client) *EventHandler {
	return &EventHandler{Client: client}
}

func (h *EventHandler) RoleGranted(c *gin.Context) {
	var payload consumers.RoleGrantedDTO
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	task, err := worker.NewRoleGrantedTask(payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
		return
	}
	h.enqueue(c, task)
}

func (h *EventHandler) Signup(c *gin.Context) {
	var payload consumers.SignupDTO
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	task, err := worker.NewSignupTask(payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
		return
	}
	h.enqueue(c, task)
}

func (h *EventHandler) PaymentEvent(c *gin.Context) {
	// Submitted/rejected events carry no body; only approval has an amount.
	var payload consumers.PaymentEventDTO
	if err := c.ShouldBindJSON(&payload); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	payload.EntryId = c.Param("entryId")

	var task *asynq.Task
	var err error
	switch c.Param("event") {
	case "submitted":
		task, err = worker.NewPaymentSubmittedTask(payload)
	case "approved":
		task, err = worker.NewPaymentApprovedTask(payload)
	case "rejected":
		task, err = worker.NewPaymentRejectedTask(payload)
	default:
		c.JSON(http.StatusNotFound, common.NewErrorResponse("Unknown payment event", nil, http.StatusNotFound))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
		return
	}
	h.enqueue(c, task)
}

func (h *EventHandler) enqueue(c *gin.Context, task *asynq.Task) {
	info, err := h.Client.Enqueue(task)
	if err != nil {
		log.Printf("Failed to enqueue %s: %v", task.Type(), err)
		c.JSON(http.StatusServiceUnavailable, common.NewErrorResponse("Failed to enqueue event", nil, http.StatusServiceUnavailable))
		return
	}
	c.JSON(http.StatusAccepted, common.NewSuccessResponse(gin.H{"task_id": info.ID}, "Event queued"))
}
