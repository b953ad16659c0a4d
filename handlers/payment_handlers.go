package handlers

import (
	"net/http"
	"strconv"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/fadhlanhapp/egov-portal/services"
	"github.com/fadhlanhapp/egov-portal/utils"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles the citizen payment flow
type PaymentHandler struct {
	workflow *services.PaymentWorkflow
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(workflow *services.PaymentWorkflow) *PaymentHandler {
	return &PaymentHandler{workflow: workflow}
}

// subjectRef reads :kind and :id; the period comes from the query unless the body sets one
func subjectRef(c *gin.Context, period string) (models.SubjectRef, error) {
	kind := models.SubjectKind(c.Param("kind"))
	if !kind.Valid() {
		return models.SubjectRef{}, utils.NewValidationError("Unknown payment type")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return models.SubjectRef{}, utils.NewValidationError("Invalid subject id")
	}
	if period == "" {
		period = c.Query("period")
	}
	return models.SubjectRef{Kind: kind, ID: id, Period: period}, nil
}

// Summary handles GET /payments/:kind/:id/summary
func (h *PaymentHandler) Summary(c *gin.Context) {
	ref, err := subjectRef(c, "")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	summary, err := h.workflow.Summary(c.Request.Context(), currentUserID(c), ref)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.HandleSuccess(c, summary)
}

// IssueCode handles POST /payments/:kind/:id/code
func (h *PaymentHandler) IssueCode(c *gin.Context) {
	var req models.IssueCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.NewBadRequestError(utils.ErrInvalidRequest))
		return
	}
	ref, err := subjectRef(c, req.Period)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	resp, err := h.workflow.IssueCode(c.Request.Context(), currentUserID(c), ref, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.HandleCreated(c, resp)
}

// Verify handles POST /payments/:kind/:id/verify
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req models.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.NewBadRequestError(utils.ErrInvalidRequest))
		return
	}
	ref, err := subjectRef(c, req.Period)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	receipt, err := h.workflow.Verify(c.Request.Context(), currentUserID(c), ref, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.HandleSuccess(c, receipt)
}

// Cancel handles DELETE /payments/:kind/:id/code
func (h *PaymentHandler) Cancel(c *gin.Context) {
	ref, err := subjectRef(c, "")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	if err := h.workflow.Cancel(c.Request.Context(), currentUserID(c), ref); err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification cancelled"})
}

// Receipt handles GET /payments/receipts/:reference
func (h *PaymentHandler) Receipt(c *gin.Context) {
	receipt, err := h.workflow.Receipt(c.Request.Context(), currentUserID(c), c.Param("reference"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.HandleSuccess(c, receipt)
}
