package handlers

import (
	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/fadhlanhapp/egov-portal/services"
	"github.com/fadhlanhapp/egov-portal/utils"
	"github.com/gin-gonic/gin"
)

// AssessmentHandler handles the business tax back office
type AssessmentHandler struct {
	assessments *services.AssessmentService
}

func NewAssessmentHandler(assessments *services.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// List handles GET /business/assessments
func (h *AssessmentHandler) List(c *gin.Context) {
	var filter models.AssessmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.HandleError(c, utils.NewBadRequestError(utils.ErrInvalidRequest))
		return
	}

	page, err := h.assessments.List(c.Request.Context(), filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.HandleSuccess(c, page)
}

// Save handles POST /business/assessments
func (h *AssessmentHandler) Save(c *gin.Context) {
	var req models.SaveAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.NewBadRequestError(utils.ErrInvalidRequest+": "+err.Error()))
		return
	}

	assessment, err := h.assessments.Save(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.HandleSuccess(c, assessment)
}

// MarkPaid handles POST /business/assessments/mark-paid
func (h *AssessmentHandler) MarkPaid(c *gin.Context) {
	var req models.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.NewBadRequestError(utils.ErrInvalidRequest+": "+err.Error()))
		return
	}

	assessment, err := h.assessments.MarkPaid(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.HandleSuccess(c, assessment)
}
