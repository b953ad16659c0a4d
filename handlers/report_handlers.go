package handlers

import (
	"fmt"
	"time"

	"github.com/fadhlanhapp/egov-portal/services"
	"github.com/fadhlanhapp/egov-portal/utils"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves back-office exports
type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ExportCollections handles GET /reports/collections.xlsx?from=YYYY-MM-DD&to=YYYY-MM-DD (to is inclusive)
func (h *ReportHandler) ExportCollections(c *gin.Context) {
	from, err := time.ParseInLocation("2006-01-02", c.Query("from"), time.Local)
	if err != nil {
		utils.HandleError(c, utils.NewValidationError("from must be a YYYY-MM-DD date"))
		return
	}
	to, err := time.ParseInLocation("2006-01-02", c.Query("to"), time.Local)
	if err != nil {
		utils.HandleError(c, utils.NewValidationError("to must be a YYYY-MM-DD date"))
		return
	}

	excelFile, filename, err := h.reports.CollectionsWorkbook(c.Request.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer excelFile.Close()

	// Set headers for file download
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Content-Transfer-Encoding", "binary")

	if err := excelFile.Write(c.Writer); err != nil {
		utils.HandleError(c, utils.NewInternalError("Failed to write Excel file"))
		return
	}
}
