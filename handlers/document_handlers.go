package handlers

import (
	"strconv"

	"github.com/fadhlanhapp/egov-portal/services"
	"github.com/fadhlanhapp/egov-portal/utils"
	"github.com/gin-gonic/gin"
)

// DocumentHandler handles signed document uploads
type DocumentHandler struct {
	documents *services.DocumentService
}

func NewDocumentHandler(documents *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func applicationID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, utils.NewValidationError("Invalid application id")
	}
	return id, nil
}

// Upload handles POST /applications/:id/documents (multipart: upload_type, document_file)
func (h *DocumentHandler) Upload(c *gin.Context) {
	appID, err := applicationID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	fileHeader, err := c.FormFile("document_file")
	if err != nil {
		utils.HandleError(c, utils.NewValidationError("document_file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.HandleError(c, utils.NewValidationError("Failed to read uploaded file"))
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(c.Request.Context(), currentUserID(c), appID,
		c.PostForm("upload_type"), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.HandleCreated(c, doc)
}

// List handles GET /applications/:id/documents
func (h *DocumentHandler) List(c *gin.Context) {
	appID, err := applicationID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	status, err := h.documents.List(c.Request.Context(), currentUserID(c), appID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.HandleSuccess(c, status)
}
