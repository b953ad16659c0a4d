package routes

import (
	"github.com/fadhlanhapp/egov-portal/config"
	"github.com/fadhlanhapp/egov-portal/handlers"
	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler the router serves
type Handlers struct {
	Payments    *handlers.PaymentHandler
	Documents   *handlers.DocumentHandler
	Assessments *handlers.AssessmentHandler
	Reports     *handlers.ReportHandler
	DB          handlers.Pinger
}

// SetupRoutes configures all API routes for the application
func SetupRoutes(router *gin.Engine, auth config.AuthConfig, h Handlers) {
	router.GET("/health", handlers.Health(h.DB))

	v1 := router.Group("/api/v1")
	v1.Use(handlers.AuthMiddleware(auth))
	{
		// Citizen payment flow
		payments := v1.Group("/payments")
		payments.GET("/receipts/:reference", h.Payments.Receipt)
		payments.GET("/:kind/:id/summary", h.Payments.Summary)
		payments.POST("/:kind/:id/code", h.Payments.IssueCode)
		payments.DELETE("/:kind/:id/code", h.Payments.Cancel)
		payments.POST("/:kind/:id/verify", h.Payments.Verify)

		// Signed documents
		v1.POST("/applications/:id/documents", h.Documents.Upload)
		v1.GET("/applications/:id/documents", h.Documents.List)

		// Back office
		office := v1.Group("", handlers.RequireRole(handlers.RoleAdmin, handlers.RoleAssessor))
		office.GET("/business/assessments", h.Assessments.List)
		office.POST("/business/assessments", h.Assessments.Save)
		office.POST("/business/assessments/mark-paid", h.Assessments.MarkPaid)
		office.GET("/reports/collections.xlsx", h.Reports.ExportCollections)
	}
}
