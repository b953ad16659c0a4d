package utils

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Machine-readable error codes returned alongside every error message
const (
	CodeValidation        = "validation_error"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeExpired           = "code_expired"
	CodeInvalid           = "code_invalid"
	CodeAttemptsExhausted = "attempts_exhausted"
	CodeRateLimited       = "rate_limited"
	CodeTransient         = "transient_error"
	CodeInternal          = "internal_error"
)

// AppError represents a custom application error
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error constructors
func NewValidationError(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeValidation, Message: message}
}

func NewBadRequestError(message string) *AppError {
	return NewValidationError(message)
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

// NewNotFoundError is also used for resources owned by someone else
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Status:  http.StatusNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeConflict, Message: message}
}

// NewCodeError builds one of the verification failures (expired, invalid, exhausted)
func NewCodeError(code, message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: code, Message: message}
}

func NewRateLimitedError(message string) *AppError {
	return &AppError{Status: http.StatusTooManyRequests, Code: CodeRateLimited, Message: message}
}

// NewTransientError wraps a failure the caller may retry; the transaction was rolled back
func NewTransientError(message string, err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: CodeTransient, Message: message, Err: err}
}

func NewInternalError(message string) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: message}
}

// IsCode reports whether err is an AppError carrying code
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// HandleError sends an appropriate HTTP response for an error
func HandleError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			log.Printf("[%s %s] %v", c.Request.Method, c.FullPath(), err)
		}
		c.AbortWithStatusJSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}

	// Default to internal server error
	log.Printf("[%s %s] unexpected error: %v", c.Request.Method, c.FullPath(), err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": CodeInternal})
}

// HandleSuccess sends a success response
func HandleSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// HandleCreated sends a 201 response
func HandleCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}
