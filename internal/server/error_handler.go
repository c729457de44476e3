// file: internal/server/error_handler.go
// version: 1.2.0
// guid: 7e8f9a0b-1c2d-4e3f-4a5b-6c7d8e9f0a1b

package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse provides a consistent error response format
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Status int    `json:"status"`
}

// SuccessResponse provides a consistent success response format
type SuccessResponse struct {
	Data any `json:"data,omitempty"`
}

// RespondWithError sends a standardized error response and logs the error
func RespondWithError(c *gin.Context, statusCode int, message string, code string) {
	logErrorWithContext(c, statusCode, message)

	c.JSON(statusCode, ErrorResponse{
		Error:  message,
		Code:   code,
		Status: statusCode,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error response
func RespondWithBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, message, "BAD_REQUEST")
}

// RespondWithNotFound sends a 404 Not Found error response
func RespondWithNotFound(c *gin.Context, resourceType string, id string) {
	message := resourceType + " not found"
	if id != "" {
		message = message + ": " + id
	}
	RespondWithError(c, http.StatusNotFound, message, "NOT_FOUND")
}

// RespondWithInternalError sends a 500 Internal Server Error response
func RespondWithInternalError(c *gin.Context, message string) {
	RespondWithError(c, http.StatusInternalServerError, message, "INTERNAL_ERROR")
}

// RespondWithSuccess sends a successful response with data
func RespondWithSuccess(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, SuccessResponse{Data: data})
}

// RespondWithOK sends a 200 OK response
func RespondWithOK(c *gin.Context, data any) {
	RespondWithSuccess(c, http.StatusOK, data)
}

// RespondWithCreated sends a 201 Created response
func RespondWithCreated(c *gin.Context, data any) {
	RespondWithSuccess(c, http.StatusCreated, data)
}

// HandleBindError handles JSON binding errors with a consistent response
func HandleBindError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	RespondWithBadRequest(c, "invalid request: "+err.Error())
	return true
}

// logErrorWithContext logs an error with request context for debugging
func logErrorWithContext(c *gin.Context, statusCode int, message string) {
	logLevel := "WARNING"
	if statusCode >= 500 {
		logLevel = "ERROR"
	}
	log.Printf("[%s] %s %s %d - %s (from %s)",
		logLevel, c.Request.Method, c.Request.URL.Path, statusCode, message, c.ClientIP())
}
