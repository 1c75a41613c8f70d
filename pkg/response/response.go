package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/studyhive/resource-api/pkg/errors"
)

// ErrorEnvelope is the uniform error contract: {"error": {code, message, details?, status}}.
type ErrorEnvelope struct {
	Error *appErrors.Error `json:"error"`
}

// JSON sends a success payload as-is. Success bodies are route-shaped
// ({success, resource}, {success, count, ...}) rather than a generic envelope.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, payload)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusCreated, payload)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, ErrorEnvelope{Error: appErr})
}
