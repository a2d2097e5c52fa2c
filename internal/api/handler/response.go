package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"servicepulse/backend/internal/apperr"
)

type APIResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Message string     `json:"message,omitempty"`
}

type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// fail writes err as an error envelope. Untyped errors become 500 and their
// text is logged, not returned.
func (h *Handler) fail(c *gin.Context, err error) {
	appErr, typed := apperr.As(err)
	if !typed {
		h.log.Error("unhandled error", "path", c.FullPath(), "error", err)
		appErr = apperr.Internal("internal server error")
	}
	if appErr.Code >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(appErr.Code, APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Type:    string(appErr.Type),
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}

// bind decodes the JSON body into v, reporting a validation error on failure.
func (h *Handler) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.fail(c, apperr.Validation("invalid request body", err.Error()))
		return false
	}
	return true
}
