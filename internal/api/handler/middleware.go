package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/models"
)

const identityKey = "identity"

// Authenticate requires a valid bearer token and stores its identity.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			h.fail(c, apperr.Unauthorized("authorization token missing"))
			return
		}
		identity, err := h.Auth.Authenticate(token)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// Authorize lets the request through only if the caller's role may perform
// action on resource.
func (h *Handler) Authorize(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := currentIdentity(c)
		if !h.Policy.Allowed(identity.Role, resource, action) {
			h.fail(c, apperr.Forbidden("insufficient permissions", resource+":"+action))
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request.
func (h *Handler) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func currentIdentity(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(models.Identity); ok {
			return identity
		}
	}
	return models.Identity{}
}

// bearerToken reads "Authorization: Bearer <t>", falling back to the token
// query parameter that browsers use for WebSocket upgrades.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.Query("token")
}
