// Package http holds the gin wiring shared by the lead-facing and dashboard
// modules.
package http

import (
	"leadbot_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module mounts one bounded context's routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what the router hands each module.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1 without middleware beyond the global chain.
	V1 *gin.RouterGroup
	// Public is rate limited per client IP and carries the chat and
	// WhatsApp routes.
	Public *gin.RouterGroup
	// Protected requires a dashboard bearer token.
	Protected      *gin.RouterGroup
	Config         config.JWTConfig
	AuthMiddleware gin.HandlerFunc
}
