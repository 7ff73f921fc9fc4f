// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"leadbot_backend/internal/events"
	"leadbot_backend/platform/config"
	"leadbot_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthInfo describes the active Business Script on the health endpoint.
type HealthInfo struct {
	Industry       string
	QuestionsCount int
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and JWT settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks (store ping). May be nil.
	Health HealthChecker
	// Info is reported by GET /api/health.
	Info HealthInfo
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
