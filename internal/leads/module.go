// Package leads provides the lead-qualification bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"leadbot_backend/internal/businessprofile"
	"leadbot_backend/internal/events"
	apphttp "leadbot_backend/internal/http"
	"leadbot_backend/internal/leads/conversation"
	"leadbot_backend/internal/leads/handler"
	"leadbot_backend/internal/leads/ports"
	"leadbot_backend/internal/leads/service"
	"leadbot_backend/platform/config"
	"leadbot_backend/platform/httpkit"
	"leadbot_backend/platform/logger"
	"leadbot_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the conversation engine, service and handlers. The
// Business Script in profile is shared read-only by every session.
func NewModule(
	store ports.Store,
	locker ports.TurnLocker,
	classifier ports.Classifier,
	profile businessprofile.Profile,
	eventBus events.Bus,
	val *validator.Validator,
	cfg config.ConversationConfig,
	log *logger.Logger,
	opts ...service.Option,
) *Module {
	engine := conversation.NewEngine(profile.Script, classifier)

	opts = append([]service.Option{service.WithPhoneRegion(cfg.GetPhoneDefaultRegion())}, opts...)
	svc := service.New(store, engine, locker, eventBus, log, opts...)

	return &Module{
		handler: handler.New(svc, val, cfg.GetAppBaseURL()),
		service: svc,
	}
}

// OverrideRole is the token role allowed to set a classification by hand.
const OverrideRole = "manager"

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the conversation service for the scheduler worker and CLI.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the public chat routes and the protected dashboard
// routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPublicRoutes(ctx.Public)
	m.handler.RegisterProtectedRoutes(ctx.Protected.Group("/leads"), httpkit.RequireRole(OverrideRole))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
