// Package exports serves CSV downloads of lead data for the sales dashboard.
package exports

import (
	apphttp "leadbot_backend/internal/http"
	"leadbot_backend/platform/validator"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the exports module.
func NewModule(leads LeadLister, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(leads, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/exports")
	group.GET("/leads.csv", m.handler.ExportLeadsCSV)
}

var _ apphttp.Module = (*Module)(nil)
