package handler

import (
	"net/http"
	"strings"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/service"
	"leadbot_backend/internal/leads/transport"
	"leadbot_backend/platform/apperr"
	"leadbot_backend/platform/httpkit"
	"leadbot_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	qrSize              = 256
)

// Handler serves the chat widget, the WhatsApp webhook and the dashboard API.
type Handler struct {
	svc     *service.Service
	val     *validator.Validator
	baseURL string
}

func New(svc *service.Service, val *validator.Validator, baseURL string) *Handler {
	return &Handler{svc: svc, val: val, baseURL: strings.TrimRight(baseURL, "/")}
}

// RegisterPublicRoutes mounts the unauthenticated chat routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads", h.CreateLead)
	rg.POST("/chat/:leadId/message", h.SendMessage)
	rg.GET("/chat/:leadId", h.GetChat)
	rg.POST("/webhooks/whatsapp", h.WhatsAppWebhook)
}

// RegisterProtectedRoutes mounts the dashboard routes. overrideGuards run
// in front of the manual classification override only.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup, overrideGuards ...gin.HandlerFunc) {
	rg.GET("", h.ListLeads)
	rg.GET("/:id", h.GetLead)
	rg.POST("/:id/reclassify", h.Reclassify)
	rg.PUT("/:id/classification", append(overrideGuards, h.OverrideClassification)...)
	rg.GET("/:id/qr", h.QRCode)
}

func (h *Handler) CreateLead(c *gin.Context) {
	var req transport.CreateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, session, err := h.svc.StartConversation(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.CreateLeadResponse{
		Success:         true,
		LeadID:          lead.ID,
		Lead:            transport.ToLead(lead),
		InitialMessages: transport.ToMessages(session.Messages),
	})
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req transport.SendMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.svc.AdvanceConversation(c.Request.Context(), c.Param("leadId"), req.Message)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toTurnResponse(res))
}

func (h *Handler) GetChat(c *gin.Context) {
	session, err := h.svc.GetSession(c.Request.Context(), c.Param("leadId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.GetChatResponse{Success: true, Chat: transport.ToChat(session)})
}

// WhatsAppWebhook accepts inbound gateway messages. Messages to finished
// conversations are acknowledged and ignored so the gateway does not retry.
func (h *Handler) WhatsAppWebhook(c *gin.Context) {
	var req transport.WhatsAppInboundRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.svc.HandleInboundWhatsApp(c.Request.Context(), req)
	if apperr.Is(err, apperr.KindConflict) {
		httpkit.OK(c, gin.H{"success": true, "ignored": true})
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toTurnResponse(res))
}

func (h *Handler) ListLeads(c *gin.Context) {
	var q transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	leads, err := h.svc.ListLeads(c.Request.Context(), domain.LeadFilter{
		Classification: domain.Classification(q.Classification),
		Source:         q.Source,
		Limit:          q.Limit,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadListResponse{Success: true, Items: transport.ToLeads(leads), Total: len(leads)})
}

func (h *Handler) GetLead(c *gin.Context) {
	lead, err := h.svc.GetLead(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadEnvelope{Success: true, Lead: transport.ToLead(lead)})
}

func (h *Handler) Reclassify(c *gin.Context) {
	actor := httpkit.GetIdentity(c).Subject

	lead, queued, err := h.svc.RequestReclassify(c.Request.Context(), c.Param("id"), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	if queued {
		httpkit.JSON(c, http.StatusAccepted, transport.ReclassifyResponse{Success: true, Queued: true})
		return
	}
	resp := transport.ToLead(lead)
	httpkit.OK(c, transport.ReclassifyResponse{Success: true, Lead: &resp})
}

func (h *Handler) OverrideClassification(c *gin.Context) {
	var req transport.OverrideClassificationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	classification, _ := domain.ParseClassification(req.Classification)

	lead, err := h.svc.OverrideClassification(c.Request.Context(), c.Param("id"), classification, req.Reason, httpkit.GetIdentity(c).Subject)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadEnvelope{Success: true, Lead: transport.ToLead(lead)})
}

// QRCode renders a PNG that opens the lead's chat.
func (h *Handler) QRCode(c *gin.Context) {
	lead, err := h.svc.GetLead(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}

	png, err := qrcode.Encode(h.baseURL+"/chat/"+lead.ID, qrcode.Medium, qrSize)
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to render QR code", err))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func toTurnResponse(res service.TurnResult) transport.TurnResponse {
	resp := transport.TurnResponse{
		Success:        true,
		Messages:       transport.ToMessages(res.Session.Messages),
		BotMessages:    transport.ToMessages(res.BotMessages),
		IsComplete:     res.Session.IsComplete,
		Status:         string(res.Session.Status),
		CurrentStep:    res.Session.CurrentStep,
		Classification: transport.ToClassification(res.Classification),
	}
	if res.Outcome != nil {
		resp.ValidationResult = transport.ToValidation(*res.Outcome)
	}
	return resp
}
