package handler

import (
	"log/slog"

	"github.com/crop-trade-ledger/internal/api_gateway/service"
	"github.com/crop-trade-ledger/internal/registry"
	"github.com/gin-gonic/gin"
)

// ContactHandler handles suppliers and customers
type ContactHandler struct {
	registryService  service.RegistryService
	reportingService service.ReportingService
	logger           *slog.Logger
}

func NewContactHandler(logger *slog.Logger, registryService service.RegistryService, reportingService service.ReportingService) *ContactHandler {
	return &ContactHandler{
		registryService:  registryService,
		reportingService: reportingService,
		logger:           logger,
	}
}

func (h *ContactHandler) Create(c *gin.Context) {
	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ct, err := h.registryService.CreateContact(c.Request.Context(), registry.CreateContactCommand{
		Name:       req.Name,
		Phone:      req.Phone,
		IsSupplier: req.IsSupplier,
		IsCustomer: req.IsCustomer,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondCreated(c, ct)
}

func (h *ContactHandler) List(c *gin.Context) {
	contacts, err := h.registryService.ListContacts(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, contacts)
}

func (h *ContactHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "contact")
	if !ok {
		return
	}

	ct, err := h.registryService.GetContact(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, ct)
}

// Statement lists purchases, sales, payments and returns for the contact with a running balance
func (h *ContactHandler) Statement(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "contact")
	if !ok {
		return
	}
	q, ok := bindDateRange(c)
	if !ok {
		return
	}

	statement, err := h.reportingService.ContactStatement(c.Request.Context(), id, q.From, q.To)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, statement)
}
