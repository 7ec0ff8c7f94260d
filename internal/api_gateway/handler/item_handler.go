package handler

import (
	"log/slog"

	"github.com/crop-trade-ledger/internal/api_gateway/service"
	"github.com/gin-gonic/gin"
)

// ItemHandler handles traded commodities and their stock
type ItemHandler struct {
	registryService  service.RegistryService
	reportingService service.ReportingService
	logger           *slog.Logger
}

func NewItemHandler(logger *slog.Logger, registryService service.RegistryService, reportingService service.ReportingService) *ItemHandler {
	return &ItemHandler{
		registryService:  registryService,
		reportingService: reportingService,
		logger:           logger,
	}
}

func (h *ItemHandler) Create(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.registryService.CreateItem(c.Request.Context(), req.Name, req.Unit)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondCreated(c, item)
}

func (h *ItemHandler) List(c *gin.Context) {
	items, err := h.registryService.ListItems(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, items)
}

func (h *ItemHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "item")
	if !ok {
		return
	}

	item, err := h.registryService.GetItem(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, item)
}

// Position returns the quantity on hand and weighted average cost
func (h *ItemHandler) Position(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "item")
	if !ok {
		return
	}

	pos, err := h.reportingService.Position(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, pos)
}

// Movements lists inbound and outbound stock movements within an optional date range
func (h *ItemHandler) Movements(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "item")
	if !ok {
		return
	}
	q, ok := bindDateRange(c)
	if !ok {
		return
	}

	movements, err := h.reportingService.Movements(c.Request.Context(), id, q.From, q.To)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, movements)
}
