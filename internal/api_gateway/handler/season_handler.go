package handler

import (
	"log/slog"

	"github.com/crop-trade-ledger/internal/api_gateway/service"
	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/crop-trade-ledger/internal/registry"
	"github.com/gin-gonic/gin"
)

// SeasonHandler handles trading seasons
type SeasonHandler struct {
	registryService service.RegistryService
	logger          *slog.Logger
}

func NewSeasonHandler(logger *slog.Logger, registryService service.RegistryService) *SeasonHandler {
	return &SeasonHandler{
		registryService: registryService,
		logger:          logger,
	}
}

func (h *SeasonHandler) bind(c *gin.Context) (registry.SeasonCommand, bool) {
	var req SeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return registry.SeasonCommand{}, false
	}
	return registry.SeasonCommand{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    season.Status(req.Status),
	}, true
}

func (h *SeasonHandler) Create(c *gin.Context) {
	cmd, ok := h.bind(c)
	if !ok {
		return
	}

	sn, err := h.registryService.CreateSeason(c.Request.Context(), cmd)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondCreated(c, sn)
}

func (h *SeasonHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "season")
	if !ok {
		return
	}
	cmd, ok := h.bind(c)
	if !ok {
		return
	}

	sn, err := h.registryService.UpdateSeason(c.Request.Context(), id, cmd)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, sn)
}

func (h *SeasonHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "season")
	if !ok {
		return
	}

	if err := h.registryService.DeleteSeason(c.Request.Context(), id); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}

func (h *SeasonHandler) List(c *gin.Context) {
	seasons, err := h.registryService.ListSeasons(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, seasons)
}

func (h *SeasonHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "season")
	if !ok {
		return
	}

	sn, err := h.registryService.GetSeason(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, sn)
}

// Active answers 404 UNKNOWN_SEASON when no season is ACTIVE
func (h *SeasonHandler) Active(c *gin.Context) {
	sn, err := h.registryService.ActiveSeason(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, sn)
}
