package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/crop-trade-ledger/internal/api_gateway/service"
	"github.com/gin-gonic/gin"
)

// JournalHandler serves the projected journal history
type JournalHandler struct {
	journalService service.JournalService
	logger         *slog.Logger
}

func NewJournalHandler(logger *slog.Logger, journalService service.JournalService) *JournalHandler {
	return &JournalHandler{
		journalService: journalService,
		logger:         logger,
	}
}

// GetByRef returns one journal; 404 until the outbox poller has projected it
func (h *JournalHandler) GetByRef(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("ref"))
	if ref == "" {
		RespondBadRequest(c, "Invalid transaction reference")
		return
	}

	event, err := h.journalService.GetJournal(c.Request.Context(), ref)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, event)
}

// GetByAccountID retrieves paginated journal history for an account
func (h *JournalHandler) GetByAccountID(c *gin.Context) {
	accountID, ok := parseIDParam(c, "id", "account")
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Warn("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	events, total, err := h.journalService.GetJournalsByAccountID(c.Request.Context(), accountID, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, events, pagination.Page, pagination.PerPage, int(total))
}
