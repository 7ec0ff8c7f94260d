package handler

import (
	"log/slog"

	"github.com/crop-trade-ledger/internal/api_gateway/service"
	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/registry"
	"github.com/gin-gonic/gin"
)

// AccountHandler handles HTTP requests for the chart of accounts
type AccountHandler struct {
	registryService  service.RegistryService
	reportingService service.ReportingService
	logger           *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, registryService service.RegistryService, reportingService service.ReportingService) *AccountHandler {
	return &AccountHandler{
		registryService:  registryService,
		reportingService: reportingService,
		logger:           logger,
	}
}

// Create opens a new account, optionally with an opening balance
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.registryService.CreateAccount(c.Request.Context(), registry.CreateAccountCommand{
		Name:               req.Name,
		Category:           account.Category(req.Category),
		ParentID:           req.ParentID,
		OpeningBalance:     req.OpeningBalance,
		OpeningBalanceDate: req.OpeningBalanceDate,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondCreated(c, acc)
}

// List returns the chart of accounts, optionally filtered by ?category=
func (h *AccountHandler) List(c *gin.Context) {
	var q AccountListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid query: "+err.Error())
		return
	}

	filter := account.Filter{}
	for _, raw := range q.Categories {
		category := account.Category(raw)
		if !category.IsValid() {
			RespondBadRequest(c, "Invalid category: "+raw)
			return
		}
		filter.Categories = append(filter.Categories, category)
	}

	accounts, err := h.registryService.ListAccounts(c.Request.Context(), filter)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, accounts)
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "account")
	if !ok {
		return
	}

	acc, err := h.registryService.GetAccount(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, acc)
}

// Delete removes an account that never received a ledger entry
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "account")
	if !ok {
		return
	}

	if err := h.registryService.DeleteAccount(c.Request.Context(), id); err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondNoContent(c)
}

// Entries returns the account ledger with opening and running balances
func (h *AccountHandler) Entries(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "account")
	if !ok {
		return
	}
	q, ok := bindDateRange(c)
	if !ok {
		return
	}

	statement, err := h.reportingService.AccountLedger(c.Request.Context(), id, q.From, q.To)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, statement)
}
