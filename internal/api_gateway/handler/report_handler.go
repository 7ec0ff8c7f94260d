package handler

import (
	"log/slog"
	"strings"
	"time"

	"github.com/crop-trade-ledger/internal/api_gateway/service"
	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves financial statements, ledger lookups and the audit trail
type ReportHandler struct {
	reportingService service.ReportingService
	logger           *slog.Logger
}

func NewReportHandler(logger *slog.Logger, reportingService service.ReportingService) *ReportHandler {
	return &ReportHandler{
		reportingService: reportingService,
		logger:           logger,
	}
}

func (h *ReportHandler) TrialBalance(c *gin.Context) {
	var q AsOfQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid as_of date: "+err.Error())
		return
	}

	report, err := h.reportingService.TrialBalance(c.Request.Context(), q.AsOf)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, report)
}

func (h *ReportHandler) BalanceSheet(c *gin.Context) {
	var q AsOfQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid as_of date: "+err.Error())
		return
	}

	report, err := h.reportingService.BalanceSheet(c.Request.Context(), q.AsOf)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, report)
}

// IncomeStatement covers from..to inclusive; a missing to means today
func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	q, ok := bindDateRange(c)
	if !ok {
		return
	}

	var to time.Time
	if q.To != nil {
		to = *q.To
	}

	report, err := h.reportingService.IncomeStatement(c.Request.Context(), q.From, to)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, report)
}

func (h *ReportHandler) CashFlow(c *gin.Context) {
	q, ok := bindDateRange(c)
	if !ok {
		return
	}

	report, err := h.reportingService.CashFlow(c.Request.Context(), q.From, q.To)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, report)
}

func (h *ReportHandler) InventoryValuation(c *gin.Context) {
	report, err := h.reportingService.InventoryValuation(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, report)
}

// LedgerEntries returns every entry of one transaction ref, voided ones included
func (h *ReportHandler) LedgerEntries(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("ref"))
	if ref == "" {
		RespondBadRequest(c, "Invalid transaction reference")
		return
	}

	entries, err := h.reportingService.EntriesForRef(c.Request.Context(), ref)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, entries)
}

// AuditTrail lists audit rows newest first, filtered by entity and record id
func (h *ReportHandler) AuditTrail(c *gin.Context) {
	var q AuditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid query: "+err.Error())
		return
	}

	records, err := h.reportingService.AuditTrail(c.Request.Context(), audit.Filter{
		Entity:   q.Entity,
		RecordID: q.RecordID,
		Limit:    q.PerPage,
		Offset:   q.Offset(),
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, records)
}

func (h *ReportHandler) SeasonPerformance(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "season")
	if !ok {
		return
	}

	report, err := h.reportingService.SeasonPerformance(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, report)
}

// ItemMargins covers every sale unless season_id narrows it to one season
func (h *ReportHandler) ItemMargins(c *gin.Context) {
	var q SeasonQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid season_id: "+err.Error())
		return
	}

	report, err := h.reportingService.ItemMargins(c.Request.Context(), q.SeasonID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, report)
}
