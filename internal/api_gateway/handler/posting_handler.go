package handler

import (
	"context"
	"log/slog"

	"github.com/crop-trade-ledger/internal/api_gateway/service"
	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/logger"
	"github.com/crop-trade-ledger/internal/posting"
	"github.com/gin-gonic/gin"
)

// PostingHandler handles synchronous posting of business events
type PostingHandler struct {
	postingService service.PostingService
	logger         *slog.Logger
}

func NewPostingHandler(logger *slog.Logger, postingService service.PostingService) *PostingHandler {
	return &PostingHandler{
		postingService: postingService,
		logger:         logger,
	}
}

// post binds the command, runs it through the orchestrator and answers 201 with the record
func post[C any, R business.Record](h *PostingHandler, c *gin.Context, operation string, run func(context.Context, C) (R, error)) {
	log := logger.FromContext(c.Request.Context(), h.logger).With("operation", operation)

	var cmd C
	if err := c.ShouldBindJSON(&cmd); err != nil {
		log.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := run(c.Request.Context(), cmd)
	if err != nil {
		log.Warn("Posting rejected", "code", posting.ErrorCode(err), "error", err)
		RespondError(c, h.logger, err)
		return
	}

	RespondCreated(c, PostingResponse{
		TransactionRef: record.TransactionRef(),
		Record:         record,
	})
}

func (h *PostingHandler) Purchase(c *gin.Context) {
	post(h, c, "purchase", h.postingService.PostPurchase)
}

func (h *PostingHandler) Sale(c *gin.Context) {
	post(h, c, "sale", h.postingService.PostSale)
}

func (h *PostingHandler) Payment(c *gin.Context) {
	post(h, c, "payment", h.postingService.PostPayment)
}

func (h *PostingHandler) Expense(c *gin.Context) {
	post(h, c, "expense", h.postingService.PostExpense)
}

func (h *PostingHandler) Adjustment(c *gin.Context) {
	post(h, c, "adjustment", h.postingService.PostAdjustment)
}

func (h *PostingHandler) PurchaseReturn(c *gin.Context) {
	post(h, c, "purchase_return", h.postingService.PostPurchaseReturn)
}

func (h *PostingHandler) SaleReturn(c *gin.Context) {
	post(h, c, "sale_return", h.postingService.PostSaleReturn)
}

func (h *PostingHandler) ManualJournal(c *gin.Context) {
	post(h, c, "manual_journal", h.postingService.PostManualJournal)
}

// Reverse voids a posted record together with its inventory effect
func (h *PostingHandler) Reverse(c *gin.Context) {
	var cmd posting.ReversalCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.logger.Warn("Invalid request body", "operation", "reversal", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	reversal, err := h.postingService.Reverse(c.Request.Context(), cmd)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondCreated(c, reversal)
}
