package handler

import (
	"log/slog"

	"github.com/crop-trade-ledger/internal/api_gateway/service"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// PostingRequestHandler handles asynchronous postings executed by the processor
type PostingRequestHandler struct {
	requestService service.PostingRequestService
	logger         *slog.Logger
}

func NewPostingRequestHandler(logger *slog.Logger, requestService service.PostingRequestService) *PostingRequestHandler {
	return &PostingRequestHandler{
		requestService: requestService,
		logger:         logger,
	}
}

// Submit queues a posting and answers 202 with the request id to poll
func (h *PostingRequestHandler) Submit(c *gin.Context) {
	var req SubmitPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	queued, err := h.requestService.Submit(c.Request.Context(), req.Type, req.Payload)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondAccepted(c, PostingAcceptedResponse{
		RequestID: queued.RequestID.String(),
		Status:    shared.PostingStatusPending,
	})
}

// Status reports COMMITTED, REJECTED or PENDING for a request id
func (h *PostingRequestHandler) Status(c *gin.Context) {
	status, err := h.requestService.Status(c.Request.Context(), c.Param("request_id"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, status)
}
