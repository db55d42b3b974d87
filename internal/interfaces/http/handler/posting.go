package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	postingapp "github.com/tradecore/backoffice/internal/application/posting"
	"github.com/tradecore/backoffice/internal/domain/shared"
)

// PostingHandler handles the posting endpoints that move draft documents into
// the stock and treasury ledgers. Clients may send an Idempotency-Key header
// to make retries of the same posting safe; keys are remembered for the
// configured TTL.
type PostingHandler struct {
	BaseHandler
	posting *postingapp.Service
	store   shared.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger
}

// NewPostingHandler creates a new PostingHandler
func NewPostingHandler(posting *postingapp.Service, store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *PostingHandler {
	return &PostingHandler{
		posting: posting,
		store:   store,
		ttl:     ttl,
		logger:  logger,
	}
}

// PostingResult reports the outcome of a posting request
type PostingResult struct {
	DocumentID uuid.UUID `json:"document_id"`
	Status     string    `json:"status"`
}

// PostInvoice posts a draft invoice
func (h *PostingHandler) PostInvoice(c *gin.Context) {
	h.post(c, h.posting.PostInvoice)
}

// PostReturn posts a draft return
func (h *PostingHandler) PostReturn(c *gin.Context) {
	h.post(c, h.posting.PostReturn)
}

// PostAdjustment posts a draft stock adjustment
func (h *PostingHandler) PostAdjustment(c *gin.Context) {
	h.post(c, h.posting.PostAdjustment)
}

// PostTransfer posts a draft warehouse transfer
func (h *PostingHandler) PostTransfer(c *gin.Context) {
	h.post(c, h.posting.PostTransfer)
}

func (h *PostingHandler) post(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) error) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid document ID")
		return
	}

	ctx := c.Request.Context()
	key := c.GetHeader("Idempotency-Key")
	if key != "" {
		processed, err := h.store.IsProcessed(ctx, key)
		if err != nil {
			h.logger.Warn("idempotency lookup failed, posting without guard",
				zap.String("key", key), zap.Error(err))
		} else if processed {
			h.Success(c, PostingResult{DocumentID: id, Status: "already_processed"})
			return
		}
	}

	if err := fn(ctx, id); err != nil {
		h.HandleError(c, err)
		return
	}

	if key != "" {
		if _, err := h.store.MarkProcessed(ctx, key, h.ttl); err != nil {
			h.logger.Warn("failed to record idempotency key",
				zap.String("key", key), zap.Error(err))
		}
	}

	h.Success(c, PostingResult{DocumentID: id, Status: "posted"})
}
