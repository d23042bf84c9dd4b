package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/warehouse/internal/server/http/dto"
)

// SyncHandler exposes manual retries of deferred fulfillment syncs.
type SyncHandler struct {
	facade SyncFacade
}

func NewSyncHandler(facade SyncFacade) *SyncHandler {
	return &SyncHandler{facade: facade}
}

// Retry handles POST /api/fulfillment-syncs/:id/retry.
func (h *SyncHandler) Retry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "invalid sync id")
		return
	}

	status, err := h.facade.RetryFulfillmentSync(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SyncRetryResponse{ID: id, Status: string(status)})
}
