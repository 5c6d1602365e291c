package handler

import (
	"net/http"
	"time"

	"github.com/recommerce-labs/console/internal/apiserver/policy"
	"github.com/recommerce-labs/console/internal/common/errorx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type recommendationsRequest struct {
	UserID string `json:"userId"`
}

// Recommendations returns upsell suggestions. The body may name a target
// user; by default the caller gets suggestions for themselves. A failed
// AI call degrades to the static fallback instead of erroring.
func (h *Handler) Recommendations(c *gin.Context) {
	var req recommendationsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.errs.HandleError(c, errorx.Validation(err.Error()))
			return
		}
	}

	actor, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	target := actor
	if req.UserID != "" && req.UserID != actor.ID {
		target, err = h.db.GetUserByID(c.Request.Context(), req.UserID)
		if err != nil {
			h.errs.HandleError(c, h.targetLookupError(actor))
			return
		}
		if !policy.CanManageUser(actor.Level, target) {
			h.errs.HandleError(c, errorx.Forbidden())
			return
		}
	}

	start := time.Now()
	result, err := h.upsell.Recommend(c.Request.Context(), target)
	if err != nil {
		h.metrics.AIReqDone("error", start)
		h.errs.HandleError(c, err)
		return
	}

	h.recordActivity(c, actor.ID, "upsell_recommendations", "upselling")
	if result.Fallback {
		h.metrics.AIReqDone("fallback", start)
		h.metrics.AIFallback()
		h.logger.Info("served fallback recommendations",
			zap.String("target_id", target.ID))
	} else {
		h.metrics.AIReqDone("ok", start)
	}
	c.JSON(http.StatusOK, result)
}
