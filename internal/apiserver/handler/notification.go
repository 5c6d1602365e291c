package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/recommerce-labs/console/internal/apiserver/database"
	"github.com/recommerce-labs/console/internal/apiserver/policy"
	"github.com/recommerce-labs/console/internal/common/dto"
	"github.com/recommerce-labs/console/internal/common/errorx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const notificationPageSize = 50

// ListNotifications returns the caller's most recent notifications
func (h *Handler) ListNotifications(c *gin.Context) {
	actor, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	ns, err := h.db.ListNotificationsForUser(c.Request.Context(), actor.ID, notificationPageSize)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": ns})
}

// CreateNotification sends a notification to the named targets. A master
// caller that names no targets broadcasts to every active user.
func (h *Handler) CreateNotification(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.HandleError(c, errorx.Validation(err.Error()))
		return
	}
	if req.Type == "" {
		req.Type = "info"
	}

	actor, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	var targetIDs []string
	if len(req.TargetUsers) == 0 {
		if actor.Level != database.LevelMaster {
			h.errs.HandleError(c, errorx.Validation("targetUsers is required"))
			return
		}
		active, err := h.db.ListUsers(c.Request.Context(), database.UserFilter{
			Status: database.StatusActive,
			Page:   1,
			Limit:  maxBroadcastSize,
		})
		if err != nil {
			h.errs.HandleError(c, err)
			return
		}
		for _, u := range active {
			targetIDs = append(targetIDs, u.ID)
		}
	} else {
		for _, id := range req.TargetUsers {
			target, err := h.db.GetUserByID(c.Request.Context(), id)
			if err != nil {
				h.errs.HandleError(c, h.targetLookupError(actor))
				return
			}
			if !policy.CanManageUser(actor.Level, target) {
				h.errs.HandleError(c, errorx.Forbidden())
				return
			}
			targetIDs = append(targetIDs, target.ID)
		}
	}

	ns := make([]*database.Notification, 0, len(targetIDs))
	for _, id := range targetIDs {
		ns = append(ns, &database.Notification{
			UserID:    id,
			Title:     req.Title,
			Message:   req.Message,
			Type:      req.Type,
			ActionURL: req.ActionURL,
		})
	}

	err = h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		return h.db.CreateNotifications(ctx, ns)
	})
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	h.recordActivity(c, actor.ID, "notification_sent", "notifications")
	h.logger.Info("notifications created",
		zap.String("actor_id", actor.ID),
		zap.Int("recipients", len(ns)))
	c.JSON(http.StatusCreated, gin.H{"sent": len(ns)})
}

// MarkNotificationRead marks one of the caller's notifications as read.
// The lookup is scoped to the caller, so other users' notification ids
// read as not found.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	actor, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	err = h.db.MarkNotificationRead(c.Request.Context(), c.Param("id"), actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.errs.HandleError(c, errorx.NotFound("notification"))
			return
		}
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// maxBroadcastSize caps a master broadcast to keep the insert bounded
const maxBroadcastSize = 10000
