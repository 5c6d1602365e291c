package handler

import (
	"net/http"
	"time"

	"github.com/recommerce-labs/console/internal/apiserver/database"
	"github.com/recommerce-labs/console/internal/common/dto"

	"github.com/gin-gonic/gin"
)

// dashboardDepth scopes non-master dashboards to self + children +
// grandchildren
const dashboardDepth = 2

// Dashboard returns the aggregate metrics block. Masters see global
// figures including the 24h API call count; everyone else sees their
// two-level subtree and a zero call count, since request rows are not
// attributed per subtree.
func (h *Handler) Dashboard(c *gin.Context) {
	actor, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	var scope []string
	if actor.Level != database.LevelMaster {
		tree, err := h.loadTree(c)
		if err != nil {
			h.errs.HandleError(c, err)
			return
		}
		scope = tree.DescendantsDepth(actor.ID, dashboardDepth)
	}

	ctx := c.Request.Context()
	var m dto.DashboardMetrics

	if m.TotalUsers, err = h.db.CountUsers(ctx, scope); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	if m.ActiveUsers, err = h.db.CountUsersByStatus(ctx, scope, database.StatusActive); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	if m.TotalRevenue, err = h.db.SumSubscriptionTotal(ctx, scope); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	if m.ActiveSubscriptions, err = h.db.CountSubscriptionsByStatus(ctx, scope, database.SubscriptionActive); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	if m.ModuleAssignments, err = h.db.CountAssignments(ctx, scope); err != nil {
		h.errs.HandleError(c, err)
		return
	}
	if actor.Level == database.LevelMaster {
		if m.ApiCalls24h, err = h.db.CountAPIRequestsSince(ctx, time.Now().Add(-24*time.Hour)); err != nil {
			h.errs.HandleError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"metrics": m})
}
