package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/recommerce-labs/console/internal/apiserver/database"
	"github.com/recommerce-labs/console/internal/apiserver/policy"
	"github.com/recommerce-labs/console/internal/common/dto"
	"github.com/recommerce-labs/console/internal/common/errorx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var validCategories = map[database.ModuleCategory]bool{
	database.CategoryCRM:          true,
	database.CategoryAnalytics:    true,
	database.CategoryEcommerce:    true,
	database.CategoryMarketing:    true,
	database.CategoryFinance:      true,
	database.CategoryIntegrations: true,
	database.CategoryAITools:      true,
	database.CategoryCustom:       true,
}

// ListModules returns the module catalog. activeOnly=true narrows to
// purchasable modules; includeAssignments=true also returns the caller's
// own assignment rows.
func (h *Handler) ListModules(c *gin.Context) {
	actor, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	category := database.ModuleCategory(c.Query("category"))
	activeOnly := c.Query("activeOnly") == "true"

	modules, err := h.db.ListModules(c.Request.Context(), category, activeOnly)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	resp := gin.H{"modules": modules}
	if c.Query("includeAssignments") == "true" {
		assignments, err := h.db.ListAssignmentsForUser(c.Request.Context(), actor.ID)
		if err != nil {
			h.errs.HandleError(c, err)
			return
		}
		resp["assignments"] = assignments
	}
	c.JSON(http.StatusOK, resp)
}

// CreateModule adds a module to the shared catalog. Master only.
func (h *Handler) CreateModule(c *gin.Context) {
	var req dto.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.HandleError(c, errorx.Validation(err.Error()))
		return
	}

	actor, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	if actor.Level != database.LevelMaster {
		h.errs.HandleError(c, errorx.Forbidden())
		return
	}
	if !validCategories[database.ModuleCategory(req.Category)] {
		h.errs.HandleError(c, errorx.Validation("unknown module category"))
		return
	}

	features := "[]"
	if len(req.Features) > 0 {
		raw, err := json.Marshal(req.Features)
		if err != nil {
			h.errs.HandleError(c, err)
			return
		}
		features = string(raw)
	}

	module := &database.Module{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Category:    database.ModuleCategory(req.Category),
		Version:     req.Version,
		Price:       req.Price,
		IsActive:    true,
		Features:    features,
	}
	if err := h.db.CreateModule(c.Request.Context(), module); err != nil {
		h.errs.HandleError(c, errorx.Conflict("module name already exists"))
		return
	}

	h.recordActivity(c, actor.ID, "module_created", "modules")
	c.JSON(http.StatusCreated, gin.H{"module": module})
}

// AssignModule activates or deactivates a module for a user. The write
// is an upsert, so repeating an assignment updates the existing row
// instead of failing. The assignment, the notification to the target
// and the audit row commit together.
func (h *Handler) AssignModule(c *gin.Context) {
	var req dto.AssignModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.HandleError(c, errorx.Validation(err.Error()))
		return
	}

	actor, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	target, err := h.db.GetUserByID(c.Request.Context(), req.UserID)
	if err != nil {
		h.errs.HandleError(c, h.targetLookupError(actor))
		return
	}
	if !policy.CanAssignModule(actor.Level, actor.ID, target) {
		h.errs.HandleError(c, errorx.Forbidden())
		return
	}

	module, err := h.db.GetModuleByID(c.Request.Context(), req.ModuleID)
	if err != nil {
		h.errs.HandleError(c, errorx.NotFound("module"))
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	if isActive && !module.IsActive {
		h.errs.HandleError(c, errorx.Validation("module is not available"))
		return
	}

	assignment := &database.ModuleAssignment{
		UserID:     target.ID,
		ModuleID:   module.ID,
		IsActive:   isActive,
		Settings:   req.Settings,
		AssignedBy: actor.ID,
	}

	title := "Module activated"
	message := module.DisplayName + " has been activated on your account"
	if !isActive {
		title = "Module deactivated"
		message = module.DisplayName + " has been deactivated on your account"
	}

	err = h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		if err := h.db.UpsertAssignment(ctx, assignment); err != nil {
			return err
		}
		return h.db.CreateNotification(ctx, &database.Notification{
			UserID:  target.ID,
			Title:   title,
			Message: message,
			Type:    "info",
		})
	})
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	h.recordActivity(c, actor.ID, "module_assigned", "modules")
	h.logger.Info("module assignment updated",
		zap.String("actor_id", actor.ID),
		zap.String("target_id", target.ID),
		zap.String("module", module.Name),
		zap.Bool("is_active", isActive))
	c.JSON(http.StatusOK, gin.H{"assignment": assignment})
}
