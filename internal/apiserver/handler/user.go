package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/recommerce-labs/console/internal/apiserver/database"
	"github.com/recommerce-labs/console/internal/apiserver/hierarchy"
	"github.com/recommerce-labs/console/internal/apiserver/policy"
	"github.com/recommerce-labs/console/internal/common/dto"
	"github.com/recommerce-labs/console/internal/common/errorx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ListUsers returns a page of users. Non-master callers only ever see
// their own subtree regardless of the filters they pass.
func (h *Handler) ListUsers(c *gin.Context) {
	actor, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	filter := database.UserFilter{
		Search: c.Query("search"),
		Level:  database.UserLevel(c.Query("level")),
		Status: database.UserStatus(c.Query("status")),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", defaultPageLimit),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > maxPageLimit {
		filter.Limit = defaultPageLimit
	}

	if actor.Level != database.LevelMaster {
		tree, err := h.loadTree(c)
		if err != nil {
			h.errs.HandleError(c, err)
			return
		}
		filter.IDs = tree.Descendants(actor.ID)
	}

	users, err := h.db.ListUsers(c.Request.Context(), filter)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	total, err := h.db.CountUsersFiltered(c.Request.Context(), filter)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"pagination": dto.NewPagination(filter.Page, filter.Limit, total),
	})
}

// CreateUser creates an account below the caller in the hierarchy
func (h *Handler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.HandleError(c, errorx.Validation(err.Error()))
		return
	}

	actor, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	level := database.UserLevel(req.Level)
	if !policy.CanManageUser(actor.Level, &database.User{Level: level}) {
		h.errs.HandleError(c, errorx.Forbidden())
		return
	}

	parent := actor
	if req.ParentID != "" && req.ParentID != actor.ID {
		parent, err = h.db.GetUserByID(c.Request.Context(), req.ParentID)
		if err != nil {
			h.errs.HandleError(c, errorx.Validation("parent does not exist"))
			return
		}
		if actor.Level != database.LevelMaster {
			tree, err := h.loadTree(c)
			if err != nil {
				h.errs.HandleError(c, err)
				return
			}
			if !tree.InSubtree(actor.ID, parent.ID) {
				h.errs.HandleError(c, errorx.Forbidden())
				return
			}
		}
	}
	if !policy.ValidParent(parent.Level, level) {
		h.errs.HandleError(c, errorx.Validation("parent must outrank the new user"))
		return
	}

	if existing, _ := h.db.GetUserByEmail(c.Request.Context(), req.Email); existing != nil {
		h.errs.HandleError(c, errorx.Conflict("email already registered"))
		return
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	user := &database.User{
		Email:       req.Email,
		Name:        req.Name,
		Password:    hashed,
		Level:       level,
		Status:      database.StatusActive,
		ParentID:    &parent.ID,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
		Website:     req.Website,
	}

	err = h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		if err := h.db.CreateUser(ctx, user); err != nil {
			return err
		}
		return h.db.CreateNotification(ctx, &database.Notification{
			UserID:  user.ID,
			Title:   "Welcome aboard",
			Message: "Your account has been created by " + actor.Name,
			Type:    "info",
		})
	})
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	h.recordActivity(c, actor.ID, "user_created", "users")
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// UpdateUserStatus transitions a user's lifecycle status
func (h *Handler) UpdateUserStatus(c *gin.Context) {
	var req dto.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.HandleError(c, errorx.Validation(err.Error()))
		return
	}

	actor, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	target, err := h.db.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.errs.HandleError(c, h.targetLookupError(actor))
		return
	}
	if !policy.CanManageUser(actor.Level, target) {
		h.errs.HandleError(c, errorx.Forbidden())
		return
	}
	if target.ID == actor.ID {
		h.errs.HandleError(c, errorx.Validation("cannot change your own status"))
		return
	}

	target.Status = database.UserStatus(req.Status)
	if err := h.db.UpdateUser(c.Request.Context(), target); err != nil {
		h.errs.HandleError(c, err)
		return
	}

	h.recordActivity(c, actor.ID, "user_status_changed", "users")
	h.logger.Info("user status changed",
		zap.String("actor_id", actor.ID),
		zap.String("target_id", target.ID),
		zap.String("status", req.Status))
	c.JSON(http.StatusOK, gin.H{"user": target})
}

// Hierarchy renders the caller's subtree with per-node metrics. Masters
// get the whole forest, one node per top-level user.
func (h *Handler) Hierarchy(c *gin.Context) {
	actor, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	all, err := h.db.ListAllUsers(c.Request.Context())
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	tree := hierarchy.NewTree(all)

	var scope []string
	if actor.Level != database.LevelMaster {
		scope = tree.Descendants(actor.ID)
	}
	subs, err := h.db.ListSubscriptions(c.Request.Context(), scope)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	assigns, err := h.db.ListAssignments(c.Request.Context(), scope)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	subsByUser := hierarchy.GroupSubscriptionsByUser(subs)
	assignsByUser := hierarchy.GroupAssignmentsByUser(assigns)

	var roots []*hierarchy.Node
	if actor.Level == database.LevelMaster {
		for _, u := range all {
			if u.ParentID == nil {
				if node := tree.BuildNode(u.ID, subsByUser, assignsByUser); node != nil {
					roots = append(roots, node)
				}
			}
		}
	} else if node := tree.BuildNode(actor.ID, subsByUser, assignsByUser); node != nil {
		roots = append(roots, node)
	}

	c.JSON(http.StatusOK, gin.H{"tree": roots})
}

// targetLookupError hides target existence from callers who could not
// have acted on it anyway
func (h *Handler) targetLookupError(actor *database.User) error {
	if actor.Level == database.LevelMaster {
		return errorx.NotFound("user")
	}
	return errorx.Forbidden()
}

// loadTree builds the hierarchy index from a full user scan
func (h *Handler) loadTree(c *gin.Context) (*hierarchy.Tree, error) {
	all, err := h.db.ListAllUsers(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return hierarchy.NewTree(all), nil
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
