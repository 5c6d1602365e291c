// Package handler contains the HTTP handlers of the admin console API.
package handler

import (
	"github.com/recommerce-labs/console/internal/apiserver/database"
	"github.com/recommerce-labs/console/internal/apiserver/upsell"
	"github.com/recommerce-labs/console/internal/auth/jwt"
	"github.com/recommerce-labs/console/internal/common/errorx"
	"github.com/recommerce-labs/console/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler carries the shared dependencies of every route handler
type Handler struct {
	db         database.Database
	jwtService *jwt.Service
	upsell     *upsell.Service
	metrics    *metrics.Metrics
	errs       *errorx.ErrorHandler
	logger     *zap.Logger
}

// NewHandler creates the API handler
func NewHandler(db database.Database, jwtService *jwt.Service, upsellSvc *upsell.Service, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		db:         db,
		jwtService: jwtService,
		upsell:     upsellSvc,
		metrics:    m,
		errs:       errorx.NewErrorHandler(logger),
		logger:     logger.Named("handler"),
	}
}

// actor loads the authenticated user for the current request
func (h *Handler) actor(c *gin.Context) (*database.User, error) {
	claims := claimsFrom(c)
	if claims == nil {
		return nil, errorx.Unauthorized("missing credentials")
	}
	user, err := h.db.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, errorx.Unauthorized("unknown user")
	}
	return user, nil
}

func claimsFrom(c *gin.Context) *jwt.Claims {
	v, ok := c.Get("claims")
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}
