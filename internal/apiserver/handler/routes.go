package handler

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the API surface. auth guards everything except
// signup and login.
func (h *Handler) RegisterRoutes(r gin.IRouter, auth gin.HandlerFunc) {
	r.POST("/api/auth/signup", h.Signup)
	r.POST("/api/auth/login", h.Login)

	api := r.Group("/api", auth)
	api.GET("/auth/me", h.Me)
	api.POST("/auth/change-password", h.ChangePassword)

	api.GET("/users", h.ListUsers)
	api.POST("/users", h.CreateUser)
	api.PUT("/users/:id/status", h.UpdateUserStatus)
	api.GET("/users/hierarchy", h.Hierarchy)

	api.GET("/modules", h.ListModules)
	api.POST("/modules", h.CreateModule)
	api.POST("/modules/assign", h.AssignModule)

	api.GET("/dashboard", h.Dashboard)

	api.GET("/notifications", h.ListNotifications)
	api.POST("/notifications", h.CreateNotification)
	api.PUT("/notifications/:id/read", h.MarkNotificationRead)

	api.POST("/upselling/recommendations", h.Recommendations)
}
