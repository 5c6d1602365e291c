package handler

import (
	"net/http"
	"time"

	"github.com/recommerce-labs/console/internal/apiserver/database"
	"github.com/recommerce-labs/console/internal/common/dto"
	"github.com/recommerce-labs/console/internal/common/errorx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Signup handles self-service registration. Self-registered accounts are
// COMPANY level with no parent.
func (h *Handler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.HandleError(c, errorx.Validation(err.Error()))
		return
	}

	if existing, _ := h.db.GetUserByEmail(c.Request.Context(), req.Email); existing != nil {
		h.errs.HandleError(c, errorx.Conflict("email already registered"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	user := &database.User{
		Email:       req.Email,
		Name:        req.Name,
		Password:    string(hashed),
		Level:       database.LevelCompany,
		Status:      database.StatusActive,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
		Website:     req.Website,
	}
	if err := h.db.CreateUser(c.Request.Context(), user); err != nil {
		h.errs.HandleError(c, err)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Email, string(user.Level))
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	h.logger.Info("user signed up", zap.String("user_id", user.ID))
	c.JSON(http.StatusCreated, dto.LoginResponse{Token: token, User: userInfo(user)})
}

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.HandleError(c, errorx.Validation(err.Error()))
		return
	}

	user, err := h.db.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.errs.HandleError(c, errorx.Unauthorized("invalid email or password"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		h.errs.HandleError(c, errorx.Unauthorized("invalid email or password"))
		return
	}
	if user.Status != database.StatusActive {
		h.errs.HandleError(c, errorx.Unauthorized("account is not active"))
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Email, string(user.Level))
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		h.logger.Warn("failed to record login time", zap.String("user_id", user.ID), zap.Error(err))
	}
	h.recordActivity(c, user.ID, "login", "auth")

	c.JSON(http.StatusOK, dto.LoginResponse{Token: token, User: userInfo(user)})
}

// Me returns the authenticated user's profile
func (h *Handler) Me(c *gin.Context) {
	user, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePassword handles password change requests
func (h *Handler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.HandleError(c, errorx.Validation(err.Error()))
		return
	}

	user, err := h.actor(c)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		h.errs.HandleError(c, errorx.Unauthorized("invalid old password"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	user.Password = string(hashed)
	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		h.errs.HandleError(c, err)
		return
	}

	h.recordActivity(c, user.ID, "password_changed", "auth")
	c.JSON(http.StatusOK, dto.ChangePasswordResponse{Success: true})
}

// recordActivity writes an audit row; failures are logged, never surfaced
func (h *Handler) recordActivity(c *gin.Context, userID, action, resource string) {
	a := &database.UserActivity{
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Timestamp: time.Now(),
	}
	if err := h.db.CreateActivity(c.Request.Context(), a); err != nil {
		h.logger.Warn("failed to record activity",
			zap.String("user_id", userID),
			zap.String("action", action),
			zap.Error(err))
	}
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func userInfo(u *database.User) dto.UserInfo {
	return dto.UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Level:       string(u.Level),
		Status:      string(u.Status),
		CompanyName: u.CompanyName,
	}
}
