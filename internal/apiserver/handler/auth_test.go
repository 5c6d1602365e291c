package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/recommerce-labs/console/internal/apiserver/database"
	"github.com/recommerce-labs/console/internal/common/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/signup", nil, dto.SignupRequest{
		Email:       "new@example.com",
		Password:    "password123",
		Name:        "New Co",
		CompanyName: "New Co Ltd",
	})
	mustStatus(t, w, http.StatusCreated)

	body := decodeBody(t, w)
	assert.NotEmpty(t, body["token"])

	created, err := env.db.GetUserByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, database.LevelCompany, created.Level)
	assert.Nil(t, created.ParentID)
	assert.NotEqual(t, "password123", created.Password)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "taken@example.com", database.LevelCompany, nil)

	w := env.do(t, http.MethodPost, "/api/auth/signup", nil, dto.SignupRequest{
		Email:    "taken@example.com",
		Password: "password123",
		Name:     "Dup",
	})
	mustStatus(t, w, http.StatusConflict)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "u1", "login@example.com", database.LevelReseller, nil)

	w := env.do(t, http.MethodPost, "/api/auth/login", nil, dto.LoginRequest{
		Email:    "login@example.com",
		Password: "password123",
	})
	mustStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["token"])

	// login timestamp is recorded
	reloaded, err := env.db.GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastLoginAt)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "login@example.com", database.LevelReseller, nil)

	w := env.do(t, http.MethodPost, "/api/auth/login", nil, dto.LoginRequest{
		Email:    "login@example.com",
		Password: "wrong-password",
	})
	mustStatus(t, w, http.StatusUnauthorized)
}

func TestLogin_SuspendedAccount(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "u1", "susp@example.com", database.LevelReseller, nil)
	u.Status = database.StatusSuspended
	require.NoError(t, env.db.UpdateUser(context.Background(), u))

	w := env.do(t, http.MethodPost, "/api/auth/login", nil, dto.LoginRequest{
		Email:    "susp@example.com",
		Password: "password123",
	})
	mustStatus(t, w, http.StatusUnauthorized)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "u1", "me@example.com", database.LevelSuper, nil)

	w := env.do(t, http.MethodGet, "/api/auth/me", u, nil)
	mustStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "me@example.com")
	// password hash never leaves the server
	assert.NotContains(t, w.Body.String(), "password")
}

func TestMe_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/auth/me", nil, nil)
	mustStatus(t, w, http.StatusUnauthorized)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "u1", "cp@example.com", database.LevelReseller, nil)

	w := env.do(t, http.MethodPost, "/api/auth/change-password", u, dto.ChangePasswordRequest{
		OldPassword: "password123",
		NewPassword: "newpassword456",
	})
	mustStatus(t, w, http.StatusOK)

	// old password no longer works
	w = env.do(t, http.MethodPost, "/api/auth/login", nil, dto.LoginRequest{
		Email:    "cp@example.com",
		Password: "password123",
	})
	mustStatus(t, w, http.StatusUnauthorized)

	w = env.do(t, http.MethodPost, "/api/auth/login", nil, dto.LoginRequest{
		Email:    "cp@example.com",
		Password: "newpassword456",
	})
	mustStatus(t, w, http.StatusOK)
}

func TestChangePassword_WrongOld(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "u1", "cp@example.com", database.LevelReseller, nil)

	w := env.do(t, http.MethodPost, "/api/auth/change-password", u, dto.ChangePasswordRequest{
		OldPassword: "not-the-password",
		NewPassword: "newpassword456",
	})
	mustStatus(t, w, http.StatusUnauthorized)
}
