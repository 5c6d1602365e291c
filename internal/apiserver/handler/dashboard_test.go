package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/recommerce-labs/console/internal/apiserver/database"
	"github.com/recommerce-labs/console/internal/common/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSubscription(t *testing.T, db database.Database, id, userID string, amount float64) {
	t.Helper()
	require.NoError(t, db.Transaction(context.Background(), func(ctx context.Context) error {
		return database.TransactionFromContext(ctx).Create(&database.Subscription{
			ID:          id,
			UserID:      userID,
			Status:      database.SubscriptionActive,
			TotalAmount: amount,
		}).Error
	}))
}

func dashboardMetrics(t *testing.T, env *testEnv, as *database.User) dto.DashboardMetrics {
	t.Helper()
	w := env.do(t, http.MethodGet, "/api/dashboard", as, nil)
	mustStatus(t, w, http.StatusOK)
	var body struct {
		Metrics dto.DashboardMetrics `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Metrics
}

func TestDashboard_MasterGlobal(t *testing.T) {
	env := newTestEnv(t)
	master, _, reseller, company := env.seedHierarchy(t)
	stranger := env.seedUser(t, "stranger", "stranger@example.com", database.LevelCompany, nil)

	seedSubscription(t, env.db, "s1", reseller.ID, 100)
	seedSubscription(t, env.db, "s2", company.ID, 50)
	seedSubscription(t, env.db, "s3", stranger.ID, 25)

	m := dashboardMetrics(t, env, master)
	assert.Equal(t, int64(5), m.TotalUsers)
	assert.Equal(t, int64(5), m.ActiveUsers)
	assert.InDelta(t, 175, m.TotalRevenue, 0.001)
	assert.Equal(t, int64(3), m.ActiveSubscriptions)
}

func TestDashboard_ScopedToTwoLevels(t *testing.T) {
	env := newTestEnv(t)
	_, super, reseller, company := env.seedHierarchy(t)
	stranger := env.seedUser(t, "stranger", "stranger@example.com", database.LevelCompany, nil)

	seedSubscription(t, env.db, "s1", super.ID, 10)
	seedSubscription(t, env.db, "s2", reseller.ID, 20)
	// company is a grandchild of super, inside the two-level scope
	seedSubscription(t, env.db, "s3", company.ID, 40)
	seedSubscription(t, env.db, "s4", stranger.ID, 80)

	m := dashboardMetrics(t, env, super)
	assert.Equal(t, int64(3), m.TotalUsers)
	assert.InDelta(t, 70, m.TotalRevenue, 0.001)
	assert.Equal(t, int64(3), m.ActiveSubscriptions)
}

func TestDashboard_ApiCallsMasterOnly(t *testing.T) {
	env := newTestEnv(t)
	master, super, _, _ := env.seedHierarchy(t)

	require.NoError(t, env.db.CreateAPIRequest(context.Background(), &database.APIRequest{
		Method: "GET", Path: "/api/users", Status: 200, Timestamp: time.Now(),
	}))

	m := dashboardMetrics(t, env, master)
	assert.Equal(t, int64(1), m.ApiCalls24h)

	m = dashboardMetrics(t, env, super)
	assert.Zero(t, m.ApiCalls24h)
}
