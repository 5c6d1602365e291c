package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/recommerce-labs/console/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) Database {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Type:   "sqlite",
		DBName: filepath.Join(t.TempDir(), "console.db"),
	}
	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDatabase_UnsupportedType(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Type: "oracle"})
	assert.Error(t, err)
}

func TestUserCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &User{Email: "root@example.com", Name: "Root", Password: "x", Level: LevelMaster, Status: StatusActive}
	assert.NoError(t, db.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)

	got, err := db.GetUserByEmail(ctx, "root@example.com")
	assert.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got.Status = StatusSuspended
	assert.NoError(t, db.UpdateUser(ctx, got))

	byID, err := db.GetUserByID(ctx, u.ID)
	assert.NoError(t, err)
	assert.Equal(t, StatusSuspended, byID.Status)

	_, err = db.GetUserByID(ctx, "missing")
	assert.Error(t, err)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	assert.NoError(t, db.CreateUser(ctx, &User{Email: "dup@example.com", Password: "x", Level: LevelCompany, Status: StatusActive}))
	err := db.CreateUser(ctx, &User{Email: "dup@example.com", Password: "x", Level: LevelCompany, Status: StatusActive})
	assert.Error(t, err)
}

func TestListUsers_FilterAndPagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, u := range []*User{
		{Email: "a@x.com", Name: "Acme Alpha", CompanyName: "Acme", Password: "x", Level: LevelReseller, Status: StatusActive},
		{Email: "b@x.com", Name: "Beta", Password: "x", Level: LevelCompany, Status: StatusActive},
		{Email: "c@x.com", Name: "Gamma", Password: "x", Level: LevelCompany, Status: StatusSuspended},
	} {
		require.NoError(t, db.CreateUser(ctx, u))
	}

	users, err := db.ListUsers(ctx, UserFilter{Level: LevelCompany})
	assert.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = db.ListUsers(ctx, UserFilter{Search: "acme"})
	assert.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "a@x.com", users[0].Email)

	users, err = db.ListUsers(ctx, UserFilter{Status: StatusSuspended})
	assert.NoError(t, err)
	assert.Len(t, users, 1)

	count, err := db.CountUsersFiltered(ctx, UserFilter{Level: LevelCompany})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Empty non-nil id scope matches nothing
	users, err = db.ListUsers(ctx, UserFilter{IDs: []string{}})
	assert.NoError(t, err)
	assert.Len(t, users, 0)
}

func TestUpsertAssignment_LastWriteWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &User{Email: "u@x.com", Password: "x", Level: LevelCompany, Status: StatusActive}
	require.NoError(t, db.CreateUser(ctx, u))
	m := &Module{Name: "crm_basic", DisplayName: "CRM Basic", Category: CategoryCRM, Price: 29.99, IsActive: true}
	require.NoError(t, db.CreateModule(ctx, m))

	first := &ModuleAssignment{UserID: u.ID, ModuleID: m.ID, IsActive: true, AssignedBy: "admin-1"}
	require.NoError(t, db.UpsertAssignment(ctx, first))

	second := &ModuleAssignment{UserID: u.ID, ModuleID: m.ID, IsActive: false, AssignedBy: "admin-2"}
	require.NoError(t, db.UpsertAssignment(ctx, second))

	// Final state reflects only the last call, and exactly one row exists
	got, err := db.GetAssignment(ctx, u.ID, m.ID)
	assert.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "admin-2", got.AssignedBy)

	count, err := db.CountAssignments(ctx, []string{u.ID})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDashboardAggregates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := &User{Email: "a@x.com", Password: "x", Level: LevelReseller, Status: StatusActive}
	b := &User{Email: "b@x.com", Password: "x", Level: LevelCompany, Status: StatusInactive}
	require.NoError(t, db.CreateUser(ctx, a))
	require.NoError(t, db.CreateUser(ctx, b))

	require.NoError(t, db.Transaction(ctx, func(ctx context.Context) error {
		tx := TransactionFromContext(ctx)
		require.NotNil(t, tx)
		return tx.Create(&Subscription{ID: "s1", UserID: a.ID, Status: SubscriptionActive, TotalAmount: 100}).Error
	}))
	tx := TransactionFromContext(ctx)
	assert.Nil(t, tx)

	subs, err := db.ListSubscriptions(ctx, []string{a.ID})
	require.NoError(t, err)
	require.Len(t, subs, 1)

	total, err := db.SumSubscriptionTotal(ctx, nil)
	assert.NoError(t, err)
	assert.Equal(t, float64(100), total)

	total, err = db.SumSubscriptionTotal(ctx, []string{b.ID})
	assert.NoError(t, err)
	assert.Equal(t, float64(0), total)

	active, err := db.CountUsersByStatus(ctx, nil, StatusActive)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), active)

	n, err := db.CountSubscriptionsByStatus(ctx, []string{a.ID}, SubscriptionActive)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNotifications(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &User{Email: "n@x.com", Password: "x", Level: LevelCompany, Status: StatusActive}
	require.NoError(t, db.CreateUser(ctx, u))

	n := &Notification{UserID: u.ID, Title: "Welcome", Message: "hi", Type: "success", CreatedAt: time.Now()}
	require.NoError(t, db.CreateNotification(ctx, n))

	list, err := db.ListNotificationsForUser(ctx, u.ID, 50)
	assert.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsRead)

	assert.NoError(t, db.MarkNotificationRead(ctx, n.ID, u.ID))
	assert.Error(t, db.MarkNotificationRead(ctx, n.ID, "someone-else"))

	list, _ = db.ListNotificationsForUser(ctx, u.ID, 50)
	assert.True(t, list[0].IsRead)
	assert.NotNil(t, list[0].ReadAt)
}

func TestAPIRequestsAndActivity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateAPIRequest(ctx, &APIRequest{UserID: "u1", Method: "GET", Path: "/api/users", Status: 200}))
	require.NoError(t, db.CreateAPIRequest(ctx, &APIRequest{UserID: "u1", Method: "GET", Path: "/api/users", Status: 200, Timestamp: time.Now().Add(-48 * time.Hour)}))

	count, err := db.CountAPIRequestsSince(ctx, time.Now().Add(-24*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, db.CreateActivity(ctx, &UserActivity{UserID: "u1", Action: "module_assigned", Resource: "module"}))
	n, err := db.CountActivitiesSince(ctx, "u1", time.Now().Add(-time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSeed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cfg := &config.SuperAdminConfig{Email: "admin@console.local", Password: "changeme"}
	require.NoError(t, InitSuperAdmin(ctx, db, cfg))
	// Idempotent
	require.NoError(t, InitSuperAdmin(ctx, db, cfg))

	admin, err := db.GetUserByEmail(ctx, "admin@console.local")
	assert.NoError(t, err)
	assert.Equal(t, LevelMaster, admin.Level)

	require.NoError(t, InitModuleCatalog(ctx, db))
	require.NoError(t, InitModuleCatalog(ctx, db))

	modules, err := db.ListModules(ctx, "", true)
	assert.NoError(t, err)
	assert.Len(t, modules, 7)

	crm, err := db.ListModules(ctx, CategoryCRM, true)
	assert.NoError(t, err)
	assert.Len(t, crm, 2)

	for _, m := range modules {
		if m.Name == "crm_basic" {
			assert.Contains(t, m.FeatureList(), "Contact management")
		}
	}
}
