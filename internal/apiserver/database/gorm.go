package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DB implements the Database interface on top of gorm
type DB struct {
	db *gorm.DB
}

// Close closes the database connection
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction executes fn within a database transaction. The transaction
// travels in the context so nested calls join it.
func (d *DB) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTransaction(ctx, tx))
	})
}

// conn resolves the handle for a query: the in-flight transaction when
// ctx carries one, the pooled connection otherwise
func (d *DB) conn(ctx context.Context) *gorm.DB {
	if tx := TransactionFromContext(ctx); tx != nil {
		return tx
	}
	return d.db.WithContext(ctx)
}

// scopeIDs restricts a query to the given id set. A nil slice means
// unscoped; an empty non-nil slice matches nothing.
func scopeIDs(q *gorm.DB, column string, ids []string) *gorm.DB {
	if ids == nil {
		return q
	}
	return q.Where(column+" IN ?", ids)
}

// CreateUser creates a new user, generating an id when absent
func (d *DB) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	return d.conn(ctx).Create(user).Error
}

// GetUserByID retrieves a user by id
func (d *DB) GetUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := d.conn(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := d.conn(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser updates an existing user
func (d *DB) UpdateUser(ctx context.Context, user *User) error {
	return d.conn(ctx).Save(user).Error
}

func applyUserFilter(q *gorm.DB, f UserFilter) *gorm.DB {
	q = scopeIDs(q, "id", f.IDs)
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company_name) LIKE ?",
			pattern, pattern, pattern)
	}
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// ListUsers returns a page of users matching the filter, newest first
func (d *DB) ListUsers(ctx context.Context, f UserFilter) ([]*User, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	var users []*User
	err := applyUserFilter(d.conn(ctx).Model(&User{}), f).
		Order("created_at desc").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&users).Error
	return users, err
}

// CountUsersFiltered counts users matching the filter, ignoring pagination
func (d *DB) CountUsersFiltered(ctx context.Context, f UserFilter) (int64, error) {
	var count int64
	err := applyUserFilter(d.conn(ctx).Model(&User{}), f).Count(&count).Error
	return count, err
}

// ListAllUsers returns the flat user table for hierarchy index building
func (d *DB) ListAllUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	err := d.conn(ctx).Find(&users).Error
	return users, err
}

// CountUsers counts users, optionally scoped to an id set
func (d *DB) CountUsers(ctx context.Context, userIDs []string) (int64, error) {
	var count int64
	err := scopeIDs(d.conn(ctx).Model(&User{}), "id", userIDs).Count(&count).Error
	return count, err
}

// CountUsersByStatus counts users with the given status
func (d *DB) CountUsersByStatus(ctx context.Context, userIDs []string, status UserStatus) (int64, error) {
	var count int64
	err := scopeIDs(d.conn(ctx).Model(&User{}), "id", userIDs).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// SumSubscriptionTotal sums subscription totals, optionally scoped to users
func (d *DB) SumSubscriptionTotal(ctx context.Context, userIDs []string) (float64, error) {
	var total *float64
	err := scopeIDs(d.conn(ctx).Model(&Subscription{}), "user_id", userIDs).
		Select("SUM(total_amount)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// CountSubscriptionsByStatus counts subscriptions with the given status
func (d *DB) CountSubscriptionsByStatus(ctx context.Context, userIDs []string, status SubscriptionStatus) (int64, error) {
	var count int64
	err := scopeIDs(d.conn(ctx).Model(&Subscription{}), "user_id", userIDs).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// CountAssignments counts module assignments, optionally scoped to users
func (d *DB) CountAssignments(ctx context.Context, userIDs []string) (int64, error) {
	var count int64
	err := scopeIDs(d.conn(ctx).Model(&ModuleAssignment{}), "user_id", userIDs).Count(&count).Error
	return count, err
}

// CountAPIRequestsSince counts API requests recorded after the given time
func (d *DB) CountAPIRequestsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := d.conn(ctx).Model(&APIRequest{}).
		Where("timestamp >= ?", since).
		Count(&count).Error
	return count, err
}

// CreateModule creates a catalog module
func (d *DB) CreateModule(ctx context.Context, module *Module) error {
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	return d.conn(ctx).Create(module).Error
}

// GetModuleByID retrieves a module by id
func (d *DB) GetModuleByID(ctx context.Context, id string) (*Module, error) {
	var module Module
	if err := d.conn(ctx).Where("id = ?", id).First(&module).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

// ListModules returns catalog modules, newest first
func (d *DB) ListModules(ctx context.Context, category ModuleCategory, activeOnly bool) ([]*Module, error) {
	q := d.conn(ctx).Model(&Module{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var modules []*Module
	err := q.Order("created_at desc").Find(&modules).Error
	return modules, err
}

// UpsertAssignment writes a module assignment with last-write-wins
// semantics on the (user_id, module_id) unique key. The conflict clause
// makes concurrent assignment requests safe at the store.
func (d *DB) UpsertAssignment(ctx context.Context, assignment *ModuleAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now()
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = now
	}
	assignment.UpdatedAt = now
	return d.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "settings", "assigned_by", "updated_at"}),
	}).Create(assignment).Error
}

// GetAssignment retrieves the assignment for a (user, module) pair
func (d *DB) GetAssignment(ctx context.Context, userID, moduleID string) (*ModuleAssignment, error) {
	var assignment ModuleAssignment
	err := d.conn(ctx).Preload("Module").
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListAssignmentsForUser returns all assignments for a user with modules loaded
func (d *DB) ListAssignmentsForUser(ctx context.Context, userID string) ([]*ModuleAssignment, error) {
	var assignments []*ModuleAssignment
	err := d.conn(ctx).Preload("Module").
		Where("user_id = ?", userID).
		Find(&assignments).Error
	return assignments, err
}

// ListAssignments returns assignments for a set of users
func (d *DB) ListAssignments(ctx context.Context, userIDs []string) ([]*ModuleAssignment, error) {
	var assignments []*ModuleAssignment
	err := scopeIDs(d.conn(ctx).Preload("Module"), "user_id", userIDs).
		Find(&assignments).Error
	return assignments, err
}

// ListSubscriptions returns subscriptions for a set of users with items loaded
func (d *DB) ListSubscriptions(ctx context.Context, userIDs []string) ([]*Subscription, error) {
	var subscriptions []*Subscription
	err := scopeIDs(d.conn(ctx).Preload("Items"), "user_id", userIDs).
		Find(&subscriptions).Error
	return subscriptions, err
}

// CreateNotification creates a single notification
func (d *DB) CreateNotification(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return d.conn(ctx).Create(n).Error
}

// CreateNotifications creates a batch of notifications
func (d *DB) CreateNotifications(ctx context.Context, ns []*Notification) error {
	if len(ns) == 0 {
		return nil
	}
	for _, n := range ns {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
	}
	return d.conn(ctx).Create(&ns).Error
}

// ListNotificationsForUser returns the latest notifications for a user
func (d *DB) ListNotificationsForUser(ctx context.Context, userID string, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifications []*Notification
	err := d.conn(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// MarkNotificationRead marks a user's notification as read
func (d *DB) MarkNotificationRead(ctx context.Context, id, userID string) error {
	now := time.Now()
	result := d.conn(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_read": true, "read_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateActivity records an audit activity
func (d *DB) CreateActivity(ctx context.Context, a *UserActivity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	return d.conn(ctx).Create(a).Error
}

// CountActivitiesSince counts a user's activities after the given time
func (d *DB) CountActivitiesSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := d.conn(ctx).Model(&UserActivity{}).
		Where("user_id = ? AND timestamp >= ?", userID, since).
		Count(&count).Error
	return count, err
}

// CreateAPIRequest records one handled HTTP request
func (d *DB) CreateAPIRequest(ctx context.Context, r *APIRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	return d.conn(ctx).Create(r).Error
}

var _ Database = (*DB)(nil)

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Module{},
		&ModuleAssignment{},
		&Subscription{},
		&SubscriptionItem{},
		&Notification{},
		&UserActivity{},
		&APIRequest{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
