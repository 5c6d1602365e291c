package database

import (
	"context"
	"time"
)

// UserFilter narrows ListUsers/CountUsers queries. A nil IDs slice means
// no hierarchy scoping; an empty non-nil slice matches nothing.
type UserFilter struct {
	IDs    []string
	Search string
	Level  UserLevel
	Status UserStatus
	Page   int
	Limit  int
}

// Database defines the persistence operations of the console
type Database interface {
	// Close closes the database connection.
	Close() error

	// Transaction runs fn inside a transaction carried through the context.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	ListUsers(ctx context.Context, f UserFilter) ([]*User, error)
	CountUsersFiltered(ctx context.Context, f UserFilter) (int64, error)
	// ListAllUsers returns the flat user table for hierarchy index building.
	ListAllUsers(ctx context.Context) ([]*User, error)

	// Dashboard aggregates. A nil userIDs slice means the whole table.
	CountUsers(ctx context.Context, userIDs []string) (int64, error)
	CountUsersByStatus(ctx context.Context, userIDs []string, status UserStatus) (int64, error)
	SumSubscriptionTotal(ctx context.Context, userIDs []string) (float64, error)
	CountSubscriptionsByStatus(ctx context.Context, userIDs []string, status SubscriptionStatus) (int64, error)
	CountAssignments(ctx context.Context, userIDs []string) (int64, error)
	CountAPIRequestsSince(ctx context.Context, since time.Time) (int64, error)

	// Modules
	CreateModule(ctx context.Context, module *Module) error
	GetModuleByID(ctx context.Context, id string) (*Module, error)
	ListModules(ctx context.Context, category ModuleCategory, activeOnly bool) ([]*Module, error)

	// Assignments
	UpsertAssignment(ctx context.Context, assignment *ModuleAssignment) error
	GetAssignment(ctx context.Context, userID, moduleID string) (*ModuleAssignment, error)
	ListAssignmentsForUser(ctx context.Context, userID string) ([]*ModuleAssignment, error)
	ListAssignments(ctx context.Context, userIDs []string) ([]*ModuleAssignment, error)

	// Subscriptions (read-only)
	ListSubscriptions(ctx context.Context, userIDs []string) ([]*Subscription, error)

	// Notifications
	CreateNotification(ctx context.Context, n *Notification) error
	CreateNotifications(ctx context.Context, ns []*Notification) error
	ListNotificationsForUser(ctx context.Context, userID string, limit int) ([]*Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error

	// Activity
	CreateActivity(ctx context.Context, a *UserActivity) error
	CountActivitiesSince(ctx context.Context, userID string, since time.Time) (int64, error)

	// API request log
	CreateAPIRequest(ctx context.Context, r *APIRequest) error
}
