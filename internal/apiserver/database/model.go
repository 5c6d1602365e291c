package database

import (
	"encoding/json"
	"time"
)

// UserLevel represents a user's rank in the reseller hierarchy,
// ordered by decreasing authority.
type UserLevel string

const (
	LevelMaster    UserLevel = "MASTER"
	LevelSuper     UserLevel = "SUPER"
	LevelReseller  UserLevel = "RESELLER"
	LevelAffiliate UserLevel = "AFFILIATE"
	LevelCompany   UserLevel = "COMPANY"
)

// UserStatus represents the lifecycle status of a user account
type UserStatus string

const (
	StatusActive    UserStatus = "ACTIVE"
	StatusInactive  UserStatus = "INACTIVE"
	StatusSuspended UserStatus = "SUSPENDED"
	StatusPending   UserStatus = "PENDING"
)

// SubscriptionStatus represents the billing status of a subscription
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionInactive SubscriptionStatus = "INACTIVE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
	SubscriptionPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionTrialing SubscriptionStatus = "TRIALING"
)

// ModuleCategory represents the catalog category of a module
type ModuleCategory string

const (
	CategoryCRM          ModuleCategory = "CRM"
	CategoryAnalytics    ModuleCategory = "ANALYTICS"
	CategoryEcommerce    ModuleCategory = "ECOMMERCE"
	CategoryMarketing    ModuleCategory = "MARKETING"
	CategoryFinance      ModuleCategory = "FINANCE"
	CategoryIntegrations ModuleCategory = "INTEGRATIONS"
	CategoryAITools      ModuleCategory = "AI_TOOLS"
	CategoryCustom       ModuleCategory = "CUSTOM"
)

// User represents a reseller-hierarchy account. ParentID links to the
// owning reseller, forming a forest rooted at MASTER users. Users are
// never hard-deleted, only status-transitioned.
type User struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email       string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name        string     `json:"name" gorm:"type:varchar(255)"`
	Password    string     `json:"-" gorm:"not null"` // Password hash is not exposed in JSON
	Level       UserLevel  `json:"level" gorm:"type:varchar(20);not null;index"`
	Status      UserStatus `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	ParentID    *string    `json:"parentId" gorm:"type:varchar(36);index"`
	CompanyName string     `json:"companyName" gorm:"type:varchar(255)"`
	Phone       string     `json:"phone" gorm:"type:varchar(50)"`
	Website     string     `json:"website" gorm:"type:varchar(255)"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Module represents a purchasable feature bundle in the shared catalog
type Module struct {
	ID          string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string         `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	DisplayName string         `json:"displayName" gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Category    ModuleCategory `json:"category" gorm:"type:varchar(20);not null;index"`
	Version     string         `json:"version" gorm:"type:varchar(50)"`
	Price       float64        `json:"price" gorm:"not null;default:0"`
	IsActive    bool           `json:"isActive" gorm:"not null;default:true"`
	Features    string         `json:"features" gorm:"type:text"` // JSON array stored as text
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// FeatureList decodes the features column into a string slice
func (m *Module) FeatureList() []string {
	if m.Features == "" {
		return nil
	}
	var features []string
	if err := json.Unmarshal([]byte(m.Features), &features); err != nil {
		return nil
	}
	return features
}

// ModuleAssignment records that a module is (de)activated for a user.
// At most one row exists per (user, module) pair; writes are upserts.
type ModuleAssignment struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex:idx_assignment_user_module"`
	ModuleID   string    `json:"moduleId" gorm:"type:varchar(36);not null;uniqueIndex:idx_assignment_user_module"`
	IsActive   bool      `json:"isActive" gorm:"not null;default:true"`
	Settings   string    `json:"settings" gorm:"type:text"` // opaque JSON blob
	AssignedBy string    `json:"assignedBy" gorm:"type:varchar(36)"`
	AssignedAt time.Time `json:"assignedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Module *Module `json:"module,omitempty" gorm:"foreignKey:ModuleID"`
}

// Subscription is the billing aggregate per user. Read-only from the
// hierarchy engine's perspective.
type Subscription struct {
	ID                 string             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID             string             `json:"userId" gorm:"type:varchar(36);not null;index"`
	Status             SubscriptionStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	TotalAmount        float64            `json:"totalAmount" gorm:"not null;default:0"`
	Currency           string             `json:"currency" gorm:"type:varchar(10);default:'USD'"`
	BillingCycle       string             `json:"billingCycle" gorm:"type:varchar(20);default:'monthly'"`
	CurrentPeriodStart time.Time          `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time          `json:"currentPeriodEnd"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`

	Items []SubscriptionItem `json:"items,omitempty" gorm:"foreignKey:SubscriptionID"`
}

// SubscriptionItem is a single module line on a subscription
type SubscriptionItem struct {
	ID             string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SubscriptionID string  `json:"subscriptionId" gorm:"type:varchar(36);not null;index"`
	ModuleID       string  `json:"moduleId" gorm:"type:varchar(36);not null"`
	Quantity       int     `json:"quantity" gorm:"not null;default:1"`
	UnitPrice      float64 `json:"unitPrice" gorm:"not null;default:0"`
	TotalPrice     float64 `json:"totalPrice" gorm:"not null;default:0"`
}

// Notification is an in-app message for a user
type Notification struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"userId" gorm:"type:varchar(36);not null;index"`
	Title     string     `json:"title" gorm:"type:varchar(255);not null"`
	Message   string     `json:"message" gorm:"type:text"`
	Type      string     `json:"type" gorm:"type:varchar(20);default:'info'"`
	ActionURL string     `json:"actionUrl" gorm:"type:varchar(255)"`
	IsRead    bool       `json:"isRead" gorm:"not null;default:false"`
	ReadAt    *time.Time `json:"readAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// UserActivity is an audit record of an action performed by a user
type UserActivity struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);not null;index"`
	Action    string    `json:"action" gorm:"type:varchar(100);not null"`
	Resource  string    `json:"resource" gorm:"type:varchar(100)"`
	Metadata  string    `json:"metadata" gorm:"type:text"` // JSON stored as text
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}

// APIRequest records one handled HTTP request; feeds the 24h dashboard count
type APIRequest struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);index"`
	Method    string    `json:"method" gorm:"type:varchar(10)"`
	Path      string    `json:"path" gorm:"type:varchar(255)"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}
