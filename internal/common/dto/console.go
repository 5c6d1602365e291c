package dto

// CreateUserRequest represents a request to create a user under the
// caller in the hierarchy
type CreateUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Name        string `json:"name" binding:"required"`
	Level       string `json:"level" binding:"required,oneof=MASTER SUPER RESELLER AFFILIATE COMPANY"`
	ParentID    string `json:"parentId"`
	CompanyName string `json:"companyName"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
}

// UpdateUserStatusRequest represents a status transition for a user
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE INACTIVE SUSPENDED PENDING"`
}

// CreateModuleRequest represents a request to add a catalog module
type CreateModuleRequest struct {
	Name        string   `json:"name" binding:"required"`
	DisplayName string   `json:"displayName" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category" binding:"required"`
	Version     string   `json:"version"`
	Price       float64  `json:"price" binding:"gte=0"`
	Features    []string `json:"features"`
}

// AssignModuleRequest represents a request to (de)activate a module for
// a user. IsActive defaults to true when omitted.
type AssignModuleRequest struct {
	UserID   string `json:"userId" binding:"required"`
	ModuleID string `json:"moduleId" binding:"required"`
	IsActive *bool  `json:"isActive"`
	Settings string `json:"settings"`
}

// CreateNotificationRequest represents a request to send a notification.
// Masters may omit TargetUsers to broadcast to every active user.
type CreateNotificationRequest struct {
	Title       string   `json:"title" binding:"required"`
	Message     string   `json:"message" binding:"required"`
	Type        string   `json:"type" binding:"omitempty,oneof=info warning error success"`
	ActionURL   string   `json:"actionUrl"`
	TargetUsers []string `json:"targetUsers"`
}

// DashboardMetrics is the aggregate block on the dashboard. For
// non-master callers every figure except ApiCalls24h is scoped to the
// caller's two-level subtree; ApiCalls24h is always zero for them.
type DashboardMetrics struct {
	TotalUsers          int64   `json:"totalUsers"`
	ActiveUsers         int64   `json:"activeUsers"`
	TotalRevenue        float64 `json:"totalRevenue"`
	ActiveSubscriptions int64   `json:"activeSubscriptions"`
	ModuleAssignments   int64   `json:"moduleAssignments"`
	ApiCalls24h         int64   `json:"apiCalls24h"`
}

// Pagination is the page envelope on list responses
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination builds the envelope from a total row count
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
