package database

import (
	"context"
	"errors"
	"time"

	"github.com/recommerce-labs/console/internal/common/config"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitSuperAdmin creates the bootstrap MASTER user from configuration if
// no user with that email exists yet.
func InitSuperAdmin(ctx context.Context, db Database, cfg *config.SuperAdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	_, err := db.GetUserByEmail(ctx, cfg.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	return db.CreateUser(ctx, &User{
		Email:     cfg.Email,
		Name:      "Super Admin",
		Password:  string(hashed),
		Level:     LevelMaster,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// InitModuleCatalog seeds the shared module catalog on first start
func InitModuleCatalog(ctx context.Context, db Database) error {
	existing, err := db.ListModules(ctx, "", false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	catalog := []*Module{
		{Name: "crm_basic", DisplayName: "CRM Basic", Description: "Contact management, pipelines and basic reports", Category: CategoryCRM, Version: "1.0.0", Price: 29.99, IsActive: true, Features: `["Contact management","Sales pipeline","Basic reports"]`},
		{Name: "crm_advanced", DisplayName: "CRM Advanced", Description: "Advanced automation, custom fields, email integration", Category: CategoryCRM, Version: "1.0.0", Price: 79.99, IsActive: true, Features: `["Advanced automation","Custom fields","Email integration"]`},
		{Name: "ai_assistant", DisplayName: "AI Assistant", Description: "Chat assistant, content generation, data analysis", Category: CategoryAITools, Version: "1.0.0", Price: 99.99, IsActive: true, Features: `["Chat assistant","Content generation","Data analysis"]`},
		{Name: "marketing_suite", DisplayName: "Marketing Suite", Description: "Email campaigns, social media, SEO tools", Category: CategoryMarketing, Version: "1.0.0", Price: 59.99, IsActive: true, Features: `["Email campaigns","Social media","SEO tools"]`},
		{Name: "finance_manager", DisplayName: "Finance Manager", Description: "Invoicing, expense tracking, financial reports", Category: CategoryFinance, Version: "1.0.0", Price: 69.99, IsActive: true, Features: `["Invoicing","Expense tracking","Financial reports"]`},
		{Name: "integrations_hub", DisplayName: "Integrations Hub", Description: "API connectors, webhook management, data sync", Category: CategoryIntegrations, Version: "1.0.0", Price: 89.99, IsActive: true, Features: `["API connectors","Webhook management","Data sync"]`},
		{Name: "analytics_pro", DisplayName: "Analytics Pro", Description: "Dashboards, funnels and usage insights", Category: CategoryAnalytics, Version: "1.0.0", Price: 49.99, IsActive: true, Features: `["Dashboards","Funnels","Usage insights"]`},
	}

	now := time.Now()
	for _, m := range catalog {
		m.CreatedAt = now
		m.UpdatedAt = now
		if err := db.CreateModule(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
