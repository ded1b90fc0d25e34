package provider

import (
	"testing"

	"github.com/padala-next/internal/config"
	"github.com/padala-next/internal/models"

	"gorm.io/gorm/logger"
)

func TestNewContainerWithDB(t *testing.T) {
	db, err := models.OpenDB("sqlite", "file:provider_container?mode=memory&cache=shared", logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	cfg := config.Default()
	cfg.Routing.Provider = "none"
	c, err := NewContainerWithDB(cfg, db)
	if err != nil {
		t.Fatalf("new container failed: %v", err)
	}
	if c.AssignmentService == nil || c.SettlementService == nil {
		t.Fatalf("core services should be initialized")
	}
	if c.AuthzService == nil || c.TokenService == nil {
		t.Fatalf("auth services should be initialized")
	}
	if c.Notifier == nil || c.PayoutGateway == nil || c.Geo == nil {
		t.Fatalf("infrastructure should be initialized")
	}
	roles, err := c.AuthzService.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(roles) != 3 {
		t.Fatalf("builtin roles want 3 got %v", roles)
	}
}

func TestNewContainerWithDBRejectsBadConfig(t *testing.T) {
	db, err := models.OpenDB("sqlite", "file:provider_container_bad?mode=memory&cache=shared", logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}

	if _, err := NewContainerWithDB(nil, db); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := NewContainerWithDB(config.Default(), nil); err == nil {
		t.Fatalf("expected error for nil db")
	}

	cfg := config.Default()
	cfg.Payout.Provider = "paymaya"
	if _, err := NewContainerWithDB(cfg, db); err == nil {
		t.Fatalf("expected error for unsupported payout provider")
	}
}
