package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/followup/backend/internal/config"
	"github.com/followup/backend/internal/domain"
	"github.com/followup/backend/internal/infrastructure/db"
	"github.com/followup/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config.yaml")
	tenantName := flag.String("tenant", "Demo Tenant", "tenant name")
	appName := flag.String("application", "Demo Application", "application name")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.NewPostgresConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close(database)

	if err := db.RunMigrations(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	nop := logger.NewNop()
	ctx := context.Background()

	tenant := &domain.Tenant{ID: uuid.NewString(), Name: *tenantName}
	if err := db.NewTenantRepository(database, nop).Create(ctx, tenant); err != nil {
		log.Fatalf("Failed to create tenant: %v", err)
	}

	app := &domain.Application{ID: uuid.NewString(), Name: *appName, TenantID: tenant.ID}
	if err := db.NewApplicationRepository(database, nop).Create(ctx, app); err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	fmt.Printf("Tenant:      %s (%s)\n", tenant.ID, tenant.Name)
	fmt.Printf("Application: %s (%s)\n", app.ID, app.Name)
	fmt.Printf("✓ Use related_id=%s when creating tasks\n", app.ID)
}
