package db

import (
	"github.com/followup/backend/internal/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Tenant{},
		&domain.Application{},
		&domain.Task{},
	)
	if err != nil {
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		return err
	}

	return nil
}

func createCustomIndexes(db *gorm.DB) error {
	// Serves the "today" dashboard query: open tasks ordered by due date.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tasks_open_due
		ON tasks (due_at)
		WHERE status <> 'completed'
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tasks_tenant_due
		ON tasks (tenant_id, due_at)
	`).Error; err != nil {
		return err
	}

	return nil
}
