package db

import (
	"context"

	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/domain"
	"github.com/followup/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type applicationRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewApplicationRepository(db *gorm.DB, log *logger.Logger) ports.ApplicationRepository {
	return &applicationRepository{db: db, log: log}
}

func (r *applicationRepository) GetTenantID(ctx context.Context, applicationID string) (string, error) {
	var app domain.Application
	err := r.db.WithContext(ctx).
		Select("tenant_id").
		Where("id = ?", applicationID).
		Take(&app).Error
	if err != nil {
		return "", err
	}
	return app.TenantID, nil
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		r.log.Errorw("application_repo_create_failed", "id", app.ID, "error", err)
		return err
	}
	r.log.Infow("application_repo_create_ok", "id", app.ID)
	return nil
}

type tenantRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTenantRepository(db *gorm.DB, log *logger.Logger) ports.TenantRepository {
	return &tenantRepository{db: db, log: log}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		r.log.Errorw("tenant_repo_create_failed", "id", tenant.ID, "error", err)
		return err
	}
	r.log.Infow("tenant_repo_create_ok", "id", tenant.ID)
	return nil
}
