package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type tenantResolver struct {
	repo   ports.ApplicationRepository
	logger *logger.Logger
}

func NewTenantResolver(repo ports.ApplicationRepository, logger *logger.Logger) ports.TenantResolver {
	return &tenantResolver{repo: repo, logger: logger}
}

// ResolveTenant returns the tenant owning the application relatedID points at.
// It is the only place a task's tenant id comes from.
func (r *tenantResolver) ResolveTenant(ctx context.Context, relatedID string) (string, error) {
	tenantID, err := r.repo.GetTenantID(ctx, relatedID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warnw("tenant_resolve_not_found", "related_id", relatedID)
			return "", ErrApplicationNotFound
		}
		r.logger.Errorw("tenant_resolve_failed", "related_id", relatedID, "error", err)
		return "", fmt.Errorf("%w: application lookup: %v", ErrPersistence, err)
	}
	if tenantID == "" {
		r.logger.Errorw("tenant_resolve_empty_tenant", "related_id", relatedID)
		return "", ErrApplicationNotFound
	}
	return tenantID, nil
}
