package domain

import (
	"time"
)

// ==================== TENANCY ====================

type Tenant struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `gorm:"size:255;not null" json:"name"`
}

// Application is the tenant-owned entity tasks point at through RelatedID.
// The task pipeline only ever reads TenantID from it.
type Application struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string  `gorm:"size:255" json:"name"`
	TenantID string  `gorm:"size:64;not null;index" json:"tenant_id"`
	Tenant   *Tenant `gorm:"constraint:OnDelete:CASCADE" json:"tenant,omitempty"`
}
