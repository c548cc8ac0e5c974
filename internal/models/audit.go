package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of a security relevant action. ID is a ULID.
type AuditLog struct {
	ID         string         `gorm:"type:varchar(26);primaryKey" json:"id"`
	Action     string         `gorm:"not null;index" json:"action"`
	EntityType string         `gorm:"not null;index:idx_audit_entity" json:"entityType"`
	EntityID   string         `gorm:"not null;index:idx_audit_entity" json:"entityId"`
	ActorID    string         `gorm:"not null;index" json:"actorId"`
	Metadata   datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	IPAddress  string         `gorm:"not null" json:"ipAddress"`
	UserAgent  string         `gorm:"not null" json:"userAgent"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"createdAt"`
}
