package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	GestionID    *string         `gorm:"size:4;index:idx_audit_gestion_id" json:"gestion_id,omitempty"`
	Action       string          `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "gestion_audit_log"
}

// Audit action constants
const (
	AuditActionGestionCreated   = "gestion_created"
	AuditActionGestionFailed    = "gestion_create_failed"
	AuditActionEstadoChanged    = "estado_changed"
	AuditActionBackupExported   = "backup_exported"
	AuditActionHistorialCleared = "historial_cleared"
	AuditActionSpaceExhausted   = "id_space_exhausted"
	AuditActionArchiveCompleted = "archive_completed"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	GestionID     *string
	Action        *string
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
