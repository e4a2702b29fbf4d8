package businessflow

import (
	"context"
	"encoding/json"
	"log"

	"github.com/turnixpro/turnix/models"
	"github.com/turnixpro/turnix/repository"
	"github.com/turnixpro/turnix/utils"
)

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// auditRecorder writes audit entries when an audit repository is configured; without one it is a no-op.
// Audit failures are logged and never fail the operation being audited.
type auditRecorder struct {
	repo   repository.AuditLogRepository
	logger *log.Logger
}

func (a auditRecorder) record(ctx context.Context, gestionID *string, action, description string, opErr error, metadata *ClientMetadata) {
	if a.repo == nil {
		return
	}

	success := opErr == nil
	audit := &models.AuditLog{
		GestionID:   gestionID,
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(success),
	}
	if !success {
		audit.ErrorMessage = utils.ToPtr(opErr.Error())
		if code := ErrorCode(opErr); code != "" {
			audit.Metadata, _ = json.Marshal(map[string]string{"code": code})
		}
	}

	if metadata != nil {
		audit.IPAddress = utils.ToPtr(metadata.IPAddress)
		audit.UserAgent = utils.ToPtr(metadata.UserAgent)
		if metadata.RequestID != "" {
			audit.RequestID = utils.ToPtr(metadata.RequestID)
		}
		if len(metadata.Additional) > 0 && audit.Metadata == nil {
			audit.Metadata, _ = json.Marshal(metadata.Additional)
		}
	}

	// Extract request ID from context if available
	if audit.RequestID == nil {
		if requestID, ok := ctx.Value(utils.RequestIDKey).(string); ok && requestID != "" {
			audit.RequestID = &requestID
		}
	}

	if err := a.repo.Save(ctx, audit); err != nil {
		a.logger.Printf("audit: failed to save %s: %v", action, err)
	}
}
