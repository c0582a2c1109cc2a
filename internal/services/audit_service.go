// internal/services/audit_service.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/loan-manager/internal/models"
)

const resourceLoanApplication = "loan_application"

type requestIDKey struct{}

// WithRequestID tags ctx so audit entries can be correlated with request logs.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes one audit entry. The mutation it describes has already been
// committed, so a failure here is logged and not returned.
func (s *AuditService) Record(ctx context.Context, action models.AuditAction, resourceID uuid.UUID, oldValues, newValues interface{}) {
	entry := &models.AuditLog{
		Action:       action,
		ResourceType: resourceLoanApplication,
		ResourceID:   resourceID,
		RequestID:    requestIDFrom(ctx),
	}
	if oldValues != nil {
		entry.OldValues = models.ToJSONB(oldValues)
	}
	if newValues != nil {
		entry.NewValues = models.ToJSONB(newValues)
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"action":      action,
			"resource_id": resourceID,
			"request_id":  entry.RequestID,
		}).WithError(err).Error("failed to write audit log")
	}
}

// History returns the audit entries of one resource, newest first.
func (s *AuditService) History(ctx context.Context, resourceID uuid.UUID) ([]models.AuditLog, error) {
	entries := make([]models.AuditLog, 0)
	err := s.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceLoanApplication, resourceID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
