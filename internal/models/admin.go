// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	BaseModel
	Action       AuditAction `json:"action" gorm:"size:100;not null;index"`
	ResourceType string      `json:"resourceType" gorm:"size:50;not null;index"`
	ResourceID   uuid.UUID   `json:"resourceId" gorm:"type:uuid;not null;index"`
	OldValues    JSONB       `json:"oldValues,omitempty" gorm:"type:jsonb"`
	NewValues    JSONB       `json:"newValues,omitempty" gorm:"type:jsonb"`
	RequestID    string      `json:"requestId,omitempty" gorm:"size:64"`
}

// PlatformAnalytics is one recorded metric value for a period.
type PlatformAnalytics struct {
	BaseModel
	MetricName     string    `json:"metricName" gorm:"size:100;not null;index"`
	MetricValue    float64   `json:"metricValue" gorm:"type:decimal(15,2);not null"`
	MetricDate     time.Time `json:"metricDate" gorm:"not null;index"`
	MetricPeriod   string    `json:"metricPeriod" gorm:"type:varchar(20);not null;index"`
	AdditionalData JSONB     `json:"additionalData,omitempty" gorm:"type:jsonb"`
}
