// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields. Rows are hard deleted, so there is no DeletedAt.
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns the UUID in Go so the same schema works on postgres and sqlite.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB stores a free-form object as JSON text.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}
}

// ToJSONB converts any JSON-encodable value into a JSONB object.
func ToJSONB(v interface{}) JSONB {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out JSONB
	if err := json.Unmarshal(bytes, &out); err != nil {
		return nil
	}
	return out
}

// Enums
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every status in display order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusApproved,
	ApplicationStatusRejected,
}

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	}
	return false
}

type LoanType string

const (
	LoanTypePersonal  LoanType = "personal"
	LoanTypeBusiness  LoanType = "business"
	LoanTypeEducation LoanType = "education"
	LoanTypeMortgage  LoanType = "mortgage"
	LoanTypeAuto      LoanType = "auto"
)

func (t LoanType) IsValid() bool {
	switch t {
	case LoanTypePersonal, LoanTypeBusiness, LoanTypeEducation, LoanTypeMortgage, LoanTypeAuto:
		return true
	}
	return false
}

type AuditAction string

const (
	AuditActionCreated       AuditAction = "created"
	AuditActionUpdated       AuditAction = "updated"
	AuditActionStatusChanged AuditAction = "status_changed"
	AuditActionDeleted       AuditAction = "deleted"
)
