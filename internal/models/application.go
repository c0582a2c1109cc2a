// internal/models/application.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type ExistingLoan struct {
	Lender           string  `json:"lender" validate:"required,max=100"`
	Amount           float64 `json:"amount" validate:"gte=0"`
	RemainingBalance float64 `json:"remainingBalance" validate:"gte=0"`
}

type LoanApplication struct {
	BaseModel
	FullName         string            `json:"fullName" gorm:"size:100;not null"`
	Email            string            `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Phone            string            `json:"phone" gorm:"size:30"`
	Address          string            `json:"address" gorm:"size:200"`
	LoanAmount       float64           `json:"loanAmount" gorm:"type:decimal(15,2);not null;index"`
	LoanType         LoanType          `json:"loanType" gorm:"type:varchar(20);not null;index"`
	LoanPurpose      string            `json:"loanPurpose" gorm:"type:text"`
	EmploymentStatus string            `json:"employmentStatus" gorm:"size:50;not null"`
	MonthlyIncome    float64           `json:"monthlyIncome" gorm:"type:decimal(15,2);not null"`
	CreditScore      int               `json:"creditScore" gorm:"not null;index"`
	Status           ApplicationStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Documents        []string          `json:"documents,omitempty" gorm:"type:text;serializer:json"`
	ExistingLoans    []ExistingLoan    `json:"existingLoans,omitempty" gorm:"type:text;serializer:json"`
}

func (LoanApplication) TableName() string {
	return "loan_applications"
}

// ApplicationSummary is the compact projection used by dashboard listings.
type ApplicationSummary struct {
	ID         uuid.UUID         `json:"id"`
	FullName   string            `json:"fullName"`
	LoanAmount float64           `json:"loanAmount"`
	LoanType   LoanType          `json:"loanType"`
	Status     ApplicationStatus `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
}

func (a *LoanApplication) Summary() ApplicationSummary {
	return ApplicationSummary{
		ID:         a.ID,
		FullName:   a.FullName,
		LoanAmount: a.LoanAmount,
		LoanType:   a.LoanType,
		Status:     a.Status,
		CreatedAt:  a.CreatedAt.UTC(),
	}
}
