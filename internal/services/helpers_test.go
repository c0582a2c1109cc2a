package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/loan-manager/internal/models"
)

var fixtureSeq atomic.Int64

func ptr[T any](v T) *T { return &v }

func validCreateRequest(email string, creditScore int) *CreateApplicationRequest {
	return &CreateApplicationRequest{
		FullName:         "Jordan Example",
		Email:            email,
		Phone:            "(555) 123-4567",
		Address:          "12 Harbour Road, Springfield",
		LoanAmount:       15000,
		LoanType:         models.LoanTypePersonal,
		LoanPurpose:      "Consolidating two credit cards",
		EmploymentStatus: "Full-time",
		MonthlyIncome:    ptr(4200.0),
		CreditScore:      creditScore,
	}
}

// insertApplication stores a row directly, bypassing the lifecycle rules.
func insertApplication(t *testing.T, db *gorm.DB, createdAt time.Time, loanType models.LoanType, amount float64, score int, status models.ApplicationStatus) *models.LoanApplication {
	t.Helper()

	n := fixtureSeq.Add(1)
	app := &models.LoanApplication{
		FullName:         fmt.Sprintf("Applicant %d", n),
		Email:            fmt.Sprintf("applicant%d@example.com", n),
		Phone:            "555-0100",
		Address:          "1 Fixture Lane",
		LoanAmount:       amount,
		LoanType:         loanType,
		LoanPurpose:      "Fixture loan purpose",
		EmploymentStatus: "Full-time",
		MonthlyIncome:    float64(score) * 10,
		CreditScore:      score,
		Status:           status,
	}
	app.CreatedAt = createdAt.UTC()
	app.UpdatedAt = createdAt.UTC()

	require.NoError(t, db.Create(app).Error)
	return app
}

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}
