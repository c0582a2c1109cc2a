// internal/services/lifecycle.go
package services

import (
	"fmt"

	"github.com/javajoker/loan-manager/internal/models"
)

const (
	AutoApproveCreditScore = 700
	AutoRejectCreditScore  = 600
)

// DecideInitialStatus picks the status a new application is stored with.
func DecideInitialStatus(creditScore int) models.ApplicationStatus {
	switch {
	case creditScore >= AutoApproveCreditScore:
		return models.ApplicationStatusApproved
	case creditScore < AutoRejectCreditScore:
		return models.ApplicationStatusRejected
	default:
		return models.ApplicationStatusPending
	}
}

// ValidateTransition rejects approved->pending and rejected->approved. Everything else,
// including a same-status update, is allowed.
func ValidateTransition(from, to models.ApplicationStatus) error {
	if !to.IsValid() {
		return validationError(map[string]string{
			"status": "status must be one of: pending, approved, rejected",
		})
	}

	if from == models.ApplicationStatusApproved && to == models.ApplicationStatusPending {
		return invalidTransitionError("Cannot change status from approved back to pending")
	}
	if from == models.ApplicationStatusRejected && to == models.ApplicationStatusApproved {
		return invalidTransitionError(fmt.Sprintf(
			"Cannot change status from %s directly to %s; move it to pending first", from, to))
	}

	return nil
}

// ApprovalRate is approved/total as a percentage, 0 when there is nothing to rate.
func ApprovalRate(approved, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(approved) / float64(total) * 100
}
