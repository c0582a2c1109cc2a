// internal/services/application_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/loan-manager/internal/metrics"
	"github.com/javajoker/loan-manager/internal/models"
	"github.com/javajoker/loan-manager/internal/utils"
)

type ApplicationService struct {
	db    *gorm.DB
	audit *AuditService
}

type CreateApplicationRequest struct {
	FullName         string                `json:"fullName" validate:"required,min=3,max=100"`
	Email            string                `json:"email" validate:"required,email,max=255"`
	Phone            string                `json:"phone" validate:"required,phone,max=30"`
	Address          string                `json:"address" validate:"required,min=5,max=200"`
	LoanAmount       float64               `json:"loanAmount" validate:"required,gte=100"`
	LoanType         models.LoanType       `json:"loanType" validate:"required,oneof=personal business education mortgage auto"`
	LoanPurpose      string                `json:"loanPurpose" validate:"required,min=10,max=500"`
	EmploymentStatus string                `json:"employmentStatus" validate:"required,max=50"`
	MonthlyIncome    *float64              `json:"monthlyIncome" validate:"required,gte=0"`
	CreditScore      int                   `json:"creditScore" validate:"required,gte=300,lte=850"`
	Documents        []string              `json:"documents,omitempty" validate:"omitempty,dive,required"`
	ExistingLoans    []models.ExistingLoan `json:"existingLoans,omitempty" validate:"omitempty,dive"`
}

// UpdateApplicationRequest carries a partial update; nil fields are left untouched.
type UpdateApplicationRequest struct {
	FullName         *string               `json:"fullName,omitempty" validate:"omitempty,min=3,max=100"`
	Email            *string               `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone            *string               `json:"phone,omitempty" validate:"omitempty,phone,max=30"`
	Address          *string               `json:"address,omitempty" validate:"omitempty,min=5,max=200"`
	LoanAmount       *float64              `json:"loanAmount,omitempty" validate:"omitempty,gte=100"`
	LoanType         *models.LoanType      `json:"loanType,omitempty" validate:"omitempty,oneof=personal business education mortgage auto"`
	LoanPurpose      *string               `json:"loanPurpose,omitempty" validate:"omitempty,min=10,max=500"`
	EmploymentStatus *string               `json:"employmentStatus,omitempty" validate:"omitempty,min=1,max=50"`
	MonthlyIncome    *float64              `json:"monthlyIncome,omitempty" validate:"omitempty,gte=0"`
	CreditScore      *int                  `json:"creditScore,omitempty" validate:"omitempty,gte=300,lte=850"`
	Documents        []string              `json:"documents,omitempty" validate:"omitempty,dive,required"`
	ExistingLoans    []models.ExistingLoan `json:"existingLoans,omitempty" validate:"omitempty,dive"`
}

type UpdateStatusRequest struct {
	Status models.ApplicationStatus `json:"status" validate:"required,oneof=pending approved rejected"`
}

// ApplicationFilters are combined with AND. Nil or empty fields do not filter.
type ApplicationFilters struct {
	Status         *models.ApplicationStatus
	LoanType       *models.LoanType
	Email          string
	DateFrom       *time.Time
	DateTo         *time.Time
	CreditScoreMin *int
	CreditScoreMax *int
	LoanAmountMin  *float64
	LoanAmountMax  *float64
}

type ApplicationList struct {
	Items      []models.LoanApplication
	Pagination utils.Pagination
}

func NewApplicationService(db *gorm.DB, audit *AuditService) *ApplicationService {
	return &ApplicationService{
		db:    db,
		audit: audit,
	}
}

func (r *CreateApplicationRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.LoanPurpose = strings.TrimSpace(r.LoanPurpose)
	r.EmploymentStatus = strings.TrimSpace(r.EmploymentStatus)
}

func (r *UpdateApplicationRequest) Normalize() {
	trimPtr(r.FullName)
	trimPtr(r.Phone)
	trimPtr(r.Address)
	trimPtr(r.LoanPurpose)
	trimPtr(r.EmploymentStatus)
	if r.Email != nil {
		*r.Email = normalizeEmail(*r.Email)
	}
}

func (r *UpdateApplicationRequest) IsEmpty() bool {
	return r.FullName == nil && r.Email == nil && r.Phone == nil && r.Address == nil &&
		r.LoanAmount == nil && r.LoanType == nil && r.LoanPurpose == nil &&
		r.EmploymentStatus == nil && r.MonthlyIncome == nil && r.CreditScore == nil &&
		r.Documents == nil && r.ExistingLoans == nil
}

// apply copies the supplied fields onto app and returns the gorm field names it touched.
func (r *UpdateApplicationRequest) apply(app *models.LoanApplication) []string {
	var fields []string

	if r.FullName != nil {
		app.FullName = *r.FullName
		fields = append(fields, "FullName")
	}
	if r.Email != nil {
		app.Email = *r.Email
		fields = append(fields, "Email")
	}
	if r.Phone != nil {
		app.Phone = *r.Phone
		fields = append(fields, "Phone")
	}
	if r.Address != nil {
		app.Address = *r.Address
		fields = append(fields, "Address")
	}
	if r.LoanAmount != nil {
		app.LoanAmount = *r.LoanAmount
		fields = append(fields, "LoanAmount")
	}
	if r.LoanType != nil {
		app.LoanType = *r.LoanType
		fields = append(fields, "LoanType")
	}
	if r.LoanPurpose != nil {
		app.LoanPurpose = *r.LoanPurpose
		fields = append(fields, "LoanPurpose")
	}
	if r.EmploymentStatus != nil {
		app.EmploymentStatus = *r.EmploymentStatus
		fields = append(fields, "EmploymentStatus")
	}
	if r.MonthlyIncome != nil {
		app.MonthlyIncome = *r.MonthlyIncome
		fields = append(fields, "MonthlyIncome")
	}
	if r.CreditScore != nil {
		app.CreditScore = *r.CreditScore
		fields = append(fields, "CreditScore")
	}
	if r.Documents != nil {
		app.Documents = r.Documents
		fields = append(fields, "Documents")
	}
	if r.ExistingLoans != nil {
		app.ExistingLoans = r.ExistingLoans
		fields = append(fields, "ExistingLoans")
	}

	return fields
}

// Create validates the payload, decides the initial status from the credit score
// and stores the application with a single insert.
func (s *ApplicationService) Create(ctx context.Context, req *CreateApplicationRequest) (*models.LoanApplication, error) {
	req.Normalize()
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailure(err)
	}

	db := s.db.WithContext(ctx)

	// The unique index is the real guard; this only gives a friendlier error first.
	var existing int64
	if err := db.Model(&models.LoanApplication{}).Where("email = ?", req.Email).Count(&existing).Error; err != nil {
		return nil, storeError("Failed to check existing applications", err)
	}
	if existing > 0 {
		return nil, duplicateEmailError(nil)
	}

	app := &models.LoanApplication{
		FullName:         req.FullName,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		LoanAmount:       req.LoanAmount,
		LoanType:         req.LoanType,
		LoanPurpose:      req.LoanPurpose,
		EmploymentStatus: req.EmploymentStatus,
		MonthlyIncome:    *req.MonthlyIncome,
		CreditScore:      req.CreditScore,
		Status:           DecideInitialStatus(req.CreditScore),
		Documents:        req.Documents,
		ExistingLoans:    req.ExistingLoans,
	}

	if err := db.Create(app).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, duplicateEmailError(err)
		}
		return nil, storeError("Failed to create application", err)
	}

	metrics.RecordApplicationCreated(string(app.Status))
	s.audit.Record(ctx, models.AuditActionCreated, app.ID, nil, app)

	logrus.WithFields(logrus.Fields{
		"application_id": app.ID,
		"status":         app.Status,
		"credit_score":   app.CreditScore,
	}).Info("application created")

	return app, nil
}

func (s *ApplicationService) GetByID(ctx context.Context, id string) (*models.LoanApplication, error) {
	appID, err := parseApplicationID(id)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, appID)
}

// ListByEmail returns every application filed under email, newest first.
func (s *ApplicationService) ListByEmail(ctx context.Context, email string) ([]models.LoanApplication, error) {
	email = normalizeEmail(email)
	if err := utils.ValidateVar(email, "required,email"); err != nil {
		return nil, validationError(map[string]string{"email": "Invalid email format"})
	}

	items := make([]models.LoanApplication, 0)
	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, storeError("Failed to load applications", err)
	}
	return items, nil
}

// List applies the filters, sorts newest first and returns one page.
func (s *ApplicationService) List(ctx context.Context, filters ApplicationFilters, page, limit int) (*ApplicationList, error) {
	params := utils.NormalizePagination(page, limit)
	query := applyFilters(s.db.WithContext(ctx).Model(&models.LoanApplication{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, storeError("Failed to count applications", err)
	}

	items := make([]models.LoanApplication, 0)
	err := utils.ApplyPagination(query.Order("created_at DESC").Order("id DESC"), params).Find(&items).Error
	if err != nil {
		return nil, storeError("Failed to list applications", err)
	}

	return &ApplicationList{
		Items:      items,
		Pagination: utils.NewPagination(total, params),
	}, nil
}

func applyFilters(query *gorm.DB, f ApplicationFilters) *gorm.DB {
	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}
	if f.LoanType != nil {
		query = query.Where("loan_type = ?", *f.LoanType)
	}
	if f.Email != "" {
		query = query.Where("email = ?", normalizeEmail(f.Email))
	}
	if f.DateFrom != nil {
		query = query.Where("created_at >= ?", f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		query = query.Where("created_at <= ?", f.DateTo.UTC())
	}
	if f.CreditScoreMin != nil {
		query = query.Where("credit_score >= ?", *f.CreditScoreMin)
	}
	if f.CreditScoreMax != nil {
		query = query.Where("credit_score <= ?", *f.CreditScoreMax)
	}
	if f.LoanAmountMin != nil {
		query = query.Where("loan_amount >= ?", *f.LoanAmountMin)
	}
	if f.LoanAmountMax != nil {
		query = query.Where("loan_amount <= ?", *f.LoanAmountMax)
	}
	return query
}

// Update changes the supplied attributes of one application in a single row update.
// Status and identity fields cannot be changed here.
func (s *ApplicationService) Update(ctx context.Context, id string, req *UpdateApplicationRequest) (*models.LoanApplication, error) {
	appID, err := parseApplicationID(id)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailure(err)
	}
	if req.IsEmpty() {
		return nil, validationError(map[string]string{"body": "At least one field must be provided"})
	}

	app, err := s.find(ctx, appID)
	if err != nil {
		return nil, err
	}
	before := *app

	db := s.db.WithContext(ctx)

	if req.Email != nil && *req.Email != app.Email {
		var taken int64
		if err := db.Model(&models.LoanApplication{}).
			Where("email = ? AND id <> ?", *req.Email, app.ID).
			Count(&taken).Error; err != nil {
			return nil, storeError("Failed to check existing applications", err)
		}
		if taken > 0 {
			return nil, duplicateEmailError(nil)
		}
	}

	fields := append(req.apply(app), "UpdatedAt")
	app.UpdatedAt = time.Now().UTC()

	if err := db.Model(app).Select(fields).Updates(app).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, duplicateEmailError(err)
		}
		return nil, storeError("Failed to update application", err)
	}

	updated, err := s.find(ctx, appID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionUpdated, appID, &before, updated)
	return updated, nil
}

// UpdateStatus moves an application to status when the transition is allowed.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.LoanApplication, error) {
	appID, err := parseApplicationID(id)
	if err != nil {
		return nil, err
	}

	if !status.IsValid() {
		return nil, validationError(map[string]string{
			"status": "status must be one of: pending, approved, rejected",
		})
	}

	app, err := s.find(ctx, appID)
	if err != nil {
		return nil, err
	}

	from := app.Status
	if err := ValidateTransition(from, status); err != nil {
		return nil, err
	}

	// Guard on the status we validated against so a concurrent change cannot be overwritten.
	result := s.db.WithContext(ctx).Model(&models.LoanApplication{}).
		Where("id = ? AND status = ?", appID, from).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, storeError("Failed to update application status", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, invalidTransitionError("Application status changed concurrently, reload and retry")
	}

	updated, err := s.find(ctx, appID)
	if err != nil {
		return nil, err
	}

	metrics.RecordStatusTransition(string(from), string(status))
	s.audit.Record(ctx, models.AuditActionStatusChanged, appID,
		map[string]interface{}{"status": from},
		map[string]interface{}{"status": status},
	)

	logrus.WithFields(logrus.Fields{
		"application_id": appID,
		"from":           from,
		"to":             status,
	}).Info("application status changed")

	return updated, nil
}

func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	appID, err := parseApplicationID(id)
	if err != nil {
		return err
	}

	app, err := s.find(ctx, appID)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.LoanApplication{}, "id = ?", appID)
	if result.Error != nil {
		return storeError("Failed to delete application", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFoundError("Application not found")
	}

	s.audit.Record(ctx, models.AuditActionDeleted, appID, app, nil)
	return nil
}

// History returns the audit trail of one application, newest first. It stays
// readable after the application is deleted.
func (s *ApplicationService) History(ctx context.Context, id string) ([]models.AuditLog, error) {
	appID, err := parseApplicationID(id)
	if err != nil {
		return nil, err
	}

	entries, err := s.audit.History(ctx, appID)
	if err != nil {
		return nil, storeError("Failed to load application history", err)
	}
	if len(entries) == 0 {
		if _, err := s.find(ctx, appID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *ApplicationService) find(ctx context.Context, id uuid.UUID) (*models.LoanApplication, error) {
	var app models.LoanApplication
	if err := s.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Application not found")
		}
		return nil, storeError("Failed to load application", err)
	}
	return &app, nil
}

func parseApplicationID(id string) (uuid.UUID, error) {
	appID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, invalidIDError(id)
	}
	return appID, nil
}

func validationFailure(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return validationError(utils.ValidationErrorMap(utils.GetValidationErrors(verrs)))
	}
	return internalError("Failed to validate request", err)
}

func storeError(message string, err error) error {
	logrus.WithError(err).Error(message)
	return internalError(message, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
