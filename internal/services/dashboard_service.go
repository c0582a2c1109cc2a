// internal/services/dashboard_service.go
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/javajoker/loan-manager/internal/models"
)

const (
	DefaultMonthlyWindow = 6
	MaxMonthlyWindow     = 24
	recentApplications   = 5
)

// DashboardService computes read-only statistics. Nothing is cached; every call
// queries the store.
type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used for trailing windows.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

func (s *DashboardService) Summary(ctx context.Context) (*DashboardStats, error) {
	counts, err := s.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	financial, err := s.Financials(ctx)
	if err != nil {
		return nil, err
	}

	distribution, err := s.LoanTypeDistribution(ctx)
	if err != nil {
		return nil, err
	}

	monthly, err := s.MonthlyApplicationCounts(ctx, DefaultMonthlyWindow)
	if err != nil {
		return nil, err
	}

	recent, err := s.RecentApplications(ctx, recentApplications)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalApplications:    counts.Total,
		PendingApplications:  counts.Pending,
		ApprovedApplications: counts.Approved,
		RejectedApplications: counts.Rejected,
		TotalLoanAmount:      financial.TotalLoanAmount,
		AverageLoanAmount:    financial.AverageLoanAmount,
		AverageCreditScore:   financial.AverageCreditScore,
		AverageMonthlyIncome: financial.AverageMonthlyIncome,
		ApprovalRate:         ApprovalRate(counts.Approved, counts.Total),
		LoanTypeDistribution: distribution,
		MonthlyApplications:  monthly,
		RecentApplications:   recent,
	}, nil
}

func (s *DashboardService) StatusCounts(ctx context.Context) (*StatusCounts, error) {
	var rows []struct {
		Status models.ApplicationStatus
		Total  int64
	}
	err := s.db.WithContext(ctx).Model(&models.LoanApplication{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, aggregationError("status counts", err)
	}

	counts := &StatusCounts{}
	for _, row := range rows {
		counts.Total += row.Total
		switch row.Status {
		case models.ApplicationStatusPending:
			counts.Pending = row.Total
		case models.ApplicationStatusApproved:
			counts.Approved = row.Total
		case models.ApplicationStatusRejected:
			counts.Rejected = row.Total
		}
	}
	return counts, nil
}

func (s *DashboardService) Financials(ctx context.Context) (*FinancialStats, error) {
	var stats FinancialStats
	err := s.db.WithContext(ctx).Model(&models.LoanApplication{}).
		Select(`COALESCE(SUM(loan_amount), 0) AS total_loan_amount,
			COALESCE(AVG(loan_amount), 0) AS average_loan_amount,
			COALESCE(AVG(credit_score), 0) AS average_credit_score,
			COALESCE(AVG(monthly_income), 0) AS average_monthly_income`).
		Scan(&stats).Error
	if err != nil {
		return nil, aggregationError("financial statistics", err)
	}
	return &stats, nil
}

func (s *DashboardService) LoanTypeDistribution(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		LoanType models.LoanType
		Total    int64
	}
	err := s.db.WithContext(ctx).Model(&models.LoanApplication{}).
		Select("loan_type, COUNT(*) AS total").
		Group("loan_type").
		Scan(&rows).Error
	if err != nil {
		return nil, aggregationError("loan type distribution", err)
	}

	distribution := make(map[string]int64, len(rows))
	for _, row := range rows {
		distribution[string(row.LoanType)] = row.Total
	}
	return distribution, nil
}

func (s *DashboardService) RecentApplications(ctx context.Context, limit int) ([]models.ApplicationSummary, error) {
	var apps []models.LoanApplication
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&apps).Error
	if err != nil {
		return nil, aggregationError("recent applications", err)
	}

	out := make([]models.ApplicationSummary, 0, len(apps))
	for i := range apps {
		out = append(out, apps[i].Summary())
	}
	return out, nil
}

// MonthlyApplicationCounts buckets the trailing window by UTC calendar month.
// Months without applications are not emitted.
func (s *DashboardService) MonthlyApplicationCounts(ctx context.Context, months int) ([]MonthlyCount, error) {
	since := subMonths(s.now(), months)
	buckets, err := s.monthBuckets(ctx, &since, nil)
	if err != nil {
		return nil, aggregationError("monthly application counts", err)
	}
	return bucketMonthlyCounts(buckets), nil
}

func (s *DashboardService) MonthlyStats(ctx context.Context, months int) ([]MonthlyStat, error) {
	since := subMonths(s.now(), months)
	buckets, err := s.monthBuckets(ctx, &since, nil)
	if err != nil {
		return nil, aggregationError("monthly statistics", err)
	}
	return bucketMonthlyStats(buckets), nil
}

// ApprovalTrends counts statuses per month within the optional inclusive bounds.
func (s *DashboardService) ApprovalTrends(ctx context.Context, start, end *time.Time) ([]TrendPoint, error) {
	buckets, err := s.monthBuckets(ctx, start, end)
	if err != nil {
		return nil, aggregationError("approval trends", err)
	}
	return bucketApprovalTrends(buckets), nil
}

// LoanTypeStats reports per-type figures for every type present, most common first.
func (s *DashboardService) LoanTypeStats(ctx context.Context) ([]LoanTypeStat, error) {
	var rows []struct {
		LoanType           models.LoanType
		Applications       int64
		TotalAmount        float64
		AverageAmount      float64
		AverageCreditScore float64
		Approved           int64
	}
	err := s.db.WithContext(ctx).Model(&models.LoanApplication{}).
		Select(`loan_type,
			COUNT(*) AS applications,
			COALESCE(SUM(loan_amount), 0) AS total_amount,
			COALESCE(AVG(loan_amount), 0) AS average_amount,
			COALESCE(AVG(credit_score), 0) AS average_credit_score,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS approved`, models.ApplicationStatusApproved).
		Group("loan_type").
		Order("applications DESC, loan_type ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, aggregationError("loan type statistics", err)
	}

	stats := make([]LoanTypeStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, LoanTypeStat{
			LoanType:           row.LoanType,
			Count:              row.Applications,
			TotalAmount:        row.TotalAmount,
			AverageAmount:      row.AverageAmount,
			AverageCreditScore: row.AverageCreditScore,
			ApprovalRate:       ApprovalRate(row.Approved, row.Applications),
		})
	}
	return stats, nil
}

func (s *DashboardService) TopMetrics(ctx context.Context) (*TopMetrics, error) {
	loanAmount, err := s.metricSummary(ctx, "loan_amount", func(a *models.LoanApplication) float64 { return a.LoanAmount })
	if err != nil {
		return nil, aggregationError("loan amount metrics", err)
	}

	creditScore, err := s.metricSummary(ctx, "credit_score", func(a *models.LoanApplication) float64 { return float64(a.CreditScore) })
	if err != nil {
		return nil, aggregationError("credit score metrics", err)
	}

	income, err := s.metricSummary(ctx, "monthly_income", func(a *models.LoanApplication) float64 { return a.MonthlyIncome })
	if err != nil {
		return nil, aggregationError("monthly income metrics", err)
	}

	return &TopMetrics{
		LoanAmount:    *loanAmount,
		CreditScore:   *creditScore,
		MonthlyIncome: *income,
	}, nil
}

// metricSummary finds the extremes and mean of column. column is never user input.
func (s *DashboardService) metricSummary(ctx context.Context, column string, value func(*models.LoanApplication) float64) (*MetricSummary, error) {
	db := s.db.WithContext(ctx)

	highest, err := extremalApplication(db, column+" DESC")
	if err != nil {
		return nil, err
	}
	lowest, err := extremalApplication(db, column+" ASC")
	if err != nil {
		return nil, err
	}

	var average float64
	if err := db.Model(&models.LoanApplication{}).
		Select("COALESCE(AVG(" + column + "), 0)").
		Scan(&average).Error; err != nil {
		return nil, err
	}

	return &MetricSummary{
		Highest: toExtreme(highest, value),
		Lowest:  toExtreme(lowest, value),
		Average: average,
	}, nil
}

func extremalApplication(db *gorm.DB, order string) (*models.LoanApplication, error) {
	var apps []models.LoanApplication
	if err := db.Order(order).Limit(1).Find(&apps).Error; err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return nil, nil
	}
	return &apps[0], nil
}

func toExtreme(app *models.LoanApplication, value func(*models.LoanApplication) float64) MetricExtreme {
	if app == nil {
		return MetricExtreme{}
	}
	summary := app.Summary()
	return MetricExtreme{Value: value(app), Application: &summary}
}

// monthBuckets groups applications by UTC year, month and status in the store.
func (s *DashboardService) monthBuckets(ctx context.Context, from, to *time.Time) ([]monthBucket, error) {
	db := s.db.WithContext(ctx)
	year, month := monthExpressions(db)

	query := db.Model(&models.LoanApplication{}).
		Select(year + " AS bucket_year, " + month + " AS bucket_month, status, " +
			"COUNT(*) AS total, COALESCE(SUM(loan_amount), 0) AS amount")
	if from != nil {
		query = query.Where("created_at >= ?", from.UTC())
	}
	if to != nil {
		query = query.Where("created_at <= ?", to.UTC())
	}

	var buckets []monthBucket
	err := query.
		Group(year + ", " + month + ", status").
		Order("bucket_year ASC, bucket_month ASC").
		Scan(&buckets).Error
	return buckets, err
}

// monthExpressions returns the SQL extracting the UTC year and month of created_at.
func monthExpressions(db *gorm.DB) (year, month string) {
	if db.Dialector.Name() == "sqlite" {
		// strftime normalises a stored offset to UTC
		return "CAST(strftime('%Y', created_at) AS INTEGER)", "CAST(strftime('%m', created_at) AS INTEGER)"
	}
	return "CAST(EXTRACT(YEAR FROM created_at AT TIME ZONE 'UTC') AS INTEGER)",
		"CAST(EXTRACT(MONTH FROM created_at AT TIME ZONE 'UTC') AS INTEGER)"
}
