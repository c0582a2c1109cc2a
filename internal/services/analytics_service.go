// internal/services/analytics_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/loan-manager/internal/metrics"
	"github.com/javajoker/loan-manager/internal/models"
)

const (
	SnapshotPeriodDaily = "daily"
	snapshotJobTimeout  = 2 * time.Minute
)

// Snapshot metric names.
const (
	MetricTotalApplications  = "total_applications"
	MetricApprovalRate       = "approval_rate"
	MetricTotalLoanAmount    = "total_loan_amount"
	MetricAverageCreditScore = "average_credit_score"
	MetricPendingCount       = "pending_applications"
	MetricApprovedCount      = "approved_applications"
	MetricRejectedCount      = "rejected_applications"
)

// AnalyticsService records periodic snapshots of dashboard figures. Live
// dashboard endpoints never read them.
type AnalyticsService struct {
	db        *gorm.DB
	dashboard *DashboardService
}

type SnapshotFilter struct {
	Metric string
	From   *time.Time
	To     *time.Time
	Limit  int
}

func NewAnalyticsService(db *gorm.DB, dashboard *DashboardService) *AnalyticsService {
	return &AnalyticsService{
		db:        db,
		dashboard: dashboard,
	}
}

// RecordSnapshot stores the current figures dated at the start of today's UTC day.
func (s *AnalyticsService) RecordSnapshot(ctx context.Context) ([]models.PlatformAnalytics, error) {
	counts, err := s.dashboard.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	financial, err := s.dashboard.Financials(ctx)
	if err != nil {
		return nil, err
	}
	distribution, err := s.dashboard.LoanTypeDistribution(ctx)
	if err != nil {
		return nil, err
	}

	now := s.dashboard.now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	snapshot := func(name string, value float64, extra models.JSONB) models.PlatformAnalytics {
		return models.PlatformAnalytics{
			MetricName:     name,
			MetricValue:    value,
			MetricDate:     day,
			MetricPeriod:   SnapshotPeriodDaily,
			AdditionalData: extra,
		}
	}

	distributionData := make(models.JSONB, len(distribution))
	for loanType, count := range distribution {
		distributionData[loanType] = count
	}

	rows := []models.PlatformAnalytics{
		snapshot(MetricTotalApplications, float64(counts.Total), models.JSONB{"loanTypeDistribution": distributionData}),
		snapshot(MetricApprovalRate, ApprovalRate(counts.Approved, counts.Total), nil),
		snapshot(MetricTotalLoanAmount, financial.TotalLoanAmount, models.JSONB{"averageLoanAmount": financial.AverageLoanAmount}),
		snapshot(MetricAverageCreditScore, financial.AverageCreditScore, nil),
		snapshot(MetricPendingCount, float64(counts.Pending), nil),
		snapshot(MetricApprovedCount, float64(counts.Approved), nil),
		snapshot(MetricRejectedCount, float64(counts.Rejected), nil),
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, storeError("Failed to store analytics snapshot", err)
	}
	return rows, nil
}

// ListSnapshots returns stored snapshots, newest first.
func (s *AnalyticsService) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]models.PlatformAnalytics, error) {
	query := s.db.WithContext(ctx).Model(&models.PlatformAnalytics{})
	if filter.Metric != "" {
		query = query.Where("metric_name = ?", filter.Metric)
	}
	if filter.From != nil {
		query = query.Where("metric_date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("metric_date <= ?", filter.To.UTC())
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows := make([]models.PlatformAnalytics, 0)
	if err := query.Order("metric_date DESC").Order("metric_name ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, storeError("Failed to list analytics snapshots", err)
	}
	return rows, nil
}

// SnapshotJob is the cron entry point.
func (s *AnalyticsService) SnapshotJob() {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotJobTimeout)
	defer cancel()

	start := time.Now()
	rows, err := s.RecordSnapshot(ctx)
	metrics.RecordSnapshotRun(err == nil)
	if err != nil {
		logrus.WithError(err).Error("analytics snapshot failed")
		return
	}

	logrus.WithFields(logrus.Fields{
		"metrics":     len(rows),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("analytics snapshot recorded")
}

// StartScheduler schedules SnapshotJob on schedule and starts the cron runner.
// An empty schedule disables snapshots and returns nil.
func (s *AnalyticsService) StartScheduler(schedule string) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}

	c := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := c.AddFunc(schedule, s.SnapshotJob); err != nil {
		return nil, fmt.Errorf("invalid snapshot schedule %q: %w", schedule, err)
	}
	c.Start()

	logrus.WithField("schedule", schedule).Info("analytics snapshot scheduler started")
	return c, nil
}
