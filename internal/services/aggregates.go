// internal/services/aggregates.go
package services

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/javajoker/loan-manager/internal/models"
)

const monthLabelLayout = "Jan 2006"

type StatusCounts struct {
	Total    int64
	Pending  int64
	Approved int64
	Rejected int64
}

type FinancialStats struct {
	TotalLoanAmount      float64
	AverageLoanAmount    float64
	AverageCreditScore   float64
	AverageMonthlyIncome float64
}

type MonthlyCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type MonthlyStat struct {
	Month        string  `json:"month"`
	Applications int64   `json:"applications"`
	Approved     int64   `json:"approved"`
	Rejected     int64   `json:"rejected"`
	Pending      int64   `json:"pending"`
	TotalAmount  float64 `json:"totalAmount"`
	ApprovalRate float64 `json:"approvalRate"`
}

// TrendPoint is one month of status counts. Statuses with no applications
// that month are absent from Counts and from the JSON form.
type TrendPoint struct {
	Month  string
	Counts map[models.ApplicationStatus]int64
}

func (p TrendPoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.Counts)+1)
	out["month"] = p.Month
	for status, count := range p.Counts {
		out[string(status)] = count
	}
	return json.Marshal(out)
}

type LoanTypeStat struct {
	LoanType           models.LoanType `json:"loanType"`
	Count              int64           `json:"count"`
	TotalAmount        float64         `json:"totalAmount"`
	AverageAmount      float64         `json:"averageAmount"`
	AverageCreditScore float64         `json:"averageCreditScore"`
	ApprovalRate       float64         `json:"approvalRate"`
}

type MetricExtreme struct {
	Value       float64                    `json:"value"`
	Application *models.ApplicationSummary `json:"application"`
}

type MetricSummary struct {
	Highest MetricExtreme `json:"highest"`
	Lowest  MetricExtreme `json:"lowest"`
	Average float64       `json:"average"`
}

type TopMetrics struct {
	LoanAmount    MetricSummary `json:"loanAmount"`
	CreditScore   MetricSummary `json:"creditScore"`
	MonthlyIncome MetricSummary `json:"monthlyIncome"`
}

type DashboardStats struct {
	TotalApplications    int64                       `json:"totalApplications"`
	PendingApplications  int64                       `json:"pendingApplications"`
	ApprovedApplications int64                       `json:"approvedApplications"`
	RejectedApplications int64                       `json:"rejectedApplications"`
	TotalLoanAmount      float64                     `json:"totalLoanAmount"`
	AverageLoanAmount    float64                     `json:"averageLoanAmount"`
	AverageCreditScore   float64                     `json:"averageCreditScore"`
	AverageMonthlyIncome float64                     `json:"averageMonthlyIncome"`
	ApprovalRate         float64                     `json:"approvalRate"`
	LoanTypeDistribution map[string]int64            `json:"loanTypeDistribution"`
	MonthlyApplications  []MonthlyCount              `json:"monthlyApplications"`
	RecentApplications   []models.ApplicationSummary `json:"recentApplications"`
}

// monthBucket is one (UTC year, month, status) group as returned by the store.
type monthBucket struct {
	BucketYear  int
	BucketMonth int
	Status      models.ApplicationStatus
	Total       int64
	Amount      float64
}

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) label() string {
	return time.Date(k.year, k.month, 1, 0, 0, 0, 0, time.UTC).Format(monthLabelLayout)
}

func (k monthKey) before(o monthKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	return k.month < o.month
}

// subMonths moves back n calendar months, clamping the day to the end of the target month.
func subMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month-time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := time.Date(target.Year(), target.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// groupByMonth returns the month keys present in buckets in ascending order.
func groupByMonth(buckets []monthBucket) ([]monthKey, map[monthKey][]monthBucket) {
	groups := make(map[monthKey][]monthBucket)
	for _, b := range buckets {
		k := monthKey{year: b.BucketYear, month: time.Month(b.BucketMonth)}
		groups[k] = append(groups[k], b)
	}

	keys := make([]monthKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })
	return keys, groups
}

func bucketMonthlyCounts(buckets []monthBucket) []MonthlyCount {
	keys, groups := groupByMonth(buckets)
	out := make([]MonthlyCount, 0, len(keys))
	for _, k := range keys {
		count := MonthlyCount{Month: k.label()}
		for _, b := range groups[k] {
			count.Count += b.Total
		}
		out = append(out, count)
	}
	return out
}

func bucketMonthlyStats(buckets []monthBucket) []MonthlyStat {
	keys, groups := groupByMonth(buckets)
	out := make([]MonthlyStat, 0, len(keys))
	for _, k := range keys {
		stat := MonthlyStat{Month: k.label()}
		for _, b := range groups[k] {
			stat.Applications += b.Total
			stat.TotalAmount += b.Amount
			switch b.Status {
			case models.ApplicationStatusApproved:
				stat.Approved += b.Total
			case models.ApplicationStatusRejected:
				stat.Rejected += b.Total
			case models.ApplicationStatusPending:
				stat.Pending += b.Total
			}
		}
		stat.ApprovalRate = ApprovalRate(stat.Approved, stat.Applications)
		out = append(out, stat)
	}
	return out
}

func bucketApprovalTrends(buckets []monthBucket) []TrendPoint {
	keys, groups := groupByMonth(buckets)
	out := make([]TrendPoint, 0, len(keys))
	for _, k := range keys {
		counts := make(map[models.ApplicationStatus]int64)
		for _, b := range groups[k] {
			if b.Total > 0 {
				counts[b.Status] += b.Total
			}
		}
		out = append(out, TrendPoint{Month: k.label(), Counts: counts})
	}
	return out
}
