package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/loan-manager/internal/models"
)

func TestSubMonths(t *testing.T) {
	tests := []struct {
		now    string
		months int
		want   string
	}{
		{"2024-08-15", 6, "2024-02-15"},
		{"2024-03-31", 1, "2024-02-29"},
		{"2023-03-31", 1, "2023-02-28"},
		{"2024-01-31", 2, "2023-11-30"},
		{"2024-05-10", 24, "2022-05-10"},
	}

	for _, tt := range tests {
		got := subMonths(date(tt.now), tt.months)
		assert.Equal(t, tt.want, got.Format("2006-01-02"), "%s minus %d months", tt.now, tt.months)
	}
}

func TestSubMonthsKeepsClock(t *testing.T) {
	now := time.Date(2024, 7, 31, 13, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 30, 13, 45, 0, 0, time.UTC), subMonths(now, 1))
}

func monthlyFixture() []monthBucket {
	return []monthBucket{
		{BucketYear: 2024, BucketMonth: 3, Status: models.ApplicationStatusApproved, Total: 1, Amount: 4000},
		{BucketYear: 2024, BucketMonth: 1, Status: models.ApplicationStatusApproved, Total: 1, Amount: 2000},
		{BucketYear: 2024, BucketMonth: 1, Status: models.ApplicationStatusPending, Total: 1, Amount: 5000},
		{BucketYear: 2024, BucketMonth: 3, Status: models.ApplicationStatusRejected, Total: 1, Amount: 3000},
		{BucketYear: 2023, BucketMonth: 12, Status: models.ApplicationStatusPending, Total: 1, Amount: 1000},
	}
}

func TestBucketMonthlyCounts(t *testing.T) {
	got := bucketMonthlyCounts(monthlyFixture())

	assert.Equal(t, []MonthlyCount{
		{Month: "Dec 2023", Count: 1},
		{Month: "Jan 2024", Count: 2},
		{Month: "Mar 2024", Count: 2},
	}, got)
}

func TestBucketMonthlyStats(t *testing.T) {
	got := bucketMonthlyStats(monthlyFixture())
	require.Len(t, got, 3)

	assert.Equal(t, MonthlyStat{Month: "Dec 2023", Applications: 1, Pending: 1, TotalAmount: 1000, ApprovalRate: 0}, got[0])
	assert.Equal(t, MonthlyStat{Month: "Jan 2024", Applications: 2, Approved: 1, Pending: 1, TotalAmount: 7000, ApprovalRate: 50}, got[1])
	assert.Equal(t, MonthlyStat{Month: "Mar 2024", Applications: 2, Approved: 1, Rejected: 1, TotalAmount: 7000, ApprovalRate: 50}, got[2])
}

func TestBucketsSumGroupTotals(t *testing.T) {
	buckets := []monthBucket{
		{BucketYear: 2024, BucketMonth: 2, Status: models.ApplicationStatusApproved, Total: 3, Amount: 9000},
		{BucketYear: 2024, BucketMonth: 2, Status: models.ApplicationStatusRejected, Total: 1, Amount: 500},
	}

	assert.Equal(t, []MonthlyCount{{Month: "Feb 2024", Count: 4}}, bucketMonthlyCounts(buckets))
	assert.Equal(t, MonthlyStat{Month: "Feb 2024", Applications: 4, Approved: 3, Rejected: 1, TotalAmount: 9500, ApprovalRate: 75},
		bucketMonthlyStats(buckets)[0])
}

func TestBucketApprovalTrendsOmitsAbsentStatuses(t *testing.T) {
	trends := bucketApprovalTrends(monthlyFixture())
	require.Len(t, trends, 3)

	raw, err := json.Marshal(trends)
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, map[string]interface{}{"month": "Dec 2023", "pending": float64(1)}, decoded[0])
	assert.Equal(t, map[string]interface{}{"month": "Jan 2024", "approved": float64(1), "pending": float64(1)}, decoded[1])
	assert.Equal(t, map[string]interface{}{"month": "Mar 2024", "approved": float64(1), "rejected": float64(1)}, decoded[2])
}

func TestBucketEmptyInput(t *testing.T) {
	assert.Empty(t, bucketMonthlyCounts(nil))
	assert.NotNil(t, bucketMonthlyStats(nil))
	assert.NotNil(t, bucketApprovalTrends(nil))
}
