package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONBRoundTrip(t *testing.T) {
	in := JSONB{"status": "approved", "count": 3.0}

	value, err := in.Value()
	require.NoError(t, err)

	var fromString JSONB
	require.NoError(t, fromString.Scan(value))
	assert.Equal(t, in, fromString)

	var fromBytes JSONB
	require.NoError(t, fromBytes.Scan([]byte(value.(string))))
	assert.Equal(t, in, fromBytes)

	var empty JSONB
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)

	assert.Error(t, empty.Scan(42))
}

func TestNilJSONBValue(t *testing.T) {
	var j JSONB
	value, err := j.Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestToJSONBUsesJSONNames(t *testing.T) {
	out := ToJSONB(ExistingLoan{Lender: "First Bank", Amount: 1000, RemainingBalance: 250})
	assert.Equal(t, "First Bank", out["lender"])
	assert.Contains(t, out, "remainingBalance")
}

func TestEnumValidity(t *testing.T) {
	for _, s := range ApplicationStatuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, ApplicationStatus("archived").IsValid())
	assert.False(t, ApplicationStatus("").IsValid())

	assert.True(t, LoanTypeMortgage.IsValid())
	assert.False(t, LoanType("payday").IsValid())
}

func TestBeforeCreateKeepsExistingID(t *testing.T) {
	fixed := uuid.New()
	b := BaseModel{ID: fixed}
	require.NoError(t, b.BeforeCreate(nil))
	assert.Equal(t, fixed, b.ID)

	var fresh BaseModel
	require.NoError(t, fresh.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, fresh.ID)
}

func TestSummaryProjection(t *testing.T) {
	app := LoanApplication{
		FullName:   "Jane Applicant",
		Email:      "jane@example.com",
		LoanAmount: 12000,
		LoanType:   LoanTypeAuto,
		Status:     ApplicationStatusPending,
	}
	app.ID = uuid.New()
	app.CreatedAt = time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	raw, err := json.Marshal(app.Summary())
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Jane Applicant", out["fullName"])
	assert.Equal(t, "auto", out["loanType"])
	assert.NotContains(t, out, "email")
}
