package company

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func intPtr(v int) *int { return &v }

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrValidation))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	return verr.Fields
}

func TestValidateAcceptsMinimalRecord(t *testing.T) {
	assert.NoError(t, Attributes{Name: "Acme"}.Validate())
}

func TestValidateRules(t *testing.T) {
	fixClock(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name  string
		attrs Attributes
		field string
		msg   string
	}{
		{"name required", Attributes{}, "name", "Company name is required"},
		{"name too long", Attributes{Name: strings.Repeat("a", 101)}, "name", "Must be at most 100 characters"},
		{"description too long", Attributes{Name: "A", Description: strings.Repeat("d", 256)}, "description", "Must be at most 255 characters"},
		{"bad logo url", Attributes{Name: "A", LogoURL: "not a url"}, "logo_url", "Invalid logo URL"},
		{"bad website", Attributes{Name: "A", Website: "nope"}, "website", "Invalid website URL"},
		{"negative employees", Attributes{Name: "A", EmployeeCount: intPtr(-1)}, "employee_count", "Must be 0 or greater"},
		{"employees beyond integer column", Attributes{Name: "A", EmployeeCount: intPtr(3_000_000_000)}, "employee_count", "Must be 2147483647 or less"},
		{"founded too early", Attributes{Name: "A", Founded: intPtr(1799)}, "founded", "Must be 1800 or later"},
		{"founded in future", Attributes{Name: "A", Founded: intPtr(2027)}, "founded", "Must be 2026 or earlier"},
		{"ceo since out of range", Attributes{Name: "A", CEO: Structured(CEODetails{Name: "B", Since: 1700})}, "ceo", "CEO start year must be between 1800 and 2026"},
		{"industry without primary", Attributes{Name: "A", Industry: Structured(IndustryDetails{})}, "industry", "Industry primary is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := fieldErrors(t, tt.attrs.Validate())
			assert.Contains(t, fields[tt.field], tt.msg)
		})
	}
}

func TestValidateBoundaries(t *testing.T) {
	fixClock(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, Attributes{Name: strings.Repeat("a", 100), Founded: intPtr(1800), EmployeeCount: intPtr(0)}.Validate())
	assert.NoError(t, Attributes{Name: "A", Founded: intPtr(2026), Website: "https://example.com"}.Validate())
	assert.NoError(t, Attributes{Name: "A", EmployeeCount: intPtr(2147483647)}.Validate())
}

func TestValidationErrorMessage(t *testing.T) {
	verr := &ValidationError{}
	verr.Add("website", "Invalid website URL")
	verr.Add("name", "Company name is required")
	assert.Equal(t, "validation failed: name: Company name is required; website: Invalid website URL", verr.Error())
	assert.Equal(t, "Validation failed. Please check the form fields.", UserMessage("create", verr))
	assert.Equal(t, "Failed to delete company. Please try again.", UserMessage("delete", ErrPersistence))
}
