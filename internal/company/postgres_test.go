package company

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQueryWithoutFilters(t *testing.T) {
	query, args := buildListQuery(Filters{})
	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, `ORDER BY name COLLATE "C" ASC, id ASC`)
	assert.Empty(t, args)
}

func TestBuildListQueryAndsBothClauses(t *testing.T) {
	query, args := buildListQuery(Filters{Search: "50%_off", Industry: "Technology"})

	assert.Contains(t, query, `WHERE (name ILIKE $1 OR description ILIKE $1) AND ((jsonb_typeof(industry) = 'string' AND industry #>> '{}' = $2) OR (jsonb_typeof(industry) = 'object' AND industry ->> 'primary' = $2))`)
	assert.Equal(t, []any{`%50\%\_off%`, "Technology"}, args)
}

func TestBuildListQueryIndustryOnly(t *testing.T) {
	query, args := buildListQuery(Filters{Industry: "Energy"})
	assert.Contains(t, query, "industry ->> 'primary' = $1")
	assert.Equal(t, []any{"Energy"}, args)
}

func TestBuildListQueryIgnoresBlankIndustry(t *testing.T) {
	query, args := buildListQuery(Filters{Industry: "   "})
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)

	_, args = buildListQuery(Filters{Industry: " Energy "})
	assert.Equal(t, []any{"Energy"}, args)
}

func TestRowMappingKeepsAbsentFieldsNull(t *testing.T) {
	r, err := toRow(Company{ID: "a", Attributes: Attributes{Name: "A", Industry: Simple[IndustryDetails]("Energy")}})
	assert.NoError(t, err)
	assert.Nil(t, r.Location)
	assert.Nil(t, r.CEO)
	assert.Nil(t, r.Description)
	assert.JSONEq(t, `"Energy"`, string(r.Industry))
}

func TestRowMappingRejectsCountsBeyondIntegerColumn(t *testing.T) {
	count := 3_000_000_000
	_, err := toRow(Company{ID: "a", Attributes: Attributes{Name: "A", EmployeeCount: &count}})
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "employee_count")
}
