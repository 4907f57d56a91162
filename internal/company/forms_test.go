package company

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleFormProducesPlainStrings(t *testing.T) {
	form := SimpleFormFromValues(url.Values{
		"name":           {"  Acme  "},
		"location":       {" Paris "},
		"industry":       {"Technology"},
		"ceo":            {""},
		"employee_count": {"42"},
		"founded":        {""},
	})
	attrs, err := form.Attributes()
	require.NoError(t, err)

	assert.Equal(t, "Acme", attrs.Name)
	text, ok := attrs.Location.Text()
	require.True(t, ok)
	assert.Equal(t, "Paris", text)
	assert.Equal(t, KindSimple, attrs.Industry.Kind())
	assert.True(t, attrs.CEO.IsZero())
	require.NotNil(t, attrs.EmployeeCount)
	assert.Equal(t, 42, *attrs.EmployeeCount)
	assert.Nil(t, attrs.Founded)
}

func TestSimpleFormReportsEveryBadField(t *testing.T) {
	_, err := SimpleForm{Name: "", EmployeeCount: "many", Website: "bad"}.Attributes()
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "employee_count")
	assert.Contains(t, fields, "website")
}

func TestSimpleFormFromCompanyUsesSimpleProjection(t *testing.T) {
	c := Company{ID: "1", Attributes: Attributes{
		Name:     "Acme",
		Location: Structured(LocationDetails{City: "Rome", Country: "Italy"}),
		Industry: Structured(IndustryDetails{Primary: "Food"}),
		CEO:      Simple[CEODetails]("Luca"),
		Founded:  intPtr(1999),
	}}
	form := SimpleFormFrom(c)
	assert.Equal(t, "Rome", form.Location)
	assert.Equal(t, "Food", form.Industry)
	assert.Equal(t, "Luca", form.CEO)
	assert.Equal(t, "1999", form.Founded)
	assert.Equal(t, "", form.EmployeeCount)
}

func TestRichFormBuildsStructuredFields(t *testing.T) {
	form := RichFormFromValues(url.Values{
		"name":             {"Acme"},
		"location_city":    {"Oslo"},
		"location_country": {"Norway"},
		"industry_primary": {"Energy"},
		"industry_sectors": {"Wind, Solar ,,"},
		"ceo_simple":       {"Ingrid"},
	})
	attrs, err := form.Attributes()
	require.NoError(t, err)

	loc, ok := attrs.Location.Value()
	require.True(t, ok)
	assert.Equal(t, LocationDetails{City: "Oslo", Country: "Norway"}, loc)

	ind, ok := attrs.Industry.Value()
	require.True(t, ok)
	assert.Equal(t, []string{"Wind", "Solar"}, ind.Sectors)

	ceo, ok := attrs.CEO.Value()
	require.True(t, ok, "simple text in advanced mode is packaged as structured")
	assert.Equal(t, "Ingrid", ceo.Name)
}

func TestRichFormCEOSince(t *testing.T) {
	attrs, err := RichForm{Name: "Acme", CEOName: "Ada", CEOSince: "2010", CEOBio: "x"}.Attributes()
	require.NoError(t, err)
	ceo, _ := attrs.CEO.Value()
	assert.Equal(t, CEODetails{Name: "Ada", Since: 2010, Bio: "x"}, ceo)

	_, err = RichForm{Name: "Acme", CEOName: "Ada", CEOSince: "soon"}.Attributes()
	assert.Contains(t, fieldErrors(t, err), "ceo")
}
