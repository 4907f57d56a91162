package listing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/companydir/internal/company"
)

func fixture() []company.Company {
	return []company.Company{
		{ID: "1", Attributes: company.Attributes{Name: "Acme Cloud", Industry: company.Simple[company.IndustryDetails]("Technology")}},
		{ID: "2", Attributes: company.Attributes{Name: "Borealis", Description: "Cloud-native platform", Industry: company.Structured(company.IndustryDetails{Primary: "Technology", Sectors: []string{"SaaS"}})}},
		{ID: "3", Attributes: company.Attributes{Name: "Cinder Power", Industry: company.Simple[company.IndustryDetails]("Energy")}},
		{ID: "4", Attributes: company.Attributes{Name: "Driftwood"}},
	}
}

func names(cs []company.Company) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func TestFilterBySearch(t *testing.T) {
	got := Filter(fixture(), company.Filters{Search: "cloud"})
	assert.Equal(t, []string{"Acme Cloud", "Borealis"}, names(got))
}

func TestFilterByIndustryExcludesAbsent(t *testing.T) {
	got := Filter(fixture(), company.Filters{Industry: "Technology"})
	assert.Equal(t, []string{"Acme Cloud", "Borealis"}, names(got))

	got = Filter(fixture(), company.Filters{Industry: "Energy"})
	assert.Equal(t, []string{"Cinder Power"}, names(got))
}

func TestFilterCombinesClausesWithAnd(t *testing.T) {
	got := Filter(fixture(), company.Filters{Search: "power", Industry: "Technology"})
	assert.Empty(t, got)
}

func TestFilterWithoutClausesKeepsEverything(t *testing.T) {
	assert.Len(t, Filter(fixture(), company.Filters{}), 4)
}

func TestIndustries(t *testing.T) {
	assert.Equal(t, []string{"Energy", "Technology"}, Industries(fixture()))
	assert.Empty(t, Industries(nil))
}

func TestBuildView(t *testing.T) {
	all := fixture()
	v := Build(all, State{Search: "cloud", PageNumber: 1, ItemsPerPage: 6})
	assert.Equal(t, 1, v.Page.TotalPages)
	assert.Equal(t, []string{"Acme Cloud", "Borealis"}, names(v.Page.Items))
	assert.Equal(t, pages(1), v.PageNumbers)
	assert.Equal(t, []string{"Energy", "Technology"}, v.Industries)

	v = Build(all, State{PageNumber: 0, ItemsPerPage: 7})
	assert.Equal(t, DefaultState(), v.State)
}

func TestBuildClampsPagePastTheEnd(t *testing.T) {
	v := Build(fixture(), State{PageNumber: 9, ItemsPerPage: 6})
	assert.Equal(t, 1, v.State.PageNumber)
	assert.Len(t, v.Page.Items, 4)
	assert.Equal(t, "Showing 1-4 of 4 companies", v.Page.Info())

	v = Build(nil, State{PageNumber: 3, ItemsPerPage: 6})
	assert.Equal(t, 1, v.State.PageNumber)
	assert.Equal(t, "No companies found.", v.Page.Info())
}

func TestBlankIndustryIsIgnoredEverywhere(t *testing.T) {
	filters := company.Filters{Industry: "  "}
	assert.Len(t, Filter(fixture(), filters), 4)

	store := company.NewMemoryStore()
	_, err := store.ReplaceAll(context.Background(), fixture())
	require.NoError(t, err)
	stored, err := store.FindAll(context.Background(), filters)
	require.NoError(t, err)
	assert.Len(t, stored, 4)

	padded, err := store.FindAll(context.Background(), company.Filters{Industry: " Energy "})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cinder Power"}, names(padded))
	assert.Equal(t, names(padded), names(Filter(fixture(), company.Filters{Industry: " Energy "})))
}
