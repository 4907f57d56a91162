package dashboard

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/companydir/internal/company"
	"github.com/odyssey-erp/companydir/internal/listing"
	"github.com/odyssey-erp/companydir/internal/view"
)

func TestDirectoryPage(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)

	store := company.NewMemoryStore()
	dataset, err := company.SeedDataset()
	require.NoError(t, err)
	_, err = store.ReplaceAll(t.Context(), dataset)
	require.NoError(t, err)

	h := NewHandler(Config{Service: company.NewService(store, company.ServiceConfig{}), Views: engine})
	r := chi.NewRouter()
	h.MountPage(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?page=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Showing 7-")
	assert.Contains(t, body, `href="/"`)
	assert.Contains(t, body, `aria-current="page">2<`)
}

func TestDirectoryPageWithoutEngine(t *testing.T) {
	h := NewHandler(Config{Service: company.NewService(company.NewMemoryStore(), company.ServiceConfig{})})
	r := chi.NewRouter()
	h.MountPage(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNewPageDataLinks(t *testing.T) {
	companies := make([]company.Company, 30)
	for i := range companies {
		companies[i] = company.Company{ID: fmt.Sprintf("c%02d", i), Attributes: company.Attributes{Name: "C"}}
	}
	state := listing.DefaultState()
	state.PageNumber = 3
	state.Industry = "Energy"

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	data := newPageData(listing.Build(companies, listing.State{PageNumber: 3, ItemsPerPage: 6}), now)
	assert.Equal(t, "/?page=2", data.PrevURL)
	assert.Equal(t, "/?page=4", data.NextURL)
	require.NotEmpty(t, data.Links)
	assert.Equal(t, "/", data.Links[0].URL)

	assert.Equal(t, "/?industry=Energy&page=3", stateURL(state))
}
