package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/companydir/internal/company"
	"github.com/odyssey-erp/companydir/internal/platform/httpx"
	_ "github.com/odyssey-erp/companydir/testing"
)

type testEnv struct {
	router http.Handler
	store  *company.MemoryStore
}

func newTestEnv(t *testing.T, enqueuer Enqueuer) testEnv {
	t.Helper()
	store := company.NewMemoryStore()
	svc := company.NewService(store, company.ServiceConfig{})
	h := NewHandler(Config{
		Service:  svc,
		Enqueuer: enqueuer,
		Now:      func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	return testEnv{router: r, store: store}
}

func (e testEnv) do(t *testing.T, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e testEnv) seed(t *testing.T) []company.Company {
	t.Helper()
	dataset, err := company.SeedDataset()
	require.NoError(t, err)
	_, err = e.store.ReplaceAll(context.Background(), dataset)
	require.NoError(t, err)
	return dataset
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestCreateFromJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPost, "/api/companies", "application/json",
		`{"name":"Acme","industry":{"primary":"Technology","sectors":["SaaS"]},"location":"Berlin"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	resp := decode[mutationResponse](t, rr)
	assert.NotEmpty(t, resp.Company.ID)
	assert.Equal(t, `Company "Acme" created successfully!`, resp.Message)
	assert.Equal(t, company.KindStructured, resp.Company.Industry.Kind())
	assert.Equal(t, company.KindSimple, resp.Company.Location.Kind())

	stored, err := env.store.FindByID(context.Background(), resp.Company.ID)
	require.NoError(t, err)
	assert.Equal(t, "Technology", stored.IndustryKey())
}

func TestCreateRejectsCallerSuppliedID(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, http.MethodPost, "/api/companies", "application/json", `{"id":"mine","name":"Acme"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateValidationErrorsPerField(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPost, "/api/companies", "application/json",
		`{"name":"","website":"nope","ceo":{"bio":"no name"}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	problem := decode[httpx.ProblemDetail](t, rr)
	assert.Equal(t, []string{"Company name is required"}, problem.Errors["name"])
	assert.Equal(t, []string{"Invalid website URL"}, problem.Errors["website"])
	assert.Equal(t, []string{"CEO name is required"}, problem.Errors["ceo"])
}

func TestCreateFromAdvancedForm(t *testing.T) {
	env := newTestEnv(t, nil)
	form := url.Values{
		"mode":             {"advanced"},
		"name":             {"Borealis"},
		"industry_primary": {"Energy"},
		"industry_sectors": {"Solar, Wind"},
		"location_city":    {"Oslo"},
		"location_country": {"Norway"},
		"ceo_simple":       {"Ingrid Berg"},
	}

	rr := env.do(t, http.MethodPost, "/api/companies", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	created := decode[mutationResponse](t, rr).Company
	assert.Equal(t, []string{"Solar", "Wind"}, company.Sectors(created.Industry))
	assert.Equal(t, "Oslo, Norway", created.Location.Display())
	ceo, ok := created.CEO.Value()
	require.True(t, ok)
	assert.Equal(t, "Ingrid Berg", ceo.Name)
}

func TestCreateFromSimpleFormReportsBadNumber(t *testing.T) {
	env := newTestEnv(t, nil)
	form := url.Values{"name": {"Acme"}, "employee_count": {"lots"}}

	rr := env.do(t, http.MethodPost, "/api/companies", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, decode[httpx.ProblemDetail](t, rr).Errors, "employee_count")
}

func TestUpdateMissingCompany(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPatch, "/api/companies/ghost", "application/json", `{"name":"New"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Failed to update company. Please try again.", decode[httpx.ProblemDetail](t, rr).Detail)
}

func TestUpdateAppliesPatch(t *testing.T) {
	env := newTestEnv(t, nil)
	dataset := env.seed(t)
	target := dataset[0]

	rr := env.do(t, http.MethodPatch, "/api/companies/"+target.ID, "application/json", `{"description":"Rebranded","unset":["founded"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[mutationResponse](t, rr)
	assert.Equal(t, target.ID, resp.Company.ID)
	assert.Equal(t, target.Name, resp.Company.Name)
	assert.Equal(t, "Rebranded", resp.Company.Description)
	assert.Nil(t, resp.Company.Founded)
	assert.Equal(t, fmt.Sprintf("Company %q updated successfully!", target.Name), resp.Message)
}

func TestUpdateUnsetClearsLocation(t *testing.T) {
	env := newTestEnv(t, nil)
	dataset := env.seed(t)
	var target company.Company
	for _, c := range dataset {
		if !c.Location.IsZero() {
			target = c
			break
		}
	}
	require.NotEmpty(t, target.ID)

	rr := env.do(t, http.MethodPatch, "/api/companies/"+target.ID, "application/json", `{"location":null,"unset":["location"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, decode[mutationResponse](t, rr).Company.Location.IsZero())

	stored, err := env.store.FindByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.True(t, stored.Location.IsZero())
}

func TestDeleteIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	dataset := env.seed(t)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/companies/"+dataset[0].ID, "", "").Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/companies/"+dataset[0].ID, "", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/companies/"+dataset[0].ID, "", "").Code)
}

func TestBulkDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	dataset := env.seed(t)

	body := fmt.Sprintf(`{"ids":[%q,%q]}`, dataset[0].ID, dataset[1].ID)
	rr := env.do(t, http.MethodPost, "/api/companies/bulk-delete", "application/json", body)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[bulkDeleteResponse](t, rr)
	assert.Equal(t, 2, resp.Deleted)
	assert.Empty(t, resp.Failed)
	assert.Equal(t, "2 companies deleted successfully!", resp.Message)

	all, err := env.store.FindAll(context.Background(), company.Filters{})
	require.NoError(t, err)
	assert.Len(t, all, len(dataset)-2)
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rr := env.do(t, http.MethodGet, "/api/companies?industry=Technology", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	for _, c := range decode[listResponse](t, rr).Companies {
		assert.Equal(t, "Technology", c.IndustryKey())
	}

	rr = env.do(t, http.MethodGet, "/api/companies?search=cloud", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	found := decode[listResponse](t, rr).Companies
	require.NotEmpty(t, found)
	for _, c := range found {
		hay := strings.ToLower(c.Name + " " + c.Description)
		assert.Contains(t, hay, "cloud")
	}
}

type viewPayload struct {
	Items []struct {
		ID      string `json:"id"`
		Display struct {
			Location  string `json:"location"`
			Employees string `json:"employees"`
			Age       string `json:"age"`
		} `json:"display"`
	} `json:"items"`
	Page         int               `json:"page"`
	TotalPages   int               `json:"total_pages"`
	HasPrevious  bool              `json:"has_previous"`
	PageNumbers  []json.RawMessage `json:"page_numbers"`
	Industries   []string          `json:"industries"`
	Info         string            `json:"info"`
	Query        string            `json:"query"`
	AllowedSizes []int             `json:"allowed_items_per_page"`
}

func TestViewClampsPagePastTheEnd(t *testing.T) {
	env := newTestEnv(t, nil)
	dataset := env.seed(t)
	last := (len(dataset) + 5) / 6

	rr := env.do(t, http.MethodGet, "/api/companies/view?page=999", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	v := decode[viewPayload](t, rr)
	assert.Equal(t, last, v.Page)
	assert.NotEmpty(t, v.Items)
	assert.Equal(t, fmt.Sprintf("page=%d", last), v.Query)
	assert.Equal(t, fmt.Sprintf("Showing %d-%d of %d companies", (last-1)*6+1, len(dataset), len(dataset)), v.Info)
}

func TestViewPaginates(t *testing.T) {
	env := newTestEnv(t, nil)
	dataset := env.seed(t)
	require.Greater(t, len(dataset), 6)

	rr := env.do(t, http.MethodGet, "/api/companies/view?page=2", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	v := decode[viewPayload](t, rr)
	wantPages := (len(dataset) + 5) / 6
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, wantPages, v.TotalPages)
	assert.True(t, v.HasPrevious)
	assert.Len(t, v.Items, min(6, len(dataset)-6))
	assert.Len(t, v.PageNumbers, wantPages)
	assert.Equal(t, fmt.Sprintf("Showing 7-%d of %d companies", min(12, len(dataset)), len(dataset)), v.Info)
	assert.Equal(t, "page=2", v.Query)
	assert.Equal(t, []int{6, 12, 24, 48}, v.AllowedSizes)
	assert.NotEmpty(t, v.Industries)
	for _, item := range v.Items {
		assert.NotEmpty(t, item.Display.Location)
		assert.NotEmpty(t, item.Display.Age)
	}
}

func TestViewIgnoresUnknownPageSize(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rr := env.do(t, http.MethodGet, "/api/companies/view?itemsPerPage=5&search=zzzz-no-match", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	v := decode[viewPayload](t, rr)
	assert.Empty(t, v.Items)
	assert.Equal(t, 0, v.TotalPages)
	assert.Equal(t, "No companies found.", v.Info)
	assert.Equal(t, "search=zzzz-no-match", v.Query)
}

func TestSeedInline(t *testing.T) {
	env := newTestEnv(t, nil)
	dataset, err := company.SeedDataset()
	require.NoError(t, err)

	rr := env.do(t, http.MethodPost, "/api/companies/seed", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, company.SeedMessage(len(dataset)), decode[seedResponse](t, rr).Message)
}

type stubEnqueuer struct {
	calls   int
	deletes [][]string
	err     error
}

func (s *stubEnqueuer) EnqueueReseed(ctx context.Context) (string, error) {
	s.calls++
	return "task-1", s.err
}

func (s *stubEnqueuer) EnqueueBulkDelete(ctx context.Context, ids []string) (string, error) {
	s.deletes = append(s.deletes, ids)
	return "task-2", s.err
}

func TestSeedQueued(t *testing.T) {
	enq := &stubEnqueuer{}
	env := newTestEnv(t, enq)

	rr := env.do(t, http.MethodPost, "/api/companies/seed", "", "")
	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "task-1", decode[seedResponse](t, rr).TaskID)
	assert.Equal(t, 1, enq.calls)
}

func TestSeedQueueDown(t *testing.T) {
	env := newTestEnv(t, &stubEnqueuer{err: fmt.Errorf("redis: connection refused")})
	rr := env.do(t, http.MethodPost, "/api/companies/seed", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "Failed to seed dummy data. Please try again.", decode[httpx.ProblemDetail](t, rr).Detail)
}

// brokenService fails every read with a persistence error.
type brokenService struct {
	*company.Service
}

func (brokenService) List(context.Context, company.Filters) ([]company.Company, error) {
	return nil, fmt.Errorf("company: find all: %w", company.ErrPersistence)
}

func TestStoreOutageIsServiceUnavailable(t *testing.T) {
	h := NewHandler(Config{Service: brokenService{company.NewService(company.NewMemoryStore(), company.ServiceConfig{})}})
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/companies", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "Failed to load company. Please try again.", decode[httpx.ProblemDetail](t, rr).Detail)
}

func TestBulkDeleteQueued(t *testing.T) {
	enq := &stubEnqueuer{}
	env := newTestEnv(t, enq)
	dataset := env.seed(t)

	rr := env.do(t, http.MethodPost, "/api/companies/bulk-delete?async=true", "application/json", fmt.Sprintf(`{"ids":[%q]}`, dataset[0].ID))
	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, [][]string{{dataset[0].ID}}, enq.deletes)

	// Nothing is deleted until the worker runs.
	_, err := env.store.FindByID(context.Background(), dataset[0].ID)
	assert.NoError(t, err)
}
