package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/companydir/internal/company"
	_ "github.com/odyssey-erp/companydir/testing"
)

type stubService struct {
	mu        sync.Mutex
	reseeded  []company.Company
	reseedErr error
	deleted   []string
	failIDs   map[string]bool
}

func (s *stubService) Reseed(ctx context.Context, dataset []company.Company) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reseedErr != nil {
		return 0, s.reseedErr
	}
	s.reseeded = dataset
	return len(dataset), nil
}

func (s *stubService) BulkDelete(ctx context.Context, ids []string) company.BulkResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := company.BulkResult{}
	for _, id := range ids {
		r := company.DeleteResult{ID: id}
		if s.failIDs[id] {
			r.Err = company.ErrPersistence
		} else {
			s.deleted = append(s.deleted, id)
		}
		res.Results = append(res.Results, r)
	}
	return res
}

type jobLog struct {
	mu   sync.Mutex
	runs []string
}

func (l *jobLog) ObserveJob(taskType string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	l.runs = append(l.runs, taskType+"/"+outcome)
}

func task(t *testing.T, build func() (*asynq.Task, error)) *asynq.Task {
	t.Helper()
	tk, err := build()
	require.NoError(t, err)
	return tk
}

func TestReseedUsesEmbeddedDataset(t *testing.T) {
	svc := &stubService{}
	metrics := &jobLog{}
	j := &CompanyJobs{Service: svc, Metrics: metrics}

	err := j.HandleReseed(context.Background(), task(t, func() (*asynq.Task, error) {
		return NewReseedTask(ReseedPayload{})
	}))
	require.NoError(t, err)

	dataset, err := company.SeedDataset()
	require.NoError(t, err)
	assert.Len(t, svc.reseeded, len(dataset))
	assert.Equal(t, []string{"companies:reseed/success"}, metrics.runs)
}

func TestReseedFromFileSource(t *testing.T) {
	svc := &stubService{}
	j := &CompanyJobs{Service: svc, LoadDataset: func(path string) ([]company.Company, error) {
		assert.Equal(t, "/data/companies.json", path)
		return []company.Company{{ID: "x", Attributes: company.Attributes{Name: "X"}}}, nil
	}}

	err := j.HandleReseed(context.Background(), task(t, func() (*asynq.Task, error) {
		return NewReseedTask(ReseedPayload{Source: "/data/companies.json"})
	}))
	require.NoError(t, err)
	assert.Len(t, svc.reseeded, 1)
}

func TestReseedSkipsRetryForBadDataset(t *testing.T) {
	j := &CompanyJobs{Service: &stubService{}, LoadDataset: func(string) ([]company.Company, error) {
		return nil, errors.New("unexpected EOF")
	}}
	err := j.HandleReseed(context.Background(), task(t, func() (*asynq.Task, error) {
		return NewReseedTask(ReseedPayload{Source: "broken.json"})
	}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReseedRetriesStoreOutage(t *testing.T) {
	metrics := &jobLog{}
	j := &CompanyJobs{Service: &stubService{reseedErr: fmt.Errorf("store: %w", company.ErrPersistence)}, Metrics: metrics}
	err := j.HandleReseed(context.Background(), task(t, func() (*asynq.Task, error) {
		return NewReseedTask(ReseedPayload{})
	}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, []string{"companies:reseed/failure"}, metrics.runs)
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	j := &CompanyJobs{Service: &stubService{}}
	err := j.HandleBulkDelete(context.Background(), asynq.NewTask(TaskCompaniesBulkDelete, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestBulkDeleteReportsPartialFailure(t *testing.T) {
	svc := &stubService{failIDs: map[string]bool{"b": true}}
	j := &CompanyJobs{Service: svc}

	err := j.HandleBulkDelete(context.Background(), task(t, func() (*asynq.Task, error) {
		return NewBulkDeleteTask(BulkDeletePayload{IDs: []string{"a", "b", "c"}})
	}))
	require.EqualError(t, err, "companies bulk delete: 1 of 3 failed")
	assert.Equal(t, []string{"a", "c"}, svc.deleted)
}

func TestHandlersRegisterBothTasks(t *testing.T) {
	j := &CompanyJobs{Service: &stubService{}}
	var types []string
	for _, h := range j.Handlers() {
		types = append(types, h.Type)
		assert.NotNil(t, h.Handler)
	}
	assert.Equal(t, []string{TaskCompaniesReseed, TaskCompaniesBulkDelete}, types)
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, nil).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, QueueDefault, body.Queue)
}
