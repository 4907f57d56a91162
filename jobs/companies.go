package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/companydir/internal/company"
)

// CompanyService is the part of the repository facade the jobs drive.
type CompanyService interface {
	Reseed(ctx context.Context, dataset []company.Company) (int, error)
	BulkDelete(ctx context.Context, ids []string) company.BulkResult
}

// Recorder counts job executions.
type Recorder interface {
	ObserveJob(taskType string, err error)
}

// CompanyJobs handles the company background tasks.
type CompanyJobs struct {
	Service CompanyService
	Logger  *slog.Logger
	Metrics Recorder
	// LoadDataset reads a dataset file; defaults to company.LoadDataset.
	LoadDataset func(path string) ([]company.Company, error)
}

// Handlers lists the task handlers for NewWorker.
func (j *CompanyJobs) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskCompaniesReseed, Handler: j.HandleReseed},
		{Type: TaskCompaniesBulkDelete, Handler: j.HandleBulkDelete},
	}
}

// HandleReseed processes TaskCompaniesReseed tasks.
func (j *CompanyJobs) HandleReseed(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Service == nil {
		return errors.New("companies reseed: handler not configured")
	}
	var payload ReseedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("companies reseed: decode payload: %w", asynq.SkipRetry)
	}
	defer func() { j.observe(TaskCompaniesReseed, err) }()

	logger := j.logger().With(slog.String("source", payload.Source))
	start := time.Now()

	dataset, err := j.dataset(payload.Source)
	if err != nil {
		logger.Error("load seed dataset", slog.Any("error", err))
		// A bad file will not fix itself on retry.
		return fmt.Errorf("companies reseed: %v: %w", err, asynq.SkipRetry)
	}
	n, err := j.Service.Reseed(ctx, dataset)
	if err != nil {
		logger.Error("reseed companies", slog.Any("error", err))
		if errors.Is(err, company.ErrValidation) {
			return fmt.Errorf("companies reseed: %v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	logger.Info("reseeded companies", slog.Int("count", n), slog.Duration("duration", time.Since(start)))
	return nil
}

// HandleBulkDelete processes TaskCompaniesBulkDelete tasks. Deletes are
// idempotent, so a retry after partial failure only redoes harmless work.
func (j *CompanyJobs) HandleBulkDelete(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Service == nil {
		return errors.New("companies bulk delete: handler not configured")
	}
	var payload BulkDeletePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("companies bulk delete: decode payload: %w", asynq.SkipRetry)
	}
	defer func() { j.observe(TaskCompaniesBulkDelete, err) }()

	if len(payload.IDs) == 0 {
		return nil
	}
	res := j.Service.BulkDelete(ctx, payload.IDs)
	if failed := res.Failed(); len(failed) > 0 {
		j.logger().Warn("bulk delete incomplete", slog.Int("deleted", res.Deleted()), slog.Any("failed", failed))
		return fmt.Errorf("companies bulk delete: %d of %d failed", len(failed), len(payload.IDs))
	}
	j.logger().Info(res.Message(), slog.Int("deleted", res.Deleted()))
	return nil
}

func (j *CompanyJobs) dataset(source string) ([]company.Company, error) {
	if source == "" {
		return company.SeedDataset()
	}
	if j.LoadDataset != nil {
		return j.LoadDataset(source)
	}
	return company.LoadDataset(source)
}

func (j *CompanyJobs) observe(taskType string, err error) {
	if j.Metrics != nil {
		j.Metrics.ObserveJob(taskType, err)
	}
}

func (j *CompanyJobs) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
