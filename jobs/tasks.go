package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCompaniesReseed replaces every company with the seed dataset.
	TaskCompaniesReseed = "companies:reseed"
	// TaskCompaniesBulkDelete deletes a batch of companies.
	TaskCompaniesBulkDelete = "companies:bulk_delete"
)

// ReseedPayload selects the dataset to load. An empty Source uses the
// embedded dataset; otherwise it is a path to a JSON file readable by the
// worker.
type ReseedPayload struct {
	Source string `json:"source,omitempty"`
}

// BulkDeletePayload lists the ids to delete.
type BulkDeletePayload struct {
	IDs []string `json:"ids"`
}

// NewReseedTask constructs a reseed task. Only one may be queued at a time.
func NewReseedTask(payload ReseedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCompaniesReseed, data, asynq.MaxRetry(3)), nil
}

// NewBulkDeleteTask constructs a bulk delete task.
func NewBulkDeleteTask(payload BulkDeletePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCompaniesBulkDelete, data, asynq.MaxRetry(5)), nil
}
