package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/dto"
	"github.com/escolaware/escola-api/internal/models"
	"github.com/escolaware/escola-api/internal/repository"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
	"github.com/escolaware/escola-api/pkg/jobs"
)

type mockReportJobStore struct {
	jobs map[string]*models.ReportJob
}

func newMockReportJobStore() *mockReportJobStore {
	return &mockReportJobStore{jobs: make(map[string]*models.ReportJob)}
}

func (m *mockReportJobStore) Create(_ context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", len(m.jobs)+1)
	}
	job.CreatedAt = time.Now().UTC()
	copy := *job
	m.jobs[job.ID] = &copy
	return nil
}

func (m *mockReportJobStore) FindByID(_ context.Context, schoolID, id string) (*models.ReportJob, error) {
	job, ok := m.jobs[id]
	if !ok || job.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copy := *job
	return &copy, nil
}

func (m *mockReportJobStore) FindAnyByID(_ context.Context, id string) (*models.ReportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *job
	return &copy, nil
}

func (m *mockReportJobStore) Update(_ context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *mockReportJobStore) ListQueued(_ context.Context, limit int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range m.jobs {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *mockReportJobStore) ListFinishedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type mockJobQueue struct {
	enqueued []jobs.Job
	fail     bool
}

func (m *mockJobQueue) Enqueue(job jobs.Job) error {
	if m.fail {
		return errors.New("queue full")
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type mockExportGenerator struct {
	result *ExportResult
	err    error
	calls  int
}

func (m *mockExportGenerator) Generate(_ context.Context, _ *models.ReportJob) (*ExportResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func TestReportServiceCreateJob(t *testing.T) {
	store := newMockReportJobStore()
	queue := &mockJobQueue{}
	svc := NewReportService(store, queue, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), "school-1", "user-1", dto.CreateReportRequest{
		Type:   "students",
		Format: "csv",
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.ReportStatusQueued), resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
	assert.Equal(t, "students", queue.enqueued[0].Type)
}

func TestReportServiceCreateJobBadMonth(t *testing.T) {
	svc := NewReportService(newMockReportJobStore(), &mockJobQueue{}, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), "school-1", "user-1", dto.CreateReportRequest{
		Type:   "canteen",
		Format: "pdf",
		Month:  "03-2025",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCreateJobEnqueueFailure(t *testing.T) {
	store := newMockReportJobStore()
	svc := NewReportService(store, &mockJobQueue{fail: true}, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), "school-1", "user-1", dto.CreateReportRequest{
		Type:   "teachers",
		Format: "xlsx",
	})
	require.Error(t, err)

	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
		assert.NotNil(t, job.FinishedAt)
	}
}

func TestReportServiceGetStatus(t *testing.T) {
	store := newMockReportJobStore()
	url := "/api/v1/reports/download/token-1"
	store.jobs["job-1"] = &models.ReportJob{
		ID: "job-1", SchoolID: "school-1", Type: models.ReportTypeStudents,
		Status: models.ReportStatusFinished, ResultURL: &url,
	}
	svc := NewReportService(store, &mockJobQueue{}, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	status, err := svc.GetStatus(context.Background(), "school-1", "job-1")
	require.NoError(t, err)
	assert.Equal(t, string(models.ReportStatusFinished), status.Status)
	require.NotNil(t, status.ResultURL)
	assert.Equal(t, url, *status.ResultURL)

	_, err = svc.GetStatus(context.Background(), "school-2", "job-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{ID: "job-1", SchoolID: "school-1", Type: models.ReportTypeCanteen, Status: models.ReportStatusQueued}
	store.jobs["job-2"] = &models.ReportJob{ID: "job-2", SchoolID: "school-1", Type: models.ReportTypeCanteen, Status: models.ReportStatusFinished}
	queue := &mockJobQueue{}
	svc := NewReportService(store, queue, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "job-1", queue.enqueued[0].ID)
}

func TestReportWorkerHandleSuccess(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{
		ID: "job-1", SchoolID: "school-1", Type: models.ReportTypeStudents,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
		Status: models.ReportStatusQueued,
	}
	generator := &mockExportGenerator{result: &ExportResult{URL: "/api/v1/reports/download/token-1"}}
	worker := NewReportWorker(store, generator, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Type: "students"})
	require.NoError(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	require.NotNil(t, job.ResultURL)
	assert.Equal(t, "/api/v1/reports/download/token-1", *job.ResultURL)
	assert.NotNil(t, job.FinishedAt)
}

func TestReportWorkerHandleRetriesBeforeFailing(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{
		ID: "job-1", SchoolID: "school-1", Type: models.ReportTypeStudents,
		Status: models.ReportStatusQueued,
	}
	generator := &mockExportGenerator{err: errors.New("render failed")}
	worker := NewReportWorker(store, generator, 3, zap.NewNop())

	// Early attempts put the job back in the queue.
	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusQueued, store.jobs["job-1"].Status)
	assert.Nil(t, store.jobs["job-1"].FinishedAt)

	// The final attempt marks it failed for good.
	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 3})
	require.Error(t, err)
	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "render failed", *job.ErrorMessage)
	assert.NotNil(t, job.FinishedAt)
}

func TestReportWorkerHandleUnknownJob(t *testing.T) {
	worker := NewReportWorker(newMockReportJobStore(), &mockExportGenerator{}, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "missing"})
	require.Error(t, err)
}
