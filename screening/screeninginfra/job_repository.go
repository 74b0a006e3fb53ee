package screeninginfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/screening"
)

type PostgresJobRepository struct {
	db *sqlx.DB
}

func NewPostgresJobRepository(db *sqlx.DB) screening.JobRepository {
	return &PostgresJobRepository{db: db}
}

// dbJob is the database model with JSON columns flattened to strings.
type dbJob struct {
	ID      string `db:"id"`
	BatchID string `db:"batch_id"`

	Status string `db:"status"`

	AttemptCount int `db:"attempt_count"`
	MaxAttempts  int `db:"max_attempts"`

	ErrorMessage string         `db:"error_message"`
	ErrorDetails sql.NullString `db:"error_details"`

	CurrentStep        *string `db:"current_step"`
	ProgressPercentage int     `db:"progress_percentage"`

	CreatedAt   time.Time  `db:"created_at"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
	FailedAt    *time.Time `db:"failed_at"`
	NextRetryAt *time.Time `db:"next_retry_at"`

	RequestPayload string `db:"request_payload"`
}

const jobColumns = `
	id, batch_id, status,
	attempt_count, max_attempts, error_message, error_details,
	current_step, progress_percentage,
	created_at, started_at, completed_at, failed_at, next_retry_at,
	request_payload`

func (r *PostgresJobRepository) Create(ctx context.Context, job *screening.ScreeningJob) error {
	query := `
		INSERT INTO screening_jobs (` + jobColumns + `
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9,
			$10, $11, $12, $13, $14,
			$15
		)
	`

	row, err := toDBJob(job)
	if err != nil {
		return fmt.Errorf("convert to db job: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		row.ID, row.BatchID, row.Status,
		row.AttemptCount, row.MaxAttempts, row.ErrorMessage, row.ErrorDetails,
		row.CurrentStep, row.ProgressPercentage,
		row.CreatedAt, row.StartedAt, row.CompletedAt, row.FailedAt, row.NextRetryAt,
		row.RequestPayload,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("job already exists: %w", err)
		}
		return fmt.Errorf("create job: %w", err)
	}

	logx.Infof("Created screening job: %s", job.ID)
	return nil
}

func (r *PostgresJobRepository) Update(ctx context.Context, job *screening.ScreeningJob) error {
	query := `
		UPDATE screening_jobs SET
			status = $2,
			attempt_count = $3,
			error_message = $4,
			error_details = $5,
			current_step = $6,
			progress_percentage = $7,
			started_at = $8,
			completed_at = $9,
			failed_at = $10,
			next_retry_at = $11,
			request_payload = $12
		WHERE id = $1
	`

	row, err := toDBJob(job)
	if err != nil {
		return fmt.Errorf("convert to db job: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query,
		row.ID, row.Status, row.AttemptCount,
		row.ErrorMessage, row.ErrorDetails,
		row.CurrentStep, row.ProgressPercentage,
		row.StartedAt, row.CompletedAt, row.FailedAt, row.NextRetryAt,
		row.RequestPayload,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found: %s", job.ID)
	}
	return nil
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, jobID kernel.JobID) (*screening.ScreeningJob, error) {
	query := `SELECT ` + jobColumns + ` FROM screening_jobs WHERE id = $1`

	var row dbJob
	if err := r.db.GetContext(ctx, &row, query, jobID.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job not found: %s", jobID)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}

	return toDomainJob(&row)
}

func (r *PostgresJobRepository) List(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[screening.ScreeningJob], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM screening_jobs`); err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	query := `
		SELECT ` + jobColumns + `
		FROM screening_jobs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var rows []dbJob
	if err := r.db.SelectContext(ctx, &rows, query, pagination.PageSize, pagination.Offset()); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]screening.ScreeningJob, 0, len(rows))
	for i := range rows {
		job, err := toDomainJob(&rows[i])
		if err != nil {
			logx.Errorf("Failed to convert job %s: %v", rows[i].ID, err)
			continue
		}
		jobs = append(jobs, *job)
	}

	paginated := kernel.NewPaginated(jobs, pagination.Page, pagination.PageSize, total)
	return &paginated, nil
}

func (r *PostgresJobRepository) MarkAsProcessing(ctx context.Context, jobID kernel.JobID) error {
	query := `
		UPDATE screening_jobs
		SET status = $2, started_at = $3
		WHERE id = $1 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query,
		jobID.String(), string(screening.JobStatusProcessing), time.Now(),
		string(screening.JobStatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark as processing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found or not in pending status: %s", jobID)
	}

	logx.Infof("Marked job as processing: %s", jobID)
	return nil
}

func (r *PostgresJobRepository) MarkAsCompleted(ctx context.Context, jobID kernel.JobID) error {
	query := `
		UPDATE screening_jobs
		SET
			status = $2,
			completed_at = $3,
			progress_percentage = 100,
			error_message = '',
			error_details = NULL,
			next_retry_at = NULL
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		jobID.String(), string(screening.JobStatusCompleted), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("mark as completed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}

	logx.Infof("Marked job as completed: %s", jobID)
	return nil
}

func (r *PostgresJobRepository) MarkAsFailed(ctx context.Context, jobID kernel.JobID, errorMsg string, errorDetails map[string]any) error {
	var detailsJSON sql.NullString
	if len(errorDetails) > 0 {
		data, err := json.Marshal(errorDetails)
		if err != nil {
			logx.Warnf("Failed to marshal error details: %v", err)
		} else {
			detailsJSON = sql.NullString{String: string(data), Valid: true}
		}
	}

	query := `
		UPDATE screening_jobs
		SET status = $2, failed_at = $3, error_message = $4, error_details = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		jobID.String(), string(screening.JobStatusFailed), time.Now(), errorMsg, detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("mark as failed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}

	logx.Warnf("Marked job as failed: %s, Error: %s", jobID, errorMsg)
	return nil
}

func (r *PostgresJobRepository) UpdateProgress(ctx context.Context, jobID kernel.JobID, step screening.ProcessingStep, percentage int) error {
	query := `
		UPDATE screening_jobs
		SET current_step = $2, progress_percentage = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, jobID.String(), string(step), percentage)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}
	return nil
}

// ============================================================================
// Mappers
// ============================================================================

func toDBJob(job *screening.ScreeningJob) (*dbJob, error) {
	payloadJSON, err := json.Marshal(job.RequestPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request payload: %w", err)
	}

	var errorDetails sql.NullString
	if len(job.ErrorDetails) > 0 {
		data, err := json.Marshal(job.ErrorDetails)
		if err != nil {
			logx.Warnf("Failed to marshal error details: %v", err)
		} else {
			errorDetails = sql.NullString{String: string(data), Valid: true}
		}
	}

	var currentStep *string
	if job.CurrentStep != nil {
		step := string(*job.CurrentStep)
		currentStep = &step
	}

	return &dbJob{
		ID:                 job.ID.String(),
		BatchID:            job.BatchID.String(),
		Status:             string(job.Status),
		AttemptCount:       job.AttemptCount,
		MaxAttempts:        job.MaxAttempts,
		ErrorMessage:       job.ErrorMessage,
		ErrorDetails:       errorDetails,
		CurrentStep:        currentStep,
		ProgressPercentage: job.ProgressPercentage,
		CreatedAt:          job.CreatedAt,
		StartedAt:          job.StartedAt,
		CompletedAt:        job.CompletedAt,
		FailedAt:           job.FailedAt,
		NextRetryAt:        job.NextRetryAt,
		RequestPayload:     string(payloadJSON),
	}, nil
}

func toDomainJob(row *dbJob) (*screening.ScreeningJob, error) {
	var payload screening.ScreenBatchPayload
	if err := json.Unmarshal([]byte(row.RequestPayload), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal request payload: %w", err)
	}

	var errorDetails map[string]any
	if row.ErrorDetails.Valid && row.ErrorDetails.String != "" {
		if err := json.Unmarshal([]byte(row.ErrorDetails.String), &errorDetails); err != nil {
			logx.Warnf("Failed to unmarshal error details for job %s: %v", row.ID, err)
			errorDetails = nil
		}
	}

	var currentStep *screening.ProcessingStep
	if row.CurrentStep != nil {
		step := screening.ProcessingStep(*row.CurrentStep)
		currentStep = &step
	}

	return &screening.ScreeningJob{
		ID:                 kernel.JobID(row.ID),
		BatchID:            kernel.BatchID(row.BatchID),
		Status:             screening.JobStatus(row.Status),
		AttemptCount:       row.AttemptCount,
		MaxAttempts:        row.MaxAttempts,
		ErrorMessage:       row.ErrorMessage,
		ErrorDetails:       errorDetails,
		CurrentStep:        currentStep,
		ProgressPercentage: row.ProgressPercentage,
		CreatedAt:          row.CreatedAt,
		StartedAt:          row.StartedAt,
		CompletedAt:        row.CompletedAt,
		FailedAt:           row.FailedAt,
		NextRetryAt:        row.NextRetryAt,
		RequestPayload:     payload,
	}, nil
}
