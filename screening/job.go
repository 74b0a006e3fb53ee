package screening

import (
	"time"

	"github.com/hirelens/hirelens/pkg/kernel"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

type ProcessingStep string

const (
	StepExtracting ProcessingStep = "extracting"
	StepAnalyzing  ProcessingStep = "analyzing"
	StepEnriching  ProcessingStep = "enriching"
	StepNotifying  ProcessingStep = "notifying"
	StepSaving     ProcessingStep = "saving"
)

// StoredResume points at a resume file persisted to storage for async
// processing.
type StoredResume struct {
	Path     string `json:"path"`
	FileName string `json:"file_name"`
}

// ScreenBatchPayload is what an async job carries through the queue. Files
// are persisted to storage before enqueue so the payload stays small.
type ScreenBatchPayload struct {
	BatchID          kernel.BatchID `json:"batch_id"`
	JDPath           string         `json:"jd_path"`
	JDFileName       string         `json:"jd_file_name"`
	Resumes          []StoredResume `json:"resumes"`
	NotifyCandidates bool           `json:"notify_candidates"`
}

// ScreeningJob tracks one async batch screening through the queue.
type ScreeningJob struct {
	ID      kernel.JobID   `db:"id" json:"id"`
	BatchID kernel.BatchID `db:"batch_id" json:"batch_id"`

	Status JobStatus `db:"status" json:"status"`

	AttemptCount int `db:"attempt_count" json:"attempt_count"`
	MaxAttempts  int `db:"max_attempts" json:"max_attempts"`

	ErrorMessage string         `db:"error_message" json:"error_message,omitempty"`
	ErrorDetails map[string]any `db:"error_details" json:"error_details,omitempty"`

	CurrentStep        *ProcessingStep `db:"current_step" json:"current_step,omitempty"`
	ProgressPercentage int             `db:"progress_percentage" json:"progress_percentage"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	FailedAt    *time.Time `db:"failed_at" json:"failed_at,omitempty"`
	NextRetryAt *time.Time `db:"next_retry_at" json:"next_retry_at,omitempty"`

	RequestPayload ScreenBatchPayload `db:"request_payload" json:"request_payload"`
}

// JobStatusResponse - Response for job status queries
type JobStatusResponse struct {
	JobID       kernel.JobID    `json:"job_id"`
	BatchID     kernel.BatchID  `json:"batch_id"`
	Status      JobStatus       `json:"status"`
	Message     string          `json:"message"`
	Progress    int             `json:"progress"`
	CurrentStep *ProcessingStep `json:"current_step,omitempty"`
	Error       *JobError       `json:"error,omitempty"`

	AttemptCount int        `json:"attempt_count,omitempty"`
	NextRetryAt  *time.Time `json:"next_retry_at,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
}

// JobError - Error details for failed jobs
type JobError struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToStatusResponse renders the job for API consumers.
func (j *ScreeningJob) ToStatusResponse() JobStatusResponse {
	resp := JobStatusResponse{
		JobID:        j.ID,
		BatchID:      j.BatchID,
		Status:       j.Status,
		Progress:     j.ProgressPercentage,
		CurrentStep:  j.CurrentStep,
		AttemptCount: j.AttemptCount,
		NextRetryAt:  j.NextRetryAt,
		CreatedAt:    j.CreatedAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
		FailedAt:     j.FailedAt,
	}

	switch j.Status {
	case JobStatusPending:
		resp.Message = "Screening queued for processing"
	case JobStatusProcessing:
		resp.Message = "Screening in progress"
	case JobStatusCompleted:
		resp.Message = "Screening completed"
	case JobStatusFailed:
		resp.Message = "Screening failed"
		resp.Error = &JobError{
			Message: j.ErrorMessage,
			Details: j.ErrorDetails,
		}
	case JobStatusCancelled:
		resp.Message = "Screening cancelled"
	}
	return resp
}

// CanRetry reports whether a failed job has attempts remaining.
func (j *ScreeningJob) CanRetry() bool {
	return j.Status == JobStatusFailed && j.AttemptCount < j.MaxAttempts
}
