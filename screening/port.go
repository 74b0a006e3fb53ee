package screening

import (
	"context"
	"time"

	"github.com/hirelens/hirelens/pkg/kernel"
)

type Repository interface {
	// CreateBatch creates a new screening batch
	CreateBatch(ctx context.Context, batch *Batch) error

	// UpdateBatch updates an existing batch
	UpdateBatch(ctx context.Context, batch *Batch) error

	// GetBatchByID retrieves a batch by ID
	GetBatchByID(ctx context.Context, id kernel.BatchID) (*Batch, error)

	// ListBatches retrieves batches with pagination, newest first
	ListBatches(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[Batch], error)

	// SaveResults persists all results of a batch
	SaveResults(ctx context.Context, results []*CandidateResult) error

	// GetResultsByBatchID retrieves a batch's results in rank order
	GetResultsByBatchID(ctx context.Context, id kernel.BatchID) ([]*CandidateResult, error)

	// SemanticSearch performs vector similarity search over analyzed candidates
	SemanticSearch(ctx context.Context, embedding []float32, topK int) ([]CandidateMatch, error)
}

type JobRepository interface {
	Create(ctx context.Context, job *ScreeningJob) error
	Update(ctx context.Context, job *ScreeningJob) error
	GetByID(ctx context.Context, jobID kernel.JobID) (*ScreeningJob, error)
	List(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[ScreeningJob], error)

	// Update status helpers
	MarkAsProcessing(ctx context.Context, jobID kernel.JobID) error
	MarkAsCompleted(ctx context.Context, jobID kernel.JobID) error
	MarkAsFailed(ctx context.Context, jobID kernel.JobID, errorMsg string, errorDetails map[string]any) error
	UpdateProgress(ctx context.Context, jobID kernel.JobID, step ProcessingStep, percentage int) error
}

// JobQueue defines the interface for job queue operations
type JobQueue interface {
	// Enqueue adds a job to the queue
	Enqueue(ctx context.Context, jobID kernel.JobID, payload any) error

	// Dequeue gets a job from the queue (blocking with timeout)
	Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error)

	// EnqueueDelayed schedules a job for later processing (for retries)
	EnqueueDelayed(ctx context.Context, jobID kernel.JobID, payload any, delay time.Duration) error

	// MoveDelayedToReady moves delayed jobs that are ready to the main queue
	MoveDelayedToReady(ctx context.Context) (int, error)

	// GetQueueSize returns the number of jobs in the queue
	GetQueueSize(ctx context.Context) (int64, error)

	// GetDelayedQueueSize returns the number of delayed jobs
	GetDelayedQueueSize(ctx context.Context) (int64, error)

	// Clear removes all jobs from the queue (use with caution)
	Clear(ctx context.Context) error
}

// Analyzer extracts structured resume data and scores it against a job
// description.
type Analyzer interface {
	Analyze(ctx context.Context, resumeText, jobDescription string) (*Analysis, error)
}

// Embedder turns candidate text into a vector for semantic search.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// TextExtractor pulls plain text out of an uploaded document.
type TextExtractor interface {
	Extract(fileName string, data []byte) (string, error)
}

// LinkVerifier probes the candidate's external links.
type LinkVerifier interface {
	VerifyLinks(ctx context.Context, links ExternalLinks) LinkVerification
}

// ProfileAnalyzer summarizes a candidate's GitHub presence. Failures are
// reported in the returned status, never as an error.
type ProfileAnalyzer interface {
	AnalyzeProfile(ctx context.Context, githubURL string) *GitHubAnalysis
}

// ResultEmail is the notification sent to an analyzed candidate.
type ResultEmail struct {
	To         string
	Name       string
	MatchScore int
	Reasoning  string
}

// Notifier delivers result emails to candidates.
type Notifier interface {
	SendResults(ctx context.Context, email ResultEmail) error
}
