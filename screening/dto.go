package screening

import (
	"time"

	"github.com/hirelens/hirelens/pkg/kernel"
)

// FileUpload carries one multipart file into the service layer.
type FileUpload struct {
	Name string
	Data []byte
}

// ScreenBatchRequest is a fully-read screening request: one job description
// and one or more resumes.
type ScreenBatchRequest struct {
	JobDescription   FileUpload
	Resumes          []FileUpload
	NotifyCandidates bool
}

// Validate checks request shape before any processing.
func (r *ScreenBatchRequest) Validate() error {
	if r.JobDescription.Name == "" || len(r.JobDescription.Data) == 0 {
		return ErrMissingJobDescription()
	}
	if len(r.Resumes) == 0 {
		return ErrMissingResumes()
	}
	return nil
}

// BatchReportResponse is the full screening report returned to clients.
type BatchReportResponse struct {
	BatchID    kernel.BatchID `json:"batch_id"`
	Status     BatchStatus    `json:"status"`
	JDFileName string         `json:"jd_file_name"`

	ResumeCount   int `json:"resume_count"`
	AnalyzedCount int `json:"analyzed_count"`

	DetailedResults []CandidateResult `json:"detailed_results"`
	CSVSummary      string            `json:"csv_summary"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ToReportResponse assembles the report from a batch and its ranked results.
func ToReportResponse(batch *Batch, results []*CandidateResult, csvSummary string) BatchReportResponse {
	detailed := make([]CandidateResult, 0, len(results))
	analyzed := 0
	for _, r := range results {
		if r.Status == ResultStatusAnalyzed {
			analyzed++
		}
		detailed = append(detailed, *r)
	}

	return BatchReportResponse{
		BatchID:         batch.ID,
		Status:          batch.Status,
		JDFileName:      batch.JDFileName,
		ResumeCount:     batch.ResumeCount,
		AnalyzedCount:   analyzed,
		DetailedResults: detailed,
		CSVSummary:      csvSummary,
		CreatedAt:       batch.CreatedAt,
		CompletedAt:     batch.CompletedAt,
	}
}

// AsyncScreenResponse acknowledges an accepted async screening.
type AsyncScreenResponse struct {
	JobID   kernel.JobID   `json:"job_id"`
	BatchID kernel.BatchID `json:"batch_id"`
	Status  JobStatus      `json:"status"`
	Message string         `json:"message"`
}

// SearchCandidatesRequest is a semantic search over previously analyzed
// candidates.
type SearchCandidatesRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (r *SearchCandidatesRequest) Normalize() {
	if r.TopK < 1 {
		r.TopK = 10
	}
	if r.TopK > 50 {
		r.TopK = 50
	}
}

// CandidateMatch is one semantic search hit.
type CandidateMatch struct {
	Result     CandidateResult `json:"result"`
	Similarity float64         `json:"similarity"`
}

// SearchCandidatesResponse wraps search hits with timing info.
type SearchCandidatesResponse struct {
	Query           string           `json:"query"`
	Matches         []CandidateMatch `json:"matches"`
	ExecutionTimeMs int64            `json:"execution_time_ms"`
}
