package screeningsrv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/hirelens/internal/textract"
	"github.com/hirelens/hirelens/pkg/fsx"
	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/screening"
)

const (
	// MaxFileSize bounds each uploaded document.
	MaxFileSize = 10 << 20
)

type Service struct {
	repo            screening.Repository
	jobRepo         screening.JobRepository
	extractor       screening.TextExtractor
	analyzer        screening.Analyzer
	embedder        screening.Embedder
	linkVerifier    screening.LinkVerifier
	profileAnalyzer screening.ProfileAnalyzer
	notifier        screening.Notifier
	fs              fsx.FileSystem
	queue           screening.JobQueue
}

// NewService creates a new screening service
func NewService(
	repo screening.Repository,
	jobRepo screening.JobRepository,
	extractor screening.TextExtractor,
	analyzer screening.Analyzer,
	embedder screening.Embedder,
	linkVerifier screening.LinkVerifier,
	profileAnalyzer screening.ProfileAnalyzer,
	notifier screening.Notifier,
	fs fsx.FileSystem,
	queue screening.JobQueue,
) *Service {
	return &Service{
		repo:            repo,
		jobRepo:         jobRepo,
		extractor:       extractor,
		analyzer:        analyzer,
		embedder:        embedder,
		linkVerifier:    linkVerifier,
		profileAnalyzer: profileAnalyzer,
		notifier:        notifier,
		fs:              fs,
		queue:           queue,
	}
}

// ============================================================================
// Synchronous Screening
// ============================================================================

// ScreenBatch runs the full pipeline inline and returns the ranked report.
func (s *Service) ScreenBatch(ctx context.Context, req screening.ScreenBatchRequest) (*screening.BatchReportResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	jdText, err := s.extractJobDescription(req.JobDescription)
	if err != nil {
		return nil, err
	}

	batch := &screening.Batch{
		ID:          kernel.NewBatchID(uuid.NewString()),
		Status:      screening.BatchStatusProcessing,
		JDFileName:  req.JobDescription.Name,
		JDText:      jdText,
		ResumeCount: len(req.Resumes),
		CreatedAt:   time.Now(),
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodePersistenceFailed, err).
			WithDetail("batch_id", batch.ID)
	}

	logx.Infof("Screening batch started: BatchID=%s, Resumes=%d", batch.ID, len(req.Resumes))

	results := make([]*screening.CandidateResult, 0, len(req.Resumes))
	for _, file := range req.Resumes {
		results = append(results, s.processResume(ctx, batch, file.Name, file.Data, jdText, req.NotifyCandidates))
	}

	screening.RankResults(results)

	csvSummary, err := screening.BuildSummaryCSV(results)
	if err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodePersistenceFailed, err).
			WithDetail("batch_id", batch.ID)
	}

	// Results go in before the batch flips to completed, so a completed
	// batch always has its results on record.
	if err := s.repo.SaveResults(ctx, results); err != nil {
		batch.MarkFailed()
		if updateErr := s.repo.UpdateBatch(ctx, batch); updateErr != nil {
			logx.Errorf("Failed to mark batch as failed: %v", updateErr)
		}
		return nil, screening.ErrRegistry.NewWithCause(screening.CodePersistenceFailed, err).
			WithDetail("batch_id", batch.ID)
	}

	batch.MarkCompleted()
	if err := s.repo.UpdateBatch(ctx, batch); err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodePersistenceFailed, err).
			WithDetail("batch_id", batch.ID)
	}

	logx.Infof("Screening batch completed: BatchID=%s", batch.ID)

	resp := screening.ToReportResponse(batch, results, csvSummary)
	return &resp, nil
}

// processResume runs one resume through extraction, analysis, enrichment and
// notification. It never returns an error: any failure is captured in the
// result so the rest of the batch continues.
func (s *Service) processResume(ctx context.Context, batch *screening.Batch, fileName string, data []byte, jdText string, notify bool) *screening.CandidateResult {
	result := &screening.CandidateResult{
		ID:        kernel.NewCandidateID(uuid.NewString()),
		BatchID:   batch.ID,
		FileName:  fileName,
		CreatedAt: time.Now(),
	}

	if !textract.AllowedFile(fileName) {
		return failResult(result, fmt.Sprintf("Unsupported file type: %s", fileName))
	}
	if len(data) > MaxFileSize {
		return failResult(result, "File exceeds the 10MB size limit.")
	}

	text, err := s.extractor.Extract(fileName, data)
	if err != nil {
		return failResult(result, fmt.Sprintf("Failed to extract text: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		return failResult(result, "No readable text found in file.")
	}

	analysis, err := s.analyzer.Analyze(ctx, text, jdText)
	if err != nil {
		logx.Errorf("Analysis failed for %s: %v", fileName, err)
		return failResult(result, fmt.Sprintf("Analysis failed: %v", err))
	}

	// Rejected entries carry only status and reason, no analysis payload,
	// and rank behind every analyzed candidate.
	if !analysis.HasProjects() {
		result.Status = screening.ResultStatusRejected
		result.Reason = "No projects found in resume."
		logx.Infof("Resume rejected (no projects): %s", fileName)
		return result
	}

	record := &screening.AnalysisRecord{Analysis: *analysis}
	result.Data = record

	record.LinkVerification = s.linkVerifier.VerifyLinks(ctx, analysis.ResumeData.ExternalLinks)

	// GitHub deep-dive only runs when the link actually resolves.
	if record.LinkVerification["github"] == "OK" {
		record.GitHubAnalysis = s.profileAnalyzer.AnalyzeProfile(ctx, analysis.ResumeData.ExternalLinks.GitHub)
	}

	if notify {
		record.EmailNotification = s.notifyCandidate(ctx, analysis)
	}

	result.Status = screening.ResultStatusAnalyzed
	s.attachEmbedding(ctx, result)

	return result
}

func failResult(result *screening.CandidateResult, reason string) *screening.CandidateResult {
	result.Status = screening.ResultStatusFailed
	result.Reason = reason
	return result
}

// notifyCandidate emails the candidate their feedback. Missing email or
// reasoning skips the send, delivery problems are recorded, never raised.
func (s *Service) notifyCandidate(ctx context.Context, analysis *screening.Analysis) *screening.EmailNotification {
	email := analysis.ResumeData.ContactInfo.Email
	reasoning := analysis.MatchAnalysis.Reasoning

	if strings.TrimSpace(email) == "" || strings.TrimSpace(reasoning) == "" {
		return &screening.EmailNotification{
			Sent:   false,
			Status: "Skipped (missing email or reasoning)",
		}
	}

	err := s.notifier.SendResults(ctx, screening.ResultEmail{
		To:         email,
		Name:       analysis.ResumeData.ContactInfo.Name,
		MatchScore: analysis.MatchAnalysis.MatchScore.Int(),
		Reasoning:  reasoning,
	})
	if err != nil {
		logx.Warnf("Failed to send result email to %s: %v", email, err)
		return &screening.EmailNotification{
			Sent:   false,
			Status: fmt.Sprintf("Failed to send email: %v", err),
		}
	}

	return &screening.EmailNotification{
		Sent:   true,
		Status: "Email sent successfully",
	}
}

// attachEmbedding generates the search vector for an analyzed result. The
// report does not depend on it, so failures only log.
func (s *Service) attachEmbedding(ctx context.Context, result *screening.CandidateResult) {
	text := result.EmbeddingText()
	if text == "" {
		return
	}

	vec, err := s.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		logx.Warnf("Embedding generation failed for %s: %v", result.FileName, err)
		return
	}
	result.Embedding = vec
}

func (s *Service) extractJobDescription(jd screening.FileUpload) (string, error) {
	if !textract.AllowedFile(jd.Name) {
		return "", screening.ErrInvalidFileFormat().
			WithDetail("file_name", jd.Name).
			WithDetail("supported_formats", []string{"pdf", "docx", "txt"})
	}
	if len(jd.Data) > MaxFileSize {
		return "", screening.ErrFileTooLarge().
			WithDetail("file_name", jd.Name).
			WithDetail("max_bytes", MaxFileSize)
	}

	text, err := s.extractor.Extract(jd.Name, jd.Data)
	if err != nil {
		return "", screening.ErrRegistry.NewWithCause(screening.CodeExtractionFailed, err).
			WithDetail("file_name", jd.Name)
	}
	if strings.TrimSpace(text) == "" {
		return "", screening.ErrEmptyJobDescription().
			WithDetail("file_name", jd.Name)
	}
	return text, nil
}

// ============================================================================
// Reports & Listing
// ============================================================================

// GetBatchReport rebuilds the full report for a stored batch.
func (s *Service) GetBatchReport(ctx context.Context, id kernel.BatchID) (*screening.BatchReportResponse, error) {
	batch, err := s.repo.GetBatchByID(ctx, id)
	if err != nil {
		return nil, screening.ErrBatchNotFound().
			WithDetail("batch_id", id)
	}

	results, err := s.repo.GetResultsByBatchID(ctx, id)
	if err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodePersistenceFailed, err).
			WithDetail("batch_id", id)
	}

	csvSummary, err := screening.BuildSummaryCSV(results)
	if err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodePersistenceFailed, err).
			WithDetail("batch_id", id)
	}

	resp := screening.ToReportResponse(batch, results, csvSummary)
	return &resp, nil
}

// GetBatchCSV returns only the CSV summary of a completed batch.
func (s *Service) GetBatchCSV(ctx context.Context, id kernel.BatchID) (string, error) {
	batch, err := s.repo.GetBatchByID(ctx, id)
	if err != nil {
		return "", screening.ErrBatchNotFound().
			WithDetail("batch_id", id)
	}
	if batch.Status != screening.BatchStatusCompleted {
		return "", screening.ErrReportNotReady().
			WithDetail("batch_id", id).
			WithDetail("status", batch.Status)
	}

	results, err := s.repo.GetResultsByBatchID(ctx, id)
	if err != nil {
		return "", screening.ErrRegistry.NewWithCause(screening.CodePersistenceFailed, err).
			WithDetail("batch_id", id)
	}

	return screening.BuildSummaryCSV(results)
}

// ListBatches lists screening batches, newest first.
func (s *Service) ListBatches(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[screening.Batch], error) {
	paginated, err := s.repo.ListBatches(ctx, pagination.Normalize())
	if err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodePersistenceFailed, err)
	}
	return paginated, nil
}

// ============================================================================
// Semantic Search
// ============================================================================

// SearchCandidates runs vector similarity search over analyzed candidates.
func (s *Service) SearchCandidates(ctx context.Context, req screening.SearchCandidatesRequest) (*screening.SearchCandidatesResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, screening.ErrInvalidSearchQuery()
	}
	req.Normalize()

	start := time.Now()

	vec, err := s.embedder.GenerateEmbedding(ctx, req.Query)
	if err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodeEmbeddingFailed, err).
			WithDetail("query", req.Query)
	}

	matches, err := s.repo.SemanticSearch(ctx, vec, req.TopK)
	if err != nil {
		return nil, screening.ErrSearchFailed().
			WithDetail("query", req.Query).
			WithDetail("top_k", req.TopK)
	}

	return &screening.SearchCandidatesResponse{
		Query:           req.Query,
		Matches:         matches,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}, nil
}
