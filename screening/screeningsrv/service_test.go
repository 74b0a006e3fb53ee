package screeningsrv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/screening"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeRepo struct {
	batches map[kernel.BatchID]*screening.Batch
	results map[kernel.BatchID][]*screening.CandidateResult
	saveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		batches: map[kernel.BatchID]*screening.Batch{},
		results: map[kernel.BatchID][]*screening.CandidateResult{},
	}
}

func (f *fakeRepo) CreateBatch(_ context.Context, b *screening.Batch) error {
	f.batches[b.ID] = b
	return nil
}

func (f *fakeRepo) UpdateBatch(_ context.Context, b *screening.Batch) error {
	f.batches[b.ID] = b
	return nil
}

func (f *fakeRepo) GetBatchByID(_ context.Context, id kernel.BatchID) (*screening.Batch, error) {
	b, ok := f.batches[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

func (f *fakeRepo) ListBatches(_ context.Context, p kernel.PaginationOptions) (*kernel.Paginated[screening.Batch], error) {
	items := make([]screening.Batch, 0, len(f.batches))
	for _, b := range f.batches {
		items = append(items, *b)
	}
	paginated := kernel.NewPaginated(items, p.Page, p.PageSize, len(items))
	return &paginated, nil
}

func (f *fakeRepo) SaveResults(_ context.Context, results []*screening.CandidateResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if len(results) == 0 {
		return nil
	}
	f.results[results[0].BatchID] = results
	return nil
}

func (f *fakeRepo) GetResultsByBatchID(_ context.Context, id kernel.BatchID) ([]*screening.CandidateResult, error) {
	return f.results[id], nil
}

func (f *fakeRepo) SemanticSearch(_ context.Context, _ []float32, _ int) ([]screening.CandidateMatch, error) {
	return nil, nil
}

type fakeAnalyzer struct {
	// keyed by resume text, so tests can script per-file outcomes
	analyses map[string]*screening.Analysis
	errs     map[string]error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, resumeText, _ string) (*screening.Analysis, error) {
	if err, ok := f.errs[resumeText]; ok {
		return nil, err
	}
	if a, ok := f.analyses[resumeText]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("no scripted analysis for %q", resumeText)
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(fileName string, data []byte) (string, error) {
	if strings.HasSuffix(fileName, ".broken.txt") {
		return "", errors.New("corrupt file")
	}
	return string(data), nil
}

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeVerifier struct {
	statuses screening.LinkVerification
}

func (f *fakeVerifier) VerifyLinks(_ context.Context, _ screening.ExternalLinks) screening.LinkVerification {
	if f.statuses != nil {
		return f.statuses
	}
	return screening.LinkVerification{"github": "Not Provided", "linkedin": "Not Provided", "portfolio": "Not Provided"}
}

type fakeProfiler struct {
	calls int
}

func (f *fakeProfiler) AnalyzeProfile(_ context.Context, _ string) *screening.GitHubAnalysis {
	f.calls++
	return &screening.GitHubAnalysis{Status: "Analysis Complete", Username: "janedoe"}
}

type fakeNotifier struct {
	sent []screening.ResultEmail
	err  error
}

func (f *fakeNotifier) SendResults(_ context.Context, email screening.ResultEmail) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

type fakeJobRepo struct {
	jobs map[kernel.JobID]*screening.ScreeningJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[kernel.JobID]*screening.ScreeningJob{}}
}

func (f *fakeJobRepo) Create(_ context.Context, j *screening.ScreeningJob) error {
	f.jobs[j.ID] = j
	return nil
}

func (f *fakeJobRepo) Update(_ context.Context, j *screening.ScreeningJob) error {
	f.jobs[j.ID] = j
	return nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id kernel.JobID) (*screening.ScreeningJob, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return j, nil
}

func (f *fakeJobRepo) List(_ context.Context, p kernel.PaginationOptions) (*kernel.Paginated[screening.ScreeningJob], error) {
	items := make([]screening.ScreeningJob, 0, len(f.jobs))
	for _, j := range f.jobs {
		items = append(items, *j)
	}
	paginated := kernel.NewPaginated(items, p.Page, p.PageSize, len(items))
	return &paginated, nil
}

func (f *fakeJobRepo) MarkAsProcessing(_ context.Context, id kernel.JobID) error {
	if j, ok := f.jobs[id]; ok {
		j.Status = screening.JobStatusProcessing
	}
	return nil
}

func (f *fakeJobRepo) MarkAsCompleted(_ context.Context, id kernel.JobID) error {
	if j, ok := f.jobs[id]; ok {
		j.Status = screening.JobStatusCompleted
	}
	return nil
}

func (f *fakeJobRepo) MarkAsFailed(_ context.Context, id kernel.JobID, msg string, details map[string]any) error {
	if j, ok := f.jobs[id]; ok {
		j.Status = screening.JobStatusFailed
		j.ErrorMessage = msg
		j.ErrorDetails = details
	}
	return nil
}

func (f *fakeJobRepo) UpdateProgress(_ context.Context, id kernel.JobID, step screening.ProcessingStep, pct int) error {
	if j, ok := f.jobs[id]; ok {
		j.CurrentStep = &step
		j.ProgressPercentage = pct
	}
	return nil
}

type fakeQueue struct {
	enqueued []kernel.JobID
	delayed  []kernel.JobID
}

func (f *fakeQueue) Enqueue(_ context.Context, id kernel.JobID, _ any) error {
	f.enqueued = append(f.enqueued, id)
	return nil
}

func (f *fakeQueue) Dequeue(_ context.Context, _ time.Duration) ([]byte, error) {
	return nil, nil
}

func (f *fakeQueue) EnqueueDelayed(_ context.Context, id kernel.JobID, _ any, _ time.Duration) error {
	f.delayed = append(f.delayed, id)
	return nil
}

func (f *fakeQueue) MoveDelayedToReady(_ context.Context) (int, error) { return 0, nil }
func (f *fakeQueue) GetQueueSize(_ context.Context) (int64, error)     { return 0, nil }
func (f *fakeQueue) GetDelayedQueueSize(_ context.Context) (int64, error) {
	return 0, nil
}
func (f *fakeQueue) Clear(_ context.Context) error { return nil }

// ============================================================================
// Helpers
// ============================================================================

func scriptedAnalysis(name, email string, score int, withProjects bool) *screening.Analysis {
	a := &screening.Analysis{}
	a.ResumeData.ContactInfo = screening.ContactInfo{Name: name, Email: email, Phone: "555-0100"}
	a.ResumeData.Skills = []string{"Go"}
	a.MatchAnalysis.MatchScore = screening.Score(score)
	a.MatchAnalysis.Reasoning = "Scripted reasoning."
	a.MatchAnalysis.SkillsPossessed = []string{"Go"}
	a.MatchAnalysis.SkillsLacking = []string{"Rust"}
	if withProjects {
		a.ResumeData.Projects = []screening.ProjectEntry{{Name: "demo", Description: "demo project"}}
	}
	return a
}

type deps struct {
	repo     *fakeRepo
	jobRepo  *fakeJobRepo
	analyzer *fakeAnalyzer
	embedder *fakeEmbedder
	verifier *fakeVerifier
	profiler *fakeProfiler
	notifier *fakeNotifier
	queue    *fakeQueue
}

func newTestService(t *testing.T) (*Service, *deps) {
	t.Helper()

	d := &deps{
		repo:     newFakeRepo(),
		jobRepo:  newFakeJobRepo(),
		analyzer: &fakeAnalyzer{analyses: map[string]*screening.Analysis{}, errs: map[string]error{}},
		embedder: &fakeEmbedder{},
		verifier: &fakeVerifier{},
		profiler: &fakeProfiler{},
		notifier: &fakeNotifier{},
		queue:    &fakeQueue{},
	}

	svc := NewService(d.repo, d.jobRepo, fakeExtractor{}, d.analyzer, d.embedder,
		d.verifier, d.profiler, d.notifier, nil, d.queue)
	return svc, d
}

func jdFile() screening.FileUpload {
	return screening.FileUpload{Name: "jd.txt", Data: []byte("Senior Go developer")}
}

// ============================================================================
// Tests
// ============================================================================

func TestScreenBatchRanksByScore(t *testing.T) {
	svc, d := newTestService(t)
	d.analyzer.analyses["resume a"] = scriptedAnalysis("Alice", "alice@example.com", 60, true)
	d.analyzer.analyses["resume b"] = scriptedAnalysis("Bob", "bob@example.com", 90, true)

	report, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: jdFile(),
		Resumes: []screening.FileUpload{
			{Name: "a.txt", Data: []byte("resume a")},
			{Name: "b.txt", Data: []byte("resume b")},
		},
	})
	require.NoError(t, err)

	require.Len(t, report.DetailedResults, 2)
	assert.Equal(t, "b.txt", report.DetailedResults[0].FileName)
	assert.Equal(t, 1, report.DetailedResults[0].Rank)
	assert.Equal(t, "a.txt", report.DetailedResults[1].FileName)
	assert.Equal(t, 2, report.DetailedResults[1].Rank)
	assert.Equal(t, screening.BatchStatusCompleted, report.Status)
	assert.Equal(t, 2, report.AnalyzedCount)
}

func TestScreenBatchCSVSummary(t *testing.T) {
	svc, d := newTestService(t)
	d.analyzer.analyses["resume a"] = scriptedAnalysis("Alice", "alice@example.com", 75, true)

	report, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: jdFile(),
		Resumes:        []screening.FileUpload{{Name: "a.txt", Data: []byte("resume a")}},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(report.CSVSummary), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name,Email,Phone,Score,Skills Possessed,Skills Lacking", lines[0])
	assert.Contains(t, lines[1], "Alice,alice@example.com,555-0100,75")
}

func TestScreenBatchRejectsWithoutProjects(t *testing.T) {
	svc, d := newTestService(t)
	d.analyzer.analyses["no projects"] = scriptedAnalysis("Carol", "carol@example.com", 80, false)
	d.analyzer.analyses["with projects"] = scriptedAnalysis("Dave", "dave@example.com", 30, true)

	report, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: jdFile(),
		Resumes: []screening.FileUpload{
			{Name: "c.txt", Data: []byte("no projects")},
			{Name: "d.txt", Data: []byte("with projects")},
		},
		NotifyCandidates: true,
	})
	require.NoError(t, err)

	byName := map[string]screening.CandidateResult{}
	for _, r := range report.DetailedResults {
		byName[r.FileName] = r
	}

	r := byName["c.txt"]
	assert.Equal(t, screening.ResultStatusRejected, r.Status)
	assert.Equal(t, "No projects found in resume.", r.Reason)
	// Rejection short-circuits enrichment and notification; only status and
	// reason are reported.
	assert.Nil(t, r.Data)
	assert.Equal(t, 0, d.profiler.calls)

	// Despite the higher model score, the rejected entry ranks behind the
	// analyzed one.
	assert.Equal(t, 1, byName["d.txt"].Rank)
	assert.Equal(t, 2, r.Rank)

	require.Len(t, d.notifier.sent, 1)
	assert.Equal(t, "dave@example.com", d.notifier.sent[0].To)
}

func TestScreenBatchIsolatesFailures(t *testing.T) {
	svc, d := newTestService(t)
	d.analyzer.analyses["good"] = scriptedAnalysis("Alice", "alice@example.com", 70, true)
	d.analyzer.errs["bad"] = errors.New("model overloaded")

	report, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: jdFile(),
		Resumes: []screening.FileUpload{
			{Name: "good.txt", Data: []byte("good")},
			{Name: "bad.txt", Data: []byte("bad")},
			{Name: "weird.exe", Data: []byte("binary")},
		},
	})
	require.NoError(t, err)
	require.Len(t, report.DetailedResults, 3)

	byName := map[string]screening.CandidateResult{}
	for _, r := range report.DetailedResults {
		byName[r.FileName] = r
	}

	assert.Equal(t, screening.ResultStatusAnalyzed, byName["good.txt"].Status)
	assert.Equal(t, screening.ResultStatusFailed, byName["bad.txt"].Status)
	assert.Contains(t, byName["bad.txt"].Reason, "Analysis failed")
	assert.Equal(t, screening.ResultStatusFailed, byName["weird.exe"].Status)
	assert.Contains(t, byName["weird.exe"].Reason, "Unsupported file type")

	// Analyzed entry ranks ahead of failed ones.
	assert.Equal(t, 1, byName["good.txt"].Rank)
}

func TestScreenBatchOversizeResumeIsolated(t *testing.T) {
	svc, d := newTestService(t)
	d.analyzer.analyses["good"] = scriptedAnalysis("Alice", "alice@example.com", 70, true)

	report, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: jdFile(),
		Resumes: []screening.FileUpload{
			{Name: "good.txt", Data: []byte("good")},
			{Name: "huge.pdf", Data: make([]byte, MaxFileSize+1)},
		},
	})
	require.NoError(t, err)
	require.Len(t, report.DetailedResults, 2)

	byName := map[string]screening.CandidateResult{}
	for _, r := range report.DetailedResults {
		byName[r.FileName] = r
	}

	// The oversize file fails on its own, the rest of the batch completes.
	assert.Equal(t, screening.ResultStatusAnalyzed, byName["good.txt"].Status)
	assert.Equal(t, screening.ResultStatusFailed, byName["huge.pdf"].Status)
	assert.Contains(t, byName["huge.pdf"].Reason, "size limit")
}

func TestScreenBatchOversizeJobDescriptionAborts(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: screening.FileUpload{Name: "jd.txt", Data: make([]byte, MaxFileSize+1)},
		Resumes:        []screening.FileUpload{{Name: "a.txt", Data: []byte("x")}},
	})
	assert.Error(t, err)
}

func TestScreenBatchSaveFailureDoesNotComplete(t *testing.T) {
	svc, d := newTestService(t)
	d.analyzer.analyses["r"] = scriptedAnalysis("Alice", "alice@example.com", 70, true)
	d.repo.saveErr = errors.New("db down")

	_, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: jdFile(),
		Resumes:        []screening.FileUpload{{Name: "a.txt", Data: []byte("r")}},
	})
	require.Error(t, err)

	// The batch must not report completed when its results were never stored.
	require.Len(t, d.repo.batches, 1)
	for _, b := range d.repo.batches {
		assert.Equal(t, screening.BatchStatusFailed, b.Status)
	}
}

func TestScreenBatchEmailGating(t *testing.T) {
	svc, d := newTestService(t)
	d.analyzer.analyses["with email"] = scriptedAnalysis("Alice", "alice@example.com", 70, true)
	d.analyzer.analyses["no email"] = scriptedAnalysis("Bob", "", 60, true)

	report, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: jdFile(),
		Resumes: []screening.FileUpload{
			{Name: "a.txt", Data: []byte("with email")},
			{Name: "b.txt", Data: []byte("no email")},
		},
		NotifyCandidates: true,
	})
	require.NoError(t, err)

	require.Len(t, d.notifier.sent, 1)
	assert.Equal(t, "alice@example.com", d.notifier.sent[0].To)
	assert.Equal(t, 70, d.notifier.sent[0].MatchScore)

	byName := map[string]screening.CandidateResult{}
	for _, r := range report.DetailedResults {
		byName[r.FileName] = r
	}
	require.NotNil(t, byName["a.txt"].Data.EmailNotification)
	assert.True(t, byName["a.txt"].Data.EmailNotification.Sent)
	assert.Equal(t, "Email sent successfully", byName["a.txt"].Data.EmailNotification.Status)

	require.NotNil(t, byName["b.txt"].Data.EmailNotification)
	assert.False(t, byName["b.txt"].Data.EmailNotification.Sent)
}

func TestScreenBatchEmailFailureRecorded(t *testing.T) {
	svc, d := newTestService(t)
	d.analyzer.analyses["r"] = scriptedAnalysis("Alice", "alice@example.com", 70, true)
	d.notifier.err = errors.New("smtp down")

	report, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription:   jdFile(),
		Resumes:          []screening.FileUpload{{Name: "a.txt", Data: []byte("r")}},
		NotifyCandidates: true,
	})
	require.NoError(t, err)

	n := report.DetailedResults[0].Data.EmailNotification
	require.NotNil(t, n)
	assert.False(t, n.Sent)
	assert.Contains(t, n.Status, "Failed to send email")
	// Delivery trouble must not fail the screening itself.
	assert.Equal(t, screening.ResultStatusAnalyzed, report.DetailedResults[0].Status)
}

func TestScreenBatchGitHubGating(t *testing.T) {
	svc, d := newTestService(t)
	d.analyzer.analyses["r"] = scriptedAnalysis("Alice", "alice@example.com", 70, true)
	d.verifier.statuses = screening.LinkVerification{
		"github":    "Broken (Status: 404)",
		"linkedin":  "Not Provided",
		"portfolio": "Not Provided",
	}

	_, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: jdFile(),
		Resumes:        []screening.FileUpload{{Name: "a.txt", Data: []byte("r")}},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, d.profiler.calls)
}

func TestScreenBatchValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		Resumes: []screening.FileUpload{{Name: "a.txt", Data: []byte("x")}},
	})
	assert.Error(t, err)

	_, err = svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: jdFile(),
	})
	assert.Error(t, err)

	_, err = svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: screening.FileUpload{Name: "jd.png", Data: []byte("x")},
		Resumes:        []screening.FileUpload{{Name: "a.txt", Data: []byte("x")}},
	})
	assert.Error(t, err)
}

func TestScreenBatchEmbeddingBestEffort(t *testing.T) {
	svc, d := newTestService(t)
	d.analyzer.analyses["r"] = scriptedAnalysis("Alice", "alice@example.com", 70, true)
	d.embedder.err = errors.New("quota exceeded")

	report, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: jdFile(),
		Resumes:        []screening.FileUpload{{Name: "a.txt", Data: []byte("r")}},
	})
	require.NoError(t, err)
	assert.Equal(t, screening.ResultStatusAnalyzed, report.DetailedResults[0].Status)
}

func TestGetBatchReport(t *testing.T) {
	svc, d := newTestService(t)
	d.analyzer.analyses["r"] = scriptedAnalysis("Alice", "alice@example.com", 70, true)

	created, err := svc.ScreenBatch(context.Background(), screening.ScreenBatchRequest{
		JobDescription: jdFile(),
		Resumes:        []screening.FileUpload{{Name: "a.txt", Data: []byte("r")}},
	})
	require.NoError(t, err)

	report, err := svc.GetBatchReport(context.Background(), created.BatchID)
	require.NoError(t, err)
	assert.Equal(t, created.BatchID, report.BatchID)
	assert.Len(t, report.DetailedResults, 1)
	assert.Contains(t, report.CSVSummary, "Alice")

	_, err = svc.GetBatchReport(context.Background(), kernel.NewBatchID("missing"))
	assert.Error(t, err)
}

func TestRetryAndCancelJob(t *testing.T) {
	svc, d := newTestService(t)

	jobID := kernel.NewJobID("job-1")
	d.jobRepo.jobs[jobID] = &screening.ScreeningJob{
		ID:          jobID,
		BatchID:     kernel.NewBatchID("batch-1"),
		Status:      screening.JobStatusFailed,
		MaxAttempts: 3,
	}

	resp, err := svc.RetryFailedJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, screening.JobStatusPending, resp.Status)
	assert.Contains(t, d.queue.enqueued, jobID)

	// Pending jobs can still be cancelled.
	require.NoError(t, svc.CancelJob(context.Background(), jobID))
	assert.Equal(t, screening.JobStatusCancelled, d.jobRepo.jobs[jobID].Status)

	// Completed jobs cannot.
	doneID := kernel.NewJobID("job-2")
	d.jobRepo.jobs[doneID] = &screening.ScreeningJob{ID: doneID, Status: screening.JobStatusCompleted}
	assert.Error(t, svc.CancelJob(context.Background(), doneID))
}
