package screeningapi

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/hirelens/hirelens/internal/textract"
	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/screening"
	"github.com/hirelens/hirelens/screening/screeningsrv"
)

type ScreeningHandlers struct {
	service *screeningsrv.Service
}

func NewScreeningHandlers(service *screeningsrv.Service) *ScreeningHandlers {
	return &ScreeningHandlers{service: service}
}

func (h *ScreeningHandlers) RegisterRoutes(app *fiber.App, apiKey string) {
	screenings := app.Group("/api/v1/screenings", APIKeyMiddleware(apiKey))

	// Screening
	screenings.Post("/", h.ScreenBatch)      // Run pipeline inline, return report
	screenings.Post("/async", h.ScreenAsync) // Queue for background processing
	screenings.Get("/", h.ListBatches)       // List batches

	// Job Management (registered before /:id so "jobs" is not taken as an ID)
	screenings.Get("/jobs", h.ListJobs)
	screenings.Get("/jobs/:job_id", h.GetJobStatus)
	screenings.Post("/jobs/:job_id/cancel", h.CancelJob)
	screenings.Post("/jobs/:job_id/retry", h.RetryJob)

	screenings.Get("/:id", h.GetReport)  // Full report for a batch
	screenings.Get("/:id/csv", h.GetCSV) // CSV summary download

	candidates := app.Group("/api/v1/candidates", APIKeyMiddleware(apiKey))
	candidates.Post("/search", h.SearchCandidates)
}

// ============================================================================
// Screening Handlers
// ============================================================================

// ScreenBatch runs the full pipeline synchronously
// POST /api/v1/screenings
func (h *ScreeningHandlers) ScreenBatch(c *fiber.Ctx) error {
	req, err := parseScreenRequest(c)
	if err != nil {
		return err
	}

	report, err := h.service.ScreenBatch(c.Context(), *req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

// ScreenAsync queues a screening batch for background processing
// POST /api/v1/screenings/async
func (h *ScreeningHandlers) ScreenAsync(c *fiber.Ctx) error {
	req, err := parseScreenRequest(c)
	if err != nil {
		return err
	}

	resp, err := h.service.ScreenBatchAsync(c.Context(), *req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// ListBatches lists screening batches
// GET /api/v1/screenings?page=1&page_size=20
func (h *ScreeningHandlers) ListBatches(c *fiber.Ctx) error {
	pagination := kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}

	batches, err := h.service.ListBatches(c.Context(), pagination)
	if err != nil {
		return err
	}

	return c.JSON(batches)
}

// GetReport returns the full report of a batch
// GET /api/v1/screenings/:id
func (h *ScreeningHandlers) GetReport(c *fiber.Ctx) error {
	id := kernel.NewBatchID(c.Params("id"))

	report, err := h.service.GetBatchReport(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(report)
}

// GetCSV downloads the CSV summary of a completed batch
// GET /api/v1/screenings/:id/csv
func (h *ScreeningHandlers) GetCSV(c *fiber.Ctx) error {
	id := kernel.NewBatchID(c.Params("id"))

	csvSummary, err := h.service.GetBatchCSV(c.Context(), id)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="screening_summary_`+id.String()+`.csv"`)
	return c.SendString(csvSummary)
}

// ============================================================================
// Job Handlers
// ============================================================================

// ListJobs lists screening jobs
// GET /api/v1/screenings/jobs?page=1&page_size=20
func (h *ScreeningHandlers) ListJobs(c *fiber.Ctx) error {
	pagination := kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}

	jobs, err := h.service.ListJobs(c.Context(), pagination)
	if err != nil {
		return err
	}

	return c.JSON(jobs)
}

// GetJobStatus returns the status of an async screening job
// GET /api/v1/screenings/jobs/:job_id
func (h *ScreeningHandlers) GetJobStatus(c *fiber.Ctx) error {
	jobID := kernel.NewJobID(c.Params("job_id"))

	status, err := h.service.GetJobStatus(c.Context(), jobID)
	if err != nil {
		return err
	}

	return c.JSON(status)
}

// CancelJob cancels a queued or running job
// POST /api/v1/screenings/jobs/:job_id/cancel
func (h *ScreeningHandlers) CancelJob(c *fiber.Ctx) error {
	jobID := kernel.NewJobID(c.Params("job_id"))

	if err := h.service.CancelJob(c.Context(), jobID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"message": "Job cancelled",
	})
}

// RetryJob requeues a failed job
// POST /api/v1/screenings/jobs/:job_id/retry
func (h *ScreeningHandlers) RetryJob(c *fiber.Ctx) error {
	jobID := kernel.NewJobID(c.Params("job_id"))

	status, err := h.service.RetryFailedJob(c.Context(), jobID)
	if err != nil {
		return err
	}

	return c.JSON(status)
}

// ============================================================================
// Search Handlers
// ============================================================================

// SearchCandidates runs semantic search over analyzed candidates
// POST /api/v1/candidates/search
func (h *ScreeningHandlers) SearchCandidates(c *fiber.Ctx) error {
	var req screening.SearchCandidatesRequest
	if err := c.BodyParser(&req); err != nil {
		return screening.ErrInvalidSearchQuery().
			WithDetail("parse_error", err.Error())
	}

	resp, err := h.service.SearchCandidates(c.Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

// ============================================================================
// Multipart parsing
// ============================================================================

// parseScreenRequest reads the job_description file and resumes files out of
// the multipart form.
func parseScreenRequest(c *fiber.Ctx) (*screening.ScreenBatchRequest, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, screening.ErrMissingJobDescription().
			WithDetail("parse_error", err.Error())
	}

	jdFiles := form.File["job_description"]
	if len(jdFiles) == 0 {
		return nil, screening.ErrMissingJobDescription()
	}

	resumeFiles := form.File["resumes"]
	if len(resumeFiles) == 0 {
		return nil, screening.ErrMissingResumes()
	}

	jd, err := readUpload(jdFiles[0])
	if err != nil {
		return nil, err
	}
	if !textract.AllowedFile(jd.Name) {
		return nil, screening.ErrInvalidFileFormat().
			WithDetail("file_name", jd.Name).
			WithDetail("supported_formats", []string{"pdf", "docx", "txt"})
	}

	resumes := make([]screening.FileUpload, 0, len(resumeFiles))
	for _, f := range resumeFiles {
		upload, err := readUpload(f)
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, *upload)
	}

	// Notifications default on, ?notify=false opts out.
	notify := c.Query("notify", c.FormValue("notify", "true")) != "false"

	return &screening.ScreenBatchRequest{
		JobDescription:   *jd,
		Resumes:          resumes,
		NotifyCandidates: notify,
	}, nil
}

// readUpload buffers one multipart file. Size limits are not enforced here:
// an oversize resume becomes a per-file FAILED entry in the pipeline instead
// of rejecting the whole batch.
func readUpload(fh *multipart.FileHeader) (*screening.FileUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodeStorageFailed, err).
			WithDetail("file_name", fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodeStorageFailed, err).
			WithDetail("file_name", fh.Filename)
	}

	return &screening.FileUpload{Name: fh.Filename, Data: data}, nil
}
