package screening

import (
	"net/http"

	"github.com/hirelens/hirelens/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("SCREENING")

// Error codes - Screening Operations
var (
	CodeBatchNotFound        = ErrRegistry.Register("BATCH_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Screening batch not found")
	CodeMissingJobDesc       = ErrRegistry.Register("MISSING_JOB_DESCRIPTION", errx.TypeValidation, http.StatusBadRequest, "Job description file is required")
	CodeMissingResumes       = ErrRegistry.Register("MISSING_RESUMES", errx.TypeValidation, http.StatusBadRequest, "At least one resume file is required")
	CodeInvalidFileFormat    = ErrRegistry.Register("INVALID_FILE_FORMAT", errx.TypeValidation, http.StatusBadRequest, "Invalid file format")
	CodeFileTooLarge         = ErrRegistry.Register("FILE_TOO_LARGE", errx.TypeValidation, http.StatusRequestEntityTooLarge, "File exceeds the size limit")
	CodeExtractionFailed     = ErrRegistry.Register("EXTRACTION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to extract text from file")
	CodeEmptyJobDesc         = ErrRegistry.Register("EMPTY_JOB_DESCRIPTION", errx.TypeValidation, http.StatusBadRequest, "Job description contains no readable text")
	CodeAnalysisFailed       = ErrRegistry.Register("ANALYSIS_FAILED", errx.TypeExternal, http.StatusBadGateway, "Resume analysis failed")
	CodeEmbeddingFailed      = ErrRegistry.Register("EMBEDDING_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to generate embeddings")
	CodeSearchFailed         = ErrRegistry.Register("SEARCH_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Search operation failed")
	CodeInvalidSearchQuery   = ErrRegistry.Register("INVALID_SEARCH_QUERY", errx.TypeValidation, http.StatusBadRequest, "Search query must not be empty")
	CodeStorageFailed        = ErrRegistry.Register("STORAGE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to store uploaded file")
	CodeReportNotReady       = ErrRegistry.Register("REPORT_NOT_READY", errx.TypeBusiness, http.StatusConflict, "Screening batch has not completed yet")
	CodePersistenceFailed    = ErrRegistry.Register("PERSISTENCE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to persist screening results")
	CodeInvalidAuthorization = ErrRegistry.Register("INVALID_API_KEY", errx.TypeAuthentication, http.StatusUnauthorized, "Missing or invalid API key")
)

// Error codes - Job/Queue Operations
var (
	CodeJobNotFound          = ErrRegistry.Register("JOB_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Screening job not found")
	CodeJobAlreadyProcessing = ErrRegistry.Register("JOB_ALREADY_PROCESSING", errx.TypeConflict, http.StatusConflict, "Job is already being processed")
	CodeJobAlreadyCompleted  = ErrRegistry.Register("JOB_ALREADY_COMPLETED", errx.TypeBusiness, http.StatusUnprocessableEntity, "Job has already been completed")
	CodeJobMaxRetriesReached = ErrRegistry.Register("JOB_MAX_RETRIES", errx.TypeInternal, http.StatusInternalServerError, "Job exceeded maximum retry attempts")
	CodeQueueEnqueueFailed   = ErrRegistry.Register("QUEUE_ENQUEUE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to enqueue job")
	CodeQueueDequeueFailed   = ErrRegistry.Register("QUEUE_DEQUEUE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to dequeue job")
	CodeQueueConnectionError = ErrRegistry.Register("QUEUE_CONNECTION_ERROR", errx.TypeInternal, http.StatusServiceUnavailable, "Queue service unavailable")
	CodeJobCreationFailed    = ErrRegistry.Register("JOB_CREATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to create job record")
	CodeJobUpdateFailed      = ErrRegistry.Register("JOB_UPDATE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to update job status")
	CodeJobRetryFailed       = ErrRegistry.Register("JOB_RETRY_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to schedule job retry")
	CodeJobCancelFailed      = ErrRegistry.Register("JOB_CANCEL_FAILED", errx.TypeBusiness, http.StatusUnprocessableEntity, "Job can no longer be cancelled")
)

// Helper functions - Screening Operations
func ErrBatchNotFound() *errx.Error {
	return ErrRegistry.New(CodeBatchNotFound)
}

func ErrMissingJobDescription() *errx.Error {
	return ErrRegistry.New(CodeMissingJobDesc)
}

func ErrMissingResumes() *errx.Error {
	return ErrRegistry.New(CodeMissingResumes)
}

func ErrInvalidFileFormat() *errx.Error {
	return ErrRegistry.New(CodeInvalidFileFormat)
}

func ErrFileTooLarge() *errx.Error {
	return ErrRegistry.New(CodeFileTooLarge)
}

func ErrExtractionFailed() *errx.Error {
	return ErrRegistry.New(CodeExtractionFailed)
}

func ErrEmptyJobDescription() *errx.Error {
	return ErrRegistry.New(CodeEmptyJobDesc)
}

func ErrAnalysisFailed() *errx.Error {
	return ErrRegistry.New(CodeAnalysisFailed)
}

func ErrEmbeddingFailed() *errx.Error {
	return ErrRegistry.New(CodeEmbeddingFailed)
}

func ErrSearchFailed() *errx.Error {
	return ErrRegistry.New(CodeSearchFailed)
}

func ErrInvalidSearchQuery() *errx.Error {
	return ErrRegistry.New(CodeInvalidSearchQuery)
}

func ErrStorageFailed() *errx.Error {
	return ErrRegistry.New(CodeStorageFailed)
}

func ErrReportNotReady() *errx.Error {
	return ErrRegistry.New(CodeReportNotReady)
}

func ErrPersistenceFailed() *errx.Error {
	return ErrRegistry.New(CodePersistenceFailed)
}

func ErrInvalidAuthorization() *errx.Error {
	return ErrRegistry.New(CodeInvalidAuthorization)
}

// Helper functions - Job/Queue Operations
func ErrJobNotFound() *errx.Error {
	return ErrRegistry.New(CodeJobNotFound)
}

func ErrJobAlreadyProcessing() *errx.Error {
	return ErrRegistry.New(CodeJobAlreadyProcessing)
}

func ErrJobAlreadyCompleted() *errx.Error {
	return ErrRegistry.New(CodeJobAlreadyCompleted)
}

func ErrJobMaxRetriesReached() *errx.Error {
	return ErrRegistry.New(CodeJobMaxRetriesReached)
}

func ErrQueueEnqueueFailed() *errx.Error {
	return ErrRegistry.New(CodeQueueEnqueueFailed)
}

func ErrQueueDequeueFailed() *errx.Error {
	return ErrRegistry.New(CodeQueueDequeueFailed)
}

func ErrQueueConnectionError() *errx.Error {
	return ErrRegistry.New(CodeQueueConnectionError)
}

func ErrJobCreationFailed() *errx.Error {
	return ErrRegistry.New(CodeJobCreationFailed)
}

func ErrJobUpdateFailed() *errx.Error {
	return ErrRegistry.New(CodeJobUpdateFailed)
}

func ErrJobRetryFailed() *errx.Error {
	return ErrRegistry.New(CodeJobRetryFailed)
}

func ErrJobCancelFailed() *errx.Error {
	return ErrRegistry.New(CodeJobCancelFailed)
}
