package screeningsrv

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/screening"
)

// ScreenBatchAsync persists the uploads, records a job and queues it for the
// worker pool.
func (s *Service) ScreenBatchAsync(ctx context.Context, req screening.ScreenBatchRequest) (*screening.AsyncScreenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := validateUploads(req); err != nil {
		return nil, err
	}

	batch := &screening.Batch{
		ID:          kernel.NewBatchID(uuid.NewString()),
		Status:      screening.BatchStatusPending,
		JDFileName:  req.JobDescription.Name,
		ResumeCount: len(req.Resumes),
		CreatedAt:   time.Now(),
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodePersistenceFailed, err).
			WithDetail("batch_id", batch.ID)
	}

	payload, err := s.storeUploads(ctx, batch, req)
	if err != nil {
		return nil, err
	}

	jobID := kernel.NewJobID(uuid.NewString())
	job := &screening.ScreeningJob{
		ID:             jobID,
		BatchID:        batch.ID,
		Status:         screening.JobStatusPending,
		AttemptCount:   0,
		MaxAttempts:    3,
		CreatedAt:      time.Now(),
		RequestPayload: *payload,
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, screening.ErrJobCreationFailed().
			WithDetail("batch_id", batch.ID).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	if err := s.queue.Enqueue(ctx, jobID, job); err != nil {
		_ = s.jobRepo.MarkAsFailed(ctx, jobID, "failed to enqueue", map[string]any{
			"error": err.Error(),
		})

		return nil, screening.ErrQueueEnqueueFailed().
			WithDetail("job_id", jobID).
			WithDetail("batch_id", batch.ID).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	logx.Infof("Screening job queued: JobID=%s, BatchID=%s, Resumes=%d", jobID, batch.ID, len(req.Resumes))

	return &screening.AsyncScreenResponse{
		JobID:   jobID,
		BatchID: batch.ID,
		Status:  screening.JobStatusPending,
		Message: "Screening queued for processing",
	}, nil
}

// validateUploads checks the job description up front. Resume sizes are not
// checked here: an oversize resume fails individually inside the pipeline
// while the rest of the batch proceeds.
func validateUploads(req screening.ScreenBatchRequest) error {
	if len(req.JobDescription.Data) > MaxFileSize {
		return screening.ErrFileTooLarge().
			WithDetail("file_name", req.JobDescription.Name).
			WithDetail("max_bytes", MaxFileSize)
	}
	return nil
}

// storeUploads writes the JD and resumes to storage so the worker can pick
// them up from any instance.
func (s *Service) storeUploads(ctx context.Context, batch *screening.Batch, req screening.ScreenBatchRequest) (*screening.ScreenBatchPayload, error) {
	jdPath := s.fs.Join("batches", batch.ID.String(), "jd", req.JobDescription.Name)
	if err := s.fs.WriteFile(ctx, jdPath, req.JobDescription.Data); err != nil {
		return nil, screening.ErrStorageFailed().
			WithDetail("batch_id", batch.ID).
			WithDetail("file_name", req.JobDescription.Name).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	stored := make([]screening.StoredResume, 0, len(req.Resumes))
	for i, f := range req.Resumes {
		path := s.fs.Join("batches", batch.ID.String(), "resumes", fmt.Sprintf("%03d_%s", i, f.Name))
		if err := s.fs.WriteFile(ctx, path, f.Data); err != nil {
			return nil, screening.ErrStorageFailed().
				WithDetail("batch_id", batch.ID).
				WithDetail("file_name", f.Name).
				WithDetails(map[string]any{
					"error": err.Error(),
				})
		}
		stored = append(stored, screening.StoredResume{Path: path, FileName: f.Name})
	}

	return &screening.ScreenBatchPayload{
		BatchID:          batch.ID,
		JDPath:           jdPath,
		JDFileName:       req.JobDescription.Name,
		Resumes:          stored,
		NotifyCandidates: req.NotifyCandidates,
	}, nil
}

// ProcessScreeningJob - Worker function to process a queued batch
func (s *Service) ProcessScreeningJob(ctx context.Context, job *screening.ScreeningJob) error {
	logx.Infof("Processing screening job: JobID=%s, Attempt=%d/%d", job.ID, job.AttemptCount+1, job.MaxAttempts)

	if err := s.jobRepo.MarkAsProcessing(ctx, job.ID); err != nil {
		return screening.ErrJobUpdateFailed().
			WithDetail("job_id", job.ID).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	payload := job.RequestPayload

	batch, err := s.repo.GetBatchByID(ctx, payload.BatchID)
	if err != nil {
		return s.handleJobError(ctx, job, "batch_lookup_failed", err)
	}
	batch.Status = screening.BatchStatusProcessing
	_ = s.repo.UpdateBatch(ctx, batch)

	_ = s.jobRepo.UpdateProgress(ctx, job.ID, screening.StepExtracting, 10)

	jdData, err := s.fs.ReadFile(ctx, payload.JDPath)
	if err != nil {
		return s.handleJobError(ctx, job, "jd_read_failed", err)
	}
	jdText, err := s.extractJobDescription(screening.FileUpload{Name: payload.JDFileName, Data: jdData})
	if err != nil {
		return s.handleJobError(ctx, job, "jd_extraction_failed", err)
	}
	batch.JDText = jdText

	_ = s.jobRepo.UpdateProgress(ctx, job.ID, screening.StepAnalyzing, 20)

	results := make([]*screening.CandidateResult, 0, len(payload.Resumes))
	for i, stored := range payload.Resumes {
		data, err := s.fs.ReadFile(ctx, stored.Path)
		if err != nil {
			r := &screening.CandidateResult{
				ID:        kernel.NewCandidateID(uuid.NewString()),
				BatchID:   batch.ID,
				FileName:  stored.FileName,
				CreatedAt: time.Now(),
			}
			results = append(results, failResult(r, fmt.Sprintf("Failed to read stored file: %v", err)))
			continue
		}

		results = append(results, s.processResume(ctx, batch, stored.FileName, data, jdText, payload.NotifyCandidates))

		progress := 20 + (60*(i+1))/len(payload.Resumes)
		_ = s.jobRepo.UpdateProgress(ctx, job.ID, screening.StepAnalyzing, progress)
	}

	_ = s.jobRepo.UpdateProgress(ctx, job.ID, screening.StepSaving, 90)

	screening.RankResults(results)

	// Results first, then the completed flip, so a completed batch always
	// has its results on record.
	if err := s.repo.SaveResults(ctx, results); err != nil {
		return s.handleJobError(ctx, job, "save_failed", err)
	}
	batch.MarkCompleted()
	if err := s.repo.UpdateBatch(ctx, batch); err != nil {
		return s.handleJobError(ctx, job, "batch_update_failed", err)
	}

	if err := s.jobRepo.MarkAsCompleted(ctx, job.ID); err != nil {
		logx.Errorf("Failed to mark job as completed: %v", err)
		// Results are already saved, don't fail the job over bookkeeping.
	}
	_ = s.jobRepo.UpdateProgress(ctx, job.ID, screening.StepSaving, 100)

	logx.Infof("Screening job completed: JobID=%s, BatchID=%s", job.ID, batch.ID)
	return nil
}

// handleJobError handles job processing errors with retry logic
func (s *Service) handleJobError(ctx context.Context, job *screening.ScreeningJob, errorType string, err error) error {
	job.AttemptCount++

	errorDetails := map[string]any{
		"error":        err.Error(),
		"error_type":   errorType,
		"attempt":      job.AttemptCount,
		"max_attempts": job.MaxAttempts,
		"batch_id":     job.BatchID,
	}

	if job.AttemptCount < job.MaxAttempts {
		// Exponential backoff: 2^attempt minutes
		retryDelay := time.Duration(1<<uint(job.AttemptCount)) * time.Minute
		nextRetry := time.Now().Add(retryDelay)
		job.NextRetryAt = &nextRetry

		logx.Warnf("Job failed, will retry: JobID=%s, Attempt=%d/%d, NextRetry=%v, Error=%s",
			job.ID, job.AttemptCount, job.MaxAttempts, nextRetry, errorType)

		if queueErr := s.queue.EnqueueDelayed(ctx, job.ID, job, retryDelay); queueErr != nil {
			logx.Errorf("Failed to enqueue for retry: %v", queueErr)

			_ = s.jobRepo.MarkAsFailed(ctx, job.ID,
				fmt.Sprintf("%s (retry enqueue failed)", errorType),
				errorDetails)
			s.markBatchFailed(ctx, job.BatchID)

			return screening.ErrJobRetryFailed().
				WithDetail("job_id", job.ID).
				WithDetail("error_type", errorType).
				WithDetails(errorDetails)
		}

		job.ErrorMessage = fmt.Sprintf("%s (will retry)", errorType)
		job.ErrorDetails = errorDetails
		job.Status = screening.JobStatusPending

		if updateErr := s.jobRepo.Update(ctx, job); updateErr != nil {
			logx.Errorf("Failed to update job for retry: %v", updateErr)
		}

		return screening.ErrRegistry.NewWithCause(screening.CodeJobUpdateFailed, err).
			WithDetail("job_id", job.ID).
			WithDetail("will_retry", true).
			WithDetail("next_retry_at", nextRetry).
			WithDetails(errorDetails)
	}

	logx.Errorf("Job permanently failed: JobID=%s, Error=%s, Attempts=%d/%d",
		job.ID, errorType, job.AttemptCount, job.MaxAttempts)

	_ = s.jobRepo.MarkAsFailed(ctx, job.ID, errorType, errorDetails)
	s.markBatchFailed(ctx, job.BatchID)

	return screening.ErrJobMaxRetriesReached().
		WithDetail("job_id", job.ID).
		WithDetail("error_type", errorType).
		WithDetail("final_attempt", job.AttemptCount).
		WithDetails(errorDetails)
}

func (s *Service) markBatchFailed(ctx context.Context, batchID kernel.BatchID) {
	batch, err := s.repo.GetBatchByID(ctx, batchID)
	if err != nil {
		return
	}
	batch.MarkFailed()
	if err := s.repo.UpdateBatch(ctx, batch); err != nil {
		logx.Errorf("Failed to mark batch as failed: %v", err)
	}
}

// ============================================================================
// Job Management
// ============================================================================

// GetJobStatus retrieves the current status of a job
func (s *Service) GetJobStatus(ctx context.Context, jobID kernel.JobID) (*screening.JobStatusResponse, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, screening.ErrJobNotFound().
			WithDetail("job_id", jobID)
	}

	resp := job.ToStatusResponse()
	if job.Status == screening.JobStatusPending && job.AttemptCount > 0 {
		resp.Message = fmt.Sprintf("Screening pending retry (attempt %d/%d)", job.AttemptCount, job.MaxAttempts)
	}
	return &resp, nil
}

// ListJobs lists screening jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[screening.ScreeningJob], error) {
	jobs, err := s.jobRepo.List(ctx, pagination.Normalize())
	if err != nil {
		return nil, screening.ErrRegistry.NewWithCause(screening.CodeJobNotFound, err)
	}
	return jobs, nil
}

// CancelJob cancels a job that has not completed yet
func (s *Service) CancelJob(ctx context.Context, jobID kernel.JobID) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return screening.ErrJobNotFound().
			WithDetail("job_id", jobID)
	}

	if job.Status == screening.JobStatusCompleted {
		return screening.ErrJobAlreadyCompleted().
			WithDetail("job_id", jobID)
	}
	if job.Status == screening.JobStatusCancelled {
		return screening.ErrJobCancelFailed().
			WithDetail("job_id", jobID).
			WithDetail("status", job.Status)
	}

	if job.Status == screening.JobStatusProcessing {
		// Won't stop an actively running job, just records the intent.
		logx.Warnf("Cancelling job that is currently processing: %s", jobID)
	}

	now := time.Now()
	job.Status = screening.JobStatusCancelled
	job.FailedAt = &now
	job.ErrorMessage = "Job cancelled by user"
	job.ErrorDetails = map[string]any{
		"cancelled_at": now,
	}

	if err := s.jobRepo.Update(ctx, job); err != nil {
		return screening.ErrJobUpdateFailed().
			WithDetail("job_id", jobID).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	logx.Infof("Screening job cancelled: JobID=%s", jobID)
	return nil
}

// RetryFailedJob manually requeues a failed job
func (s *Service) RetryFailedJob(ctx context.Context, jobID kernel.JobID) (*screening.JobStatusResponse, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, screening.ErrJobNotFound().
			WithDetail("job_id", jobID)
	}

	if job.Status != screening.JobStatusFailed {
		return nil, screening.ErrJobRetryFailed().
			WithDetail("job_id", jobID).
			WithDetail("current_status", job.Status).
			WithDetail("required_status", screening.JobStatusFailed)
	}

	// Manual retry resets the attempt budget.
	job.Status = screening.JobStatusPending
	job.AttemptCount = 0
	job.ErrorMessage = ""
	job.ErrorDetails = nil
	job.FailedAt = nil
	job.NextRetryAt = nil
	job.ProgressPercentage = 0
	job.CurrentStep = nil

	if err := s.jobRepo.Update(ctx, job); err != nil {
		return nil, screening.ErrJobUpdateFailed().
			WithDetail("job_id", jobID).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	if err := s.queue.Enqueue(ctx, jobID, job); err != nil {
		_ = s.jobRepo.MarkAsFailed(ctx, jobID, "failed to re-enqueue", map[string]any{
			"error": err.Error(),
		})

		return nil, screening.ErrQueueEnqueueFailed().
			WithDetail("job_id", jobID).
			WithDetails(map[string]any{
				"error": err.Error(),
			})
	}

	logx.Infof("Screening job manually retried: JobID=%s", jobID)

	return &screening.JobStatusResponse{
		JobID:   jobID,
		BatchID: job.BatchID,
		Status:  screening.JobStatusPending,
		Message: "Screening requeued for processing",
	}, nil
}
