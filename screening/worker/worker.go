package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/screening"
	"github.com/hirelens/hirelens/screening/screeningsrv"
)

// ScreeningWorker consumes queued screening jobs and runs them through the
// service pipeline.
type ScreeningWorker struct {
	service *screeningsrv.Service
	queue   screening.JobQueue
	workers int
}

func NewScreeningWorker(service *screeningsrv.Service, queue screening.JobQueue, workers int) *ScreeningWorker {
	return &ScreeningWorker{
		service: service,
		queue:   queue,
		workers: workers,
	}
}

func (w *ScreeningWorker) Start(ctx context.Context) {
	logx.Infof("Starting %d screening workers", w.workers)

	go w.moveDelayedJobs(ctx)

	for i := 0; i < w.workers; i++ {
		go w.processJobs(ctx, i)
	}
}

func (w *ScreeningWorker) processJobs(ctx context.Context, workerID int) {
	logx.Infof("Worker %d started", workerID)

	for {
		select {
		case <-ctx.Done():
			logx.Infof("Worker %d stopping", workerID)
			return
		default:
			data, err := w.queue.Dequeue(ctx, 5*time.Second)
			if err != nil {
				logx.Errorf("Worker %d dequeue error: %v", workerID, err)
				continue
			}

			// Empty data means the blocking pop timed out.
			if len(data) == 0 {
				continue
			}

			var job screening.ScreeningJob
			if err := json.Unmarshal(data, &job); err != nil {
				logx.Errorf("Worker %d unmarshal error: %v (data: %s)", workerID, err, string(data))
				continue
			}

			logx.Infof("Worker %d processing job: %s", workerID, job.ID)
			if err := w.service.ProcessScreeningJob(ctx, &job); err != nil {
				logx.Errorf("Worker %d job failed: %v", workerID, err)
			}
		}
	}
}

func (w *ScreeningWorker) moveDelayedJobs(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := w.queue.MoveDelayedToReady(ctx)
			if err != nil {
				logx.Errorf("Failed to move delayed jobs: %v", err)
			} else if count > 0 {
				logx.Infof("Moved %d delayed jobs to ready queue", count)
			}
		}
	}
}
