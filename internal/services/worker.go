package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"recruitai/interview-orchestrator/internal/models"
	"recruitai/interview-orchestrator/internal/repositories"
)

// Worker delivers queued submissions in the background. Failed deliveries
// are recorded but leave the session's ending phase untouched, so a
// submission can be retried.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(submissionID uuid.UUID)
}

type worker struct {
	subRepo      repositories.SubmissionRepository
	submitter    SubmitterService
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	log          *logrus.Entry
}

func NewWorker(
	subRepo repositories.SubmissionRepository,
	submitter SubmitterService,
	concurrency int,
	pollInterval time.Duration,
	log *logrus.Entry,
) Worker {
	return &worker{
		subRepo:      subRepo,
		submitter:    submitter,
		jobQueue:     make(chan uuid.UUID, 100),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		log:          log,
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.WithField("concurrency", w.concurrency).Info("starting submission worker")

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)
}

// Stop implements Worker.
func (w *worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
	w.log.Info("submission worker stopped")
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(submissionID uuid.UUID) {
	select {
	case w.jobQueue <- submissionID:
		w.log.WithField("submission_id", submissionID).Debug("submission enqueued")
	case <-w.stopChan:
		w.log.WithField("submission_id", submissionID).Warn("worker stopped, cannot enqueue submission")
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case subID := <-w.jobQueue:
			if err := w.deliver(ctx, subID); err != nil {
				w.log.WithFields(logrus.Fields{
					"worker":        workerID,
					"submission_id": subID,
					"error":         err.Error(),
				}).Error("submission delivery failed")
			} else {
				w.log.WithFields(logrus.Fields{
					"worker":        workerID,
					"submission_id": subID,
				}).Info("submission delivered")
			}
		}
	}
}

func (w *worker) deliver(ctx context.Context, subID uuid.UUID) error {
	if err := w.subRepo.UpdateStatus(subID, models.SubmissionProcessing); err != nil {
		return err
	}

	sub, err := w.subRepo.FindByID(subID)
	if err != nil {
		w.subRepo.UpdateError(subID, err.Error())
		return err
	}

	if err := w.submitter.Deliver(ctx, sub.PayloadJSON); err != nil {
		w.subRepo.UpdateError(subID, err.Error())
		return err
	}

	return w.subRepo.UpdateStatus(subID, models.SubmissionCompleted)
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			pending, err := w.subRepo.FindPendingJobs(10)
			if err != nil {
				w.log.WithField("error", err.Error()).Warn("failed to fetch pending submissions")
				continue
			}

			for _, job := range pending {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
