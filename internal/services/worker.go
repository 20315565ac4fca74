package services

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/tztgracious/Jobify/internal/cache"
	"github.com/tztgracious/Jobify/internal/config"
	"github.com/tztgracious/Jobify/internal/logger"
	"github.com/tztgracious/Jobify/internal/models"
	"github.com/tztgracious/Jobify/internal/repositories"
)

const (
	markFailedTimeout = 10 * time.Second
	staleBatchSize    = 10
)

var errWorkerStopped = errors.New("worker stopped")

// StageEnqueuer submits background stages.
type StageEnqueuer interface {
	Enqueue(ctx context.Context, job StageJob) error
}

type Worker interface {
	StageEnqueuer
	Start(ctx context.Context)
	Stop()
}

type worker struct {
	repo     repositories.SessionRepository
	runner   StageRunner
	locks    cache.StageLock
	cfg      config.WorkerConfig
	jobQueue chan StageJob
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	log      *zap.Logger
}

func NewWorker(
	repo repositories.SessionRepository,
	runner StageRunner,
	locks cache.StageLock,
	cfg config.WorkerConfig,
	log *zap.Logger,
) Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if locks == nil {
		locks = cache.NewMemoryStageLock()
	}

	return &worker{
		repo:     repo,
		runner:   runner,
		locks:    locks,
		cfg:      cfg,
		jobQueue: make(chan StageJob, cfg.QueueSize),
		stopChan: make(chan struct{}),
		log:      logger.OrNop(log),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("🚀 Starting worker", zap.Int("concurrency", w.cfg.Concurrency))

	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	if w.cfg.PollInterval > 0 && w.repo != nil {
		w.wg.Add(1)
		go w.pollStaleJobs(ctx)
	}

	w.log.Info("✅ Worker started successfully")
}

// Stop implements Worker. In-flight stages run to completion.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("🛑 Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		w.log.Info("✅ Worker stopped")
	})
}

// Enqueue implements StageEnqueuer. It blocks while the queue is full.
func (w *worker) Enqueue(ctx context.Context, job StageJob) error {
	select {
	case <-w.stopChan:
		return errWorkerStopped
	default:
	}

	select {
	case w.jobQueue <- job:
		w.log.Debug("📥 Job enqueued", logger.SessionID(job.SessionID), logger.Stage(string(job.Stage)))
		return nil
	case <-w.stopChan:
		return errWorkerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			w.log.Debug("👷 Worker stopped", zap.Int(logger.FieldWorkerID, workerID))
			return
		case <-ctx.Done():
			return
		case job := <-w.jobQueue:
			w.execute(ctx, workerID, job)
		}
	}
}

// execute runs one job under its stage lock and a deadline. A failed or
// panicking stage is recorded as FAILED only after the lock is released.
func (w *worker) execute(ctx context.Context, workerID int, job StageJob) {
	log := w.log.With(
		zap.Int(logger.FieldWorkerID, workerID),
		logger.SessionID(job.SessionID),
		logger.Stage(string(job.Stage)),
	)

	release, acquired, err := w.locks.Acquire(ctx, cache.StageLockKey(string(job.Stage), job.SessionID), w.cfg.LockTTL)
	switch {
	case err != nil:
		log.Warn("⚠️ Stage lock unavailable, running unguarded", zap.Error(err))
		release = func() {}
	case !acquired:
		log.Info("Stage already running, dropping duplicate trigger")
		return
	}

	log.Info("👷 Processing stage")
	start := time.Now()

	err = w.run(ctx, job)
	release()

	if err != nil {
		log.Warn("❌ Stage failed", zap.Error(err), zap.Duration(logger.FieldDuration, time.Since(start)))
		if errors.Is(err, ErrStageFailed) {
			w.runner.MarkFailed(ctx, job, err.Error())
		}
		return
	}

	log.Info("✅ Stage completed", zap.Duration(logger.FieldDuration, time.Since(start)))
}

// run executes the stage under the stage deadline. A panic comes back as a
// stage failure.
func (w *worker) run(ctx context.Context, job StageJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("💥 Stage panicked",
				logger.SessionID(job.SessionID),
				logger.Stage(string(job.Stage)),
				zap.Any("panic", r),
				zap.Stack("stack"))
			err = errors.Mark(errors.Newf("panic: %v", r), ErrStageFailed)
		}
	}()

	stageCtx := ctx
	if w.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, w.cfg.StageTimeout)
		defer cancel()
	}

	return w.runner.RunStage(stageCtx, job)
}

// pollStaleJobs re-enqueues stages left in PROCESSING, e.g. by a restart.
func (w *worker) pollStaleJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.requeueStale(ctx)
		}
	}
}

func (w *worker) requeueStale(ctx context.Context) {
	cutoff := time.Now().Add(-w.cfg.StaleAfter)

	for _, stage := range []models.Stage{models.StageResume, models.StageQuestions} {
		sessions, err := w.repo.FindStale(ctx, stage, cutoff, staleBatchSize)
		if err != nil {
			w.log.Warn("⚠️ Failed to fetch stale stages", logger.Stage(string(stage)), zap.Error(err))
			continue
		}

		if len(sessions) > 0 {
			w.log.Info("📋 Found stale stages", logger.Stage(string(stage)), zap.Int(logger.FieldCount, len(sessions)))
		}

		for _, s := range sessions {
			select {
			case w.jobQueue <- StageJob{SessionID: s.ID, Stage: stage}:
			default:
				// Queue is full; the next tick picks the rest up.
				return
			}
		}
	}
}
