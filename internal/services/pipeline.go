package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/logger"
	"github.com/tztgracious/Jobify/internal/models"
	"github.com/tztgracious/Jobify/internal/repositories"
)

// StageJob is one background unit of work.
type StageJob struct {
	SessionID uuid.UUID
	Stage     models.Stage
}

func (j StageJob) String() string {
	return fmt.Sprintf("%s/%s", j.Stage, j.SessionID)
}

// ErrStageFailed marks a RunStage error that must be recorded as FAILED on the
// session. Other errors (lookup failures) leave the status untouched.
var ErrStageFailed = errors.New("stage failed")

// StageRunner executes background stages. RunStage does not write FAILED
// itself: the caller records the failure with MarkFailed once the stage lock
// is released, so a retry triggered by that status can acquire it.
type StageRunner interface {
	RunStage(ctx context.Context, job StageJob) error
	MarkFailed(ctx context.Context, job StageJob, reason string)
}

type StagePipeline struct {
	repo      repositories.SessionRepository
	documents *DocumentProcessor
	questions *QuestionGenerator
	log       *zap.Logger
}

var _ StageRunner = (*StagePipeline)(nil)

func NewStagePipeline(
	repo repositories.SessionRepository,
	documents *DocumentProcessor,
	questions *QuestionGenerator,
	log *zap.Logger,
) *StagePipeline {
	return &StagePipeline{
		repo:      repo,
		documents: documents,
		questions: questions,
		log:       logger.OrNop(log),
	}
}

// RunStage implements StageRunner. A stage that is not PROCESSING is skipped.
func (p *StagePipeline) RunStage(ctx context.Context, job StageJob) error {
	session, err := p.repo.FindByID(ctx, job.SessionID)
	if err != nil {
		return err
	}

	if status := session.StageStatus(job.Stage); status != models.StatusProcessing {
		p.log.Debug("Stage not pending, skipping",
			logger.SessionID(job.SessionID),
			logger.Stage(string(job.Stage)),
			zap.String("status", string(status)))
		return nil
	}

	switch job.Stage {
	case models.StageResume:
		err = p.runResume(ctx, session)
	case models.StageQuestions:
		err = p.runQuestions(ctx, session)
	default:
		return fmt.Errorf("unknown stage %q", job.Stage)
	}

	if err != nil {
		return errors.Mark(err, ErrStageFailed)
	}

	return nil
}

func (p *StagePipeline) runResume(ctx context.Context, session *models.Session) error {
	analysis, err := p.documents.Analyze(ctx, session.ResumePath)
	if err != nil {
		return err
	}

	return p.repo.CompleteResume(ctx, session.ID, &repositories.ResumeResult{
		Keywords: analysis.Keywords,
		Grammar:  analysis.Grammar,
	})
}

func (p *StagePipeline) runQuestions(ctx context.Context, session *models.Session) error {
	if strings.TrimSpace(session.TargetJob) == "" {
		return apperr.Validation("target job is not set")
	}
	if len(session.Keywords) == 0 {
		return apperr.Validation("resume keywords are not available")
	}

	generated, err := p.questions.Generate(ctx, session.TargetJob, session.Keywords)
	if err != nil {
		return err
	}

	questions := make([]string, 0, len(generated.General))
	details := make([]models.QuestionRecord, 0, len(generated.General)+1)
	for _, q := range generated.General {
		questions = append(questions, q.Question)
		details = append(details, q)
	}
	details = append(details, generated.Technical)

	return p.repo.CompleteQuestions(ctx, session.ID, &repositories.QuestionResult{
		Questions:     questions,
		TechQuestions: []string{generated.Technical.Question},
		Details:       details,
	})
}

// MarkFailed implements StageRunner. It uses a fresh context so a stage that
// timed out can still record its failure.
func (p *StagePipeline) MarkFailed(_ context.Context, job StageJob, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), markFailedTimeout)
	defer cancel()

	p.log.Warn("❌ Stage failed",
		logger.SessionID(job.SessionID),
		logger.Stage(string(job.Stage)),
		zap.String("reason", logger.TruncateForLog(reason, 500)))

	if err := p.repo.UpdateStageStatus(ctx, job.SessionID, job.Stage, models.StatusFailed); err != nil {
		p.log.Error("Failed to mark stage as failed",
			logger.SessionID(job.SessionID),
			logger.Stage(string(job.Stage)),
			zap.Error(err))
	}
}
