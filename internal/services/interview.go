package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/logger"
	"github.com/tztgracious/Jobify/internal/models"
	"github.com/tztgracious/Jobify/internal/repositories"
)

const (
	MaxTargetJobLength = 255

	MessageRetrying = "processing failed, retrying"
)

// FileRemover deletes stored uploads.
type FileRemover interface {
	DeleteFile(filename string) error
}

// StatusView is the polling view of a session.
type StatusView struct {
	SessionID      uuid.UUID
	ResumeStatus   models.Status
	QuestionStatus models.Status
	IsCompleted    bool
	Message        string
}

// SessionPoll is a session read that re-triggered any FAILED stage.
type SessionPoll struct {
	Session          *models.Session
	RetriedResume    bool
	RetriedQuestions bool
}

func (p *SessionPoll) Retried() bool {
	return p.RetriedResume || p.RetriedQuestions
}

type AnswerSubmission struct {
	SessionID uuid.UUID
	Track     models.Track
	Index     int
	Answer    string
}

type AnswerResult struct {
	SessionID   uuid.UUID
	Track       models.Track
	Index       int
	Question    string
	Answer      string
	AnswerType  models.AnswerType
	General     TrackProgress
	Technical   TrackProgress
	IsCompleted bool
}

type FeedbackResult struct {
	Feedbacks map[string]string
	Completed bool
	Duration  time.Duration
}

// InterviewService is the entry point the HTTP layer calls into.
type InterviewService interface {
	RegisterUpload(ctx context.Context, file *StoredFile) (*models.Session, error)
	StartDocumentProcessing(ctx context.Context, id uuid.UUID) error
	StartQuestionGeneration(ctx context.Context, id uuid.UUID) error
	SetTargetJob(ctx context.Context, id uuid.UUID, title string, answerType string) (*models.Session, error)
	SubmitAnswer(ctx context.Context, sub AnswerSubmission) (*AnswerResult, error)
	GetFeedback(ctx context.Context, id uuid.UUID) (*FeedbackResult, error)
	GetStatus(ctx context.Context, id uuid.UUID) (*StatusView, error)
	PollStatus(ctx context.Context, id uuid.UUID) (*StatusView, error)
	PollSession(ctx context.Context, id uuid.UUID) (*SessionPoll, error)
	RemoveSession(ctx context.Context, id uuid.UUID) error
}

type interviewService struct {
	repo        repositories.SessionRepository
	queue       StageEnqueuer
	synthesizer *FeedbackSynthesizer
	files       FileRemover
	log         *zap.Logger
}

func NewInterviewService(
	repo repositories.SessionRepository,
	queue StageEnqueuer,
	synthesizer *FeedbackSynthesizer,
	files FileRemover,
	log *zap.Logger,
) InterviewService {
	return &interviewService{
		repo:        repo,
		queue:       queue,
		synthesizer: synthesizer,
		files:       files,
		log:         logger.OrNop(log),
	}
}

// RegisterUpload creates a session for a stored résumé and starts processing it.
func (s *interviewService) RegisterUpload(ctx context.Context, file *StoredFile) (*models.Session, error) {
	session := &models.Session{
		ID:               uuid.New(),
		ResumePath:       file.Path,
		StoredFileName:   file.FileName,
		OriginalFileName: file.OriginalName,
		ResumeStatus:     models.StatusProcessing,
		QuestionStatus:   models.StatusProcessing,
		AnswerType:       models.AnswerTypeText,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "register upload")
	}

	s.log.Info("📄 Resume registered", logger.SessionID(session.ID))

	if err := s.queue.Enqueue(ctx, StageJob{SessionID: session.ID, Stage: models.StageResume}); err != nil {
		// The stale poller picks the session up later.
		s.log.Warn("⚠️ Failed to enqueue resume stage", logger.SessionID(session.ID), zap.Error(err))
	}

	return session, nil
}

// StartDocumentProcessing moves the résumé stage to PROCESSING and schedules it.
func (s *interviewService) StartDocumentProcessing(ctx context.Context, id uuid.UUID) error {
	return s.start(ctx, id, models.StageResume)
}

// StartQuestionGeneration schedules question generation. It requires a target
// job and extracted keywords.
func (s *interviewService) StartQuestionGeneration(ctx context.Context, id uuid.UUID) error {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := questionPreconditions(session); err != nil {
		return err
	}

	return s.start(ctx, id, models.StageQuestions)
}

func questionPreconditions(session *models.Session) error {
	if strings.TrimSpace(session.TargetJob) == "" {
		return apperr.Validation("target job is not set")
	}
	if len(session.Keywords) == 0 {
		return apperr.Validation("resume keywords are not available yet")
	}
	return nil
}

func (s *interviewService) start(ctx context.Context, id uuid.UUID, stage models.Stage) error {
	if err := s.repo.UpdateStageStatus(ctx, id, stage, models.StatusProcessing); err != nil {
		return err
	}

	if err := s.queue.Enqueue(ctx, StageJob{SessionID: id, Stage: stage}); err != nil {
		return errors.Wrapf(err, "enqueue %s stage", stage)
	}

	return nil
}

// SetTargetJob records the target role, clears previous questions and answers
// and starts question generation.
func (s *interviewService) SetTargetJob(ctx context.Context, id uuid.UUID, title string, answerType string) (*models.Session, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Validation("target job title is required")
	}
	if utf8.RuneCountInString(title) > MaxTargetJobLength {
		return nil, apperr.Validation("target job title exceeds %d characters", MaxTargetJobLength)
	}

	kind, err := ParseAnswerType(answerType)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.ResumeStatus != models.StatusComplete {
		return nil, apperr.Validation("resume is still %s", session.ResumeStatus)
	}
	if len(session.Keywords) == 0 {
		return nil, apperr.Validation("resume keywords are not available yet")
	}
	if session.QuestionStatus == models.StatusProcessing && session.TargetJob != "" {
		return nil, apperr.StageBusy(string(models.StageQuestions), id.String())
	}

	if err := s.repo.SetTargetJob(ctx, id, title, kind); err != nil {
		return nil, err
	}

	session.TargetJob = title
	session.AnswerType = kind
	session.QuestionStatus = models.StatusProcessing

	if err := s.queue.Enqueue(ctx, StageJob{SessionID: id, Stage: models.StageQuestions}); err != nil {
		// FAILED lets the next poll retry instead of reporting the stage busy.
		if markErr := s.repo.UpdateStageStatus(ctx, id, models.StageQuestions, models.StatusFailed); markErr != nil {
			s.log.Error("Failed to mark question stage as failed", logger.SessionID(id), zap.Error(markErr))
		}
		return nil, errors.Wrapf(err, "enqueue %s stage", models.StageQuestions)
	}

	return session, nil
}

// ParseAnswerType defaults to text.
func ParseAnswerType(v string) (models.AnswerType, error) {
	switch models.AnswerType(strings.ToLower(strings.TrimSpace(v))) {
	case "", models.AnswerTypeText:
		return models.AnswerTypeText, nil
	case models.AnswerTypeVideo:
		return models.AnswerTypeVideo, nil
	}
	return "", apperr.Validation("invalid answer type %q: must be text or video", v)
}

// SubmitAnswer stores one answer and reports progress for both tracks.
func (s *interviewService) SubmitAnswer(ctx context.Context, sub AnswerSubmission) (*AnswerResult, error) {
	session, err := s.repo.UpdateAnswers(ctx, sub.SessionID, func(session *models.Session) error {
		return ApplyAnswer(session, sub.Track, sub.Index, sub.Answer)
	})
	if err != nil {
		return nil, err
	}

	return &AnswerResult{
		SessionID:   session.ID,
		Track:       sub.Track,
		Index:       sub.Index,
		Question:    session.QuestionsFor(sub.Track)[sub.Index],
		Answer:      sub.Answer,
		AnswerType:  session.AnswerType,
		General:     TrackProgressOf(session.Questions, session.Answers),
		Technical:   TrackProgressOf(session.TechQuestions, session.TechAnswers),
		IsCompleted: session.IsCompleted,
	}, nil
}

// GetFeedback runs the review panel and synthesis synchronously and stores the result.
func (s *interviewService) GetFeedback(ctx context.Context, id uuid.UUID) (*FeedbackResult, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(session.Questions) == 0 && len(session.TechQuestions) == 0 {
		return nil, apperr.Validation("no interview questions have been generated for this session")
	}

	start := time.Now()
	feedback, err := s.synthesizer.Synthesize(ctx, FeedbackInput{
		TargetJob:     session.TargetJob,
		Keywords:      session.Keywords,
		Questions:     session.Questions,
		Answers:       session.Answers,
		TechQuestions: session.TechQuestions,
		TechAnswers:   session.TechAnswers,
	})
	if err != nil {
		return nil, errors.Wrap(err, "synthesize feedback")
	}
	elapsed := time.Since(start)

	if err := s.repo.SaveFeedback(ctx, id, feedback); err != nil {
		return nil, err
	}

	s.log.Info("✅ Feedback generated",
		logger.SessionID(id),
		zap.Int(logger.FieldCount, len(feedback)),
		zap.Duration(logger.FieldDuration, elapsed))

	return &FeedbackResult{
		Feedbacks: feedback,
		Completed: session.IsCompleted,
		Duration:  elapsed,
	}, nil
}

// GetStatus is a pure read.
func (s *interviewService) GetStatus(ctx context.Context, id uuid.UUID) (*StatusView, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return statusOf(session, ""), nil
}

// PollStatus is GetStatus for polling clients: each FAILED stage is
// re-triggered once per call.
func (s *interviewService) PollStatus(ctx context.Context, id uuid.UUID) (*StatusView, error) {
	poll, err := s.PollSession(ctx, id)
	if err != nil {
		return nil, err
	}

	var message string
	if poll.Retried() {
		message = MessageRetrying
	}
	return statusOf(poll.Session, message), nil
}

// PollSession loads a session and re-triggers FAILED stages. The question stage
// is only retried once its preconditions hold.
func (s *interviewService) PollSession(ctx context.Context, id uuid.UUID) (*SessionPoll, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	poll := &SessionPoll{Session: session}

	if session.ResumeStatus == models.StatusFailed {
		if err := s.StartDocumentProcessing(ctx, id); err != nil {
			return nil, err
		}
		session.ResumeStatus = models.StatusProcessing
		poll.RetriedResume = true
		s.log.Info("🔁 Retrying resume stage", logger.SessionID(id))
	}

	if session.QuestionStatus == models.StatusFailed && questionPreconditions(session) == nil {
		if err := s.start(ctx, id, models.StageQuestions); err != nil {
			return nil, err
		}
		session.QuestionStatus = models.StatusProcessing
		poll.RetriedQuestions = true
		s.log.Info("🔁 Retrying question stage", logger.SessionID(id))
	}

	return poll, nil
}

// RemoveSession deletes the session and its stored résumé.
func (s *interviewService) RemoveSession(ctx context.Context, id uuid.UUID) error {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if session.StoredFileName != "" && s.files != nil {
		if err := s.files.DeleteFile(session.StoredFileName); err != nil {
			s.log.Warn("⚠️ Failed to delete stored resume", logger.SessionID(id), zap.Error(err))
		}
	}

	return nil
}

func statusOf(session *models.Session, message string) *StatusView {
	return &StatusView{
		SessionID:      session.ID,
		ResumeStatus:   session.ResumeStatus,
		QuestionStatus: session.QuestionStatus,
		IsCompleted:    session.IsCompleted,
		Message:        message,
	}
}
