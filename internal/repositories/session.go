package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/models"
)

// SessionRepository is the session store. Every status transition goes through here.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStageStatus(ctx context.Context, id uuid.UUID, stage models.Stage, status models.Status) error
	CompleteResume(ctx context.Context, id uuid.UUID, result *ResumeResult) error
	CompleteQuestions(ctx context.Context, id uuid.UUID, result *QuestionResult) error
	SetTargetJob(ctx context.Context, id uuid.UUID, title string, answerType models.AnswerType) error
	UpdateAnswers(ctx context.Context, id uuid.UUID, mutate func(*models.Session) error) (*models.Session, error)
	SaveFeedback(ctx context.Context, id uuid.UUID, feedback map[string]string) error
	FindStale(ctx context.Context, stage models.Stage, before time.Time, limit int) ([]models.Session, error)
}

// ResumeResult is everything the document stage writes on success.
type ResumeResult struct {
	Keywords []string
	Grammar  *models.GrammarReport
}

// QuestionResult is everything the question stage writes on success.
type QuestionResult struct {
	Questions     []string
	TechQuestions []string
	Details       []models.QuestionRecord
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create implements SessionRepository.
func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID implements SessionRepository.
func (r *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(id.String())
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &session, nil
}

// Delete implements SessionRepository.
func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound(id.String())
	}
	return nil
}

// UpdateStageStatus implements SessionRepository.
func (r *sessionRepository) UpdateStageStatus(ctx context.Context, id uuid.UUID, stage models.Stage, status models.Status) error {
	return r.updates(ctx, id, map[string]interface{}{
		stage.Column(): status,
	})
}

// CompleteResume implements SessionRepository. Keywords, grammar results and the
// COMPLETE status land in a single UPDATE.
func (r *sessionRepository) CompleteResume(ctx context.Context, id uuid.UUID, result *ResumeResult) error {
	var grammar datatypes.JSON
	if result.Grammar != nil {
		raw, err := json.Marshal(result.Grammar)
		if err != nil {
			return fmt.Errorf("failed to encode grammar results: %w", err)
		}
		grammar = raw
	}

	return r.updates(ctx, id, map[string]interface{}{
		"keywords":        datatypes.JSONSlice[string](nonNil(result.Keywords)),
		"grammar_results": grammar,
		"resume_status":   models.StatusComplete,
	})
}

// CompleteQuestions implements SessionRepository. Both tracks and the COMPLETE
// status are written together so readers never see one track without the other.
func (r *sessionRepository) CompleteQuestions(ctx context.Context, id uuid.UUID, result *QuestionResult) error {
	details := result.Details
	if details == nil {
		details = []models.QuestionRecord{}
	}

	return r.updates(ctx, id, map[string]interface{}{
		"questions":        datatypes.JSONSlice[string](nonNil(result.Questions)),
		"tech_questions":   datatypes.JSONSlice[string](nonNil(result.TechQuestions)),
		"question_details": datatypes.JSONSlice[models.QuestionRecord](details),
		"answers":          datatypes.JSONSlice[string]{},
		"tech_answers":     datatypes.JSONSlice[string]{},
		"is_completed":     false,
		"question_status":  models.StatusComplete,
	})
}

// SetTargetJob implements SessionRepository. Previous questions, answers and
// feedback belong to the old target and are cleared.
func (r *sessionRepository) SetTargetJob(ctx context.Context, id uuid.UUID, title string, answerType models.AnswerType) error {
	return r.updates(ctx, id, map[string]interface{}{
		"target_job":       title,
		"answer_type":      answerType,
		"questions":        datatypes.JSONSlice[string]{},
		"tech_questions":   datatypes.JSONSlice[string]{},
		"question_details": datatypes.JSONSlice[models.QuestionRecord]{},
		"answers":          datatypes.JSONSlice[string]{},
		"tech_answers":     datatypes.JSONSlice[string]{},
		"is_completed":     false,
		"feedback":         datatypes.JSONMap{},
		"question_status":  models.StatusProcessing,
	})
}

// UpdateAnswers implements SessionRepository. The row is locked for the duration
// of mutate so concurrent submissions for one session serialize.
func (r *sessionRepository) UpdateAnswers(ctx context.Context, id uuid.UUID, mutate func(*models.Session) error) (*models.Session, error) {
	var session models.Session

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(id.String())
			}
			return fmt.Errorf("failed to lock session: %w", err)
		}

		if err := mutate(&session); err != nil {
			return err
		}

		return tx.Model(&models.Session{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"answers":      datatypes.JSONSlice[string](nonNil(session.Answers)),
				"tech_answers": datatypes.JSONSlice[string](nonNil(session.TechAnswers)),
				"is_completed": session.IsCompleted,
				"updated_at":   time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// SaveFeedback implements SessionRepository.
func (r *sessionRepository) SaveFeedback(ctx context.Context, id uuid.UUID, feedback map[string]string) error {
	stored := make(datatypes.JSONMap, len(feedback))
	for k, v := range feedback {
		stored[k] = v
	}
	return r.updates(ctx, id, map[string]interface{}{
		"feedback": stored,
	})
}

// FindStale implements SessionRepository. It returns sessions whose stage has sat
// in PROCESSING since before the cutoff, oldest first.
func (r *sessionRepository) FindStale(ctx context.Context, stage models.Stage, before time.Time, limit int) ([]models.Session, error) {
	query := r.db.WithContext(ctx).
		Where(stage.Column()+" = ?", models.StatusProcessing).
		Where("updated_at < ?", before)

	if stage == models.StageQuestions {
		query = query.
			Where("resume_status = ?", models.StatusComplete).
			Where("target_job <> ''")
	}

	var sessions []models.Session
	if err := query.Order("updated_at ASC").Limit(limit).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to find stale sessions: %w", err)
	}

	return sessions, nil
}

func (r *sessionRepository) updates(ctx context.Context, id uuid.UUID, values map[string]interface{}) error {
	values["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Updates(values)

	if result.Error != nil {
		return fmt.Errorf("failed to update session: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperr.NotFound(id.String())
	}

	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
