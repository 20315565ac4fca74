package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Stage names one of the two background units of work on a session.
type Stage string

const (
	StageResume    Stage = "resume"
	StageQuestions Stage = "questions"
)

// Column returns the status column the stage drives.
func (s Stage) Column() string {
	if s == StageQuestions {
		return "question_status"
	}
	return "resume_status"
}

type Track string

const (
	TrackGeneral   Track = "general"
	TrackTechnical Track = "technical"
)

type AnswerType string

const (
	AnswerTypeText  AnswerType = "text"
	AnswerTypeVideo AnswerType = "video"
)

type Session struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ResumePath       string    `gorm:"type:text" json:"-"`
	StoredFileName   string    `gorm:"type:text" json:"-"`
	OriginalFileName string    `gorm:"type:text" json:"original_filename"`

	Keywords       datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"keywords"`
	GrammarResults datatypes.JSON              `gorm:"type:jsonb" json:"grammar_results,omitempty"`
	TargetJob      string                      `gorm:"type:varchar(255)" json:"target_job,omitempty"`
	AnswerType     AnswerType                  `gorm:"type:varchar(10);not null;default:'text'" json:"answer_type"`

	ResumeStatus   Status `gorm:"type:varchar(20);not null;default:'processing';index" json:"resume_status"`
	QuestionStatus Status `gorm:"type:varchar(20);not null;default:'processing';index" json:"question_status"`

	Questions       datatypes.JSONSlice[string]         `gorm:"type:jsonb;not null;default:'[]'" json:"questions"`
	TechQuestions   datatypes.JSONSlice[string]         `gorm:"type:jsonb;not null;default:'[]'" json:"tech_questions"`
	QuestionDetails datatypes.JSONSlice[QuestionRecord] `gorm:"type:jsonb;not null;default:'[]'" json:"question_details"`
	Answers         datatypes.JSONSlice[string]         `gorm:"type:jsonb;not null;default:'[]'" json:"answers"`
	TechAnswers     datatypes.JSONSlice[string]         `gorm:"type:jsonb;not null;default:'[]'" json:"tech_answers"`
	IsCompleted     bool                                `gorm:"not null;default:false" json:"is_completed"`

	Feedback datatypes.JSONMap `gorm:"type:jsonb" json:"feedback,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string {
	return "interview_sessions"
}

// StageStatus returns the status field driven by the given stage.
func (s *Session) StageStatus(stage Stage) Status {
	if stage == StageQuestions {
		return s.QuestionStatus
	}
	return s.ResumeStatus
}

// QuestionsFor returns the question sequence of a track.
func (s *Session) QuestionsFor(track Track) []string {
	if track == TrackTechnical {
		return s.TechQuestions
	}
	return s.Questions
}

// AnswersFor returns the answer sequence of a track.
func (s *Session) AnswersFor(track Track) []string {
	if track == TrackTechnical {
		return s.TechAnswers
	}
	return s.Answers
}

// SetAnswers replaces the answer sequence of a track.
func (s *Session) SetAnswers(track Track, answers []string) {
	if track == TrackTechnical {
		s.TechAnswers = answers
		return
	}
	s.Answers = answers
}
