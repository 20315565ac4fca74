package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/models"
	"github.com/tztgracious/Jobify/internal/repositories"
)

// fakeGenerator satisfies TextGenerator and records every prompt.
type fakeGenerator struct {
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (f *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.CompleteFunc != nil {
		return f.CompleteFunc(ctx, prompt)
	}
	return "", nil
}

func (f *fakeGenerator) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}

// PromptsContaining counts recorded prompts that contain substr.
func (f *fakeGenerator) PromptsContaining(substr string) int {
	n := 0
	for _, p := range f.Prompts() {
		if strings.Contains(p, substr) {
			n++
		}
	}
	return n
}

func newStaticGenerator(reply string) *fakeGenerator {
	return &fakeGenerator{
		CompleteFunc: func(context.Context, string) (string, error) { return reply, nil },
	}
}

func newFailingGenerator(err error) *fakeGenerator {
	return &fakeGenerator{
		CompleteFunc: func(context.Context, string) (string, error) { return "", err },
	}
}

// panelGenerator answers question, evaluation, keyword and synthesis prompts
// with well-formed replies.
func panelGenerator(difficulty map[InterviewerRole]int) *fakeGenerator {
	return &fakeGenerator{
		CompleteFunc: func(_ context.Context, prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "Generate ONE realistic interview question"):
				for role, d := range difficulty {
					if strings.Contains(prompt, "your role as "+string(role)) {
						return fmt.Sprintf(`{"question": "%s question", "focus_area": "area", "difficulty": %d}`, role, d), nil
					}
				}
				return `{"question": "generic question", "focus_area": "area", "difficulty": 3}`, nil
			case strings.Contains(prompt, "Evaluate this answer"):
				return `{"score": 8, "strengths": ["clear"], "weaknesses": ["brief"], "specific_feedback": "good", "improvement_tips": ["add metrics"]}`, nil
			case strings.Contains(prompt, "expert resume analyzer"):
				return `["python", "django"]`, nil
			case strings.Contains(prompt, "summarizing a panel interview"):
				n := strings.Count(prompt, "Panel average score")
				feedbacks := make([]string, n)
				for i := range feedbacks {
					feedbacks[i] = fmt.Sprintf("narrative %d", i+1)
				}
				raw, _ := json.Marshal(synthesisReply{Feedbacks: feedbacks, Summary: "overall summary"})
				return string(raw), nil
			}
			return "", fmt.Errorf("unexpected prompt")
		},
	}
}

type fakeParser struct {
	text string
	err  error
}

func (f *fakeParser) ExtractText(context.Context, string) (string, error) {
	return f.text, f.err
}

type fakeGrammar struct {
	report *models.GrammarReport
	err    error
}

func (f *fakeGrammar) Check(context.Context, string) (*models.GrammarReport, error) {
	return f.report, f.err
}

type fakeRetriever struct {
	notes string
	err   error
}

func (f *fakeRetriever) Retrieve(context.Context, string, []string) (string, error) {
	return f.notes, f.err
}

// fakeQueue records enqueued jobs.
type fakeQueue struct {
	mu   sync.Mutex
	jobs []StageJob
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job StageJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Jobs() []StageJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]StageJob, len(q.jobs))
	copy(out, q.jobs)
	return out
}

type fakeFiles struct {
	deleted []string
}

func (f *fakeFiles) DeleteFile(name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}

// memoryRepo is an in-memory SessionRepository.
type memoryRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.Session
}

var _ repositories.SessionRepository = (*memoryRepo)(nil)

func newMemoryRepo(sessions ...*models.Session) *memoryRepo {
	r := &memoryRepo{sessions: make(map[uuid.UUID]*models.Session)}
	for _, s := range sessions {
		r.sessions[s.ID] = cloneSession(s)
	}
	return r
}

func cloneSession(s *models.Session) *models.Session {
	c := *s
	c.Keywords = append(datatypes.JSONSlice[string]{}, s.Keywords...)
	c.Questions = append(datatypes.JSONSlice[string]{}, s.Questions...)
	c.TechQuestions = append(datatypes.JSONSlice[string]{}, s.TechQuestions...)
	c.Answers = append(datatypes.JSONSlice[string]{}, s.Answers...)
	c.TechAnswers = append(datatypes.JSONSlice[string]{}, s.TechAnswers...)
	c.QuestionDetails = append(datatypes.JSONSlice[models.QuestionRecord]{}, s.QuestionDetails...)
	if s.Feedback != nil {
		c.Feedback = datatypes.JSONMap{}
		for k, v := range s.Feedback {
			c.Feedback[k] = v
		}
	}
	return &c
}

func (r *memoryRepo) get(id uuid.UUID) (*models.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, apperr.NotFound(id.String())
	}
	return s, nil
}

func (r *memoryRepo) Create(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return cloneSession(s), nil
}

func (r *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.get(id); err != nil {
		return err
	}
	delete(r.sessions, id)
	return nil
}

func (r *memoryRepo) UpdateStageStatus(_ context.Context, id uuid.UUID, stage models.Stage, status models.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.get(id)
	if err != nil {
		return err
	}
	if stage == models.StageQuestions {
		s.QuestionStatus = status
	} else {
		s.ResumeStatus = status
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRepo) CompleteResume(_ context.Context, id uuid.UUID, result *repositories.ResumeResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.get(id)
	if err != nil {
		return err
	}
	s.Keywords = result.Keywords
	s.GrammarResults = nil
	if result.Grammar != nil {
		raw, _ := json.Marshal(result.Grammar)
		s.GrammarResults = raw
	}
	s.ResumeStatus = models.StatusComplete
	return nil
}

func (r *memoryRepo) CompleteQuestions(_ context.Context, id uuid.UUID, result *repositories.QuestionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.get(id)
	if err != nil {
		return err
	}
	s.Questions = result.Questions
	s.TechQuestions = result.TechQuestions
	s.QuestionDetails = result.Details
	s.Answers = nil
	s.TechAnswers = nil
	s.IsCompleted = false
	s.QuestionStatus = models.StatusComplete
	return nil
}

func (r *memoryRepo) SetTargetJob(_ context.Context, id uuid.UUID, title string, answerType models.AnswerType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.get(id)
	if err != nil {
		return err
	}
	s.TargetJob = title
	s.AnswerType = answerType
	s.Questions, s.TechQuestions, s.Answers, s.TechAnswers = nil, nil, nil, nil
	s.QuestionDetails = nil
	s.IsCompleted = false
	s.Feedback = datatypes.JSONMap{}
	s.QuestionStatus = models.StatusProcessing
	return nil
}

func (r *memoryRepo) UpdateAnswers(_ context.Context, id uuid.UUID, mutate func(*models.Session) error) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	working := cloneSession(s)
	if err := mutate(working); err != nil {
		return nil, err
	}
	r.sessions[id] = working
	return cloneSession(working), nil
}

func (r *memoryRepo) SaveFeedback(_ context.Context, id uuid.UUID, feedback map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.get(id)
	if err != nil {
		return err
	}
	s.Feedback = datatypes.JSONMap{}
	for k, v := range feedback {
		s.Feedback[k] = v
	}
	return nil
}

func (r *memoryRepo) FindStale(_ context.Context, stage models.Stage, before time.Time, limit int) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Session
	for _, s := range r.sessions {
		if s.StageStatus(stage) != models.StatusProcessing || !s.UpdatedAt.Before(before) {
			continue
		}
		if stage == models.StageQuestions && (s.ResumeStatus != models.StatusComplete || s.TargetJob == "") {
			continue
		}
		out = append(out, *cloneSession(s))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRepo) snapshot(id uuid.UUID) *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneSession(r.sessions[id])
}
