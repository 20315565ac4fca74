package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/logger"
	"github.com/tztgracious/Jobify/internal/models"
)

type InterviewerRole string

const (
	RoleHRRecruiter    InterviewerRole = "HR Recruiter"
	RoleTechnicalLead  InterviewerRole = "Technical Lead"
	RoleHiringManager  InterviewerRole = "Hiring Manager"
	RoleIndustryExpert InterviewerRole = "Industry Expert"
	RoleSeniorPeer     InterviewerRole = "Senior Peer"
)

// AllRoles is the full interviewer enumeration in its canonical order.
var AllRoles = []InterviewerRole{
	RoleHRRecruiter,
	RoleTechnicalLead,
	RoleHiringManager,
	RoleIndustryExpert,
	RoleSeniorPeer,
}

var personas = map[InterviewerRole]string{
	RoleHRRecruiter: `You are an experienced HR recruiter who focuses on:
- Cultural fit and company values alignment
- Communication skills and interpersonal abilities
- Career motivation and growth mindset
- Conflict resolution and teamwork
- Work-life balance and expectations`,

	RoleTechnicalLead: `You are a senior technical lead who evaluates:
- Technical proficiency and coding skills
- System design and architecture understanding
- Problem-solving approach and analytical thinking
- Knowledge of best practices and design patterns
- Ability to explain complex technical concepts`,

	RoleHiringManager: `You are a hiring manager who assesses:
- Practical experience and project management
- Business acumen and strategic thinking
- Leadership potential and initiative
- Ability to deliver results and meet deadlines
- Cross-functional collaboration skills`,

	RoleIndustryExpert: `You are an industry expert who examines:
- Current industry trends and technologies
- Competitive landscape knowledge
- Innovation and adaptability
- Domain-specific expertise
- Understanding of market challenges`,

	RoleSeniorPeer: `You are a senior peer who explores:
- Technical collaboration and mentoring abilities
- Code review and feedback skills
- Team dynamics and communication
- Knowledge sharing and documentation
- Day-to-day work scenarios`,
}

// Persona returns the prompt preamble for a role.
func Persona(role InterviewerRole) string {
	if p, ok := personas[role]; ok {
		return p
	}
	return "You are a professional interviewer."
}

// Agent is one simulated interviewer. It never returns an error: failed calls
// and unparsable replies are replaced by fallback records.
type Agent struct {
	role      InterviewerRole
	generator TextGenerator
	prompts   *PromptBuilder
	log       *zap.Logger
}

func NewAgent(role InterviewerRole, generator TextGenerator, log *zap.Logger) *Agent {
	return &Agent{
		role:      role,
		generator: generator,
		prompts:   NewPromptBuilder(),
		log:       logger.OrNop(log).With(logger.Role(string(role))),
	}
}

func (a *Agent) Role() InterviewerRole { return a.role }

// logFallback logs adapter failures as warnings. Anything else reaching a
// fallback (cancellation, a bug) is an error.
func (a *Agent) logFallback(msg string, err error) {
	if apperr.IsRecoverable(err) {
		a.log.Warn(msg, zap.Error(err))
		return
	}
	a.log.Error(msg, zap.Error(err))
}

type questionReply struct {
	Question   string      `json:"question"`
	FocusArea  string      `json:"focus_area"`
	Difficulty json.Number `json:"difficulty"`
}

// GenerateQuestion asks the model for one question in this agent's voice.
func (a *Agent) GenerateQuestion(ctx context.Context, targetJob string, keywords []string, notes string) models.QuestionRecord {
	prompt := a.prompts.BuildQuestionPrompt(Persona(a.role), a.role, targetJob, keywords, notes)

	record, err := a.generateQuestion(ctx, prompt)
	if err != nil {
		a.logFallback("⚠️ Question generation failed, using fallback", err)
		return FallbackQuestion(a.role, keywords)
	}

	return record
}

func (a *Agent) generateQuestion(ctx context.Context, prompt string) (models.QuestionRecord, error) {
	text, err := a.generator.Complete(ctx, prompt)
	if err != nil {
		return models.QuestionRecord{}, err
	}

	var reply questionReply
	if err := DecodeJSONObject(text, &reply); err != nil {
		return models.QuestionRecord{}, err
	}

	question := strings.TrimSpace(reply.Question)
	if question == "" {
		return models.QuestionRecord{}, apperr.Malformed(fmt.Errorf("reply has no question"), "question generation")
	}

	focus := strings.TrimSpace(reply.FocusArea)
	if focus == "" {
		focus = "General"
	}

	return models.QuestionRecord{
		Question:        question,
		InterviewerRole: string(a.role),
		FocusArea:       focus,
		Difficulty:      parseDifficulty(reply.Difficulty),
	}, nil
}

// FallbackQuestion is the deterministic question used when generation fails.
func FallbackQuestion(role InterviewerRole, keywords []string) models.QuestionRecord {
	subject := "this role"
	if len(keywords) > 0 && strings.TrimSpace(keywords[0]) != "" {
		subject = keywords[0]
	}

	return models.QuestionRecord{
		Question:        fmt.Sprintf("Tell me about your experience with %s.", subject),
		InterviewerRole: string(role),
		FocusArea:       "General Experience",
		Difficulty:      2,
		Fallback:        true,
	}
}

// parseDifficulty accepts integers, floats and numeric strings, defaulting to 3
// and clamping into 1..5.
func parseDifficulty(n json.Number) int {
	if n == "" {
		return 3
	}

	f, err := n.Float64()
	if err != nil {
		return 3
	}

	d := int(f + 0.5)
	switch {
	case d < 1:
		return 1
	case d > 5:
		return 5
	}
	return d
}

type evaluationReply struct {
	Score            *float64 `json:"score"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	SpecificFeedback string   `json:"specific_feedback"`
	ImprovementTips  []string `json:"improvement_tips"`
}

// EvaluateAnswer reviews one answer from this agent's perspective.
func (a *Agent) EvaluateAnswer(ctx context.Context, question, answer, targetJob string, keywords []string) models.EvaluationRecord {
	prompt := a.prompts.BuildEvaluationPrompt(Persona(a.role), a.role, question, answer, targetJob, keywords)

	record, err := a.evaluateAnswer(ctx, prompt)
	if err != nil {
		a.logFallback("⚠️ Answer evaluation failed, using fallback", err)
		return FallbackEvaluation()
	}

	return record
}

func (a *Agent) evaluateAnswer(ctx context.Context, prompt string) (models.EvaluationRecord, error) {
	text, err := a.generator.Complete(ctx, prompt)
	if err != nil {
		return models.EvaluationRecord{}, err
	}

	var reply evaluationReply
	if err := DecodeJSONObject(text, &reply); err != nil {
		return models.EvaluationRecord{}, err
	}

	if reply.Score == nil && len(reply.Strengths) == 0 && len(reply.Weaknesses) == 0 &&
		strings.TrimSpace(reply.SpecificFeedback) == "" && len(reply.ImprovementTips) == 0 {
		return models.EvaluationRecord{}, apperr.Malformed(fmt.Errorf("reply has no evaluation fields"), "answer evaluation")
	}

	score := 5.0
	if reply.Score != nil {
		score = *reply.Score
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	return models.EvaluationRecord{
		Score:            score,
		Strengths:        nonEmpty(reply.Strengths),
		Weaknesses:       nonEmpty(reply.Weaknesses),
		SpecificFeedback: strings.TrimSpace(reply.SpecificFeedback),
		ImprovementTips:  nonEmpty(reply.ImprovementTips),
	}, nil
}

// FallbackEvaluation marks a failed review, not a weak answer.
func FallbackEvaluation() models.EvaluationRecord {
	return models.EvaluationRecord{
		Score:            5,
		Strengths:        []string{"Attempted to answer"},
		Weaknesses:       []string{"Could not evaluate properly"},
		SpecificFeedback: "Error in evaluation",
		ImprovementTips:  []string{"Try to provide more specific examples"},
		Fallback:         true,
	}
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
