package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/logger"
	"github.com/tztgracious/Jobify/internal/models"
)

const (
	FeedbackKeyTechnical = "tech_question_feedback"
	FeedbackKeySummary   = "summary"

	maxAggregateItems = 3
)

var technicalReviewers = []InterviewerRole{RoleTechnicalLead, RoleSeniorPeer, RoleIndustryExpert}

// GeneralFeedbackKey names the feedback field for the i-th general question (0-based).
func GeneralFeedbackKey(i int) string {
	return fmt.Sprintf("question_%d_feedback", i+1)
}

// AnswerPair is one question with the candidate's answer.
type AnswerPair struct {
	Track    models.Track
	Index    int
	Question string
	Answer   string
}

// Key is the feedback field the pair's narrative is stored under.
func (p AnswerPair) Key() string {
	if p.Track == models.TrackTechnical {
		return FeedbackKeyTechnical
	}
	return GeneralFeedbackKey(p.Index)
}

func (p AnswerPair) Label() string {
	if p.Track == models.TrackTechnical {
		return "technical question"
	}
	return fmt.Sprintf("interview question %d", p.Index+1)
}

func (p AnswerPair) Answered() bool {
	return strings.TrimSpace(p.Answer) != ""
}

// BuildAnswerPairs lists the technical pair first, then general pairs in question order.
// Missing answers are empty strings.
func BuildAnswerPairs(questions, answers, techQuestions, techAnswers []string) []AnswerPair {
	pairs := make([]AnswerPair, 0, len(questions)+1)

	if len(techQuestions) > 0 {
		pairs = append(pairs, AnswerPair{
			Track:    models.TrackTechnical,
			Index:    0,
			Question: techQuestions[0],
			Answer:   at(techAnswers, 0),
		})
	}

	for i, q := range questions {
		pairs = append(pairs, AnswerPair{
			Track:    models.TrackGeneral,
			Index:    i,
			Question: q,
			Answer:   at(answers, i),
		})
	}

	return pairs
}

func at(items []string, i int) string {
	if i < len(items) {
		return items[i]
	}
	return ""
}

// ReviewersFor picks the panel for a pair. General pairs rotate through AllRoles
// starting at the question index; the first two questions get two reviewers.
func ReviewersFor(pair AnswerPair) []InterviewerRole {
	if pair.Track == models.TrackTechnical {
		return technicalReviewers
	}

	count := 3
	if pair.Index < 2 {
		count = 2
	}

	roles := make([]InterviewerRole, count)
	for k := range roles {
		roles[k] = AllRoles[(pair.Index+k)%len(AllRoles)]
	}
	return roles
}

// PairAggregate condenses one pair's panel reviews.
type PairAggregate struct {
	AverageScore    float64
	Reviewers       int
	FailedReviews   int
	Strengths       []string
	Weaknesses      []string
	ImprovementTips []string
	Notes           []string
}

// PairReview is a reviewed pair ready for synthesis.
type PairReview struct {
	Pair        AnswerPair
	Label       string
	Evaluations []models.EvaluationRecord
	Aggregate   PairAggregate
}

// Aggregate averages scores and keeps at most three unique strengths,
// weaknesses and tips. Fallback reviews only count when no review succeeded.
func Aggregate(evaluations []models.EvaluationRecord) PairAggregate {
	agg := PairAggregate{Reviewers: len(evaluations)}

	usable := make([]models.EvaluationRecord, 0, len(evaluations))
	for _, e := range evaluations {
		if e.Fallback {
			agg.FailedReviews++
			continue
		}
		usable = append(usable, e)
	}
	if len(usable) == 0 {
		usable = evaluations
	}
	if len(usable) == 0 {
		return agg
	}

	strengths := newCappedSet(maxAggregateItems)
	weaknesses := newCappedSet(maxAggregateItems)
	tips := newCappedSet(maxAggregateItems)

	var total float64
	for _, e := range usable {
		total += e.Score
		strengths.add(e.Strengths...)
		weaknesses.add(e.Weaknesses...)
		tips.add(e.ImprovementTips...)
		if e.SpecificFeedback != "" && !e.Fallback {
			agg.Notes = append(agg.Notes, e.SpecificFeedback)
		}
	}

	agg.AverageScore = total / float64(len(usable))
	agg.Strengths = strengths.items
	agg.Weaknesses = weaknesses.items
	agg.ImprovementTips = tips.items

	return agg
}

type cappedSet struct {
	limit int
	seen  map[string]struct{}
	items []string
}

func newCappedSet(limit int) *cappedSet {
	return &cappedSet{limit: limit, seen: make(map[string]struct{}), items: []string{}}
}

func (s *cappedSet) add(values ...string) {
	for _, v := range values {
		if len(s.items) >= s.limit {
			return
		}
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, dup := s.seen[key]; dup {
			continue
		}
		s.seen[key] = struct{}{}
		s.items = append(s.items, strings.TrimSpace(v))
	}
}

// FeedbackInput is the session state a feedback request is computed from.
type FeedbackInput struct {
	TargetJob     string
	Keywords      []string
	Questions     []string
	Answers       []string
	TechQuestions []string
	TechAnswers   []string
}

// FeedbackSynthesizer runs the review panel over every answered question and
// condenses the result into one narrative per answer plus a summary.
type FeedbackSynthesizer struct {
	generator TextGenerator
	prompts   *PromptBuilder
	log       *zap.Logger
}

func NewFeedbackSynthesizer(generator TextGenerator, log *zap.Logger) *FeedbackSynthesizer {
	return &FeedbackSynthesizer{
		generator: generator,
		prompts:   NewPromptBuilder(),
		log:       logger.OrNop(log),
	}
}

// Synthesize returns the feedback map. Only a cancelled ctx produces an error.
func (s *FeedbackSynthesizer) Synthesize(ctx context.Context, in FeedbackInput) (map[string]string, error) {
	reviews, err := s.Review(ctx, in)
	if err != nil {
		return nil, err
	}

	if len(reviews) == 0 {
		return map[string]string{
			FeedbackKeySummary: templatedSummary(in.TargetJob, in.Keywords),
		}, nil
	}

	narratives, summary, err := s.synthesize(ctx, in, reviews)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.log.Warn("⚠️ Feedback synthesis failed, using templated feedback", zap.Error(err))
		narratives = make([]string, len(reviews))
		for i, r := range reviews {
			narratives[i] = templatedPairFeedback(r.Aggregate)
		}
		summary = templatedSummary(in.TargetJob, in.Keywords)
	}

	feedback := make(map[string]string, len(reviews)+1)
	for i, r := range reviews {
		feedback[r.Pair.Key()] = narratives[i]
	}
	feedback[FeedbackKeySummary] = summary

	return feedback, nil
}

// Review evaluates every answered pair. Reviews within a pair run concurrently;
// pairs are processed one after another.
func (s *FeedbackSynthesizer) Review(ctx context.Context, in FeedbackInput) ([]PairReview, error) {
	pairs := BuildAnswerPairs(in.Questions, in.Answers, in.TechQuestions, in.TechAnswers)
	reviews := make([]PairReview, 0, len(pairs))

	for _, pair := range pairs {
		if !pair.Answered() {
			s.log.Debug("Skipping unanswered question", zap.String("pair", pair.Key()))
			continue
		}

		roles := ReviewersFor(pair)
		evaluations := make([]models.EvaluationRecord, len(roles))

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(len(roles))

		for k, role := range roles {
			k, role := k, role
			group.Go(func() error {
				evaluations[k] = NewAgent(role, s.generator, s.log).
					EvaluateAnswer(groupCtx, pair.Question, pair.Answer, in.TargetJob, in.Keywords)
				return nil
			})
		}
		_ = group.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reviews = append(reviews, PairReview{
			Pair:        pair,
			Label:       pair.Label(),
			Evaluations: evaluations,
			Aggregate:   Aggregate(evaluations),
		})
	}

	return reviews, nil
}

type synthesisReply struct {
	Feedbacks []string `json:"feedbacks"`
	Summary   string   `json:"summary"`
}

func (s *FeedbackSynthesizer) synthesize(ctx context.Context, in FeedbackInput, reviews []PairReview) ([]string, string, error) {
	text, err := s.generator.Complete(ctx, s.prompts.BuildSynthesisPrompt(in.TargetJob, in.Keywords, reviews))
	if err != nil {
		return nil, "", err
	}

	var reply synthesisReply
	if err := DecodeJSONObject(text, &reply); err != nil {
		return nil, "", err
	}

	if len(reply.Feedbacks) != len(reviews) {
		return nil, "", apperr.Malformed(
			fmt.Errorf("expected %d feedbacks, got %d", len(reviews), len(reply.Feedbacks)),
			"feedback synthesis")
	}

	summary := strings.TrimSpace(reply.Summary)
	if summary == "" {
		return nil, "", apperr.Malformed(fmt.Errorf("reply has no summary"), "feedback synthesis")
	}

	narratives := make([]string, len(reply.Feedbacks))
	for i, f := range reply.Feedbacks {
		f = strings.TrimSpace(f)
		if f == "" {
			f = templatedPairFeedback(reviews[i].Aggregate)
		}
		narratives[i] = f
	}

	return narratives, summary, nil
}

func templatedPairFeedback(agg PairAggregate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The panel scored this answer %.1f out of 10.", agg.AverageScore)
	if len(agg.Strengths) > 0 {
		fmt.Fprintf(&b, " Strengths: %s.", strings.Join(agg.Strengths, "; "))
	}
	if len(agg.Weaknesses) > 0 {
		fmt.Fprintf(&b, " Areas to improve: %s.", strings.Join(agg.Weaknesses, "; "))
	}
	if len(agg.ImprovementTips) > 0 {
		fmt.Fprintf(&b, " Tips: %s.", strings.Join(agg.ImprovementTips, "; "))
	}
	return b.String()
}

func templatedSummary(targetJob string, keywords []string) string {
	role := strings.TrimSpace(targetJob)
	if role == "" {
		role = "this role"
	}

	summary := fmt.Sprintf("Thank you for completing the practice interview for %s.", role)

	top := keywords
	if len(top) > maxAggregateItems {
		top = top[:maxAggregateItems]
	}
	if len(top) > 0 {
		summary += fmt.Sprintf(" Keep highlighting your experience with %s, and back each answer with concrete examples.", strings.Join(top, ", "))
	} else {
		summary += " Back each answer with concrete examples from your experience."
	}

	return summary
}
