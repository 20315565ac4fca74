package services

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tztgracious/Jobify/internal/logger"
	"github.com/tztgracious/Jobify/internal/models"
)

const generalQuestionCount = 3

type roleFamily struct {
	name     string
	keywords []string
	priority []InterviewerRole
}

// Families are matched in order; the first family with a keyword in the title wins.
var roleFamilies = []roleFamily{
	{
		name: "engineering",
		keywords: []string{
			"engineer", "engineering", "developer", "programmer", "software", "devops", "sre",
			"data scientist", "architect", "backend", "frontend", "full stack", "fullstack",
			"qa", "machine learning",
		},
		priority: []InterviewerRole{RoleTechnicalLead, RoleSeniorPeer, RoleIndustryExpert, RoleHiringManager, RoleHRRecruiter},
	},
	{
		name: "management",
		keywords: []string{
			"manager", "director", "head of", "vp", "vice president", "chief", "lead",
			"supervisor", "executive", "product owner", "coordinator",
		},
		priority: []InterviewerRole{RoleHiringManager, RoleHRRecruiter, RoleIndustryExpert, RoleSeniorPeer, RoleTechnicalLead},
	},
	{
		name:     "design",
		keywords: []string{"designer", "design", "ux", "ui", "creative", "artist", "illustrator"},
		priority: []InterviewerRole{RoleIndustryExpert, RoleSeniorPeer, RoleHiringManager, RoleHRRecruiter, RoleTechnicalLead},
	},
}

var defaultPriority = []InterviewerRole{RoleHRRecruiter, RoleHiringManager, RoleIndustryExpert, RoleSeniorPeer, RoleTechnicalLead}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// SelectGeneralRoles picks the three general interviewers for a job title.
func SelectGeneralRoles(targetJob string) []InterviewerRole {
	// Pad with spaces so multi-word keywords and whole words match the same way.
	title := " " + strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(targetJob), " ")) + " "

	priority := defaultPriority
	for _, family := range roleFamilies {
		if matchesAny(title, family.keywords) {
			priority = family.priority
			break
		}
	}

	roles := make([]InterviewerRole, generalQuestionCount)
	copy(roles, priority)
	return roles
}

func matchesAny(paddedTitle string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(paddedTitle, " "+kw+" ") {
			return true
		}
	}
	return false
}

// GeneratedQuestions is the output of one generation run.
type GeneratedQuestions struct {
	// General is ordered by ascending difficulty.
	General   []models.QuestionRecord
	Technical models.QuestionRecord
}

// QuestionGenerator runs one technical and three general interviewers concurrently.
type QuestionGenerator struct {
	generator TextGenerator
	retriever ContextRetriever
	poolSize  int
	log       *zap.Logger
}

func NewQuestionGenerator(generator TextGenerator, retriever ContextRetriever, log *zap.Logger) *QuestionGenerator {
	if retriever == nil {
		retriever = NopRetriever{}
	}
	return &QuestionGenerator{
		generator: generator,
		retriever: retriever,
		poolSize:  generalQuestionCount + 1,
		log:       logger.OrNop(log),
	}
}

// Generate always yields a full set of questions unless ctx is cancelled;
// per-agent failures are replaced by fallback questions.
func (g *QuestionGenerator) Generate(ctx context.Context, targetJob string, keywords []string) (*GeneratedQuestions, error) {
	notes, err := g.retriever.Retrieve(ctx, targetJob, keywords)
	if err != nil {
		g.log.Warn("⚠️ Interview guide retrieval failed, continuing without notes", zap.Error(err))
		notes = ""
	}

	generalRoles := SelectGeneralRoles(targetJob)
	general := make([]models.QuestionRecord, len(generalRoles))
	var technical models.QuestionRecord

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.poolSize)

	group.Go(func() error {
		technical = NewAgent(RoleTechnicalLead, g.generator, g.log).
			GenerateQuestion(groupCtx, targetJob, keywords, notes)
		return nil
	})

	for i, role := range generalRoles {
		i, role := i, role
		group.Go(func() error {
			general[i] = NewAgent(role, g.generator, g.log).
				GenerateQuestion(groupCtx, targetJob, keywords, notes)
			return nil
		})
	}

	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(general, func(a, b int) bool {
		return general[a].Difficulty < general[b].Difficulty
	})

	fallbacks := 0
	for _, q := range append([]models.QuestionRecord{technical}, general...) {
		if q.Fallback {
			fallbacks++
		}
	}
	g.log.Info("✅ Interview questions generated",
		zap.Int(logger.FieldCount, len(general)+1),
		zap.Int("fallbacks", fallbacks))

	return &GeneratedQuestions{General: general, Technical: technical}, nil
}
