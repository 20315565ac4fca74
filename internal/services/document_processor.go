package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/logger"
	"github.com/tztgracious/Jobify/internal/models"
)

const MaxKeywords = 10

// DocumentAnalysis is what the résumé stage derives from a document.
type DocumentAnalysis struct {
	Keywords []string
	// Grammar is nil when the grammar check failed.
	Grammar *models.GrammarReport
}

// DocumentProcessor parses a résumé, extracts keywords and checks grammar.
type DocumentProcessor struct {
	parser    DocumentParser
	generator TextGenerator
	grammar   GrammarChecker
	prompts   *PromptBuilder
	log       *zap.Logger
}

func NewDocumentProcessor(parser DocumentParser, generator TextGenerator, grammar GrammarChecker, log *zap.Logger) *DocumentProcessor {
	return &DocumentProcessor{
		parser:    parser,
		generator: generator,
		grammar:   grammar,
		prompts:   NewPromptBuilder(),
		log:       logger.OrNop(log),
	}
}

// Analyze fails when parsing or keyword extraction fails. A grammar check
// failure is logged and leaves Grammar nil.
func (p *DocumentProcessor) Analyze(ctx context.Context, path string) (*DocumentAnalysis, error) {
	text, err := p.parser.ExtractText(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse resume: %w", err)
	}
	text = CleanText(text)

	keywords, err := p.ExtractKeywords(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to extract keywords: %w", err)
	}

	analysis := &DocumentAnalysis{Keywords: keywords}

	report, err := p.grammar.Check(ctx, text)
	if err != nil {
		p.log.Warn("⚠️ Grammar check failed, continuing without grammar results", zap.Error(err))
	} else {
		analysis.Grammar = report
	}

	return analysis, nil
}

// ExtractKeywords returns up to MaxKeywords lowercase, distinct keywords.
func (p *DocumentProcessor) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	reply, err := p.generator.Complete(ctx, p.prompts.BuildKeywordPrompt(text))
	if err != nil {
		return nil, err
	}

	var raw []string
	if err := DecodeFirstJSONArray(reply, &raw); err != nil {
		return nil, err
	}

	keywords := NormalizeKeywords(raw)
	if len(keywords) == 0 {
		return nil, apperr.Malformed(fmt.Errorf("reply contained no keywords"), "keyword extraction")
	}

	p.log.Debug("🔑 Keywords extracted", zap.Strings("keywords", keywords))
	return keywords, nil
}

// NormalizeKeywords lowercases, trims and de-duplicates, keeping first-seen order.
func NormalizeKeywords(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	keywords := make([]string, 0, MaxKeywords)

	for _, kw := range raw {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
		if len(keywords) == MaxKeywords {
			break
		}
	}

	return keywords
}
