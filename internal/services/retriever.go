package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tztgracious/Jobify/internal/logger"
)

// ContextRetriever supplies interviewer notes for a target role.
type ContextRetriever interface {
	Retrieve(ctx context.Context, targetJob string, keywords []string) (string, error)
}

// NopRetriever is used when no vector store is configured.
type NopRetriever struct{}

func (NopRetriever) Retrieve(context.Context, string, []string) (string, error) {
	return "", nil
}

// GuideRetriever looks up interview-guide chunks similar to the target role.
type GuideRetriever struct {
	embedder Embedder
	store    GuideStore
	limit    int
	log      *zap.Logger
}

func NewGuideRetriever(embedder Embedder, store GuideStore, limit int, log *zap.Logger) *GuideRetriever {
	if limit <= 0 {
		limit = 3
	}
	return &GuideRetriever{embedder: embedder, store: store, limit: limit, log: logger.OrNop(log)}
}

// Retrieve implements ContextRetriever.
func (r *GuideRetriever) Retrieve(ctx context.Context, targetJob string, keywords []string) (string, error) {
	embedding, err := r.embedder.Embed(ctx, BuildRetrievalQuery(targetJob, keywords))
	if err != nil {
		return "", fmt.Errorf("failed to embed retrieval query: %w", err)
	}

	results, err := r.store.SearchSimilar(ctx, embedding, GuideDocType, r.limit)
	if err != nil {
		return "", err
	}

	if len(results) == 0 {
		return "", nil
	}

	r.log.Debug("📚 Retrieved interview guide context", zap.Int(logger.FieldCount, len(results)))
	return FormatRAGContext(results), nil
}

// BuildRetrievalQuery builds the similarity query for a role.
func BuildRetrievalQuery(targetJob string, keywords []string) string {
	query := fmt.Sprintf("Interview questions and evaluation criteria for %s", targetJob)
	if len(keywords) > 0 {
		query += ". Skills: " + strings.Join(keywords, ", ")
	}
	return query
}

// FormatRAGContext renders search results as numbered context blocks.
func FormatRAGContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(results))
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Context %d (Score: %.2f) ---\n%s",
			i+1, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
