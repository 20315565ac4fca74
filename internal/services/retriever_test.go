package services

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	queries []string
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	return []float32{0.1, 0.2}, f.err
}

type fakeGuideStore struct {
	results []SearchResult
	docType string
	limit   int
}

func (f *fakeGuideStore) InitCollection(context.Context) error { return nil }

func (f *fakeGuideStore) UpsertChunk(context.Context, GuideChunk, []float32) error { return nil }

func (f *fakeGuideStore) SearchSimilar(_ context.Context, _ []float32, docType string, limit int) ([]SearchResult, error) {
	f.docType, f.limit = docType, limit
	return f.results, nil
}

func (f *fakeGuideStore) DeleteGuide(context.Context, string) error { return nil }

func TestGuideRetriever_Retrieve(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeGuideStore{results: []SearchResult{
		{Score: 0.91, GuideChunk: GuideChunk{Text: "  Ask about system design trade-offs. "}},
		{Score: 0.5, GuideChunk: GuideChunk{Text: "Probe on-call experience."}},
	}}

	notes, err := NewGuideRetriever(embedder, store, 0, nil).Retrieve(context.Background(), "SRE", []string{"go", "k8s"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Interview questions and evaluation criteria for SRE. Skills: go, k8s"}, embedder.queries)
	assert.Equal(t, GuideDocType, store.docType)
	assert.Equal(t, 3, store.limit)
	assert.Equal(t,
		"--- Context 1 (Score: 0.91) ---\nAsk about system design trade-offs.\n\n--- Context 2 (Score: 0.50) ---\nProbe on-call experience.",
		notes)
}

func TestGuideRetriever_EmptyAndErrors(t *testing.T) {
	notes, err := NewGuideRetriever(&fakeEmbedder{}, &fakeGuideStore{}, 2, nil).Retrieve(context.Background(), "SRE", nil)
	require.NoError(t, err)
	assert.Empty(t, notes)

	_, err = NewGuideRetriever(&fakeEmbedder{err: errors.New("quota")}, &fakeGuideStore{}, 2, nil).Retrieve(context.Background(), "SRE", nil)
	assert.Error(t, err)

	notes, err = NopRetriever{}.Retrieve(context.Background(), "SRE", nil)
	require.NoError(t, err)
	assert.Empty(t, notes)
}
