package services

import (
	"context"
	"net/url"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/config"
	"github.com/tztgracious/Jobify/internal/logger"
)

const (
	// GuideDocType tags every interview-guide chunk in the collection.
	GuideDocType = "interview_guide"

	// text-embedding-004
	guideVectorSize = 768
	qdrantGRPCPort  = 6334
)

// GuideStore holds embedded interview-guide chunks.
type GuideStore interface {
	InitCollection(ctx context.Context) error
	UpsertChunk(ctx context.Context, chunk GuideChunk, embedding []float32) error
	SearchSimilar(ctx context.Context, queryEmbedding []float32, docType string, limit int) ([]SearchResult, error)
	DeleteGuide(ctx context.Context, guideID string) error
}

// GuideChunk is one embedded slice of an interview guide.
type GuideChunk struct {
	GuideID string
	Source  string
	Index   int
	Text    string
}

// SearchResult is a guide chunk with its similarity score.
type SearchResult struct {
	GuideChunk
	Score float32
}

// QdrantService stores guide chunks in a Qdrant collection over gRPC.
type QdrantService struct {
	client     *qdrant.Client
	collection string
	log        *zap.Logger
}

var _ GuideStore = (*QdrantService)(nil)

func NewQdrantService(cfg config.QdrantConfig, log *zap.Logger) (*QdrantService, error) {
	endpoint, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid Qdrant URL")
	}

	port := qdrantGRPCPort
	if p := endpoint.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   endpoint.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: endpoint.Scheme == "https",
	})
	if err != nil {
		return nil, apperr.Service(err, "qdrant")
	}

	return &QdrantService{
		client:     client,
		collection: cfg.Collection,
		log:        logger.OrNop(log).With(zap.String("collection", cfg.Collection)),
	}, nil
}

func (q *QdrantService) Close() error {
	return q.client.Close()
}

// InitCollection implements GuideStore. It is a no-op when the collection exists.
func (q *QdrantService) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return apperr.Service(errors.Wrap(err, "check collection"), "qdrant")
	}
	if exists {
		q.log.Debug("Guide collection already exists")
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     guideVectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return apperr.Service(errors.Wrap(err, "create collection"), "qdrant")
	}

	q.log.Info("✅ Guide collection created")
	return nil
}

// UpsertChunk implements GuideStore.
func (q *QdrantService) UpsertChunk(ctx context.Context, chunk GuideChunk, embedding []float32) error {
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(uuid.NewString()),
			Vectors: qdrant.NewVectors(embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"guide_id":    chunk.GuideID,
				"doc_type":    GuideDocType,
				"source":      chunk.Source,
				"chunk_index": int64(chunk.Index),
				"text":        chunk.Text,
			}),
		}},
	})
	if err != nil {
		return apperr.Service(errors.Wrapf(err, "upsert chunk %d of %s", chunk.Index, chunk.GuideID), "qdrant")
	}
	return nil
}

// SearchSimilar implements GuideStore. An empty docType searches every chunk.
func (q *QdrantService) SearchSimilar(ctx context.Context, queryEmbedding []float32, docType string, limit int) ([]SearchResult, error) {
	query := &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if docType != "" {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("doc_type", docType)},
		}
	}

	points, err := q.client.Query(ctx, query)
	if err != nil {
		return nil, apperr.Service(errors.Wrap(err, "search guides"), "qdrant")
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		results = append(results, SearchResult{
			GuideChunk: guideChunkFromPayload(point.Payload),
			Score:      point.Score,
		})
	}
	return results, nil
}

// DeleteGuide implements GuideStore. It removes every chunk of the guide.
func (q *QdrantService) DeleteGuide(ctx context.Context, guideID string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{qdrant.NewMatch("guide_id", guideID)},
				},
			},
		},
	})
	if err != nil {
		return apperr.Service(errors.Wrapf(err, "delete guide %s", guideID), "qdrant")
	}
	return nil
}

func guideChunkFromPayload(payload map[string]*qdrant.Value) GuideChunk {
	return GuideChunk{
		GuideID: payload["guide_id"].GetStringValue(),
		Source:  payload["source"].GetStringValue(),
		Index:   int(payload["chunk_index"].GetIntegerValue()),
		Text:    payload["text"].GetStringValue(),
	}
}
