package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantService stores and retrieves role context documents (job
// descriptions, screening question banks) used to ground the resume
// analysis prompt.
type QdrantService interface {
	InitCollection() error
	UpsertRoleDocument(ctx context.Context, docID string, role string, docType string, text string, embedding []float32) error
	SearchRoleContext(ctx context.Context, queryEmbedding []float32, role string, limit int) ([]SearchResult, error)
	DeleteRoleDocument(ctx context.Context, docID string) error
}

type SearchResult struct {
	ID      string
	Score   float32
	Text    string
	Role    string
	DocType string
}

type qdrantService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

func NewQdrantService(urlStr, apiKey, collectionName string) (QdrantService, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port is 6334 unless the URL says otherwise
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:         client,
		collectionName: collectionName,
		vectorSize:     768,
	}, nil
}

// InitCollection implements QdrantService.
func (q *qdrantService) InitCollection() error {
	ctx := context.Background()

	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})

	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// UpsertRoleDocument implements QdrantService.
func (q *qdrantService) UpsertRoleDocument(ctx context.Context, docID string, role string, docType string, text string, embedding []float32) error {
	pointID := uuid.New()

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(uint64(pointID.ID())),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"doc_id":   docID,
			"role":     role,
			"doc_type": docType,
			"text":     text,
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// SearchRoleContext implements QdrantService.
func (q *qdrantService) SearchRoleContext(ctx context.Context, queryEmbedding []float32, role string, limit int) ([]SearchResult, error) {
	var filter *qdrant.Filter
	if role != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("role", role),
			},
		}
	}

	searchResult, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var results []SearchResult
	for _, point := range searchResult {
		payload := point.Payload

		result := SearchResult{Score: point.Score}

		if docID, ok := payload["doc_id"]; ok {
			if val, ok := docID.GetKind().(*qdrant.Value_StringValue); ok {
				result.ID = val.StringValue
			}
		}

		if text, ok := payload["text"]; ok {
			if val, ok := text.GetKind().(*qdrant.Value_StringValue); ok {
				result.Text = val.StringValue
			}
		}

		if roleVal, ok := payload["role"]; ok {
			if val, ok := roleVal.GetKind().(*qdrant.Value_StringValue); ok {
				result.Role = val.StringValue
			}
		}

		if dtype, ok := payload["doc_type"]; ok {
			if val, ok := dtype.GetKind().(*qdrant.Value_StringValue); ok {
				result.DocType = val.StringValue
			}
		}

		results = append(results, result)
	}

	return results, nil
}

// DeleteRoleDocument implements QdrantService.
func (q *qdrantService) DeleteRoleDocument(ctx context.Context, docID string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("doc_id", docID),
		},
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})

	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}
