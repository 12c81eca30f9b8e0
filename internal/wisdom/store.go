// Package wisdom retrieves teachings for the seeker's state. Vectors
// live in Qdrant; when no store is reachable a small built-in table
// keeps the companion from ever coming up empty-handed.
package wisdom

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Store wraps the Qdrant client for teaching vectors.
type Store struct {
	client     *qdrant.Client
	collection string
}

// StoreConfig for the vector store
type StoreConfig struct {
	Host       string // Qdrant host, default "localhost"
	Port       int    // Qdrant gRPC port, default 6334
	UseTLS     bool
	Collection string // default "teachings"
}

// DefaultStoreConfig returns sensible defaults
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Host:       "localhost",
		Port:       6334,
		Collection: "teachings",
	}
}

// NewStore connects to Qdrant
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "teachings"
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	return &Store{
		client:     client,
		collection: cfg.Collection,
	}, nil
}

// Close closes the Qdrant connection
func (s *Store) Close() error {
	return s.client.Close()
}

// EnsureCollection creates the teachings collection if missing
func (s *Store) EnsureCollection(ctx context.Context, dimension uint64) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", s.collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	return nil
}

// Point represents a teaching vector with its payload
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// Upsert inserts or updates teaching vectors
func (s *Store) Upsert(ctx context.Context, points []Point) error {
	qdrantPoints := make([]*qdrant.PointStruct, len(points))

	for i, p := range points {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: toQdrantPayload(p.Payload),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         qdrantPoints,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// SearchResult is a scored teaching hit
type SearchResult struct {
	ID      string
	Score   float32
	Payload map[string]interface{}
}

// Search performs semantic search. Filter keys match against keyword
// payload fields; a keyword matches any element of a list payload.
func (s *Store) Search(ctx context.Context, vector []float32, limit uint64, filter map[string]string) ([]SearchResult, error) {
	var qdrantFilter *qdrant.Filter
	if len(filter) > 0 {
		qdrantFilter = buildFilter(filter)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         qdrantFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			ID:      r.Id.GetUuid(),
			Score:   r.Score,
			Payload: fromQdrantPayload(r.Payload),
		}
	}

	return searchResults, nil
}

// Delete removes teachings by ID
func (s *Store) Delete(ctx context.Context, ids []string) error {
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{
					Ids: pointIDs,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	return nil
}

func toQdrantPayload(payload map[string]interface{}) map[string]*qdrant.Value {
	result := make(map[string]*qdrant.Value)
	for k, v := range payload {
		switch val := v.(type) {
		case string:
			result[k] = qdrant.NewValueString(val)
		case int:
			result[k] = qdrant.NewValueInt(int64(val))
		case int64:
			result[k] = qdrant.NewValueInt(val)
		case float64:
			result[k] = qdrant.NewValueDouble(val)
		case float32:
			result[k] = qdrant.NewValueDouble(float64(val))
		case bool:
			result[k] = qdrant.NewValueBool(val)
		case []string:
			values := make([]*qdrant.Value, len(val))
			for i, s := range val {
				values[i] = qdrant.NewValueString(s)
			}
			result[k] = &qdrant.Value{
				Kind: &qdrant.Value_ListValue{
					ListValue: &qdrant.ListValue{Values: values},
				},
			}
		}
	}
	return result
}

func fromQdrantPayload(payload map[string]*qdrant.Value) map[string]interface{} {
	result := make(map[string]interface{})
	for k, v := range payload {
		switch val := v.Kind.(type) {
		case *qdrant.Value_StringValue:
			result[k] = val.StringValue
		case *qdrant.Value_IntegerValue:
			result[k] = val.IntegerValue
		case *qdrant.Value_DoubleValue:
			result[k] = val.DoubleValue
		case *qdrant.Value_BoolValue:
			result[k] = val.BoolValue
		case *qdrant.Value_ListValue:
			items := make([]string, 0, len(val.ListValue.Values))
			for _, item := range val.ListValue.Values {
				if sv, ok := item.Kind.(*qdrant.Value_StringValue); ok {
					items = append(items, sv.StringValue)
				}
			}
			result[k] = items
		}
	}
	return result
}

func buildFilter(filter map[string]string) *qdrant.Filter {
	conditions := make([]*qdrant.Condition, 0)

	for k, v := range filter {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: k,
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keyword{
							Keyword: v,
						},
					},
				},
			},
		})
	}

	if len(conditions) == 0 {
		return nil
	}

	return &qdrant.Filter{
		Must: conditions,
	}
}
