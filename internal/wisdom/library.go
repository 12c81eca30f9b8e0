package wisdom

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stillpoint-hq/stillpoint/internal/core"
	"github.com/stillpoint-hq/stillpoint/internal/logging"
)

// Teaching is one indexed passage from the knowledge base.
type Teaching struct {
	ID         string           `json:"id"`
	Text       string           `json:"text"`
	Source     string           `json:"source"`
	Emotions   []core.Emotion   `json:"emotions,omitempty"`
	Situations []core.Situation `json:"situations,omitempty"`
}

// Result pairs a teaching with its retrieval confidence. Confidence
// is the cosine score for vector hits and zero for fallback entries.
type Result struct {
	Teaching   Teaching
	Confidence float32
	Fallback   bool
}

// Embedder produces text embeddings. *llm.OllamaClient satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Service retrieves teachings. Either collaborator may be nil; the
// service then serves from the built-in fallback table.
type Service struct {
	store *Store
	embed Embedder
	log   *logging.Logger
}

// NewService creates a wisdom service
func NewService(store *Store, embedder Embedder) *Service {
	return &Service{
		store: store,
		embed: embedder,
		log:   logging.WithField("component", "wisdom"),
	}
}

// Available reports whether vector retrieval is wired up.
func (s *Service) Available() bool {
	return s.store != nil && s.embed != nil
}

// IndexTeaching embeds and stores a teaching. A missing ID gets a
// fresh UUID so re-indexing the same corpus produces new points.
func (s *Service) IndexTeaching(ctx context.Context, t Teaching) (string, error) {
	if !s.Available() {
		return "", fmt.Errorf("wisdom store not configured")
	}
	if strings.TrimSpace(t.Text) == "" {
		return "", fmt.Errorf("teaching text is empty")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	vector, err := s.embed.Embed(ctx, t.Text)
	if err != nil {
		return "", fmt.Errorf("failed to embed teaching: %w", err)
	}

	payload := map[string]interface{}{
		"text":   t.Text,
		"source": t.Source,
	}
	if len(t.Emotions) > 0 {
		payload["emotions"] = emotionStrings(t.Emotions)
	}
	if len(t.Situations) > 0 {
		payload["situations"] = situationStrings(t.Situations)
	}

	err = s.store.Upsert(ctx, []Point{{ID: t.ID, Vector: vector, Payload: payload}})
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

// Retrieve finds teachings for the seeker's state. Known emotion and
// situation become payload filters; if the filtered search comes back
// empty the search runs again unfiltered before giving up. Without a
// store it serves the fallback table.
func (s *Service) Retrieve(ctx context.Context, query string, emotion core.Emotion, situation core.Situation, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 3
	}

	if !s.Available() {
		return s.fallbackResults(emotion, limit), nil
	}

	vector, err := s.embed.Embed(ctx, query)
	if err != nil {
		s.log.Warn("embedding failed, serving fallback teachings: %v", err)
		return s.fallbackResults(emotion, limit), nil
	}

	filter := make(map[string]string)
	if emotion.IsKnown() {
		filter["emotions"] = string(emotion)
	}
	if situation.IsKnown() {
		filter["situations"] = string(situation)
	}

	hits, err := s.store.Search(ctx, vector, uint64(limit), filter)
	if err != nil {
		s.log.Warn("search failed, serving fallback teachings: %v", err)
		return s.fallbackResults(emotion, limit), nil
	}

	if len(hits) == 0 && len(filter) > 0 {
		hits, err = s.store.Search(ctx, vector, uint64(limit), nil)
		if err != nil {
			return s.fallbackResults(emotion, limit), nil
		}
	}

	if len(hits) == 0 {
		return s.fallbackResults(emotion, limit), nil
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			Teaching:   teachingFromPayload(h.ID, h.Payload),
			Confidence: h.Score,
		})
	}
	return results, nil
}

func (s *Service) fallbackResults(emotion core.Emotion, limit int) []Result {
	teachings := FallbackTeachings(emotion)
	if limit < len(teachings) {
		teachings = teachings[:limit]
	}
	results := make([]Result, 0, len(teachings))
	for _, t := range teachings {
		results = append(results, Result{Teaching: t, Fallback: true})
	}
	return results
}

func teachingFromPayload(id string, payload map[string]interface{}) Teaching {
	t := Teaching{ID: id}
	if v, ok := payload["text"].(string); ok {
		t.Text = v
	}
	if v, ok := payload["source"].(string); ok {
		t.Source = v
	}
	if v, ok := payload["emotions"].([]string); ok {
		for _, e := range v {
			t.Emotions = append(t.Emotions, core.Emotion(e))
		}
	}
	if v, ok := payload["situations"].([]string); ok {
		for _, sv := range v {
			t.Situations = append(t.Situations, core.Situation(sv))
		}
	}
	return t
}

func emotionStrings(emotions []core.Emotion) []string {
	out := make([]string, len(emotions))
	for i, e := range emotions {
		out[i] = string(e)
	}
	return out
}

func situationStrings(situations []core.Situation) []string {
	out := make([]string, len(situations))
	for i, s := range situations {
		out[i] = string(s)
	}
	return out
}
