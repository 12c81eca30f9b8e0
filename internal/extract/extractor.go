package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stillpoint-hq/stillpoint/internal/core"
	"github.com/stillpoint-hq/stillpoint/internal/llm"
	"github.com/stillpoint-hq/stillpoint/internal/logging"
)

// Extractor implements the assessment engine's extraction contract.
// The keyword pass always runs; the model pass refines it when a
// router is wired in. Model failure degrades to keywords alone.
type Extractor struct {
	router      *llm.Router
	keywordOnly bool
	log         *logging.Logger
}

// New creates an extractor. A nil router means keyword-only operation.
func New(router *llm.Router, keywordOnly bool) *Extractor {
	return &Extractor{
		router:      router,
		keywordOnly: keywordOnly || router == nil,
		log:         logging.WithField("component", "extract"),
	}
}

// Extract pulls field observations out of one utterance. The stage is
// a hint for ambiguous answers, never a restriction: volunteered
// information for any field surfaces regardless of what was asked.
func (e *Extractor) Extract(ctx context.Context, utterance string, stage core.Stage) ([]core.Observation, error) {
	observations := Keywords(utterance, stage)

	if e.keywordOnly {
		return observations, nil
	}

	modelObs, err := e.modelExtract(ctx, utterance, stage)
	if err != nil {
		e.log.Warn("model extraction failed, using keywords only: %v", err)
		return observations, nil
	}

	return append(observations, modelObs...), nil
}

const extractSystemPrompt = `You extract structured facts from one message in a wellbeing conversation. Only report what the message actually supports. Skipping a field is always better than guessing.

Vocabularies (use these exact values):
- primary_emotion: love, fear, anger, depression, overwhelmed, confusion, hurt, loneliness, guilt, inadequacy
- life_situation: finance_career, decision_making, relationship_love, burnout, health, mind_created, world_problems, spiritual_growth
- location: home_indoor, outdoor, office, public_place, vehicle
- time_available: 7_min, 12_min, 20_min (map any stated duration to the closest)
- meal_status: full_stomach, empty_stomach (a light snack counts as empty_stomach)
- age_band: 18_25, 26_35, 36_45

Respond with ONLY a JSON object (no markdown, no explanation):
{
  "observations": [
    {"field": "primary_emotion", "value": "anger", "confidence": 0.9}
  ]
}

An empty observations array is a valid answer.`

func (e *Extractor) modelExtract(ctx context.Context, utterance string, stage core.Stage) ([]core.Observation, error) {
	prompt := fmt.Sprintf("The conversation is currently probing %q.\n\nMessage: %q", stage, utterance)

	response, err := e.router.Classify(ctx, extractSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	return parseObservations(response)
}

// parseObservations decodes the model's JSON, tolerating markdown
// fences and surrounding prose. Entries outside the closed
// vocabularies are dropped rather than erroring; one bad entry must
// not cost the turn its good ones.
func parseObservations(response string) ([]core.Observation, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	jsonStart := strings.Index(response, "{")
	jsonEnd := strings.LastIndex(response, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd < jsonStart {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var parsed struct {
		Observations []struct {
			Field      string   `json:"field"`
			Value      string   `json:"value"`
			Confidence *float64 `json:"confidence"`
		} `json:"observations"`
	}
	if err := json.Unmarshal([]byte(response[jsonStart:jsonEnd+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse observations: %w", err)
	}

	observations := make([]core.Observation, 0, len(parsed.Observations))
	for _, o := range parsed.Observations {
		field := core.Field(o.Field)
		if !validField(field) {
			continue
		}
		// A missing confidence field gets a default; an explicit
		// zero means the model itself called the value unknown.
		confidence := 0.8
		if o.Confidence != nil {
			confidence = *o.Confidence
			if confidence <= 0 {
				continue
			}
			if confidence > 1 {
				confidence = 1
			}
		}
		observations = append(observations, core.Observation{
			Field:      field,
			Value:      o.Value,
			Confidence: confidence,
		})
	}

	return observations, nil
}

func validField(f core.Field) bool {
	switch f {
	case core.FieldAgeBand, core.FieldEmotion, core.FieldSituation,
		core.FieldLocation, core.FieldTime, core.FieldMeal:
		return true
	}
	return false
}
