// Package assessment implements the conversational assessment engine:
// a forward-only stage machine that fills a structured record from
// free-form conversation.
package assessment

import (
	"time"

	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// Record is the structured outcome of an assessment conversation.
// Fields start unknown and accumulate as the person shares; a field is
// never forgotten once known.
type Record struct {
	SessionID core.SessionID `json:"session_id"`

	AgeBand   core.AgeBand       `json:"age_band"`
	Emotion   core.Emotion       `json:"primary_emotion"`
	Situation core.Situation     `json:"life_situation"`
	Location  core.Location      `json:"location"`
	Time      core.TimeAvailable `json:"time_available"`
	Meal      core.MealStatus    `json:"meal_status"`

	// Confidence per field, tracked so a later low-confidence guess
	// never clobbers an earlier firm answer.
	Confidence map[core.Field]float64 `json:"confidence"`

	Stage        core.Stage `json:"stage"`
	TurnsInStage int        `json:"turns_in_stage"`
	TotalTurns   int        `json:"total_turns"`

	Tone core.Tone `json:"tone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord creates a fresh record at the greeting stage.
func NewRecord(sessionID core.SessionID) *Record {
	now := time.Now()
	return &Record{
		SessionID:  sessionID,
		AgeBand:    core.AgeUnknown,
		Emotion:    core.EmotionUnknown,
		Situation:  core.SituationUnknown,
		Location:   core.LocationUnknown,
		Time:       core.TimeUnknown,
		Meal:       core.MealUnknown,
		Confidence: make(map[core.Field]float64),
		Stage:      core.StageInitialGreeting,
		Tone:       core.ToneWarm,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// FieldKnown reports whether a field holds a concrete value.
func (r *Record) FieldKnown(f core.Field) bool {
	switch f {
	case core.FieldAgeBand:
		return r.AgeBand.IsKnown()
	case core.FieldEmotion:
		return r.Emotion.IsKnown()
	case core.FieldSituation:
		return r.Situation.IsKnown()
	case core.FieldLocation:
		return r.Location.IsKnown()
	case core.FieldTime:
		return r.Time.IsKnown()
	case core.FieldMeal:
		return r.Meal.IsKnown()
	}
	return false
}

// Complete is the completion gate: the assessment is complete once
// emotion, situation, and location are all known. Time and meal refine
// the recommendation but never hold the conversation hostage.
func (r *Record) Complete() bool {
	return r.Emotion.IsKnown() && r.Situation.IsKnown() && r.Location.IsKnown()
}

// MissingFields returns the probed fields still unknown, in stage order.
func (r *Record) MissingFields() []core.Field {
	var missing []core.Field
	for _, f := range []core.Field{
		core.FieldEmotion, core.FieldSituation, core.FieldLocation,
		core.FieldTime, core.FieldMeal,
	} {
		if !r.FieldKnown(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Apply merges one observation into the record. The merge is
// non-destructive: an unknown or unparseable value is dropped, and a
// known field is only replaced by a strictly higher-confidence
// observation. Ties keep what the person already told us.
func (r *Record) Apply(obs core.Observation) bool {
	if r.FieldKnown(obs.Field) && obs.Confidence <= r.Confidence[obs.Field] {
		return false
	}

	switch obs.Field {
	case core.FieldAgeBand:
		v := core.ParseAgeBand(obs.Value)
		if !v.IsKnown() {
			return false
		}
		r.AgeBand = v
	case core.FieldEmotion:
		v := core.ParseEmotion(obs.Value)
		if !v.IsKnown() {
			return false
		}
		r.Emotion = v
	case core.FieldSituation:
		v := core.ParseSituation(obs.Value)
		if !v.IsKnown() {
			return false
		}
		r.Situation = v
	case core.FieldLocation:
		v := core.ParseLocation(obs.Value)
		if !v.IsKnown() {
			return false
		}
		r.Location = v
	case core.FieldTime:
		v := core.ParseTimeAvailable(obs.Value)
		if !v.IsKnown() {
			return false
		}
		r.Time = v
	case core.FieldMeal:
		v := core.ParseMealStatus(obs.Value)
		if !v.IsKnown() {
			return false
		}
		r.Meal = v
	default:
		return false
	}

	r.Confidence[obs.Field] = obs.Confidence
	r.UpdatedAt = time.Now()
	return true
}

// ApplyAll merges a batch of observations and returns the fields that
// actually changed.
func (r *Record) ApplyAll(observations []core.Observation) []core.Field {
	var changed []core.Field
	for _, obs := range observations {
		if r.Apply(obs) {
			changed = append(changed, obs.Field)
		}
	}
	return changed
}
