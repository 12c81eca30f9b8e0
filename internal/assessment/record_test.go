package assessment

import (
	"testing"

	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// =============================================================================
// Record Tests
// =============================================================================

func TestNewRecord(t *testing.T) {
	rec := NewRecord("s1")

	if rec.Stage != core.StageInitialGreeting {
		t.Errorf("Stage = %v, want initial greeting", rec.Stage)
	}
	if rec.Tone != core.ToneWarm {
		t.Errorf("Tone = %v, want warm", rec.Tone)
	}
	if rec.Complete() {
		t.Error("fresh record should not be complete")
	}
	for _, f := range []core.Field{
		core.FieldAgeBand, core.FieldEmotion, core.FieldSituation,
		core.FieldLocation, core.FieldTime, core.FieldMeal,
	} {
		if rec.FieldKnown(f) {
			t.Errorf("field %s should start unknown", f)
		}
	}
}

func TestRecord_Apply(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Record)
		obs     core.Observation
		applied bool
		check   func(*testing.T, *Record)
	}{
		{
			name:    "fills unknown field",
			obs:     core.Observation{Field: core.FieldEmotion, Value: "anger", Confidence: 0.8},
			applied: true,
			check: func(t *testing.T, r *Record) {
				if r.Emotion != core.EmotionAnger {
					t.Errorf("Emotion = %v, want anger", r.Emotion)
				}
			},
		},
		{
			name: "lower confidence never overwrites",
			setup: func(r *Record) {
				r.Apply(core.Observation{Field: core.FieldEmotion, Value: "fear", Confidence: 0.9})
			},
			obs:     core.Observation{Field: core.FieldEmotion, Value: "anger", Confidence: 0.5},
			applied: false,
			check: func(t *testing.T, r *Record) {
				if r.Emotion != core.EmotionFear {
					t.Errorf("Emotion = %v, want fear kept", r.Emotion)
				}
			},
		},
		{
			name: "tie keeps existing value",
			setup: func(r *Record) {
				r.Apply(core.Observation{Field: core.FieldLocation, Value: "office", Confidence: 0.7})
			},
			obs:     core.Observation{Field: core.FieldLocation, Value: "outdoor", Confidence: 0.7},
			applied: false,
			check: func(t *testing.T, r *Record) {
				if r.Location != core.LocationOffice {
					t.Errorf("Location = %v, want office kept", r.Location)
				}
			},
		},
		{
			name: "higher confidence replaces",
			setup: func(r *Record) {
				r.Apply(core.Observation{Field: core.FieldSituation, Value: "burnout", Confidence: 0.4})
			},
			obs:     core.Observation{Field: core.FieldSituation, Value: "health", Confidence: 0.9},
			applied: true,
			check: func(t *testing.T, r *Record) {
				if r.Situation != core.SituationHealth {
					t.Errorf("Situation = %v, want health", r.Situation)
				}
			},
		},
		{
			name:    "out-of-vocabulary value is dropped",
			obs:     core.Observation{Field: core.FieldEmotion, Value: "hangry", Confidence: 0.9},
			applied: false,
			check: func(t *testing.T, r *Record) {
				if r.Emotion.IsKnown() {
					t.Error("emotion should stay unknown")
				}
			},
		},
		{
			name:    "unknown value never overwrites",
			obs:     core.Observation{Field: core.FieldMeal, Value: "unknown", Confidence: 1.0},
			applied: false,
			check: func(t *testing.T, r *Record) {
				if r.Meal.IsKnown() {
					t.Error("meal should stay unknown")
				}
			},
		},
		{
			name:    "unrecognized field is dropped",
			obs:     core.Observation{Field: core.Field("favorite_color"), Value: "blue", Confidence: 1.0},
			applied: false,
			check:   func(t *testing.T, r *Record) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecord("s1")
			if tt.setup != nil {
				tt.setup(rec)
			}
			got := rec.Apply(tt.obs)
			if got != tt.applied {
				t.Errorf("Apply() = %v, want %v", got, tt.applied)
			}
			tt.check(t, rec)
		})
	}
}

func TestRecord_Apply_Idempotent(t *testing.T) {
	rec := NewRecord("s1")
	obs := core.Observation{Field: core.FieldEmotion, Value: "loneliness", Confidence: 0.8}

	if !rec.Apply(obs) {
		t.Fatal("first apply should stick")
	}
	if rec.Apply(obs) {
		t.Error("re-applying the same observation should be a no-op")
	}
	if rec.Emotion != core.EmotionLoneliness {
		t.Errorf("Emotion = %v", rec.Emotion)
	}
}

func TestRecord_Complete(t *testing.T) {
	rec := NewRecord("s1")

	rec.Apply(core.Observation{Field: core.FieldEmotion, Value: "fear", Confidence: 0.8})
	rec.Apply(core.Observation{Field: core.FieldSituation, Value: "finance_career", Confidence: 0.8})
	if rec.Complete() {
		t.Error("two of three gate fields should not complete")
	}

	rec.Apply(core.Observation{Field: core.FieldLocation, Value: "home_indoor", Confidence: 0.8})
	if !rec.Complete() {
		t.Error("emotion + situation + location should complete the record")
	}

	// Time and meal are not part of the gate.
	if rec.Time.IsKnown() || rec.Meal.IsKnown() {
		t.Error("time and meal should still be unknown")
	}
}

func TestRecord_MissingFields(t *testing.T) {
	rec := NewRecord("s1")
	rec.Apply(core.Observation{Field: core.FieldSituation, Value: "burnout", Confidence: 0.8})
	rec.Apply(core.Observation{Field: core.FieldMeal, Value: "empty_stomach", Confidence: 0.8})

	missing := rec.MissingFields()
	want := []core.Field{core.FieldEmotion, core.FieldLocation, core.FieldTime}
	if len(missing) != len(want) {
		t.Fatalf("got %d missing fields, want %d: %v", len(missing), len(want), missing)
	}
	for i, f := range want {
		if missing[i] != f {
			t.Errorf("missing[%d] = %v, want %v", i, missing[i], f)
		}
	}
}

// =============================================================================
// Stage Transition Tests
// =============================================================================

func TestFieldForStage_Ownership(t *testing.T) {
	tests := []struct {
		stage core.Stage
		want  core.Field
	}{
		{core.StageInitialGreeting, core.FieldAgeBand},
		{core.StageProbingEmotion, core.FieldEmotion},
		{core.StageProbingSituation, core.FieldSituation},
		{core.StageProbingLocation, core.FieldLocation},
		{core.StageProbingTime, core.FieldTime},
		{core.StageProbingMeal, core.FieldMeal},
		{core.StageAssessmentComplete, ""},
	}
	for _, tt := range tests {
		if got := FieldForStage(tt.stage); got != tt.want {
			t.Errorf("FieldForStage(%v) = %v, want %v", tt.stage, got, tt.want)
		}
	}
}

func TestNextStage_SkipsKnownFields(t *testing.T) {
	rec := NewRecord("s1")
	rec.Stage = core.StageProbingEmotion
	rec.Apply(core.Observation{Field: core.FieldEmotion, Value: "anger", Confidence: 0.8})
	rec.Apply(core.Observation{Field: core.FieldSituation, Value: "burnout", Confidence: 0.8})
	rec.Apply(core.Observation{Field: core.FieldLocation, Value: "office", Confidence: 0.8})

	next, err := nextStage(rec)
	if err != nil {
		t.Fatalf("nextStage() error = %v", err)
	}
	if next != core.StageProbingTime {
		t.Errorf("nextStage() = %v, want probing_time (situation and location skipped)", next)
	}
}

func TestNextStage_AllKnownGoesTerminal(t *testing.T) {
	rec := NewRecord("s1")
	rec.Stage = core.StageProbingEmotion
	for _, obs := range []core.Observation{
		{Field: core.FieldEmotion, Value: "love", Confidence: 0.9},
		{Field: core.FieldSituation, Value: "spiritual_growth", Confidence: 0.9},
		{Field: core.FieldLocation, Value: "home_indoor", Confidence: 0.9},
		{Field: core.FieldTime, Value: "20_min", Confidence: 0.9},
		{Field: core.FieldMeal, Value: "empty_stomach", Confidence: 0.9},
	} {
		rec.Apply(obs)
	}

	next, err := nextStage(rec)
	if err != nil {
		t.Fatalf("nextStage() error = %v", err)
	}
	if next != core.StageAssessmentComplete {
		t.Errorf("nextStage() = %v, want assessment_complete", next)
	}
}

func TestNextStage_InvalidStage(t *testing.T) {
	rec := NewRecord("s1")
	rec.Stage = core.Stage("probing_shoe_size")

	if _, err := nextStage(rec); err != core.ErrInvalidStage {
		t.Errorf("nextStage() error = %v, want ErrInvalidStage", err)
	}
}
