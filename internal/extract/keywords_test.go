package extract

import (
	"testing"

	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// =============================================================================
// Keyword Pass Tests
// =============================================================================

func findObservation(observations []core.Observation, field core.Field) (core.Observation, bool) {
	for _, o := range observations {
		if o.Field == field {
			return o, true
		}
	}
	return core.Observation{}, false
}

func TestKeywords_Emotion(t *testing.T) {
	tests := []struct {
		utterance string
		want      core.Emotion
	}{
		{"I'm so angry at my brother", core.EmotionAnger},
		{"honestly I'm terrified of what comes next", core.EmotionFear},
		{"everything feels hopeless lately", core.EmotionDepression},
		{"it's all just too much", core.EmotionOverwhelmed},
		{"I don't understand what's happening to me", core.EmotionConfusion},
		{"she betrayed me", core.EmotionHurt},
		{"I feel so alone in this city", core.EmotionLoneliness},
		{"it was my fault, all of it", core.EmotionGuilt},
		{"I'm just not good enough for this", core.EmotionInadequacy},
		{"I feel so blessed today", core.EmotionLove},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			obs, ok := findObservation(Keywords(tt.utterance, core.StageProbingEmotion), core.FieldEmotion)
			if !ok {
				t.Fatal("no emotion observation")
			}
			if obs.Value != string(tt.want) {
				t.Errorf("emotion = %q, want %q", obs.Value, tt.want)
			}
		})
	}
}

func TestKeywords_Situation(t *testing.T) {
	tests := []struct {
		utterance string
		want      core.Situation
	}{
		{"my boss keeps piling on deadlines", core.SituationFinanceCareer},
		{"I can't make this decision about moving", core.SituationDecisionMaking},
		{"my marriage is falling apart", core.SituationRelationshipLove},
		{"completely burned out after this quarter", core.SituationBurnout},
		{"the diagnosis came back last week", core.SituationHealth},
		{"my mind racing at 3am every night", core.SituationMindCreated},
		{"can't stop reading the news about the war", core.SituationWorldProblems},
		{"I want to deepen my meditation", core.SituationSpiritualGrowth},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			obs, ok := findObservation(Keywords(tt.utterance, core.StageProbingSituation), core.FieldSituation)
			if !ok {
				t.Fatal("no situation observation")
			}
			if obs.Value != string(tt.want) {
				t.Errorf("situation = %q, want %q", obs.Value, tt.want)
			}
		})
	}
}

func TestKeywords_Location(t *testing.T) {
	tests := []struct {
		utterance string
		want      core.Location
	}{
		{"I'm at home on my couch", core.LocationHomeIndoor},
		{"sitting at my desk right now", core.LocationOffice},
		{"walking in the park", core.LocationOutdoor},
		{"I'm in a cafe downtown", core.LocationPublicPlace},
		{"on the train to work... wait, still on the train", core.LocationVehicle},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			obs, ok := findObservation(Keywords(tt.utterance, core.StageProbingLocation), core.FieldLocation)
			if !ok {
				t.Fatal("no location observation")
			}
			if obs.Value != string(tt.want) {
				t.Errorf("location = %q, want %q", obs.Value, tt.want)
			}
		})
	}
}

func TestKeywords_VolunteeredAcrossStages(t *testing.T) {
	// Emotion keywords surface even while the conversation probes
	// something else entirely.
	observations := Keywords("I'm exhausted and angry, sitting at the office", core.StageProbingLocation)

	if _, ok := findObservation(observations, core.FieldEmotion); !ok {
		t.Error("volunteered emotion should surface during location probing")
	}
	if _, ok := findObservation(observations, core.FieldSituation); !ok {
		t.Error("volunteered situation should surface during location probing")
	}
	if _, ok := findObservation(observations, core.FieldLocation); !ok {
		t.Error("location should surface in its own stage")
	}
}

func TestKeywords_EmptyUtterance(t *testing.T) {
	if got := Keywords("   ", core.StageProbingEmotion); got != nil {
		t.Errorf("blank utterance should yield nil, got %v", got)
	}
}

// =============================================================================
// Time Mapping Tests
// =============================================================================

func TestClosestTimeSlot(t *testing.T) {
	tests := []struct {
		minutes int
		want    core.TimeAvailable
	}{
		{1, core.TimeSevenMin},
		{7, core.TimeSevenMin},
		{9, core.TimeSevenMin},
		{10, core.TimeTwelveMin},
		{12, core.TimeTwelveMin},
		{15, core.TimeTwelveMin},
		{17, core.TimeTwentyMin},
		{20, core.TimeTwentyMin},
		{60, core.TimeTwentyMin},
	}

	for _, tt := range tests {
		if got := ClosestTimeSlot(tt.minutes); got != tt.want {
			t.Errorf("ClosestTimeSlot(%d) = %v, want %v", tt.minutes, got, tt.want)
		}
	}
}

func TestKeywords_TimeWithUnits_AnyStage(t *testing.T) {
	obs, ok := findObservation(Keywords("I only have 15 minutes before my call", core.StageProbingEmotion), core.FieldTime)
	if !ok {
		t.Fatal("explicit minutes should surface in any stage")
	}
	if obs.Value != string(core.TimeTwelveMin) {
		t.Errorf("time = %q, want 12_min", obs.Value)
	}
}

func TestKeywords_BareNumberOnlyInTimeStage(t *testing.T) {
	if _, ok := findObservation(Keywords("maybe 20", core.StageProbingEmotion), core.FieldTime); ok {
		t.Error("bare number outside the time stage should not become a time observation")
	}

	obs, ok := findObservation(Keywords("maybe 20", core.StageProbingTime), core.FieldTime)
	if !ok {
		t.Fatal("bare number in time stage should answer the question")
	}
	if obs.Value != string(core.TimeTwentyMin) {
		t.Errorf("time = %q, want 20_min", obs.Value)
	}
}

// =============================================================================
// Meal Tests
// =============================================================================

func TestKeywords_Meal(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		stage     core.Stage
		want      core.MealStatus
		none      bool
	}{
		{"explicit full anywhere", "I just ate lunch", core.StageProbingEmotion, core.MealFull, false},
		{"explicit empty anywhere", "haven't eaten since morning", core.StageProbingSituation, core.MealEmpty, false},
		{"light snack maps to empty", "just a small snack earlier", core.StageProbingMeal, core.MealEmpty, false},
		{"bare yes in meal stage", "yes", core.StageProbingMeal, core.MealFull, false},
		{"bare no in meal stage", "nope", core.StageProbingMeal, core.MealEmpty, false},
		{"bare yes elsewhere is ignored", "yes", core.StageProbingLocation, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, ok := findObservation(Keywords(tt.utterance, tt.stage), core.FieldMeal)
			if tt.none {
				if ok {
					t.Errorf("unexpected meal observation: %+v", obs)
				}
				return
			}
			if !ok {
				t.Fatal("no meal observation")
			}
			if obs.Value != string(tt.want) {
				t.Errorf("meal = %q, want %q", obs.Value, tt.want)
			}
		})
	}
}

// =============================================================================
// Age Tests
// =============================================================================

func TestKeywords_Age(t *testing.T) {
	obs, ok := findObservation(Keywords("I'm 27 years old", core.StageProbingSituation), core.FieldAgeBand)
	if !ok {
		t.Fatal("explicit age should surface in any stage")
	}
	if obs.Value != string(core.Age26To35) {
		t.Errorf("age band = %q, want 26_35", obs.Value)
	}

	obs, ok = findObservation(Keywords("38", core.StageInitialGreeting), core.FieldAgeBand)
	if !ok {
		t.Fatal("bare number in greeting should be read as age")
	}
	if obs.Value != string(core.Age36To45) {
		t.Errorf("age band = %q, want 36_45", obs.Value)
	}

	if _, ok := findObservation(Keywords("70", core.StageInitialGreeting), core.FieldAgeBand); ok {
		t.Error("out-of-band age should yield nothing")
	}
}

// =============================================================================
// Grief Detection Tests
// =============================================================================

func TestDetectGrief(t *testing.T) {
	tests := []struct {
		utterance string
		want      bool
	}{
		{"my mother passed away last week", true},
		{"we're still mourning him", true},
		{"I lost my best friend in April", true},
		{"I'm stressed about work", false},
		{"I lost my keys again", true}, // documents the known false positive
	}

	for _, tt := range tests {
		if got := DetectGrief(tt.utterance); got != tt.want {
			t.Errorf("DetectGrief(%q) = %v, want %v", tt.utterance, got, tt.want)
		}
	}
}
