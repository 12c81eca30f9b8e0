// Package core defines the fundamental types for Stillpoint.
// These types are the DNA of the entire system.
package core

import (
	"time"
)

// -----------------------------------------------------------------------------
// SESSION - One conversation with one person
// -----------------------------------------------------------------------------

// SessionID is a type-safe identifier for conversation sessions
type SessionID string

// Session represents one conversation with one person. The assessment
// engine owns exactly one Session at a time; sessions are independent.
type Session struct {
	ID        SessionID `json:"id"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Set once the completion gate opens and a solution is delivered
	SolutionDelivered bool `json:"solution_delivered"`
}

// Role identifies who produced a message
type Role string

const (
	RoleUser      Role = "user"
	RoleCompanion Role = "companion"
)

// Message is one turn of conversation, kept for audit and for
// extraction context.
type Message struct {
	ID        string    `json:"id"`
	SessionID SessionID `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// -----------------------------------------------------------------------------
// FIELD - The structured slots the engine fills
// -----------------------------------------------------------------------------

// Field names one structured slot of the assessment record.
type Field string

const (
	FieldAgeBand   Field = "age_band"
	FieldEmotion   Field = "primary_emotion"
	FieldSituation Field = "life_situation"
	FieldLocation  Field = "location"
	FieldTime      Field = "time_available"
	FieldMeal      Field = "meal_status"
)

// -----------------------------------------------------------------------------
// EMOTION - The fixed 10-term emotion vocabulary
// -----------------------------------------------------------------------------

// Emotion is the person's predominant emotional state.
type Emotion string

const (
	EmotionLove        Emotion = "love"
	EmotionFear        Emotion = "fear"
	EmotionAnger       Emotion = "anger"
	EmotionDepression  Emotion = "depression"
	EmotionOverwhelmed Emotion = "overwhelmed"
	EmotionConfusion   Emotion = "confusion"
	EmotionHurt        Emotion = "hurt"
	EmotionLoneliness  Emotion = "loneliness"
	EmotionGuilt       Emotion = "guilt"
	EmotionInadequacy  Emotion = "inadequacy"
	EmotionUnknown     Emotion = "unknown"
)

// Emotions lists every concrete emotion (excludes unknown).
var Emotions = []Emotion{
	EmotionLove, EmotionFear, EmotionAnger, EmotionDepression,
	EmotionOverwhelmed, EmotionConfusion, EmotionHurt,
	EmotionLoneliness, EmotionGuilt, EmotionInadequacy,
}

// IsKnown reports whether the emotion holds a concrete value.
func (e Emotion) IsKnown() bool { return e != EmotionUnknown && e != "" }

// ParseEmotion maps a string to the closed vocabulary; anything outside
// it becomes unknown rather than an error.
func ParseEmotion(s string) Emotion {
	for _, e := range Emotions {
		if string(e) == s {
			return e
		}
	}
	return EmotionUnknown
}

// -----------------------------------------------------------------------------
// SITUATION - Life situation categories causing the imbalance
// -----------------------------------------------------------------------------

// Situation is the life circumstance behind the emotion.
type Situation string

const (
	SituationFinanceCareer    Situation = "finance_career"
	SituationDecisionMaking   Situation = "decision_making"
	SituationRelationshipLove Situation = "relationship_love"
	SituationBurnout          Situation = "burnout"
	SituationHealth           Situation = "health"
	SituationMindCreated      Situation = "mind_created"
	SituationWorldProblems    Situation = "world_problems"
	SituationSpiritualGrowth  Situation = "spiritual_growth"
	SituationUnknown          Situation = "unknown"
)

// Situations lists every concrete situation (excludes unknown).
var Situations = []Situation{
	SituationFinanceCareer, SituationDecisionMaking, SituationRelationshipLove,
	SituationBurnout, SituationHealth, SituationMindCreated,
	SituationWorldProblems, SituationSpiritualGrowth,
}

// IsKnown reports whether the situation holds a concrete value.
func (s Situation) IsKnown() bool { return s != SituationUnknown && s != "" }

// ParseSituation maps a string to the closed vocabulary.
func ParseSituation(v string) Situation {
	for _, s := range Situations {
		if string(s) == v {
			return s
		}
	}
	return SituationUnknown
}

// -----------------------------------------------------------------------------
// LOCATION - Where the person physically is
// -----------------------------------------------------------------------------

// Location is the person's physical context, used to adapt practices.
type Location string

const (
	LocationHomeIndoor  Location = "home_indoor"
	LocationOutdoor     Location = "outdoor"
	LocationOffice      Location = "office"
	LocationPublicPlace Location = "public_place"
	LocationVehicle     Location = "vehicle"
	LocationUnknown     Location = "unknown"
)

// Locations lists every concrete location (excludes unknown).
var Locations = []Location{
	LocationHomeIndoor, LocationOutdoor, LocationOffice,
	LocationPublicPlace, LocationVehicle,
}

// IsKnown reports whether the location holds a concrete value.
func (l Location) IsKnown() bool { return l != LocationUnknown && l != "" }

// ParseLocation maps a string to the closed vocabulary.
func ParseLocation(v string) Location {
	for _, l := range Locations {
		if string(l) == v {
			return l
		}
	}
	return LocationUnknown
}

// -----------------------------------------------------------------------------
// TIME AVAILABLE - The three practice slots
// -----------------------------------------------------------------------------

// TimeAvailable is how long the person has for a practice break.
type TimeAvailable string

const (
	TimeSevenMin  TimeAvailable = "7_min"
	TimeTwelveMin TimeAvailable = "12_min"
	TimeTwentyMin TimeAvailable = "20_min"
	TimeUnknown   TimeAvailable = "unknown"
)

// IsKnown reports whether the time slot holds a concrete value.
func (t TimeAvailable) IsKnown() bool { return t != TimeUnknown && t != "" }

// Minutes returns the slot length, or 0 when unknown.
func (t TimeAvailable) Minutes() int {
	switch t {
	case TimeSevenMin:
		return 7
	case TimeTwelveMin:
		return 12
	case TimeTwentyMin:
		return 20
	default:
		return 0
	}
}

// ParseTimeAvailable maps a string to the closed vocabulary.
func ParseTimeAvailable(v string) TimeAvailable {
	switch v {
	case string(TimeSevenMin):
		return TimeSevenMin
	case string(TimeTwelveMin):
		return TimeTwelveMin
	case string(TimeTwentyMin):
		return TimeTwentyMin
	default:
		return TimeUnknown
	}
}

// -----------------------------------------------------------------------------
// MEAL STATUS - Practice safety context
// -----------------------------------------------------------------------------

// MealStatus matters for breathing-practice safety: some pranayama
// should not be done on a full stomach.
type MealStatus string

const (
	MealFull    MealStatus = "full_stomach"
	MealEmpty   MealStatus = "empty_stomach"
	MealUnknown MealStatus = "unknown"
)

// IsKnown reports whether the meal status holds a concrete value.
func (m MealStatus) IsKnown() bool { return m != MealUnknown && m != "" }

// ParseMealStatus maps a string to the closed vocabulary.
func ParseMealStatus(v string) MealStatus {
	switch v {
	case string(MealFull):
		return MealFull
	case string(MealEmpty):
		return MealEmpty
	default:
		return MealUnknown
	}
}

// -----------------------------------------------------------------------------
// AGE BAND - Asked at most once per session
// -----------------------------------------------------------------------------

// AgeBand is the person's age range.
type AgeBand string

const (
	Age18To25  AgeBand = "18_25"
	Age26To35  AgeBand = "26_35"
	Age36To45  AgeBand = "36_45"
	AgeUnknown AgeBand = "unknown"
)

// IsKnown reports whether the age band holds a concrete value.
func (a AgeBand) IsKnown() bool { return a != AgeUnknown && a != "" }

// AgeBandForYears maps an exact age in years to its band.
func AgeBandForYears(years int) AgeBand {
	switch {
	case years >= 18 && years <= 25:
		return Age18To25
	case years >= 26 && years <= 35:
		return Age26To35
	case years >= 36 && years <= 45:
		return Age36To45
	default:
		return AgeUnknown
	}
}

// ParseAgeBand maps a string to the closed vocabulary.
func ParseAgeBand(v string) AgeBand {
	switch v {
	case string(Age18To25):
		return Age18To25
	case string(Age26To35):
		return Age26To35
	case string(Age36To45):
		return Age36To45
	default:
		return AgeUnknown
	}
}

// -----------------------------------------------------------------------------
// TONE - Conversational style, derived rather than asked
// -----------------------------------------------------------------------------

// Tone is the conversational register. Warm is the default; somber is
// set on grief/loss signals and never reverts within a session.
type Tone string

const (
	ToneWarm    Tone = "warm"
	ToneSomber  Tone = "somber"
	TonePlayful Tone = "playful"
)

// -----------------------------------------------------------------------------
// STAGE - The conversation state machine
// -----------------------------------------------------------------------------

// Stage is a phase of the assessment conversation. Stages form a fixed
// total order; a session only ever moves forward through it.
type Stage string

const (
	StageInitialGreeting    Stage = "initial_greeting"
	StageProbingEmotion     Stage = "probing_emotion"
	StageProbingSituation   Stage = "probing_situation"
	StageProbingLocation    Stage = "probing_location"
	StageProbingTime        Stage = "probing_time"
	StageProbingMeal        Stage = "probing_meal"
	StageAssessmentComplete Stage = "assessment_complete"
)

// StageOrder is the fixed progression of the conversation.
var StageOrder = []Stage{
	StageInitialGreeting,
	StageProbingEmotion,
	StageProbingSituation,
	StageProbingLocation,
	StageProbingTime,
	StageProbingMeal,
	StageAssessmentComplete,
}

// Index returns the stage's position in the fixed order, or -1 for an
// unrecognized stage.
func (s Stage) Index() int {
	for i, st := range StageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Terminal reports whether the stage ends field probing.
func (s Stage) Terminal() bool { return s == StageAssessmentComplete }
