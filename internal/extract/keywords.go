// Package extract turns free-form utterances into structured field
// observations. A fast keyword pass runs on every turn; a language
// model pass layers on top when one is available.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// Keyword confidence sits below typical model confidence so a firm
// model reading can refine a keyword guess, but never the reverse
// at equal certainty.
const (
	keywordConfidence = 0.6
	numericConfidence = 0.9
)

var emotionKeywords = map[core.Emotion][]string{
	core.EmotionAnger:       {"angry", "furious", "mad at", "rage", "irritated", "resent"},
	core.EmotionFear:        {"afraid", "scared", "anxious", "worried", "panic", "terrified", "frightened"},
	core.EmotionDepression:  {"depressed", "hopeless", "miserable", "feel so down", "feeling low", "unhappy"},
	core.EmotionOverwhelmed: {"overwhelmed", "too much", "can't cope", "drowning", "so much pressure"},
	core.EmotionConfusion:   {"confused", "don't understand", "unclear", "bewildered", "puzzled", "lost"},
	core.EmotionHurt:        {"hurt", "betrayed", "heartbroken", "wounded"},
	core.EmotionLoneliness:  {"lonely", "alone", "isolated", "no one to talk"},
	core.EmotionGuilt:       {"guilty", "my fault", "regret", "ashamed"},
	core.EmotionInadequacy:  {"not good enough", "worthless", "failure", "inadequate", "can't do anything right"},
	core.EmotionLove:        {"grateful", "blessed", "in love", "full of love", "joyful"},
}

var situationKeywords = map[core.Situation][]string{
	core.SituationFinanceCareer:    {"job", "work", "career", "boss", "manager", "salary", "money", "debt", "unemployed", "fired", "laid off"},
	core.SituationDecisionMaking:   {"decide", "decision", "choice", "crossroads", "which way", "torn between"},
	core.SituationRelationshipLove: {"relationship", "partner", "marriage", "wife", "husband", "girlfriend", "boyfriend", "breakup", "divorce"},
	core.SituationBurnout:          {"burnout", "burned out", "burnt out", "exhausted", "no energy", "running on empty"},
	core.SituationHealth:           {"health", "sick", "illness", "diagnosis", "chronic pain", "hospital"},
	core.SituationMindCreated:      {"overthinking", "mind racing", "can't stop thinking", "thoughts spiraling", "in my head"},
	core.SituationWorldProblems:    {"the news", "the world", "war", "climate", "politics", "state of the world"},
	core.SituationSpiritualGrowth:  {"meditation", "spiritual", "purpose", "meaning of life", "enlightenment", "inner peace"},
}

// Location phrases are deliberately specific; a bare "out" or "in"
// would misfire constantly.
var locationKeywords = []struct {
	location core.Location
	phrases  []string
}{
	{core.LocationHomeIndoor, []string{"at home", "my house", "my apartment", "my flat", "on my couch", "in my room", "in bed", "home right now"}},
	{core.LocationOffice, []string{"at work", "at the office", "in the office", "at my desk", "my cubicle", "at my workplace"}},
	{core.LocationOutdoor, []string{"outside", "in the park", "at the park", "in nature", "in the garden", "at the beach", "outdoors", "walking out"}},
	{core.LocationPublicPlace, []string{"cafe", "coffee shop", "restaurant", "the mall", "the library", "at the gym", "shopping center"}},
	{core.LocationVehicle, []string{"in my car", "in the car", "driving", "on the bus", "on the train", "commuting", "in transit"}},
}

var mealFullKeywords = []string{"just ate", "just eaten", "had lunch", "had dinner", "had breakfast", "had a meal", "i'm full", "full stomach", "finished eating"}

var mealEmptyKeywords = []string{"haven't eaten", "havent eaten", "didn't eat", "didnt eat", "empty stomach", "hungry", "starving", "no food", "nothing to eat"}

// Light snacks map to empty: the safety rule is about breathing
// practices on a genuinely full stomach.
var mealLightKeywords = []string{"small snack", "a bit", "little bit", "just a little", "barely ate", "light meal"}

var griefKeywords = []string{
	"passed away", "died", "death of", "funeral", "lost my",
	"grief", "grieving", "mourning", "bereavement", "no longer with us",
}

var (
	minutesRe  = regexp.MustCompile(`\b(\d{1,3})\s*(?:min|mins|minute|minutes)\b`)
	bareNumRe  = regexp.MustCompile(`\b(\d{1,3})\b`)
	yearsOldRe = regexp.MustCompile(`\b(\d{1,2})\s*(?:years old|yrs old|yo)\b`)
)

// DetectGrief reports whether an utterance carries a grief or loss
// signal. Drives the sticky somber tone.
func DetectGrief(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, kw := range griefKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ClosestTimeSlot maps any number of minutes onto the nearest practice
// slot (7, 12, or 20 minutes).
func ClosestTimeSlot(minutes int) core.TimeAvailable {
	slots := []struct {
		minutes int
		slot    core.TimeAvailable
	}{
		{7, core.TimeSevenMin},
		{12, core.TimeTwelveMin},
		{20, core.TimeTwentyMin},
	}

	best := slots[0]
	bestDist := abs(minutes - best.minutes)
	for _, s := range slots[1:] {
		if d := abs(minutes - s.minutes); d < bestDist {
			best = s
			bestDist = d
		}
	}
	return best.slot
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Keywords runs the keyword pass over one utterance. Emotion,
// situation, location, and explicit meal or time phrases surface
// regardless of stage; ambiguous answers (a bare number, a bare
// "yes") only count in the stage that asked for them.
func Keywords(utterance string, stage core.Stage) []core.Observation {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	if lower == "" {
		return nil
	}

	var observations []core.Observation

	for _, emotion := range core.Emotions {
		if containsAny(lower, emotionKeywords[emotion]) {
			observations = append(observations, core.Observation{
				Field: core.FieldEmotion, Value: string(emotion), Confidence: keywordConfidence,
			})
			break
		}
	}

	for _, situation := range core.Situations {
		if containsAny(lower, situationKeywords[situation]) {
			observations = append(observations, core.Observation{
				Field: core.FieldSituation, Value: string(situation), Confidence: keywordConfidence,
			})
			break
		}
	}

	for _, entry := range locationKeywords {
		if containsAny(lower, entry.phrases) {
			observations = append(observations, core.Observation{
				Field: core.FieldLocation, Value: string(entry.location), Confidence: keywordConfidence,
			})
			break
		}
	}

	if obs, ok := timeObservation(lower, stage); ok {
		observations = append(observations, obs)
	}
	if obs, ok := mealObservation(lower, stage); ok {
		observations = append(observations, obs)
	}
	if obs, ok := ageObservation(lower, stage); ok {
		observations = append(observations, obs)
	}

	return observations
}

func timeObservation(lower string, stage core.Stage) (core.Observation, bool) {
	// "15 minutes" is unambiguous anywhere.
	if m := minutesRe.FindStringSubmatch(lower); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		return core.Observation{
			Field: core.FieldTime, Value: string(ClosestTimeSlot(minutes)), Confidence: numericConfidence,
		}, true
	}

	// A bare number only answers the time question in its own stage.
	if stage == core.StageProbingTime {
		if m := bareNumRe.FindStringSubmatch(lower); m != nil {
			minutes, _ := strconv.Atoi(m[1])
			if minutes > 0 && minutes <= 180 {
				return core.Observation{
					Field: core.FieldTime, Value: string(ClosestTimeSlot(minutes)), Confidence: 0.75,
				}, true
			}
		}
	}

	return core.Observation{}, false
}

func mealObservation(lower string, stage core.Stage) (core.Observation, bool) {
	if containsAny(lower, mealFullKeywords) {
		return core.Observation{Field: core.FieldMeal, Value: string(core.MealFull), Confidence: 0.7}, true
	}
	if containsAny(lower, mealEmptyKeywords) {
		return core.Observation{Field: core.FieldMeal, Value: string(core.MealEmpty), Confidence: 0.7}, true
	}
	if containsAny(lower, mealLightKeywords) {
		return core.Observation{Field: core.FieldMeal, Value: string(core.MealEmpty), Confidence: 0.65}, true
	}

	// A bare yes/no only answers the meal question in its own stage.
	if stage == core.StageProbingMeal {
		switch {
		case strings.HasPrefix(lower, "yes"), strings.HasPrefix(lower, "yeah"), strings.HasPrefix(lower, "yep"):
			return core.Observation{Field: core.FieldMeal, Value: string(core.MealFull), Confidence: 0.7}, true
		case strings.HasPrefix(lower, "no"), strings.HasPrefix(lower, "nah"), strings.HasPrefix(lower, "nope"):
			return core.Observation{Field: core.FieldMeal, Value: string(core.MealEmpty), Confidence: 0.7}, true
		}
	}

	return core.Observation{}, false
}

func ageObservation(lower string, stage core.Stage) (core.Observation, bool) {
	if m := yearsOldRe.FindStringSubmatch(lower); m != nil {
		years, _ := strconv.Atoi(m[1])
		if band := core.AgeBandForYears(years); band.IsKnown() {
			return core.Observation{Field: core.FieldAgeBand, Value: string(band), Confidence: numericConfidence}, true
		}
	}

	// During the greeting a bare number is usually the age answer.
	if stage == core.StageInitialGreeting {
		if m := bareNumRe.FindStringSubmatch(lower); m != nil {
			years, _ := strconv.Atoi(m[1])
			if band := core.AgeBandForYears(years); band.IsKnown() {
				return core.Observation{Field: core.FieldAgeBand, Value: string(band), Confidence: 0.75}, true
			}
		}
	}

	return core.Observation{}, false
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
