package assessment

import (
	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// Descriptor tells the response layer what the next companion message
// must accomplish. It carries no prose of its own beyond a canned
// fallback; the response layer may rephrase but not change intent.
type Descriptor struct {
	Stage core.Stage `json:"stage"`

	// AskField is the field the next question should probe, empty
	// once the assessment is done.
	AskField core.Field `json:"ask_field,omitempty"`

	// Acknowledge lists fields learned this turn so the reply can
	// reflect them back before asking anything new.
	Acknowledge []core.Field `json:"acknowledge,omitempty"`

	Tone     core.Tone `json:"tone"`
	Style    Style     `json:"style"`
	Complete bool      `json:"complete"`
	Done     bool      `json:"done"`

	// Fallback is a safe canned line used verbatim when no language
	// model is available.
	Fallback string `json:"fallback"`
}

// Style is the register the reply should use. The feeling probes
// mirror the person's words back; the practical probes stay short
// and factual.
type Style string

const (
	StyleReflective Style = "reflective"
	StyleDirect     Style = "direct"
)

var stageStyle = map[core.Stage]Style{
	core.StageInitialGreeting:    StyleReflective,
	core.StageProbingEmotion:     StyleReflective,
	core.StageProbingSituation:   StyleReflective,
	core.StageProbingLocation:    StyleDirect,
	core.StageProbingTime:        StyleDirect,
	core.StageProbingMeal:        StyleDirect,
	core.StageAssessmentComplete: StyleReflective,
}

// Canned questions per probing stage. Somber variants soften the ask
// after a grief signal.
var stageQuestions = map[core.Stage]map[core.Tone]string{
	core.StageProbingEmotion: {
		core.ToneWarm:   "How are you feeling right now, in a word or two?",
		core.ToneSomber: "When you're ready, could you share what you're feeling right now?",
	},
	core.StageProbingSituation: {
		core.ToneWarm:   "What's been going on in your life that brings this up?",
		core.ToneSomber: "If it helps to talk about it, what's been happening?",
	},
	core.StageProbingLocation: {
		core.ToneWarm:   "Where are you right now? At home, outside, at work?",
		core.ToneSomber: "May I ask where you are at the moment?",
	},
	core.StageProbingTime: {
		core.ToneWarm:   "How much time do you have for yourself right now? A few minutes, or longer?",
		core.ToneSomber: "Do you have a little time for yourself right now?",
	},
	core.StageProbingMeal: {
		core.ToneWarm:   "One practical thing: have you eaten recently?",
		core.ToneSomber: "One small practical question: have you eaten recently?",
	},
}

var greetingAskLines = map[core.Tone]string{
	core.ToneWarm:   "Hello, I'm glad you're here. Before we begin, may I ask your age range? 18-25, 26-35, or 36-45?",
	core.ToneSomber: "I'm here with you. If you're comfortable sharing, may I ask your age range?",
}

var greetingLines = map[core.Tone]string{
	core.ToneWarm:   "Hello, I'm glad you're here. What's on your mind today?",
	core.ToneSomber: "I'm here with you. Take whatever time you need.",
}

var completionLines = map[core.Tone]string{
	core.ToneWarm:   "Thank you for sharing all of that with me. Let me put together something for you.",
	core.ToneSomber: "Thank you for trusting me with this. Let me gently suggest something that may help.",
}

// Select builds the descriptor for the companion's next message from
// the record's state after a processed turn.
func Select(rec *Record, result *TurnResult) *Descriptor {
	d := &Descriptor{
		Stage:    rec.Stage,
		Tone:     rec.Tone,
		Style:    stageStyle[rec.Stage],
		Complete: rec.Complete(),
		Done:     rec.Stage.Terminal(),
	}
	if result != nil {
		d.Acknowledge = result.ChangedFields
	}

	switch {
	case rec.Stage.Terminal():
		d.Fallback = completionLines[toneKey(rec.Tone)]
	case rec.Stage == core.StageInitialGreeting:
		// Age is asked in the greeting, once; a record that already
		// knows it gets a plain welcome with no question.
		if rec.FieldKnown(core.FieldAgeBand) {
			d.Fallback = greetingLines[toneKey(rec.Tone)]
		} else {
			d.AskField = core.FieldAgeBand
			d.Fallback = greetingAskLines[toneKey(rec.Tone)]
		}
	default:
		d.AskField = stageField[rec.Stage]
		d.Fallback = stageQuestions[rec.Stage][toneKey(rec.Tone)]
	}

	return d
}

// toneKey collapses tones without dedicated copy onto warm.
func toneKey(t core.Tone) core.Tone {
	if t == core.ToneSomber {
		return core.ToneSomber
	}
	return core.ToneWarm
}
