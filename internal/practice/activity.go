package practice

import (
	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// Activity is a light closing suggestion: a small game, challenge, or
// reflection sized to the person's age band and tone.
type Activity struct {
	Content string
	Type    string // game, challenge, reflection, reminder
	Tone    core.Tone
}

// Somber sessions never get jokes, only a gentle reflection.
var somberActivity = Activity{
	Content: "Take a moment today to write down one thing you're grateful for, even in this difficult time. Small gratitudes can be anchors of light.",
	Type:    "reflection",
	Tone:    core.ToneSomber,
}

var activitiesByEmotion = map[core.Emotion]map[core.AgeBand]Activity{
	core.EmotionFear: {
		core.Age18To25: {
			Content: "Every time a worry pops up today, counter it with 'Yeah, but what if everything works out perfectly?' Keep score of which side wins.",
			Type:    "challenge",
		},
		core.Age26To35: {
			Content: "Write your biggest worry on a piece of paper. Fold it into a paper airplane and launch it. It's oddly therapeutic.",
			Type:    "game",
		},
		core.Age36To45: {
			Content: "You've faced fears before and you're still here. Today, smile at one worry and tell it: 'Hello old friend, you don't scare me anymore.'",
			Type:    "reminder",
		},
	},
	core.EmotionAnger: {
		core.Age18To25: {
			Content: "Imagine your anger as a song. What genre would it be? Now imagine it as elevator music. Notice how the anger doesn't know what to do with itself.",
			Type:    "game",
		},
		core.Age26To35: {
			Content: "Write an angry letter to whatever upset you. Be completely honest. Then tear it up dramatically. You deserve a small celebration for processing that.",
			Type:    "game",
		},
		core.Age36To45: {
			Content: "When irritation rises today, pause and ask: 'Will this matter in five years?' If yes, address it wisely. If no, maybe it's time to chuckle and let it go.",
			Type:    "reflection",
		},
	},
	core.EmotionOverwhelmed: {
		core.Age18To25: {
			Content: "Try the Swiss-cheese method: don't finish anything, just poke holes. Five minutes here, ten minutes there. Before you know it, tasks are done.",
			Type:    "challenge",
		},
		core.Age26To35: {
			Content: "Give yourself permission to say the magic word today: 'No.' Practice in the mirror if needed. Feels good, doesn't it?",
			Type:    "challenge",
		},
		core.Age36To45: {
			Content: "There's no medal for doing everything, but there is deep peace in doing what matters. Today, do less and enjoy more.",
			Type:    "reminder",
		},
	},
}

var defaultActivities = []Activity{
	{
		Content: "Smile at yourself in the mirror for ten seconds. Yes, really. No judgment, just a genuine smile to yourself.",
		Type:    "challenge",
	},
	{
		Content: "Find one thing today that makes you laugh. A meme, a video, a memory. Laughter is medicine, and you choose the dose.",
		Type:    "challenge",
	},
	{
		Content: "Do one small thing today that your future self will thank you for. A glass of water, a five-minute walk. You've got this.",
		Type:    "reminder",
	},
}

// ActivityFor picks the closing activity for the profile. The somber
// variant overrides everything else.
func ActivityFor(emotion core.Emotion, age core.AgeBand, tone core.Tone) Activity {
	if tone == core.ToneSomber {
		return somberActivity
	}

	if byAge, ok := activitiesByEmotion[emotion]; ok {
		band := age
		if !band.IsKnown() {
			band = core.Age26To35
		}
		if a, ok := byAge[band]; ok {
			a.Tone = tone
			return a
		}
	}

	a := defaultActivities[defaultIndex(emotion, age)]
	a.Tone = tone
	return a
}

// defaultIndex spreads default picks deterministically across profiles.
func defaultIndex(emotion core.Emotion, age core.AgeBand) int {
	sum := 0
	for _, c := range string(emotion) + string(age) {
		sum += int(c)
	}
	return sum % len(defaultActivities)
}
