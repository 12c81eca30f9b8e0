package wisdom

import (
	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// Built-in teachings served when no vector store is reachable. Short
// passages in the knowledge-sheet register, tagged by emotion.
var fallbackTable = map[core.Emotion][]Teaching{
	core.EmotionFear: {
		{
			ID:       "fb-fear-1",
			Text:     "Fear is simply love standing upside down. When you feel fear, it means you love something deeply and are afraid of losing it. Recognize the love underneath, and the fear loses its grip.",
			Source:   "Knowledge Sheet: On Fear and Love",
			Emotions: []core.Emotion{core.EmotionFear},
		},
		{
			ID:       "fb-fear-2",
			Text:     "See that this moment is inevitable. Whatever is happening now could not be otherwise. Total acceptance of the present moment dissolves anxiety about the next one.",
			Source:   "Knowledge Sheet: The Inevitable Present",
			Emotions: []core.Emotion{core.EmotionFear, core.EmotionOverwhelmed},
		},
	},
	core.EmotionAnger: {
		{
			ID:       "fb-anger-1",
			Text:     "Anger is a sign that you have lost awareness of the moment. It comes when you want perfection now. Give time its time; perfection in action ripens, it is not demanded.",
			Source:   "Knowledge Sheet: On Anger",
			Emotions: []core.Emotion{core.EmotionAnger},
		},
		{
			ID:       "fb-anger-2",
			Text:     "When you are angry at someone's mistake, you are making a bigger one: losing your own peace over theirs. Correct with compassion, not with fire.",
			Source:   "Knowledge Sheet: Correcting with Compassion",
			Emotions: []core.Emotion{core.EmotionAnger, core.EmotionHurt},
		},
	},
	core.EmotionOverwhelmed: {
		{
			ID:       "fb-overwhelmed-1",
			Text:     "When everything feels too much, come back to the breath. The breath is the link between the body and the mind. One conscious breath is one moment the mind is not running.",
			Source:   "Knowledge Sheet: The Breath as Anchor",
			Emotions: []core.Emotion{core.EmotionOverwhelmed},
		},
		{
			ID:         "fb-overwhelmed-2",
			Text:       "Do not carry all your responsibilities at once. You can only place one foot at a time, even on the longest walk. Attend to what is in front of you and let the rest wait their turn.",
			Source:     "Knowledge Sheet: One Step",
			Emotions:   []core.Emotion{core.EmotionOverwhelmed},
			Situations: []core.Situation{core.SituationBurnout, core.SituationFinanceCareer},
		},
	},
	core.EmotionDepression: {
		{
			ID:       "fb-depression-1",
			Text:     "Low moods visit everyone; they are clouds, not the sky. You are the sky. Energy follows attention, so attend to what is alive: the breath, the body, one small act of service.",
			Source:   "Knowledge Sheet: Clouds and Sky",
			Emotions: []core.Emotion{core.EmotionDepression},
		},
	},
	core.EmotionConfusion: {
		{
			ID:         "fb-confusion-1",
			Text:       "Confusion means old understanding has broken and new understanding has not yet come. It is a good sign. Rest in not-knowing for a while; clarity comes to a quiet mind, not a hurried one.",
			Source:     "Knowledge Sheet: The Gift of Confusion",
			Emotions:   []core.Emotion{core.EmotionConfusion},
			Situations: []core.Situation{core.SituationDecisionMaking},
		},
	},
	core.EmotionHurt: {
		{
			ID:       "fb-hurt-1",
			Text:     "When someone hurts you, they are sharing their own pain the only way they know. This does not excuse them, but it can free you. Your forgiveness is for your own heart's sake.",
			Source:   "Knowledge Sheet: On Hurt and Forgiveness",
			Emotions: []core.Emotion{core.EmotionHurt},
		},
	},
	core.EmotionLoneliness: {
		{
			ID:       "fb-loneliness-1",
			Text:     "Loneliness is the longing of the part for the whole. Even alone in a room, you sit inside the same life that moves every being. Connection is not found; it is remembered.",
			Source:   "Knowledge Sheet: Belonging",
			Emotions: []core.Emotion{core.EmotionLoneliness},
		},
	},
	core.EmotionGuilt: {
		{
			ID:       "fb-guilt-1",
			Text:     "Guilt keeps you tied to a past self that no longer exists. The one who sees the mistake is already wiser than the one who made it. Learn the lesson, and release the rope.",
			Source:   "Knowledge Sheet: Releasing Guilt",
			Emotions: []core.Emotion{core.EmotionGuilt},
		},
	},
	core.EmotionInadequacy: {
		{
			ID:       "fb-inadequacy-1",
			Text:     "You compare your inside to everyone else's outside and find yourself lacking. But a flower never competes with the flower next to it; it simply blooms.",
			Source:   "Knowledge Sheet: On Comparison",
			Emotions: []core.Emotion{core.EmotionInadequacy},
		},
	},
	core.EmotionLove: {
		{
			ID:       "fb-love-1",
			Text:     "Love that asks nothing is the most natural state of being. When love is mixed with possession it becomes pain; when it is free, it is the same as peace.",
			Source:   "Knowledge Sheet: Love Without Demand",
			Emotions: []core.Emotion{core.EmotionLove},
		},
	},
}

// Universal teachings served when the emotion is unknown.
var universalTeachings = []Teaching{
	{
		ID:     "fb-universal-1",
		Text:   "This too shall pass. Every emotion, pleasant or painful, is a wave; you are the ocean. Watch the wave rise and fall without becoming it.",
		Source: "Knowledge Sheet: Waves and Ocean",
	},
	{
		ID:     "fb-universal-2",
		Text:   "The present moment is the only doorway. The past is a memory, the future an imagination. Peace is available exactly here, exactly now.",
		Source: "Knowledge Sheet: The Doorway",
	},
}

// FallbackTeachings returns the built-in passages for an emotion, or
// the universal set when the emotion is unknown or uncovered.
func FallbackTeachings(emotion core.Emotion) []Teaching {
	if teachings, ok := fallbackTable[emotion]; ok && len(teachings) > 0 {
		return teachings
	}
	return universalTeachings
}
