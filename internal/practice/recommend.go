package practice

import (
	"github.com/stillpoint-hq/stillpoint/internal/assessment"
	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// Recommendation is the practice portion of a session's guidance.
// Asana may be nil when the time budget only fits a breathing practice.
type Recommendation struct {
	Pranayama    *Practice
	Asana        *Practice
	Activity     Activity
	TotalMinutes int
}

// Recommend selects practices for the assessed state. Unknown time is
// treated as the shortest slot and unknown meal as a full stomach, the
// safer reading in both cases.
func Recommend(rec *assessment.Record) Recommendation {
	budget := rec.Time.Minutes()
	if budget == 0 {
		budget = core.TimeSevenMin.Minutes()
	}

	pranayama := pick(pranayamas, rec, budget)

	remaining := budget
	if pranayama != nil {
		remaining = budget - pranayama.DurationMin
	}
	asana := pick(asanas, rec, remaining)

	out := Recommendation{
		Pranayama: pranayama,
		Asana:     asana,
		Activity:  ActivityFor(rec.Emotion, rec.AgeBand, rec.Tone),
	}
	if pranayama != nil {
		out.TotalMinutes += pranayama.DurationMin
	}
	if asana != nil {
		out.TotalMinutes += asana.DurationMin
	}
	return out
}

// pick returns the best catalog entry that fits the location, meal
// state, and minutes available, or nil when nothing fits.
func pick(catalog []Practice, rec *assessment.Record, minutes int) *Practice {
	var best *Practice
	bestScore := -1

	for i := range catalog {
		p := &catalog[i]
		if p.DurationMin > minutes {
			continue
		}
		if !p.SuitableAt(rec.Location) {
			continue
		}
		if p.EmptyStomachOnly && rec.Meal != core.MealEmpty {
			continue
		}

		score := p.DurationMin
		switch {
		case rec.Emotion.IsKnown() && p.Addresses(rec.Emotion):
			score += 100
		case len(p.Emotions) == 0:
			// universal entries beat practices aimed at a different emotion
			score += 50
		}

		if score > bestScore {
			best = p
			bestScore = score
		}
	}

	return best
}
