package assessment

import (
	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// stageField maps each stage to the field it owns. The greeting owns
// the age band, asked at most once; the terminal stage owns nothing.
var stageField = map[core.Stage]core.Field{
	core.StageInitialGreeting:  core.FieldAgeBand,
	core.StageProbingEmotion:   core.FieldEmotion,
	core.StageProbingSituation: core.FieldSituation,
	core.StageProbingLocation:  core.FieldLocation,
	core.StageProbingTime:      core.FieldTime,
	core.StageProbingMeal:      core.FieldMeal,
}

// FieldForStage returns the field a stage is responsible for, or ""
// for the terminal stage.
func FieldForStage(s core.Stage) core.Field {
	return stageField[s]
}

// nextStage returns the stage the record should occupy after the
// current turn. Movement is strictly forward: starting just past the
// current stage, every probing stage whose field is already known is
// skipped. When no probing stage remains, the assessment is done.
func nextStage(r *Record) (core.Stage, error) {
	idx := r.Stage.Index()
	if idx < 0 {
		return "", core.ErrInvalidStage
	}
	if r.Stage.Terminal() {
		return r.Stage, nil
	}

	for _, s := range core.StageOrder[idx+1:] {
		if s.Terminal() {
			return s, nil
		}
		if !r.FieldKnown(stageField[s]) {
			return s, nil
		}
	}
	return core.StageAssessmentComplete, nil
}

// shouldAdvance decides whether the record leaves its current stage
// after a turn. The greeting yields after a single exchange whether or
// not the age band was answered; age is asked at most once. A probing
// stage yields when its field is known, or when it has held the
// conversation for the configured cap of turns; in the latter case the
// field stays unknown and is never revisited.
func shouldAdvance(r *Record, maxTurnsInStage int) bool {
	if r.Stage.Terminal() {
		return false
	}
	if r.Stage == core.StageInitialGreeting {
		return true
	}

	field, ok := stageField[r.Stage]
	if !ok {
		return false
	}
	if r.FieldKnown(field) {
		return true
	}
	return r.TurnsInStage >= maxTurnsInStage
}

// advance moves the record to its next stage and resets the per-stage
// turn counter. Returns the stage left behind.
func advance(r *Record) (core.Stage, error) {
	from := r.Stage
	to, err := nextStage(r)
	if err != nil {
		return from, err
	}
	if to != from {
		r.Stage = to
		r.TurnsInStage = 0
	}
	return from, nil
}
