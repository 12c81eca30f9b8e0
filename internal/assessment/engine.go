package assessment

import (
	"context"
	"strings"

	"github.com/stillpoint-hq/stillpoint/internal/core"
	"github.com/stillpoint-hq/stillpoint/internal/logging"
)

// Extractor pulls structured observations out of one utterance. The
// current stage is a hint about which field the conversation is
// probing, not a restriction: volunteered information for any field
// must surface regardless of stage.
type Extractor interface {
	Extract(ctx context.Context, utterance string, stage core.Stage) ([]core.Observation, error)
}

// GriefDetector reports whether an utterance signals grief or loss.
type GriefDetector func(utterance string) bool

// EngineConfig configures the assessment engine
type EngineConfig struct {
	// MaxTurnsInStage caps how long one probing stage may hold the
	// conversation. On hitting the cap the stage yields with its
	// field left unknown.
	MaxTurnsInStage int
}

// DefaultEngineConfig returns sensible defaults
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxTurnsInStage: 5,
	}
}

// Engine drives the assessment conversation. It owns no I/O of its
// own: extraction is delegated, and each call processes exactly one
// user turn against one record.
type Engine struct {
	extractor Extractor
	grief     GriefDetector
	config    EngineConfig
	log       *logging.Logger
}

// NewEngine creates a new assessment engine
func NewEngine(extractor Extractor, grief GriefDetector, cfg EngineConfig) *Engine {
	if cfg.MaxTurnsInStage < 1 {
		cfg.MaxTurnsInStage = 5
	}
	return &Engine{
		extractor: extractor,
		grief:     grief,
		config:    cfg,
		log:       logging.WithField("component", "assessment"),
	}
}

// TurnResult describes what one processed turn did to the record.
type TurnResult struct {
	// Stage movement
	StageBefore core.Stage `json:"stage_before"`
	StageAfter  core.Stage `json:"stage_after"`

	// ForcedAdvance is set when the stage yielded at the turn cap
	// with its field still unknown.
	ForcedAdvance bool `json:"forced_advance"`

	// Fields that gained or improved a value this turn
	ChangedFields []core.Field `json:"changed_fields"`

	// Complete mirrors the record's completion gate
	Complete bool `json:"complete"`

	// Done is true once the stage machine has nothing left to probe
	Done bool `json:"done"`

	Tone core.Tone `json:"tone"`
}

// ProcessTurn runs one user utterance through the record. Extraction
// failure is not fatal: the turn simply yields no observations and the
// conversation carries on. Empty utterances still count against the
// stage cap so a silent user cannot stall a stage forever.
func (e *Engine) ProcessTurn(ctx context.Context, rec *Record, utterance string) (*TurnResult, error) {
	if rec.Stage.Index() < 0 {
		return nil, core.ErrInvalidStage
	}

	result := &TurnResult{
		StageBefore: rec.Stage,
		StageAfter:  rec.Stage,
		Tone:        rec.Tone,
	}

	if rec.Stage.Terminal() {
		result.Complete = rec.Complete()
		result.Done = true
		return result, nil
	}

	rec.TotalTurns++
	rec.TurnsInStage++

	utterance = strings.TrimSpace(utterance)
	if utterance != "" {
		observations, err := e.extractor.Extract(ctx, utterance, rec.Stage)
		if err != nil {
			e.log.WithField("session", rec.SessionID).Warn("extraction failed, continuing without: %v", err)
		} else {
			result.ChangedFields = rec.ApplyAll(observations)
		}

		// Somber tone is sticky for the rest of the session.
		if e.grief != nil && rec.Tone != core.ToneSomber && e.grief(utterance) {
			rec.Tone = core.ToneSomber
			e.log.WithField("session", rec.SessionID).Info("grief signal detected, shifting tone")
		}
	}

	if shouldAdvance(rec, e.config.MaxTurnsInStage) {
		field := stageField[rec.Stage]
		forced := field != "" && !rec.FieldKnown(field) &&
			rec.TurnsInStage >= e.config.MaxTurnsInStage

		from, err := advance(rec)
		if err != nil {
			return nil, err
		}
		if rec.Stage != from {
			result.ForcedAdvance = forced
			if forced {
				e.log.WithFields(map[string]interface{}{
					"session": rec.SessionID,
					"stage":   from,
					"field":   field,
				}).Info("stage cap reached, advancing with field unknown")
			}
		}
	}

	result.StageAfter = rec.Stage
	result.Complete = rec.Complete()
	result.Done = rec.Stage.Terminal()
	result.Tone = rec.Tone

	return result, nil
}
