// Package orchestrator wires the assessment pipeline together: turn
// processing, response generation, and the completion-gated handoff to
// wisdom retrieval and practice recommendation.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stillpoint-hq/stillpoint/internal/assessment"
	"github.com/stillpoint-hq/stillpoint/internal/audit"
	"github.com/stillpoint-hq/stillpoint/internal/calendar"
	"github.com/stillpoint-hq/stillpoint/internal/core"
	"github.com/stillpoint-hq/stillpoint/internal/logging"
	"github.com/stillpoint-hq/stillpoint/internal/practice"
	"github.com/stillpoint-hq/stillpoint/internal/respond"
	"github.com/stillpoint-hq/stillpoint/internal/solution"
	"github.com/stillpoint-hq/stillpoint/internal/storage"
	"github.com/stillpoint-hq/stillpoint/internal/wisdom"
)

// Broadcaster pushes events to connected clients. The websocket hub
// implements it; a nil broadcaster is fine.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// TurnOutput is everything one processed turn produced.
type TurnOutput struct {
	SessionID core.SessionID `json:"session_id"`
	Reply     string         `json:"reply"`

	Stage    core.Stage `json:"stage"`
	Tone     core.Tone  `json:"tone"`
	Complete bool       `json:"complete"`
	Done     bool       `json:"done"`

	// Solution is set exactly once per session, on the turn that
	// opened the completion gate.
	Solution     *solution.Holistic `json:"solution,omitempty"`
	SolutionText string             `json:"solution_text,omitempty"`
}

// Orchestrator owns sessions and guarantees serial turn processing
// per session. Sessions are fully independent of each other.
type Orchestrator struct {
	engine      *assessment.Engine
	responder   *respond.Responder
	wisdom      *wisdom.Service
	sessions    *storage.SessionStore
	practiceLog *storage.PracticeLogStore
	auditLog    *audit.Log
	broadcaster Broadcaster
	log         *logging.Logger

	mu    sync.Mutex
	locks map[core.SessionID]*sync.Mutex
}

// New creates the orchestrator. The wisdom service may be running in
// fallback mode and the broadcaster may be nil; both degrade quietly.
func New(engine *assessment.Engine, responder *respond.Responder, wisdomSvc *wisdom.Service,
	sessions *storage.SessionStore, practiceLog *storage.PracticeLogStore, auditLog *audit.Log) *Orchestrator {
	return &Orchestrator{
		engine:      engine,
		responder:   responder,
		wisdom:      wisdomSvc,
		sessions:    sessions,
		practiceLog: practiceLog,
		auditLog:    auditLog,
		log:         logging.WithField("component", "orchestrator"),
		locks:       make(map[core.SessionID]*sync.Mutex),
	}
}

// SetBroadcaster attaches the websocket hub after construction, so the
// API layer can be built on top of a finished orchestrator.
func (o *Orchestrator) SetBroadcaster(b Broadcaster) {
	o.broadcaster = b
}

// StartSession creates and persists a new session at the greeting
// stage, and returns its opening line.
func (o *Orchestrator) StartSession(userName string) (*core.Session, string, error) {
	sess := &core.Session{
		ID:        core.SessionID(uuid.New().String()),
		UserName:  userName,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	rec := assessment.NewRecord(sess.ID)

	if err := o.sessions.Create(sess, rec); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}

	o.appendAudit(audit.EventSessionStarted, sess.ID, map[string]interface{}{
		"user_name": userName,
	})

	greeting := assessment.Select(rec, nil).Fallback
	if err := o.sessions.AppendMessage(&core.Message{
		SessionID: sess.ID,
		Role:      core.RoleCompanion,
		Content:   greeting,
	}); err != nil {
		o.log.Warn("failed to persist greeting: %v", err)
	}

	o.log.Info("session %s started", sess.ID)
	return sess, greeting, nil
}

// HandleTurn runs one user utterance through the pipeline. Turns for
// the same session are serialized; distinct sessions run concurrently.
func (o *Orchestrator) HandleTurn(ctx context.Context, id core.SessionID, utterance string) (*TurnOutput, error) {
	lock := o.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, rec, err := o.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	ended, err := o.sessions.IsEnded(id)
	if err != nil {
		return nil, err
	}
	if ended {
		return nil, core.ErrSessionEnded
	}

	if err := o.sessions.AppendMessage(&core.Message{
		SessionID: id,
		Role:      core.RoleUser,
		Content:   utterance,
	}); err != nil {
		o.log.Warn("failed to persist user message: %v", err)
	}

	result, err := o.engine.ProcessTurn(ctx, rec, utterance)
	if err != nil {
		return nil, fmt.Errorf("process turn: %w", err)
	}

	descriptor := assessment.Select(rec, result)
	reply := o.responder.Reply(ctx, descriptor, sess.UserName, utterance)

	output := &TurnOutput{
		SessionID: id,
		Reply:     reply,
		Stage:     rec.Stage,
		Tone:      rec.Tone,
		Complete:  result.Complete,
		Done:      result.Done,
	}

	o.appendAudit(audit.EventTurnProcessed, id, map[string]interface{}{
		"stage":          rec.Stage,
		"changed_fields": result.ChangedFields,
	})
	if result.StageAfter != result.StageBefore {
		o.appendAudit(audit.EventStageAdvanced, id, map[string]interface{}{
			"from":   result.StageBefore,
			"to":     result.StageAfter,
			"forced": result.ForcedAdvance,
		})
	}

	// The completion gate. Wisdom and practice content is produced
	// here and nowhere else, exactly once per session.
	if result.Done && rec.Complete() && !sess.SolutionDelivered {
		sol := o.deliverSolution(ctx, sess, rec)
		output.Solution = sol
		output.SolutionText = solution.Format(sol)
		output.Reply = reply + "\n\n" + output.SolutionText
		sess.SolutionDelivered = true
	}

	if err := o.sessions.AppendMessage(&core.Message{
		SessionID: id,
		Role:      core.RoleCompanion,
		Content:   output.Reply,
	}); err != nil {
		o.log.Warn("failed to persist reply: %v", err)
	}

	sess.UpdatedAt = time.Now().UTC()
	if err := o.sessions.SaveSnapshot(sess, rec); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	o.broadcast("assessment.updated", map[string]interface{}{
		"session_id": id,
		"stage":      rec.Stage,
		"complete":   rec.Complete(),
	})
	if output.Solution != nil {
		o.broadcast("solution.ready", map[string]interface{}{
			"session_id": id,
		})
	}

	return output, nil
}

// deliverSolution retrieves wisdom, recommends practices, and composes
// the holistic solution for a completed assessment.
func (o *Orchestrator) deliverSolution(ctx context.Context, sess *core.Session, rec *assessment.Record) *solution.Holistic {
	query := fmt.Sprintf("guidance for %s in the context of %s", rec.Emotion, rec.Situation)
	var wisdomText, wisdomSource string
	results, err := o.wisdom.Retrieve(ctx, query, rec.Emotion, rec.Situation, 1)
	if err == nil && len(results) > 0 {
		wisdomText = results[0].Teaching.Text
		wisdomSource = results[0].Teaching.Source
	}

	recommendation := practice.Recommend(rec)
	sol := solution.Generate(rec, sess.UserName, wisdomText, wisdomSource, recommendation)

	entry := &storage.PracticeLogEntry{
		SessionID:    sess.ID,
		ActivityType: recommendation.Activity.Type,
		WisdomSource: wisdomSource,
		TotalMinutes: recommendation.TotalMinutes,
	}
	if recommendation.Pranayama != nil {
		entry.Pranayama = recommendation.Pranayama.Name
	}
	if recommendation.Asana != nil {
		entry.Asana = recommendation.Asana.Name
	}
	if err := o.practiceLog.Record(entry); err != nil {
		o.log.Warn("failed to log practice delivery: %v", err)
	}

	o.appendAudit(audit.EventAssessmentCompleted, sess.ID, map[string]interface{}{
		"emotion":   rec.Emotion,
		"situation": rec.Situation,
		"location":  rec.Location,
		"turns":     rec.TotalTurns,
	})
	o.appendAudit(audit.EventSolutionDelivered, sess.ID, map[string]interface{}{
		"pranayama":     entry.Pranayama,
		"asana":         entry.Asana,
		"activity_type": entry.ActivityType,
		"wisdom_source": wisdomSource,
	})

	o.log.Info("solution delivered for session %s after %d turns", sess.ID, rec.TotalTurns)
	return sol
}

// EndSession marks a session ended and releases its lock. Ended
// sessions refuse further turns.
func (o *Orchestrator) EndSession(id core.SessionID) error {
	lock := o.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	if err := o.sessions.End(id); err != nil {
		return err
	}
	o.appendAudit(audit.EventSessionEnded, id, nil)

	o.mu.Lock()
	delete(o.locks, id)
	o.mu.Unlock()

	o.log.Info("session %s ended", id)
	return nil
}

// PracticeScheduler puts a recommended practice on a calendar.
// *calendar.Scheduler implements it.
type PracticeScheduler interface {
	SchedulePractice(ctx context.Context, rec practice.Recommendation, when time.Time) (*calendar.Event, error)
}

// SchedulePractice books the session's recommended practice as a
// calendar event. Only a session that already received its solution
// has a practice to schedule.
func (o *Orchestrator) SchedulePractice(ctx context.Context, id core.SessionID, sched PracticeScheduler, when time.Time) (*calendar.Event, error) {
	sess, rec, err := o.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if !sess.SolutionDelivered {
		return nil, fmt.Errorf("session %s has no delivered practice to schedule", id)
	}

	event, err := sched.SchedulePractice(ctx, practice.Recommend(rec), when)
	if err != nil {
		return nil, err
	}

	o.appendAudit(audit.EventCalendarScheduled, id, map[string]interface{}{
		"event_id": event.ID,
		"summary":  event.Summary,
		"start":    event.Start,
	})
	o.log.Info("practice for session %s scheduled as event %s", id, event.ID)
	return event, nil
}

// Session returns the session and its assessment record.
func (o *Orchestrator) Session(id core.SessionID) (*core.Session, *assessment.Record, error) {
	return o.sessions.Get(id)
}

// Messages returns the conversation transcript, oldest first.
func (o *Orchestrator) Messages(id core.SessionID, limit int) ([]*core.Message, error) {
	return o.sessions.Messages(id, limit)
}

func (o *Orchestrator) sessionLock(id core.SessionID) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[id] = lock
	}
	return lock
}

func (o *Orchestrator) appendAudit(event string, id core.SessionID, payload interface{}) {
	if o.auditLog == nil {
		return
	}
	if _, err := o.auditLog.Append(event, id, payload); err != nil {
		o.log.Warn("audit append failed: %v", err)
	}
}

func (o *Orchestrator) broadcast(event string, payload interface{}) {
	if o.broadcaster != nil {
		o.broadcaster.Broadcast(event, payload)
	}
}
