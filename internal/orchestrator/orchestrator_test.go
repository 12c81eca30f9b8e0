package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stillpoint-hq/stillpoint/internal/assessment"
	"github.com/stillpoint-hq/stillpoint/internal/audit"
	"github.com/stillpoint-hq/stillpoint/internal/calendar"
	"github.com/stillpoint-hq/stillpoint/internal/core"
	"github.com/stillpoint-hq/stillpoint/internal/practice"
	"github.com/stillpoint-hq/stillpoint/internal/respond"
	"github.com/stillpoint-hq/stillpoint/internal/storage"
	"github.com/stillpoint-hq/stillpoint/internal/wisdom"
)

// =============================================================================
// Test Doubles
// =============================================================================

// scriptedExtractor returns observations keyed by utterance.
type scriptedExtractor struct {
	script map[string][]core.Observation
}

func (s *scriptedExtractor) Extract(_ context.Context, utterance string, _ core.Stage) ([]core.Observation, error) {
	return s.script[utterance], nil
}

// recordingBroadcaster captures broadcast events.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) Broadcast(event string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) has(event string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e == event {
			return true
		}
	}
	return false
}

// fakeScheduler stands in for the calendar scheduler.
type fakeScheduler struct {
	scheduled []practice.Recommendation
	err       error
}

func (f *fakeScheduler) SchedulePractice(_ context.Context, rec practice.Recommendation, when time.Time) (*calendar.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.scheduled = append(f.scheduled, rec)
	return &calendar.Event{
		ID:      "evt-1",
		Summary: "Stillpoint practice",
		Start:   when,
		End:     when.Add(12 * time.Minute),
	}, nil
}

func testOrchestrator(t *testing.T, script map[string][]core.Observation) (*Orchestrator, *storage.DB) {
	t.Helper()
	db, err := storage.Open(storage.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	engine := assessment.NewEngine(&scriptedExtractor{script: script}, func(u string) bool {
		return strings.Contains(strings.ToLower(u), "passed away")
	}, assessment.DefaultEngineConfig())

	// nil router: canned fallback lines, offline wisdom teachings
	orch := New(engine, respond.New(nil), wisdom.NewService(nil, nil),
		storage.NewSessionStore(db), storage.NewPracticeLogStore(db), audit.NewLog(db))
	return orch, db
}

// fullScript carries a complete cooperative conversation.
func fullScript() map[string][]core.Observation {
	return map[string][]core.Observation{
		"I'm really angry": {
			{Field: core.FieldEmotion, Value: "anger", Confidence: 0.85},
		},
		"work has been brutal": {
			{Field: core.FieldSituation, Value: "finance_career", Confidence: 0.8},
		},
		"I'm at the office": {
			{Field: core.FieldLocation, Value: "office", Confidence: 0.9},
		},
		"about 12 minutes": {
			{Field: core.FieldTime, Value: "12_min", Confidence: 0.9},
		},
		"haven't eaten yet": {
			{Field: core.FieldMeal, Value: "empty_stomach", Confidence: 0.9},
		},
	}
}

// =============================================================================
// Session Lifecycle Tests
// =============================================================================

func TestOrchestrator_StartSession(t *testing.T) {
	orch, _ := testOrchestrator(t, nil)

	sess, greeting, err := orch.StartSession("Maya")
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if sess.ID == "" {
		t.Error("session should get an ID")
	}
	if sess.UserName != "Maya" {
		t.Errorf("UserName = %q", sess.UserName)
	}
	if greeting == "" {
		t.Error("session should open with a greeting")
	}

	messages, err := orch.Messages(sess.ID, 10)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 1 || messages[0].Role != core.RoleCompanion {
		t.Errorf("greeting not persisted: %+v", messages)
	}
}

func TestOrchestrator_HandleTurn_UnknownSession(t *testing.T) {
	orch, _ := testOrchestrator(t, nil)

	_, err := orch.HandleTurn(context.Background(), "no-such-session", "hello")
	if !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestOrchestrator_EndedSessionRefusesTurns(t *testing.T) {
	orch, _ := testOrchestrator(t, nil)
	sess, _, _ := orch.StartSession("")

	if err := orch.EndSession(sess.ID); err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}

	_, err := orch.HandleTurn(context.Background(), sess.ID, "hello again")
	if !errors.Is(err, core.ErrSessionEnded) {
		t.Errorf("error = %v, want ErrSessionEnded", err)
	}
}

func TestOrchestrator_EndSession_Missing(t *testing.T) {
	orch, _ := testOrchestrator(t, nil)

	if err := orch.EndSession("ghost"); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

// =============================================================================
// Conversation Flow Tests
// =============================================================================

func TestOrchestrator_FullConversation(t *testing.T) {
	orch, _ := testOrchestrator(t, fullScript())
	broadcaster := &recordingBroadcaster{}
	orch.SetBroadcaster(broadcaster)
	ctx := context.Background()

	sess, _, err := orch.StartSession("Maya")
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	turns := []string{
		"hello",
		"I'm really angry",
		"work has been brutal",
		"I'm at the office",
		"about 12 minutes",
		"haven't eaten yet",
	}

	var last *TurnOutput
	for _, utterance := range turns {
		last, err = orch.HandleTurn(ctx, sess.ID, utterance)
		if err != nil {
			t.Fatalf("HandleTurn(%q) error = %v", utterance, err)
		}
		if last.Reply == "" {
			t.Fatalf("HandleTurn(%q) returned an empty reply", utterance)
		}
	}

	if !last.Done || !last.Complete {
		t.Fatalf("conversation should finish done and complete, got done=%v complete=%v", last.Done, last.Complete)
	}
	if last.Solution == nil {
		t.Fatal("final turn should carry the solution")
	}
	if last.Solution.Pranayama == nil {
		t.Error("solution should include a breathing practice")
	}
	if !strings.Contains(last.SolutionText, "PART 1") {
		t.Errorf("solution text should be the formatted four-part plan")
	}

	if !broadcaster.has("assessment.updated") {
		t.Error("turns should broadcast assessment.updated")
	}
	if !broadcaster.has("solution.ready") {
		t.Error("completion should broadcast solution.ready")
	}

	// Snapshot survived the conversation
	_, rec, err := orch.Session(sess.ID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if rec.Emotion != core.EmotionAnger || rec.Location != core.LocationOffice {
		t.Errorf("persisted record = %+v", rec)
	}
	if rec.Stage != core.StageAssessmentComplete {
		t.Errorf("Stage = %v, want assessment_complete", rec.Stage)
	}
}

func TestOrchestrator_SolutionDeliveredOnce(t *testing.T) {
	orch, db := testOrchestrator(t, fullScript())
	ctx := context.Background()
	sess, _, _ := orch.StartSession("")

	for _, utterance := range []string{
		"hello", "I'm really angry", "work has been brutal",
		"I'm at the office", "about 12 minutes", "haven't eaten yet",
	} {
		if _, err := orch.HandleTurn(ctx, sess.ID, utterance); err != nil {
			t.Fatalf("HandleTurn(%q) error = %v", utterance, err)
		}
	}

	// Another turn after completion must not re-deliver
	output, err := orch.HandleTurn(ctx, sess.ID, "thank you")
	if err != nil {
		t.Fatalf("HandleTurn() after completion error = %v", err)
	}
	if output.Solution != nil {
		t.Error("solution must be delivered exactly once")
	}

	entries, err := storage.NewPracticeLogStore(db).BySession(sess.ID)
	if err != nil {
		t.Fatalf("BySession() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("practice log has %d entries, want 1", len(entries))
	}
}

func TestOrchestrator_NoSolutionBeforeGateOpens(t *testing.T) {
	orch, db := testOrchestrator(t, fullScript())
	ctx := context.Background()
	sess, _, _ := orch.StartSession("")

	// Emotion and situation only: the gate stays shut.
	for _, utterance := range []string{"hello", "I'm really angry", "work has been brutal"} {
		output, err := orch.HandleTurn(ctx, sess.ID, utterance)
		if err != nil {
			t.Fatalf("HandleTurn(%q) error = %v", utterance, err)
		}
		if output.Solution != nil {
			t.Fatalf("solution leaked before the gate opened, at %q", utterance)
		}
	}

	if count, _ := storage.NewPracticeLogStore(db).BySession(sess.ID); len(count) != 0 {
		t.Error("nothing should reach the practice log before completion")
	}
}

func TestOrchestrator_AuditTrail(t *testing.T) {
	orch, db := testOrchestrator(t, fullScript())
	ctx := context.Background()
	sess, _, _ := orch.StartSession("")

	for _, utterance := range []string{
		"hello", "I'm really angry", "work has been brutal",
		"I'm at the office", "about 12 minutes", "haven't eaten yet",
	} {
		if _, err := orch.HandleTurn(ctx, sess.ID, utterance); err != nil {
			t.Fatalf("HandleTurn(%q) error = %v", utterance, err)
		}
	}
	orch.EndSession(sess.ID)

	log := audit.NewLog(db)
	if err := log.VerifyChain(); err != nil {
		t.Errorf("VerifyChain() error = %v", err)
	}

	entries, err := log.BySession(sess.ID)
	if err != nil {
		t.Fatalf("BySession() error = %v", err)
	}
	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.EventType] = true
	}
	for _, want := range []string{
		audit.EventSessionStarted, audit.EventTurnProcessed, audit.EventStageAdvanced,
		audit.EventAssessmentCompleted, audit.EventSolutionDelivered, audit.EventSessionEnded,
	} {
		if !seen[want] {
			t.Errorf("audit trail missing %s", want)
		}
	}
}

func TestOrchestrator_SchedulePractice(t *testing.T) {
	orch, db := testOrchestrator(t, fullScript())
	ctx := context.Background()
	sess, _, _ := orch.StartSession("")

	for _, utterance := range []string{
		"hello", "I'm really angry", "work has been brutal",
		"I'm at the office", "about 12 minutes", "haven't eaten yet",
	} {
		if _, err := orch.HandleTurn(ctx, sess.ID, utterance); err != nil {
			t.Fatalf("HandleTurn(%q) error = %v", utterance, err)
		}
	}

	sched := &fakeScheduler{}
	when := time.Now().Add(time.Hour)
	event, err := orch.SchedulePractice(ctx, sess.ID, sched, when)
	if err != nil {
		t.Fatalf("SchedulePractice() error = %v", err)
	}
	if event.ID != "evt-1" {
		t.Errorf("event ID = %q", event.ID)
	}
	if len(sched.scheduled) != 1 || sched.scheduled[0].Pranayama == nil {
		t.Errorf("scheduler should receive the session's recommendation, got %+v", sched.scheduled)
	}

	log := audit.NewLog(db)
	if err := log.VerifyChain(); err != nil {
		t.Errorf("VerifyChain() error = %v", err)
	}
	entries, err := log.BySession(sess.ID)
	if err != nil {
		t.Fatalf("BySession() error = %v", err)
	}
	found := false
	for _, e := range entries {
		if e.EventType == audit.EventCalendarScheduled {
			found = true
		}
	}
	if !found {
		t.Error("scheduling should append a calendar.scheduled audit entry")
	}
}

func TestOrchestrator_SchedulePracticeRequiresSolution(t *testing.T) {
	orch, _ := testOrchestrator(t, fullScript())
	ctx := context.Background()
	sess, _, _ := orch.StartSession("")

	if _, err := orch.HandleTurn(ctx, sess.ID, "hello"); err != nil {
		t.Fatal(err)
	}

	if _, err := orch.SchedulePractice(ctx, sess.ID, &fakeScheduler{}, time.Now()); err == nil {
		t.Error("scheduling before solution delivery should error")
	}

	_, err := orch.SchedulePractice(ctx, "no-such-session", &fakeScheduler{}, time.Now())
	if !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("unknown session error = %v, want ErrSessionNotFound", err)
	}
}

func TestOrchestrator_TranscriptPersisted(t *testing.T) {
	orch, _ := testOrchestrator(t, fullScript())
	ctx := context.Background()
	sess, _, _ := orch.StartSession("")

	orch.HandleTurn(ctx, sess.ID, "hello")
	orch.HandleTurn(ctx, sess.ID, "I'm really angry")

	messages, err := orch.Messages(sess.ID, 100)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	// greeting + 2 user turns + 2 replies
	if len(messages) != 5 {
		t.Fatalf("got %d messages, want 5", len(messages))
	}
	if messages[1].Role != core.RoleUser || messages[1].Content != "hello" {
		t.Errorf("transcript order wrong: %+v", messages[1])
	}
}

func TestOrchestrator_IndependentSessions(t *testing.T) {
	orch, _ := testOrchestrator(t, fullScript())
	ctx := context.Background()

	a, _, _ := orch.StartSession("A")
	b, _, _ := orch.StartSession("B")

	orch.HandleTurn(ctx, a.ID, "hello")
	orch.HandleTurn(ctx, a.ID, "I'm really angry")

	_, recB, err := orch.Session(b.ID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if recB.Emotion.IsKnown() {
		t.Error("one session's turns must not touch another session's record")
	}
	if recB.Stage != core.StageInitialGreeting {
		t.Errorf("session B stage = %v, want initial_greeting", recB.Stage)
	}
}
