package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"recruitai/interview-orchestrator/internal/audio"
	"recruitai/interview-orchestrator/internal/config"
	"recruitai/interview-orchestrator/internal/models"
	"recruitai/interview-orchestrator/internal/realtime"
	"recruitai/interview-orchestrator/internal/services"
)

// fakeClient records tool registrations and outbound messages so tests can
// drive the interview from the model's side.
type fakeClient struct {
	mu        sync.Mutex
	handlers  map[string]realtime.ToolHandler
	events    chan realtime.Event
	connected bool
	messages  []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		handlers: make(map[string]realtime.ToolHandler),
		events:   make(chan realtime.Event, 16),
	}
}

func (f *fakeClient) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *fakeClient) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

func (f *fakeClient) UpdateSession(ctx context.Context, cfg realtime.SessionConfig) error {
	return nil
}

func (f *fakeClient) SendUserMessage(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return fmt.Errorf("not connected")
	}
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeClient) AppendInputAudio(data []byte) error { return nil }

func (f *fakeClient) AddTool(tool realtime.Tool, handler realtime.ToolHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connected {
		return fmt.Errorf("tool registered after connect")
	}
	f.handlers[tool.Name] = handler
	return nil
}

func (f *fakeClient) Events() <-chan realtime.Event { return f.events }

func (f *fakeClient) invoke(t *testing.T, name string, args string) (interface{}, error) {
	t.Helper()
	f.mu.Lock()
	h, ok := f.handlers[name]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("tool %s not registered", name)
	}
	return h(context.Background(), json.RawMessage(args))
}

// fakeChannel tracks capture lifecycle so tests can assert teardown.
type fakeChannel struct {
	mu        sync.Mutex
	began     bool
	ended     bool
	recordErr error
}

func (f *fakeChannel) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.began = true
	return nil
}

func (f *fakeChannel) Record(onFrame audio.FrameFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recordErr
}

func (f *fakeChannel) Pause() error { return nil }

func (f *fakeChannel) End() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = true
	return nil
}

func (f *fakeChannel) GetFrequencies(kind string) []float32     { return nil }
func (f *fakeChannel) Connect() error                           { return nil }
func (f *fakeChannel) Add16BitPCM(data []byte, id string) error { return nil }
func (f *fakeChannel) Interrupt() error                         { return nil }

type fakeAnalyzer struct {
	profile *models.CandidateProfile
	usage   models.UsageData
	err     error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, role services.RoleTemplate, resumeText string) (*models.CandidateProfile, models.UsageData, error) {
	if f.err != nil {
		return nil, models.UsageData{}, f.err
	}
	return f.profile, f.usage, nil
}

type fakeCounter struct{}

func (fakeCounter) Count(text string) int { return len(text) / 4 }

func testProfile() *models.CandidateProfile {
	return &models.CandidateProfile{
		FullName:        "Jane Doe",
		Email:           "jane@example.com",
		Phone:           "+60123456789",
		CurrentRole:     "Support Agent",
		YearsExperience: 3.5,
		RoleFit:         models.RoleFit{Score: 7.8, Justification: "Solid support background"},
	}
}

func testRole() services.RoleTemplate {
	registry := services.NewRoleRegistry()
	role, err := registry.Lookup("customer-service-agent")
	if err != nil {
		panic(err)
	}
	return role
}

type harness struct {
	orch     *Orchestrator
	client   *fakeClient
	analyzer *fakeAnalyzer

	mu       sync.Mutex
	payloads []*models.SubmissionPayload
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		client:   newFakeClient(),
		analyzer: &fakeAnalyzer{profile: testProfile(), usage: models.UsageData{InputTokens: 1200, OutputTokens: 400}},
	}

	log := logrus.NewEntry(logrus.New())
	h.orch = NewOrchestrator(Config{
		ID:             uuid.New(),
		CandidateToken: "token-123",
		Role:           testRole(),
		Language:       "English",
	}, Deps{
		Analyzer: h.analyzer,
		Realtime: func() (realtime.Client, error) { return h.client, nil },
		Counter:  fakeCounter{},
		Estimator: services.NewCostEstimator(config.PricingConfig{
			InputUSDPerToken:  0.000001,
			OutputUSDPerToken: 0.000002,
			AudioUSDPerSecond: 0.001,
			USDToMYR:          4.5,
		}),
		OnComplete: func(id uuid.UUID, payload *models.SubmissionPayload) {
			h.mu.Lock()
			h.payloads = append(h.payloads, payload)
			h.mu.Unlock()
		},
		Log: log,
	})
	return h
}

func (h *harness) toInterview(t *testing.T) {
	t.Helper()
	if err := h.orch.Bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if err := h.orch.SubmitResume(context.Background(), "Jane Doe", "resume text"); err != nil {
		t.Fatalf("submit resume: %v", err)
	}
	if err := h.orch.Proceed(context.Background()); err != nil {
		t.Fatalf("proceed: %v", err)
	}
}

const validScores = `{
	"score_breakdown": {
		"spoken": {"score": 4, "reasoning": "fluent"},
		"behavior": {"score": 4, "reasoning": "professional"},
		"communication": {"score": 4.6, "reasoning": "clear and structured"}
	},
	"knockout_breakdown": {
		"availability": "immediately",
		"expected_salary": "RM 3500",
		"shift_flexibility": "no",
		"notice_period": "two weeks"
	},
	"summary": "Strong candidate overall."
}`

func TestOrchestrator_HappyPath(t *testing.T) {
	h := newHarness(t)
	h.toInterview(t)

	if got := h.orch.Phase(); got != models.PhaseInterview {
		t.Fatalf("expected interview phase, got %s", got)
	}

	// The greeting goes out after connect.
	h.client.mu.Lock()
	if len(h.client.messages) != 1 {
		t.Fatalf("expected 1 outbound message, got %d", len(h.client.messages))
	}
	h.client.mu.Unlock()

	if _, err := h.client.invoke(t, "submit_scores", validScores); err != nil {
		t.Fatalf("submit_scores: %v", err)
	}

	if got := h.orch.Phase(); got != models.PhaseEnding {
		t.Fatalf("expected ending phase after scores, got %s", got)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(h.payloads))
	}

	p := h.payloads[0]
	if p.RaFullName != "Jane Doe" {
		t.Errorf("full name = %q", p.RaFullName)
	}
	// (4 + 4 + 4.6) / 3 = 4.2
	if p.IntAverageScore < 4.19 || p.IntAverageScore > 4.21 {
		t.Errorf("average score = %v, want 4.2", p.IntAverageScore)
	}
	if p.IntSpokenScore != 4 {
		t.Errorf("spoken score = %d", p.IntSpokenScore)
	}
	// 4.6 rounds up
	if p.IntCommunicationScore != 5 {
		t.Errorf("communication score = %d", p.IntCommunicationScore)
	}
	if p.RaYearsExperience != 4 {
		t.Errorf("years experience = %d, want 4 (rounded from 3.5)", p.RaYearsExperience)
	}

	if len(p.IntKnockouts) != len(models.KnockoutKeys) {
		t.Fatalf("knockouts = %d, want %d", len(p.IntKnockouts), len(models.KnockoutKeys))
	}
	// shift_flexibility was answered "no"
	for i, key := range models.KnockoutKeys {
		wantPass := key != models.KnockoutShiftFlexibility
		if p.IntKnockouts[i].Pass != wantPass {
			t.Errorf("knockout %s pass = %v, want %v", key, p.IntKnockouts[i].Pass, wantPass)
		}
	}

	if p.TotalCostUSD <= 0 {
		t.Errorf("expected positive cost, got %v", p.TotalCostUSD)
	}
}

func TestOrchestrator_ScoresAreIdempotent(t *testing.T) {
	h := newHarness(t)
	h.toInterview(t)

	if _, err := h.client.invoke(t, "submit_scores", validScores); err != nil {
		t.Fatalf("first submit_scores: %v", err)
	}
	if _, err := h.client.invoke(t, "submit_scores", validScores); err != nil {
		t.Fatalf("second submit_scores should be acknowledged, got %v", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.payloads) != 1 {
		t.Fatalf("expected exactly 1 completion, got %d", len(h.payloads))
	}
}

func TestOrchestrator_MalformedScoresRejected(t *testing.T) {
	h := newHarness(t)
	h.toInterview(t)

	if _, err := h.client.invoke(t, "submit_scores", `{"score_breakdown": {}}`); err == nil {
		t.Fatal("expected error for empty score breakdown")
	}

	if got := h.orch.Phase(); got != models.PhaseInterview {
		t.Fatalf("interview should continue after rejected scores, got %s", got)
	}
}

func TestOrchestrator_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		op   func(o *Orchestrator) error
	}{
		{"proceed from loading", func(o *Orchestrator) error { return o.Proceed(context.Background()) }},
		{"back from loading", func(o *Orchestrator) error { return o.Back() }},
		{"restart from loading", func(o *Orchestrator) error { return o.Restart() }},
		{"request end from loading", func(o *Orchestrator) error { return o.RequestEnd() }},
		{"contact from loading", func(o *Orchestrator) error { return o.UpdateContact("a@b.c", "") }},
		{"resume from loading", func(o *Orchestrator) error {
			return o.SubmitResume(context.Background(), "Jane", "text")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if err := tt.op(h.orch); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestOrchestrator_ResumeValidation(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Bootstrap(); err != nil {
		t.Fatal(err)
	}

	if err := h.orch.SubmitResume(context.Background(), "", "text"); !errors.Is(err, ErrValidation) {
		t.Errorf("empty name: expected ErrValidation, got %v", err)
	}
	if err := h.orch.SubmitResume(context.Background(), "Jane", "  "); !errors.Is(err, ErrValidation) {
		t.Errorf("empty resume: expected ErrValidation, got %v", err)
	}
	if got := h.orch.Phase(); got != models.PhaseWelcome {
		t.Errorf("validation failures must not leave welcome, got %s", got)
	}
}

func TestOrchestrator_AnalysisFailureReturnsToWelcome(t *testing.T) {
	h := newHarness(t)
	h.analyzer.err = fmt.Errorf("model returned garbage")

	if err := h.orch.Bootstrap(); err != nil {
		t.Fatal(err)
	}
	if err := h.orch.SubmitResume(context.Background(), "Jane Doe", "resume text"); err == nil {
		t.Fatal("expected analysis error")
	}
	if got := h.orch.Phase(); got != models.PhaseWelcome {
		t.Errorf("expected welcome after failed analysis, got %s", got)
	}

	// The candidate can retry.
	h.analyzer.err = nil
	if err := h.orch.SubmitResume(context.Background(), "Jane Doe", "resume text"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got := h.orch.Phase(); got != models.PhasePreparation {
		t.Errorf("expected preparation, got %s", got)
	}
}

func TestOrchestrator_ProceedFailureStaysInPreparation(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Bootstrap(); err != nil {
		t.Fatal(err)
	}
	if err := h.orch.SubmitResume(context.Background(), "Jane Doe", "resume text"); err != nil {
		t.Fatal(err)
	}

	h.orch.deps.Realtime = func() (realtime.Client, error) {
		return nil, realtime.ErrMissingAPIKey
	}

	if err := h.orch.Proceed(context.Background()); err == nil {
		t.Fatal("expected proceed to fail")
	}
	if got := h.orch.Phase(); got != models.PhasePreparation {
		t.Errorf("expected preparation after failed proceed, got %s", got)
	}
}

func TestOrchestrator_UpdateContact(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Bootstrap(); err != nil {
		t.Fatal(err)
	}
	if err := h.orch.SubmitResume(context.Background(), "Jane Doe", "resume text"); err != nil {
		t.Fatal(err)
	}

	if err := h.orch.UpdateContact("corrected@example.com", ""); err != nil {
		t.Fatal(err)
	}

	snap := h.orch.Snapshot()
	if snap.Profile.Email != "corrected@example.com" {
		t.Errorf("email = %q", snap.Profile.Email)
	}
	if snap.Profile.Phone != "+60123456789" {
		t.Errorf("phone should be unchanged, got %q", snap.Profile.Phone)
	}
}

func TestOrchestrator_BackDiscardsProfile(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Bootstrap(); err != nil {
		t.Fatal(err)
	}
	if err := h.orch.SubmitResume(context.Background(), "Jane Doe", "resume text"); err != nil {
		t.Fatal(err)
	}

	if err := h.orch.Back(); err != nil {
		t.Fatal(err)
	}

	snap := h.orch.Snapshot()
	if snap.Phase != string(models.PhaseWelcome) {
		t.Errorf("phase = %s", snap.Phase)
	}
	if snap.Profile != nil {
		t.Error("profile should be discarded on back")
	}
}

func TestOrchestrator_RestartResetsEverything(t *testing.T) {
	h := newHarness(t)
	h.toInterview(t)

	h.orch.Transcript().Upsert("1", models.RoleAssistant, "hello")
	if _, err := h.client.invoke(t, "submit_scores", validScores); err != nil {
		t.Fatal(err)
	}

	if err := h.orch.Restart(); err != nil {
		t.Fatal(err)
	}

	snap := h.orch.Snapshot()
	if snap.Phase != string(models.PhaseWelcome) {
		t.Errorf("phase = %s", snap.Phase)
	}
	if snap.Profile != nil || snap.CandidateName != "" || snap.EndRequested {
		t.Errorf("restart left state behind: %+v", snap)
	}
	if h.orch.Transcript().Len() != 0 {
		t.Error("transcript not cleared on restart")
	}
}

func TestOrchestrator_RequestEndTool(t *testing.T) {
	h := newHarness(t)
	h.toInterview(t)

	if _, err := h.client.invoke(t, "request_end", `{}`); err != nil {
		t.Fatal(err)
	}

	if !h.orch.Snapshot().EndRequested {
		t.Error("end request not recorded")
	}
	if got := h.orch.Phase(); got != models.PhaseInterview {
		t.Errorf("request_end must not change phase, got %s", got)
	}
}

func TestOrchestrator_EventLoopFeedsTranscript(t *testing.T) {
	h := newHarness(t)
	h.toInterview(t)

	h.client.events <- realtime.Event{
		Kind:   realtime.EventConversationUpdated,
		ItemID: "item-1",
		Role:   models.RoleAssistant,
		Text:   "Welcome to the interview",
	}
	h.client.events <- realtime.Event{
		Kind:   realtime.EventConversationUpdated,
		ItemID: "item-2",
		Role:   models.RoleUser,
		Text:   "Thank you",
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.orch.Transcript().Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("transcript never received events, len=%d", h.orch.Transcript().Len())
		}
		time.Sleep(5 * time.Millisecond)
	}

	turns := h.orch.Transcript().Turns()
	if turns[0].Text != "Welcome to the interview" || turns[1].Role != models.RoleUser {
		t.Errorf("unexpected transcript: %+v", turns)
	}
}

func TestOrchestrator_FailIsTerminal(t *testing.T) {
	h := newHarness(t)
	h.toInterview(t)

	h.orch.Fail("connection lost")

	if got := h.orch.Phase(); got != models.PhaseError {
		t.Fatalf("expected error phase, got %s", got)
	}

	// No operation leaves the error phase.
	if err := h.orch.Restart(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("restart from error: %v", err)
	}
	if err := h.orch.Back(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("back from error: %v", err)
	}

	snap := h.orch.Snapshot()
	if snap.ErrorMessage != "connection lost" {
		t.Errorf("error message = %q", snap.ErrorMessage)
	}
}

func TestOrchestrator_RecordFailureStopsCapture(t *testing.T) {
	h := newHarness(t)
	ch := &fakeChannel{recordErr: fmt.Errorf("device busy")}
	h.orch.deps.Audio = ch

	if err := h.orch.Bootstrap(); err != nil {
		t.Fatal(err)
	}
	if err := h.orch.SubmitResume(context.Background(), "Jane Doe", "resume text"); err != nil {
		t.Fatal(err)
	}

	if err := h.orch.Proceed(context.Background()); err == nil {
		t.Fatal("expected proceed to fail when capture cannot start")
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if !ch.began {
		t.Fatal("capture was never opened")
	}
	if !ch.ended {
		t.Error("capture left open after failed proceed")
	}

	h.client.mu.Lock()
	if h.client.connected {
		t.Error("client left connected after failed proceed")
	}
	h.client.mu.Unlock()

	if got := h.orch.Phase(); got != models.PhasePreparation {
		t.Errorf("expected preparation, got %s", got)
	}
}

func TestManager_RemoveClosesLiveSession(t *testing.T) {
	m := NewManager()
	h := newHarness(t)
	ch := &fakeChannel{}
	h.orch.deps.Audio = ch
	h.toInterview(t)

	id := uuid.New()
	m.Add(id, h.orch)

	// Remove disposes synchronously: by the time it returns, the realtime
	// client is disconnected and capture has stopped.
	m.Remove(id)

	h.client.mu.Lock()
	if h.client.connected {
		t.Error("client still connected after remove")
	}
	h.client.mu.Unlock()

	ch.mu.Lock()
	if !ch.ended {
		t.Error("capture still open after remove")
	}
	ch.mu.Unlock()

	if _, err := m.Get(id); err == nil {
		t.Error("session still reachable after remove")
	}
}

func TestManager_AddGetRemove(t *testing.T) {
	m := NewManager()
	h := newHarness(t)
	id := uuid.New()

	m.Add(id, h.orch)
	if m.Len() != 1 {
		t.Fatalf("len = %d", m.Len())
	}

	got, err := m.Get(id)
	if err != nil || got != h.orch {
		t.Fatalf("get returned %v, %v", got, err)
	}

	m.Remove(id)
	if _, err := m.Get(id); err == nil {
		t.Fatal("expected not found after remove")
	}
}
