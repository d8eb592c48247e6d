package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"recruitai/interview-orchestrator/internal/audio"
	"recruitai/interview-orchestrator/internal/models"
	"recruitai/interview-orchestrator/internal/realtime"
	"recruitai/interview-orchestrator/internal/services"
)

var (
	// ErrInvalidTransition rejects an operation not valid in the session's
	// current phase.
	ErrInvalidTransition = errors.New("operation not valid in current phase")
	// ErrValidation rejects candidate input without leaving the current
	// phase.
	ErrValidation = errors.New("invalid input")
)

// Config identifies one interview session.
type Config struct {
	ID             uuid.UUID
	CandidateToken string
	Role           services.RoleTemplate
	Language       string
}

// Deps are the orchestrator's collaborators. OnComplete fires exactly once
// per completed interview with the assembled submission payload.
type Deps struct {
	Analyzer   services.ResumeAnalyzer
	Realtime   realtime.Factory
	Audio      audio.Channel
	Counter    services.TokenCounter
	Estimator  *services.CostEstimator
	OnComplete func(sessionID uuid.UUID, payload *models.SubmissionPayload)
	Log        *logrus.Entry
}

// Orchestrator drives one candidate's interview through its phases:
//
//	loading -> welcome -> analyzing -> preparation -> interview -> ending
//
// with error as a terminal phase reachable from anywhere. All phase
// transitions go through the mutex; the realtime event loop runs on its own
// goroutine and feeds the transcript.
type Orchestrator struct {
	cfg     Config
	deps    Deps
	prompts *services.PromptBuilder

	mu            sync.Mutex
	phase         models.Phase
	candidate     string
	profile       *models.CandidateProfile
	scores        *models.InterviewScores
	analysisUsage models.UsageData
	endRequested  bool
	errMessage    string
	startedAt     time.Time

	client     realtime.Client
	transcript *Transcript
	stopCh     chan struct{}
}

func NewOrchestrator(cfg Config, deps Deps) *Orchestrator {
	if deps.Audio == nil {
		deps.Audio = audio.NewNullChannel()
	}
	return &Orchestrator{
		cfg:        cfg,
		deps:       deps,
		prompts:    services.NewPromptBuilder(),
		phase:      models.PhaseLoading,
		transcript: NewTranscript(),
	}
}

// Bootstrap moves the freshly created session out of loading. The role
// template was resolved before construction, so the metadata fetch has
// already succeeded by the time this runs.
func (o *Orchestrator) Bootstrap() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != models.PhaseLoading {
		return fmt.Errorf("%w: bootstrap from %s", ErrInvalidTransition, o.phase)
	}
	o.phase = models.PhaseWelcome
	return nil
}

// SubmitResume runs the analysis step. The phase shows analyzing for the
// duration of the call; a failed or malformed analysis returns the session
// to welcome so the candidate can retry with a different file.
func (o *Orchestrator) SubmitResume(ctx context.Context, name, resumeText string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(resumeText) == "" {
		return fmt.Errorf("%w: resume text is empty", ErrValidation)
	}

	o.mu.Lock()
	if o.phase != models.PhaseWelcome {
		o.mu.Unlock()
		return fmt.Errorf("%w: submit resume from %s", ErrInvalidTransition, o.phase)
	}
	o.phase = models.PhaseAnalyzing
	o.candidate = name
	o.mu.Unlock()

	profile, usage, err := o.deps.Analyzer.Analyze(ctx, o.cfg.Role, resumeText)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != models.PhaseAnalyzing {
		// Session was failed or closed underneath the analysis call.
		return fmt.Errorf("%w: session left analyzing", ErrInvalidTransition)
	}

	if err != nil {
		o.phase = models.PhaseWelcome
		return fmt.Errorf("resume analysis failed: %w", err)
	}

	o.profile = profile
	o.analysisUsage = usage
	o.phase = models.PhasePreparation
	return nil
}

// UpdateContact lets the candidate correct extracted contact details while
// reviewing the profile. Only the contact fields are mutable.
func (o *Orchestrator) UpdateContact(email, phone string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != models.PhasePreparation {
		return fmt.Errorf("%w: update contact from %s", ErrInvalidTransition, o.phase)
	}
	if email != "" {
		o.profile.Email = email
	}
	if phone != "" {
		o.profile.Phone = phone
	}
	return nil
}

// Back abandons the reviewed profile and returns to welcome for a fresh
// upload.
func (o *Orchestrator) Back() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != models.PhasePreparation {
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, o.phase)
	}
	o.profile = nil
	o.analysisUsage = models.UsageData{}
	o.phase = models.PhaseWelcome
	return nil
}

// Proceed starts the live interview. A failure to build or connect the
// realtime client leaves the session in preparation; nothing is torn down
// because nothing was started.
func (o *Orchestrator) Proceed(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != models.PhasePreparation {
		return fmt.Errorf("%w: proceed from %s", ErrInvalidTransition, o.phase)
	}

	client, err := o.deps.Realtime()
	if err != nil {
		return fmt.Errorf("realtime session unavailable: %w", err)
	}

	if err := client.AddTool(o.submitScoresTool(), o.handleSubmitScores); err != nil {
		return err
	}
	if err := client.AddTool(o.requestEndTool(), o.handleRequestEnd); err != nil {
		return err
	}

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect interview session: %w", err)
	}

	instructions := o.prompts.BuildInterviewerInstructions(o.cfg.Role, o.profile, o.cfg.Language)
	if err := client.UpdateSession(ctx, realtime.SessionConfig{Instructions: instructions}); err != nil {
		client.Disconnect()
		return fmt.Errorf("failed to configure interview session: %w", err)
	}

	if err := o.deps.Audio.Connect(); err != nil {
		client.Disconnect()
		return fmt.Errorf("failed to open playback: %w", err)
	}
	if err := o.deps.Audio.Begin(); err != nil {
		client.Disconnect()
		return fmt.Errorf("failed to open capture: %w", err)
	}
	if err := o.deps.Audio.Record(func(frame []byte) {
		if err := client.AppendInputAudio(frame); err != nil {
			o.deps.Log.WithError(err).Debug("dropping capture frame")
		}
	}); err != nil {
		o.deps.Audio.End()
		client.Disconnect()
		return fmt.Errorf("failed to start capture: %w", err)
	}

	greeting := o.prompts.BuildGreeting(o.candidate, o.cfg.Role.Title, o.cfg.Language)
	if err := client.SendUserMessage(ctx, greeting); err != nil {
		o.deps.Audio.End()
		client.Disconnect()
		return fmt.Errorf("failed to send greeting: %w", err)
	}

	o.client = client
	o.stopCh = make(chan struct{})
	o.startedAt = time.Now()
	o.phase = models.PhaseInterview

	go o.eventLoop(client, o.stopCh)
	return nil
}

// RequestEnd marks the candidate's wish to stop. The interviewer wraps up
// and still scores the session; the flag itself changes no phase.
func (o *Orchestrator) RequestEnd() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != models.PhaseInterview {
		return fmt.Errorf("%w: request end from %s", ErrInvalidTransition, o.phase)
	}
	o.endRequested = true
	return nil
}

// Restart resets a finished session back to welcome for another run with
// the same role and token.
func (o *Orchestrator) Restart() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != models.PhaseEnding {
		return fmt.Errorf("%w: restart from %s", ErrInvalidTransition, o.phase)
	}

	o.profile = nil
	o.scores = nil
	o.analysisUsage = models.UsageData{}
	o.endRequested = false
	o.candidate = ""
	o.errMessage = ""
	o.transcript.Reset()
	o.phase = models.PhaseWelcome
	return nil
}

// Fail moves the session to the terminal error phase and tears down any
// live interview.
func (o *Orchestrator) Fail(message string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase == models.PhaseError {
		return
	}
	o.teardownLocked()
	o.errMessage = message
	o.phase = models.PhaseError
	o.deps.Log.WithField("reason", message).Warn("session failed")
}

// Close releases the session's resources. The phase is left untouched so a
// snapshot taken afterwards still reflects where the session ended up.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.teardownLocked()
}

// Snapshot returns the candidate-visible session state.
func (o *Orchestrator) Snapshot() models.SessionResponse {
	o.mu.Lock()
	defer o.mu.Unlock()

	resp := models.SessionResponse{
		ID:            o.cfg.ID.String(),
		Phase:         string(o.phase),
		Role:          o.cfg.Role.Key,
		Language:      o.cfg.Language,
		CandidateName: o.candidate,
		EndRequested:  o.endRequested,
		ErrorMessage:  o.errMessage,
	}
	if o.profile != nil {
		copied := *o.profile
		resp.Profile = &copied
	}
	return resp
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() models.Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Transcript exposes the session's transcript store.
func (o *Orchestrator) Transcript() *Transcript {
	return o.transcript
}

func (o *Orchestrator) submitScoresTool() realtime.Tool {
	return realtime.Tool{
		Name:        "submit_scores",
		Description: "Submit the final interview assessment. Call exactly once, when the interview is complete.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"score_breakdown": map[string]interface{}{
					"type":        "object",
					"description": "Keys: spoken, behavior, communication. Each value has a numeric score (1-5) and a reasoning string.",
				},
				"knockout_breakdown": map[string]interface{}{
					"type":        "object",
					"description": "Keys: availability, expected_salary, shift_flexibility, notice_period. Values are the candidate's verbatim answers.",
				},
				"summary": map[string]interface{}{
					"type":        "string",
					"description": "Three to four sentence overall assessment.",
				},
			},
			"required": []string{"score_breakdown", "knockout_breakdown", "summary"},
		},
	}
}

func (o *Orchestrator) requestEndTool() realtime.Tool {
	return realtime.Tool{
		Name:        "request_end",
		Description: "Record that the candidate asked to stop the interview early.",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}
}

// handleSubmitScores terminates the interview. Duplicate invocations are
// acknowledged but ignored: only the first call in the interview phase
// completes the session.
func (o *Orchestrator) handleSubmitScores(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var scores models.InterviewScores
	if err := json.Unmarshal(args, &scores); err != nil {
		return nil, fmt.Errorf("malformed scores: %w", err)
	}
	if len(scores.ScoreBreakdown) == 0 {
		return nil, fmt.Errorf("score_breakdown is empty")
	}
	scores.AverageScore = scores.ComputeAverage()

	if completed := o.complete(&scores); !completed {
		return map[string]string{"status": "already scored"}, nil
	}
	return map[string]string{"status": "recorded"}, nil
}

func (o *Orchestrator) handleRequestEnd(ctx context.Context, args json.RawMessage) (interface{}, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.endRequested = true
	return map[string]string{"status": "noted"}, nil
}

// complete finalizes the interview: tears down the live session, derives
// usage and cost, assembles the submission payload and hands it to the
// completion sink. Returns false when the session already left the
// interview phase.
func (o *Orchestrator) complete(scores *models.InterviewScores) bool {
	o.mu.Lock()

	if o.phase != models.PhaseInterview {
		o.mu.Unlock()
		return false
	}

	o.teardownLocked()
	o.scores = scores

	sessionUsage := models.UsageData{
		InputTokens:  o.deps.Counter.Count(o.transcript.Text(models.RoleUser)),
		OutputTokens: o.deps.Counter.Count(o.transcript.Text(models.RoleAssistant)),
		AudioSeconds: time.Since(o.startedAt).Seconds(),
	}
	cost := o.deps.Estimator.Estimate(o.analysisUsage.Add(sessionUsage))

	payload, err := services.BuildSubmissionPayload(services.PayloadInput{
		Profile:       o.profile,
		Scores:        scores,
		Transcript:    o.transcript.Flatten(),
		Language:      o.cfg.Language,
		AnalysisUsage: o.analysisUsage,
		SessionUsage:  sessionUsage,
		Cost:          cost,
		Knockouts:     o.cfg.Role.Knockouts,
	})
	if err != nil {
		o.errMessage = err.Error()
		o.phase = models.PhaseError
		o.mu.Unlock()
		o.deps.Log.WithError(err).Error("failed to assemble submission payload")
		return true
	}

	o.phase = models.PhaseEnding
	onComplete := o.deps.OnComplete
	sessionID := o.cfg.ID
	o.mu.Unlock()

	o.deps.Log.WithFields(logrus.Fields{
		"average_score": scores.AverageScore,
		"turns":         o.transcript.Len(),
	}).Info("interview completed")

	if onComplete != nil {
		onComplete(sessionID, payload)
	}
	return true
}

// teardownLocked stops the event loop, the audio channel and the realtime
// client. Callers hold the mutex.
func (o *Orchestrator) teardownLocked() {
	if o.stopCh != nil {
		close(o.stopCh)
		o.stopCh = nil
	}
	if o.client != nil {
		o.deps.Audio.End()
		if err := o.client.Disconnect(); err != nil {
			o.deps.Log.WithError(err).Debug("disconnect returned error")
		}
		o.client = nil
	}
}

// eventLoop consumes the realtime event stream for one interview run.
func (o *Orchestrator) eventLoop(client realtime.Client, stopCh chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		case ev, ok := <-client.Events():
			if !ok {
				return
			}
			switch ev.Kind {
			case realtime.EventConversationUpdated:
				if ev.Text != "" {
					o.transcript.Upsert(ev.ItemID, ev.Role, ev.Text)
				}
				if len(ev.AudioDelta) > 0 {
					if err := o.deps.Audio.Add16BitPCM(ev.AudioDelta, ev.ItemID); err != nil {
						o.deps.Log.WithError(err).Debug("dropping playback delta")
					}
				}
			case realtime.EventConversationInterrupted:
				if err := o.deps.Audio.Interrupt(); err != nil {
					o.deps.Log.WithError(err).Debug("interrupt failed")
				}
			case realtime.EventError:
				o.deps.Log.WithError(ev.Err).Warn("realtime session error")
			}
		}
	}
}
