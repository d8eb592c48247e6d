package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"recruitai/interview-orchestrator/internal/models"
)

// ResumeAnalyzer turns extracted resume text into a CandidateProfile via the
// analysis model, grounded with role context retrieved from the vector
// store.
type ResumeAnalyzer interface {
	Analyze(ctx context.Context, role RoleTemplate, resumeText string) (*models.CandidateProfile, models.UsageData, error)
}

type resumeAnalyzer struct {
	gemini        GeminiService
	qdrant        QdrantService
	promptBuilder *PromptBuilder
	maxRetries    int
	log           *logrus.Entry
}

func NewResumeAnalyzer(
	gemini GeminiService,
	qdrant QdrantService,
	maxRetries int,
	log *logrus.Entry,
) ResumeAnalyzer {
	return &resumeAnalyzer{
		gemini:        gemini,
		qdrant:        qdrant,
		promptBuilder: NewPromptBuilder(),
		maxRetries:    maxRetries,
		log:           log,
	}
}

// Analyze implements ResumeAnalyzer. A malformed model response is an
// explicit error; the caller decides how to recover (the orchestrator
// returns the session to the welcome phase).
func (a *resumeAnalyzer) Analyze(ctx context.Context, role RoleTemplate, resumeText string) (*models.CandidateProfile, models.UsageData, error) {
	roleContext := a.retrieveRoleContext(ctx, role, resumeText)

	prompt := a.promptBuilder.BuildAnalysisPrompt(role, roleContext, resumeText)

	response, usage, err := a.gemini.GenerateTextWithRetry(ctx, prompt, 0.3, a.maxRetries)
	if err != nil {
		return nil, models.UsageData{}, fmt.Errorf("analysis call failed: %w", err)
	}

	profile, err := parseProfile(response)
	if err != nil {
		return nil, usage, err
	}

	a.log.WithFields(logrus.Fields{
		"candidate":     profile.FullName,
		"role":          role.Key,
		"input_tokens":  usage.InputTokens,
		"output_tokens": usage.OutputTokens,
	}).Info("resume analysis completed")

	return profile, usage, nil
}

// retrieveRoleContext fetches role-tagged context documents for the prompt.
// Retrieval failure degrades to an empty context rather than failing the
// analysis.
func (a *resumeAnalyzer) retrieveRoleContext(ctx context.Context, role RoleTemplate, resumeText string) string {
	if a.qdrant == nil {
		return "No role context available."
	}

	embedding, err := a.gemini.GenerateEmbedding(ctx, resumeText)
	if err != nil {
		a.log.WithField("error", err.Error()).Warn("failed to embed resume for context retrieval")
		return "No role context available."
	}

	results, err := a.qdrant.SearchRoleContext(ctx, embedding, role.Key, 3)
	if err != nil {
		a.log.WithField("error", err.Error()).Warn("role context search failed")
		return "No role context available."
	}

	return FormatRoleContext(results)
}

// parseProfile decodes and validates the model's JSON answer.
func parseProfile(response string) (*models.CandidateProfile, error) {
	jsonStr := ExtractJSON(response)

	var profile models.CandidateProfile
	if err := json.Unmarshal([]byte(jsonStr), &profile); err != nil {
		return nil, fmt.Errorf("malformed analysis response: %w", err)
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid candidate profile: %w", err)
	}

	return &profile, nil
}

// ExtractJSON pulls a JSON object or array out of model output that may be
// wrapped in markdown fences or prose.
func ExtractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return text
}
