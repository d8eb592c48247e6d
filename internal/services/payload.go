package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"recruitai/interview-orchestrator/internal/models"
)

// PayloadInput gathers everything the builder flattens into the submission
// record.
type PayloadInput struct {
	Profile       *models.CandidateProfile
	Scores        *models.InterviewScores
	Transcript    string
	Language      string
	AnalysisUsage models.UsageData
	SessionUsage  models.UsageData
	Cost          CostBreakdown
	Knockouts     map[string]string
}

// BuildSubmissionPayload assembles the flattened record for the recruiting
// backend. It is pure and defensive: list fields default to empty slices,
// optional text fields to null, fractional scores round to integers where
// the destination is integer-typed.
func BuildSubmissionPayload(in PayloadInput) (*models.SubmissionPayload, error) {
	if in.Profile == nil {
		return nil, fmt.Errorf("payload requires a candidate profile")
	}
	if in.Scores == nil {
		return nil, fmt.Errorf("payload requires interview scores")
	}

	rawProfile, err := json.Marshal(in.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	rawScores, err := json.Marshal(in.Scores)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scores: %w", err)
	}

	p := &models.SubmissionPayload{
		LanguagePref: in.Language,

		RaFullName:            in.Profile.FullName,
		RaCandidateEmail:      in.Profile.Email,
		RaCandidatePhone:      in.Profile.Phone,
		RaHighestEducation:    optional(in.Profile.HighestEducation),
		RaCurrentRole:         optional(in.Profile.CurrentRole),
		RaYearsExperience:     roundToInt(in.Profile.YearsExperience),
		RaProfessionalSummary: optional(in.Profile.ProfessionalSummary),
		RaRelatedLinks:        emptyIfNil([]string(in.Profile.RelatedLinks)),
		RaCertsRelate:         emptyIfNil([]string(in.Profile.Certifications)),
		RaSkillMatch:          emptyIfNil([]models.SkillMatch(in.Profile.SkillMatches)),
		RaExperienceMatch:     emptyIfNil([]models.ExperienceMatch(in.Profile.ExperienceMatches)),
		RaConcernAreas:        emptyIfNil([]string(in.Profile.ConcernAreas)),
		RaStrengths:           emptyIfNil([]models.Strength(in.Profile.Strengths)),
		RaRolefitScore:        roundToInt(in.Profile.RoleFit.Score),
		RaRolefitReason:       optional(in.Profile.RoleFit.Justification),

		IntAverageScore:   in.Scores.AverageScore,
		IntKnockouts:      buildKnockouts(in.Scores.KnockoutBreakdown, in.Knockouts),
		IntSummary:        optional(in.Scores.Summary),
		IntFullTranscript: in.Transcript,

		RaInputTokens:   in.AnalysisUsage.InputTokens,
		RaOutputTokens:  in.AnalysisUsage.OutputTokens,
		IntInputTokens:  in.SessionUsage.InputTokens,
		IntOutputTokens: in.SessionUsage.OutputTokens,
		IntAudioSec:     roundToInt(in.SessionUsage.AudioSeconds),
		TotalCostUSD:    in.Cost.TotalCostUSD,

		RawProfile: rawProfile,
		RawScores:  rawScores,
	}

	if d, ok := in.Scores.ScoreBreakdown[models.DimensionSpoken]; ok {
		p.IntSpokenScore = roundToInt(d.Score)
		p.IntSpokenReason = optional(d.Reasoning)
	}
	if d, ok := in.Scores.ScoreBreakdown[models.DimensionBehavior]; ok {
		p.IntBehaviorScore = roundToInt(d.Score)
		p.IntBehaviorReason = optional(d.Reasoning)
	}
	if d, ok := in.Scores.ScoreBreakdown[models.DimensionCommunication]; ok {
		p.IntCommunicationScore = roundToInt(d.Score)
		p.IntCommunicationReason = optional(d.Reasoning)
	}

	return p, nil
}

// buildKnockouts maps raw knockout answers onto the fixed question set. An
// answer passes when it reads as an affirmative; free-text answers pass when
// non-empty.
func buildKnockouts(answers map[string]string, questions map[string]string) []models.Knockout {
	result := make([]models.Knockout, 0, len(models.KnockoutKeys))

	for _, key := range models.KnockoutKeys {
		question, ok := questions[key]
		if !ok {
			question = key
		}

		answer, answered := answers[key]
		result = append(result, models.Knockout{
			Question: question,
			Pass:     answered && knockoutPasses(answer),
		})
	}

	return result
}

func knockoutPasses(answer string) bool {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	if normalized == "" {
		return false
	}
	switch normalized {
	case "no", "false", "n", "never", "not willing", "unable":
		return false
	}
	return true
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func emptyIfNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func roundToInt(f float64) int {
	return int(math.Round(f))
}
