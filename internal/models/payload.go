package models

import "encoding/json"

// Knockout is one screening answer in the submission record.
type Knockout struct {
	Question string `json:"question"`
	Pass     bool   `json:"pass"`
}

// SubmissionPayload is the flattened record delivered to the recruiting
// backend. Field names follow its fixed external schema. Optional text
// fields are pointers so absent values serialize as null.
type SubmissionPayload struct {
	LanguagePref string `json:"language_pref"`

	RaFullName            string            `json:"ra_full_name"`
	RaCandidateEmail      string            `json:"ra_candidate_email"`
	RaCandidatePhone      string            `json:"ra_candidate_phone"`
	RaHighestEducation    *string           `json:"ra_highest_education"`
	RaCurrentRole         *string           `json:"ra_current_role"`
	RaYearsExperience     int               `json:"ra_years_experience"`
	RaProfessionalSummary *string           `json:"ra_professional_summary"`
	RaRelatedLinks        []string          `json:"ra_related_links"`
	RaCertsRelate         []string          `json:"ra_certs_relate"`
	RaSkillMatch          []SkillMatch      `json:"ra_skill_match"`
	RaExperienceMatch     []ExperienceMatch `json:"ra_experience_match"`
	RaConcernAreas        []string          `json:"ra_concern_areas"`
	RaStrengths           []Strength        `json:"ra_strengths"`
	RaRolefitScore        int               `json:"ra_rolefit_score"`
	RaRolefitReason       *string           `json:"ra_rolefit_reason"`

	IntAverageScore        float64    `json:"int_average_score"`
	IntSpokenScore         int        `json:"int_spoken_score"`
	IntSpokenReason        *string    `json:"int_spoken_reason"`
	IntBehaviorScore       int        `json:"int_behavior_score"`
	IntBehaviorReason      *string    `json:"int_behavior_reason"`
	IntCommunicationScore  int        `json:"int_communication_score"`
	IntCommunicationReason *string    `json:"int_communication_reason"`
	IntKnockouts           []Knockout `json:"int_knockouts"`
	IntSummary             *string    `json:"int_summary"`
	IntFullTranscript      string     `json:"int_full_transcript"`

	RaInputTokens   int     `json:"ra_input_tokens"`
	RaOutputTokens  int     `json:"ra_output_tokens"`
	IntInputTokens  int     `json:"int_input_tokens"`
	IntOutputTokens int     `json:"int_output_tokens"`
	IntAudioSec     int     `json:"int_audio_sec"`
	TotalCostUSD    float64 `json:"total_cost_usd"`

	RawProfile json.RawMessage `json:"raw_profile"`
	RawScores  json.RawMessage `json:"raw_scores"`
}
