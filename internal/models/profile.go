package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// coerceList decodes a JSON array, accepting the array either directly or
// wrapped in a JSON-encoded string (the analysis model occasionally returns
// `"[]"` instead of `[]`). Anything unparseable becomes an empty list.
func coerceList[T any](data []byte) []T {
	var direct []T
	if err := json.Unmarshal(data, &direct); err == nil {
		return direct
	}

	var wrapped string
	if err := json.Unmarshal(data, &wrapped); err == nil {
		var nested []T
		if err := json.Unmarshal([]byte(wrapped), &nested); err == nil {
			return nested
		}
	}

	return []T{}
}

// StringList is a []string that tolerates string-encoded JSON arrays.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	*l = coerceList[string](data)
	return nil
}

type SkillMatch struct {
	Name          string `json:"name"`
	Justification string `json:"justification"`
}

type SkillMatchList []SkillMatch

func (l *SkillMatchList) UnmarshalJSON(data []byte) error {
	*l = coerceList[SkillMatch](data)
	return nil
}

type ExperienceMatch struct {
	Area          string `json:"area"`
	Justification string `json:"justification"`
}

type ExperienceMatchList []ExperienceMatch

func (l *ExperienceMatchList) UnmarshalJSON(data []byte) error {
	*l = coerceList[ExperienceMatch](data)
	return nil
}

type Strength struct {
	Trait         string `json:"trait"`
	Justification string `json:"justification"`
}

type StrengthList []Strength

func (l *StrengthList) UnmarshalJSON(data []byte) error {
	*l = coerceList[Strength](data)
	return nil
}

type RoleFit struct {
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

// CandidateProfile is the record extracted from a resume by the analysis
// call. It is created once per session and immutable afterwards, except for
// the contact fields which the candidate may correct during review.
type CandidateProfile struct {
	FullName            string              `json:"full_name"`
	Email               string              `json:"email"`
	Phone               string              `json:"phone"`
	RelatedLinks        StringList          `json:"related_links"`
	HighestEducation    string              `json:"highest_education"`
	Certifications      StringList          `json:"certifications"`
	CurrentRole         string              `json:"current_role"`
	YearsExperience     float64             `json:"years_experience"`
	ProfessionalSummary string              `json:"professional_summary"`
	SkillMatches        SkillMatchList      `json:"skill_matches"`
	ExperienceMatches   ExperienceMatchList `json:"experience_matches"`
	ConcernAreas        StringList          `json:"concern_areas"`
	Strengths           StrengthList        `json:"strengths"`
	RoleFit             RoleFit             `json:"role_fit"`
}

// Validate rejects profiles that are too malformed to carry a session.
func (p *CandidateProfile) Validate() error {
	if strings.TrimSpace(p.FullName) == "" {
		return fmt.Errorf("profile missing full_name")
	}
	if p.YearsExperience < 0 {
		return fmt.Errorf("years_experience must be non-negative, got %v", p.YearsExperience)
	}
	if p.RoleFit.Score < 0 || p.RoleFit.Score > 10 {
		return fmt.Errorf("role_fit score out of range: %v", p.RoleFit.Score)
	}
	return nil
}
