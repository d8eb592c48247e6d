package models

import (
	"encoding/json"
	"testing"
)

func TestCandidateProfile_StringWrappedLists(t *testing.T) {
	// The analysis model occasionally encodes list fields as JSON strings.
	input := `{
		"full_name": "Jane Doe",
		"related_links": "[\"https://example.com\"]",
		"certifications": [],
		"concern_areas": "not a list at all",
		"skill_matches": "[{\"name\": \"CRM\", \"justification\": \"3 years\"}]"
	}`

	var p CandidateProfile
	if err := json.Unmarshal([]byte(input), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(p.RelatedLinks) != 1 || p.RelatedLinks[0] != "https://example.com" {
		t.Errorf("related_links = %v", p.RelatedLinks)
	}
	if p.Certifications == nil || len(p.Certifications) != 0 {
		t.Errorf("certifications = %v", p.Certifications)
	}
	// Unparseable values degrade to empty, never fail the decode.
	if len(p.ConcernAreas) != 0 {
		t.Errorf("concern_areas = %v", p.ConcernAreas)
	}
	if len(p.SkillMatches) != 1 || p.SkillMatches[0].Name != "CRM" {
		t.Errorf("skill_matches = %v", p.SkillMatches)
	}
}

func TestCandidateProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile CandidateProfile
		wantErr bool
	}{
		{
			name:    "valid",
			profile: CandidateProfile{FullName: "Jane", YearsExperience: 2, RoleFit: RoleFit{Score: 5}},
		},
		{
			name:    "missing name",
			profile: CandidateProfile{YearsExperience: 2},
			wantErr: true,
		},
		{
			name:    "whitespace name",
			profile: CandidateProfile{FullName: "   "},
			wantErr: true,
		},
		{
			name:    "negative experience",
			profile: CandidateProfile{FullName: "Jane", YearsExperience: -1},
			wantErr: true,
		},
		{
			name:    "rolefit too high",
			profile: CandidateProfile{FullName: "Jane", RoleFit: RoleFit{Score: 11}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInterviewScores_ComputeAverage(t *testing.T) {
	s := InterviewScores{
		ScoreBreakdown: map[string]DimensionScore{
			DimensionSpoken:        {Score: 4},
			DimensionBehavior:      {Score: 4},
			DimensionCommunication: {Score: 4.6},
		},
		KnockoutBreakdown: map[string]string{
			KnockoutAvailability: "yes",
		},
	}

	got := s.ComputeAverage()
	if got < 4.19 || got > 4.21 {
		t.Errorf("average = %v, want 4.2", got)
	}

	empty := InterviewScores{}
	if empty.ComputeAverage() != 0 {
		t.Error("empty breakdown should average to 0")
	}
}

func TestUsageData_Add(t *testing.T) {
	a := UsageData{InputTokens: 100, OutputTokens: 50, AudioSeconds: 10.5}
	b := UsageData{InputTokens: 20, OutputTokens: 5, AudioSeconds: 2}

	got := a.Add(b)
	want := UsageData{InputTokens: 120, OutputTokens: 55, AudioSeconds: 12.5}
	if got != want {
		t.Errorf("Add = %+v, want %+v", got, want)
	}
}
