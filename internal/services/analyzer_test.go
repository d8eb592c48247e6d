package services

import (
	"strings"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain object",
			input: `{"full_name": "Jane"}`,
			want:  `{"full_name": "Jane"}`,
		},
		{
			name:  "markdown fenced",
			input: "```json\n{\"full_name\": \"Jane\"}\n```",
			want:  "{\"full_name\": \"Jane\"}",
		},
		{
			name:  "prose around object",
			input: `Here is the profile: {"full_name": "Jane"} Hope that helps!`,
			want:  `{"full_name": "Jane"}`,
		},
		{
			name:  "array",
			input: `[1, 2, 3]`,
			want:  `[1, 2, 3]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.TrimSpace(ExtractJSON(tt.input)); got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseProfile(t *testing.T) {
	valid := "```json\n" + `{
		"full_name": "Jane Doe",
		"email": "jane@example.com",
		"years_experience": 3,
		"role_fit": {"score": 7, "justification": "good"}
	}` + "\n```"

	profile, err := parseProfile(valid)
	if err != nil {
		t.Fatalf("parseProfile: %v", err)
	}
	if profile.FullName != "Jane Doe" || profile.RoleFit.Score != 7 {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestParseProfile_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "I could not read the resume, sorry."},
		{"missing name", `{"email": "jane@example.com"}`},
		{"negative experience", `{"full_name": "Jane", "years_experience": -2}`},
		{"rolefit out of range", `{"full_name": "Jane", "role_fit": {"score": 15}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseProfile(tt.input); err == nil {
				t.Error("expected error")
			}
		})
	}
}
