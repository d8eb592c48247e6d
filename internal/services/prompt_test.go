package services

import (
	"strings"
	"testing"

	"recruitai/interview-orchestrator/internal/models"
)

func TestRoleRegistry_Lookup(t *testing.T) {
	registry := NewRoleRegistry()

	role, err := registry.Lookup("customer-service-agent")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if role.Title != "Customer Service Agent" {
		t.Errorf("title = %q", role.Title)
	}
	if len(role.Knockouts) != len(models.KnockoutKeys) {
		t.Errorf("expected %d knockout questions, got %d", len(models.KnockoutKeys), len(role.Knockouts))
	}

	if _, err := registry.Lookup("astronaut"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestBuildInterviewerInstructions(t *testing.T) {
	pb := NewPromptBuilder()
	role, _ := NewRoleRegistry().Lookup("sales-executive")

	profile := &models.CandidateProfile{
		FullName:     "Jane Doe",
		ConcernAreas: models.StringList{"short tenure at last job"},
	}

	got := pb.BuildInterviewerInstructions(role, profile, "Malay")

	for _, want := range []string{
		"Sales Executive",
		"Malay",
		"spoken",
		"behavior",
		"communication",
		"submit_scores",
		"request_end",
		"short tenure at last job",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("instructions missing %q", want)
		}
	}

	// Every knockout question appears.
	for _, key := range models.KnockoutKeys {
		if !strings.Contains(got, key) {
			t.Errorf("instructions missing knockout %q", key)
		}
	}
}

func TestBuildGreeting(t *testing.T) {
	pb := NewPromptBuilder()
	got := pb.BuildGreeting("Jane Doe", "Retail Associate", "English")

	if !strings.Contains(got, "Jane Doe") || !strings.Contains(got, "Retail Associate") {
		t.Errorf("greeting incomplete: %q", got)
	}
}

func TestFormatRoleContext_Empty(t *testing.T) {
	if got := FormatRoleContext(nil); got != "No role context available." {
		t.Errorf("empty context = %q", got)
	}
}
