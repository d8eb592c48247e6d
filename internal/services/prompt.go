package services

import (
	"fmt"
	"strings"

	"recruitai/interview-orchestrator/internal/models"
)

// RoleTemplate is the interview-target metadata for one open role. The
// per-role screen variants of the recruiting flow collapse into this
// configuration: same orchestrator, different template.
type RoleTemplate struct {
	Key       string
	Title     string
	Focus     string
	Knockouts map[string]string
}

func defaultKnockouts() map[string]string {
	return map[string]string{
		models.KnockoutAvailability:     "When can you start?",
		models.KnockoutExpectedSalary:   "What is your expected salary?",
		models.KnockoutShiftFlexibility: "Are you able to work rotating shifts, including weekends?",
		models.KnockoutNoticePeriod:     "What is your notice period with your current employer?",
	}
}

// RoleRegistry resolves a role key to its template. Unknown roles fail the
// session's metadata fetch.
type RoleRegistry struct {
	roles map[string]RoleTemplate
}

func NewRoleRegistry() *RoleRegistry {
	roles := map[string]RoleTemplate{
		"customer-service-agent": {
			Key:       "customer-service-agent",
			Title:     "Customer Service Agent",
			Focus:     "customer empathy, conflict de-escalation, clarity under pressure",
			Knockouts: defaultKnockouts(),
		},
		"sales-executive": {
			Key:       "sales-executive",
			Title:     "Sales Executive",
			Focus:     "persuasion, objection handling, pipeline discipline",
			Knockouts: defaultKnockouts(),
		},
		"retail-associate": {
			Key:       "retail-associate",
			Title:     "Retail Associate",
			Focus:     "product knowledge, upselling, in-person customer handling",
			Knockouts: defaultKnockouts(),
		},
		"technical-support": {
			Key:       "technical-support",
			Title:     "Technical Support Specialist",
			Focus:     "troubleshooting methodology, patience, technical communication",
			Knockouts: defaultKnockouts(),
		},
		"admin-assistant": {
			Key:       "admin-assistant",
			Title:     "Administrative Assistant",
			Focus:     "organization, scheduling, written communication",
			Knockouts: defaultKnockouts(),
		},
	}
	return &RoleRegistry{roles: roles}
}

// Lookup returns the template for a role key.
func (r *RoleRegistry) Lookup(key string) (RoleTemplate, error) {
	tmpl, ok := r.roles[key]
	if !ok {
		return RoleTemplate{}, fmt.Errorf("unknown role: %s", key)
	}
	return tmpl, nil
}

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildAnalysisPrompt creates the resume-analysis prompt. The model must
// answer with a single JSON object matching the CandidateProfile shape.
func (pb *PromptBuilder) BuildAnalysisPrompt(role RoleTemplate, roleContext, resumeText string) string {
	return fmt.Sprintf(`You are an expert HR recruiter screening a resume for a %s position.

ROLE CONTEXT:
%s

CANDIDATE RESUME:
%s

Extract a structured candidate profile and assess fit for the role, paying particular attention to: %s.

Return ONLY a JSON object with exactly these fields:
{
  "full_name": "<candidate full name>",
  "email": "<email or empty string>",
  "phone": "<phone or empty string>",
  "related_links": ["<url>", ...],
  "highest_education": "<single highest qualification>",
  "certifications": ["<certification>", ...],
  "current_role": "<current job title>",
  "years_experience": <non-negative number>,
  "professional_summary": "<3-4 sentence summary>",
  "skill_matches": [{"name": "<skill>", "justification": "<why it matches>"}, ...],
  "experience_matches": [{"area": "<area>", "justification": "<evidence from resume>"}, ...],
  "concern_areas": ["<concern>", ...],
  "strengths": [{"trait": "<trait>", "justification": "<evidence>"}, ...],
  "role_fit": {"score": <1-10>, "justification": "<2-3 sentences>"}
}

Be objective. Cite concrete evidence from the resume in every justification.`,
		role.Title, roleContext, resumeText, role.Focus)
}

// BuildInterviewerInstructions creates the system instructions for the
// realtime voice session.
func (pb *PromptBuilder) BuildInterviewerInstructions(role RoleTemplate, profile *models.CandidateProfile, language string) string {
	var concerns string
	if profile != nil && len(profile.ConcernAreas) > 0 {
		concerns = "Probe these concern areas from the resume screening: " + strings.Join(profile.ConcernAreas, "; ") + "."
	}

	var knockouts []string
	for _, key := range models.KnockoutKeys {
		if q, ok := role.Knockouts[key]; ok {
			knockouts = append(knockouts, fmt.Sprintf("- %s: %s", key, q))
		}
	}

	return fmt.Sprintf(`You are a professional recruiter conducting a spoken screening interview for a %s position. Conduct the entire interview in %s.

Assess the candidate on three dimensions, each scored 1-5:
- spoken: fluency and confidence of spoken language
- behavior: professionalism and composure
- communication: clarity and structure of answers

%s

You must also ask every knockout question and record the candidate's answer verbatim:
%s

Keep questions short and conversational. Ask one question at a time.

When the interview is complete, call the submit_scores tool exactly once with the full score breakdown, knockout answers, and a summary. If the candidate says they want to stop, call the request_end tool and wrap up with the remaining knockout questions before scoring.`,
		role.Title, language, concerns, strings.Join(knockouts, "\n"))
}

// BuildGreeting creates the opening user message that kicks off the
// conversation once the session is connected.
func (pb *PromptBuilder) BuildGreeting(name, roleTitle, language string) string {
	return fmt.Sprintf(
		"Hello, my name is %s and I am interviewing for the %s position. Please greet me in %s and begin the interview.",
		name, roleTitle, language,
	)
}

// FormatRoleContext flattens retrieval results into prompt context.
func FormatRoleContext(results []SearchResult) string {
	if len(results) == 0 {
		return "No role context available."
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Context %d (%s, score %.2f) ---\n%s",
			i+1, result.DocType, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
