package models

// Dimension keys the scoring tool is asked to fill in.
const (
	DimensionSpoken        = "spoken"
	DimensionBehavior      = "behavior"
	DimensionCommunication = "communication"
)

// Knockout question keys. These are screening facts tracked alongside, but
// never averaged into, the scored dimensions.
const (
	KnockoutAvailability     = "availability"
	KnockoutExpectedSalary   = "expected_salary"
	KnockoutShiftFlexibility = "shift_flexibility"
	KnockoutNoticePeriod     = "notice_period"
)

// KnockoutKeys lists the fixed knockout keys in submission order.
var KnockoutKeys = []string{
	KnockoutAvailability,
	KnockoutExpectedSalary,
	KnockoutShiftFlexibility,
	KnockoutNoticePeriod,
}

type DimensionScore struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// InterviewScores arrives atomically from the submit_scores tool invocation.
// Once set it terminates the interview; it is never mutated afterwards.
type InterviewScores struct {
	ScoreBreakdown    map[string]DimensionScore `json:"score_breakdown"`
	KnockoutBreakdown map[string]string         `json:"knockout_breakdown"`
	AverageScore      float64                   `json:"average_score"`
	Summary           string                    `json:"summary"`
}

// ComputeAverage returns the mean over the scored dimensions only. Knockout
// answers never contribute.
func (s *InterviewScores) ComputeAverage() float64 {
	if len(s.ScoreBreakdown) == 0 {
		return 0
	}
	var sum float64
	for _, d := range s.ScoreBreakdown {
		sum += d.Score
	}
	return sum / float64(len(s.ScoreBreakdown))
}

// Role identifies the speaker of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TranscriptTurn is one conversation turn, ordered by emission.
type TranscriptTurn struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UsageData feeds the cost estimator. It is derived bookkeeping, not an
// authoritative bill.
type UsageData struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	AudioSeconds float64 `json:"audio_seconds"`
}

// Add returns the element-wise sum of two usage records.
func (u UsageData) Add(other UsageData) UsageData {
	return UsageData{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		AudioSeconds: u.AudioSeconds + other.AudioSeconds,
	}
}
