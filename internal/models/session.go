package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase is a named state in the interview session lifecycle.
type Phase string

const (
	PhaseLoading     Phase = "loading"
	PhaseWelcome     Phase = "welcome"
	PhaseAnalyzing   Phase = "analyzing"
	PhasePreparation Phase = "preparation"
	PhaseInterview   Phase = "interview"
	PhaseEnding      Phase = "ending"
	PhaseError       Phase = "error"
)

type InterviewSession struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CandidateToken string    `gorm:"type:text;not null" json:"candidate_token"`
	Role           string    `gorm:"type:text;not null" json:"role"`
	Language       string    `gorm:"type:text;not null;default:'English'" json:"language"`
	Phase          Phase     `gorm:"type:text;not null;default:'loading'" json:"phase"`
	CandidateName  string    `gorm:"type:text" json:"candidate_name"`
	ProfileJSON    *string   `gorm:"type:text" json:"-"`
	ScoresJSON     *string   `gorm:"type:text" json:"-"`
	ErrorMessage   *string   `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}

type SubmissionStatus string

const (
	SubmissionQueued     SubmissionStatus = "queued"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionCompleted  SubmissionStatus = "completed"
	SubmissionFailed     SubmissionStatus = "failed"
)

// Submission is the persisted interview outcome. PayloadJSON carries the
// full flattened record delivered to the recruiting backend; the scalar
// columns exist for listing and export.
type Submission struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"session_id"`
	Status       SubmissionStatus `gorm:"not null;default:'queued'" json:"status"`
	FullName     string           `gorm:"type:text" json:"full_name"`
	Role         string           `gorm:"type:text" json:"role"`
	Language     string           `gorm:"type:text" json:"language"`
	AverageScore float64          `json:"average_score"`
	RoleFitScore int              `json:"role_fit_score"`
	TotalCostUSD float64          `json:"total_cost_usd"`
	PayloadJSON  string           `gorm:"type:text;not null" json:"-"`
	ErrorMessage *string          `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Submission) TableName() string {
	return "submissions"
}
