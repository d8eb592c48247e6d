package models

type CreateSessionRequest struct {
	CandidateToken string `json:"candidate_token" validate:"required"`
	Role           string `json:"role" validate:"required"`
	Language       string `json:"language"`
}

type SessionResponse struct {
	ID            string            `json:"id"`
	Phase         string            `json:"phase"`
	Role          string            `json:"role"`
	Language      string            `json:"language"`
	CandidateName string            `json:"candidate_name,omitempty"`
	Profile       *CandidateProfile `json:"profile,omitempty"`
	EndRequested  bool              `json:"end_requested"`
	ErrorMessage  string            `json:"error_message,omitempty"`
}

type UpdateContactRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ResultResponse struct {
	SessionID    string             `json:"session_id"`
	Status       string             `json:"status"`
	Payload      *SubmissionPayload `json:"payload,omitempty"`
	ErrorMessage *string            `json:"error_message,omitempty"`
}
