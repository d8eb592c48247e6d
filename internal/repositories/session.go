package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"recruitai/interview-orchestrator/internal/models"
)

type SessionRepository interface {
	Create(session *models.InterviewSession) error
	FindByID(id uuid.UUID) (*models.InterviewSession, error)
	UpdatePhase(id uuid.UUID, phase models.Phase) error
	UpdateState(id uuid.UUID, updates map[string]interface{}) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *models.InterviewSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) FindByID(id uuid.UUID) (*models.InterviewSession, error) {
	var session models.InterviewSession
	if err := r.db.Where("id = ?", id).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("session not found")
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) UpdatePhase(id uuid.UUID, phase models.Phase) error {
	return r.UpdateState(id, map[string]interface{}{"phase": phase})
}

func (r *sessionRepository) UpdateState(id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.Model(&models.InterviewSession{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update session: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}
