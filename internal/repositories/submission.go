package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"recruitai/interview-orchestrator/internal/models"
)

type SubmissionRepository interface {
	Create(sub *models.Submission) error
	FindByID(id uuid.UUID) (*models.Submission, error)
	FindBySessionID(sessionID uuid.UUID) (*models.Submission, error)
	FindCompleted() ([]models.Submission, error)
	UpdateStatus(id uuid.UUID, status models.SubmissionStatus) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(sub *models.Submission) error {
	if err := r.db.Create(sub).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *submissionRepository) FindByID(id uuid.UUID) (*models.Submission, error) {
	var sub models.Submission
	if err := r.db.Where("id = ?", id).First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("submission not found")
		}
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}
	return &sub, nil
}

func (r *submissionRepository) FindBySessionID(sessionID uuid.UUID) (*models.Submission, error) {
	var sub models.Submission
	if err := r.db.Where("session_id = ?", sessionID).Order("created_at DESC").First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("submission not found")
		}
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}
	return &sub, nil
}

func (r *submissionRepository) FindCompleted() ([]models.Submission, error) {
	var subs []models.Submission
	err := r.db.
		Where("status = ?", models.SubmissionCompleted).
		Order("created_at ASC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed submissions: %w", err)
	}
	return subs, nil
}

func (r *submissionRepository) UpdateStatus(id uuid.UUID, status models.SubmissionStatus) error {
	result := r.db.Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("submission not found")
	}

	return nil
}

func (r *submissionRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	result := r.db.Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.SubmissionFailed,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update error: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("submission not found")
	}

	return nil
}

func (r *submissionRepository) FindPendingJobs(limit int) ([]models.Submission, error) {
	var subs []models.Submission
	err := r.db.
		Where("status = ?", models.SubmissionQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&subs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return subs, nil
}
