package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// RecordingRepository handles recording data operations
type RecordingRepository struct {
	db *gorm.DB
}

// NewRecordingRepository creates a new recording repository
func NewRecordingRepository(db *gorm.DB) *RecordingRepository {
	return &RecordingRepository{db: db}
}

// Create creates a new recording
func (r *RecordingRepository) Create(ctx context.Context, recording *entities.Recording) error {
	if recording == nil {
		return errors.New("recording cannot be nil")
	}
	return r.db.WithContext(ctx).Create(recording).Error
}

// FindByID retrieves a recording by ID
func (r *RecordingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Recording, error) {
	var recording entities.Recording
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&recording).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recording, nil
}

// FindByUploadSessionID retrieves the recording assembled from an upload session
func (r *RecordingRepository) FindByUploadSessionID(ctx context.Context, sessionID string) (*entities.Recording, error) {
	var recording entities.Recording
	if err := r.db.WithContext(ctx).
		Where("upload_session_id = ?", sessionID).
		First(&recording).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recording, nil
}

// Update updates a recording
func (r *RecordingRepository) Update(ctx context.Context, recording *entities.Recording) error {
	if recording == nil {
		return errors.New("recording cannot be nil")
	}
	return r.db.WithContext(ctx).Save(recording).Error
}
