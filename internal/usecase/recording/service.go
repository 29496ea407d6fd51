package recording

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/internal/domain/repositories"
)

// AudioStore reads assembled recordings back from object storage.
type AudioStore interface {
	GetRecording(ctx context.Context, objectKey string) ([]byte, error)
}

// Audio is a downloadable recording payload.
type Audio struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Service defines the interface for the recording resource use case
type Service interface {
	// Get retrieves a recording by ID
	Get(ctx context.Context, id uuid.UUID) (*entities.Recording, error)

	// GetBySession retrieves the recording assembled from an upload session
	GetBySession(ctx context.Context, sessionID string) (*entities.Recording, error)

	// Audio retrieves the assembled audio bytes for download
	Audio(ctx context.Context, id uuid.UUID) (*Audio, error)
}

// Ensure RecordingService implements Service interface
var _ Service = (*RecordingService)(nil)

// RecordingService implements the recording resource
type RecordingService struct {
	recordings repositories.RecordingRepository
	store      AudioStore
	logger     *zap.Logger
}

// NewRecordingService creates a new recording service
func NewRecordingService(recordings repositories.RecordingRepository, store AudioStore, logger *zap.Logger) *RecordingService {
	return &RecordingService{
		recordings: recordings,
		store:      store,
		logger:     logger,
	}
}

// Get retrieves a recording by ID
func (s *RecordingService) Get(ctx context.Context, id uuid.UUID) (*entities.Recording, error) {
	rec, err := s.recordings.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("find recording", err)
	}
	if rec == nil {
		return nil, apperrors.ErrNotFound("recording")
	}
	return rec, nil
}

// GetBySession retrieves the recording assembled from an upload session
func (s *RecordingService) GetBySession(ctx context.Context, sessionID string) (*entities.Recording, error) {
	rec, err := s.recordings.FindByUploadSessionID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("find recording by session", err)
	}
	if rec == nil {
		return nil, apperrors.ErrNotFound("recording")
	}
	return rec, nil
}

// Audio retrieves the assembled audio bytes for download
func (s *RecordingService) Audio(ctx context.Context, id uuid.UUID) (*Audio, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.store.GetRecording(ctx, rec.ObjectKey)
	if err != nil {
		return nil, apperrors.ErrStorageFailed("read recording", err)
	}

	return &Audio{
		FileName:    rec.FileName,
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}
