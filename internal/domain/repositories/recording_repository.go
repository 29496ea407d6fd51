package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// RecordingRepository defines persistence operations for assembled recordings.
type RecordingRepository interface {
	Create(ctx context.Context, recording *entities.Recording) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Recording, error)
	FindByUploadSessionID(ctx context.Context, sessionID string) (*entities.Recording, error)
	Update(ctx context.Context, recording *entities.Recording) error
}
