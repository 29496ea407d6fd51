package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// NoteRepository defines persistence operations for SOAP notes and their
// attached rolling summaries.
type NoteRepository interface {
	Create(ctx context.Context, note *entities.SOAPNote) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.SOAPNote, error)
	List(ctx context.Context) ([]*entities.SOAPNote, error)
	Update(ctx context.Context, note *entities.SOAPNote) error
	SaveChunkSummaries(ctx context.Context, summaries []entities.ChunkSummary) error
	FindChunkSummaries(ctx context.Context, noteID uuid.UUID) ([]entities.ChunkSummary, error)
}
