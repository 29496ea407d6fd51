package note

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/internal/domain/repositories"
)

const cacheTTL = 5 * time.Minute

// Cache is the read-through cache in front of note lookups. A nil-safe
// implementation backed by Redis is wired in at startup.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Detail is a note together with the rolling summaries that fed its
// synthesis.
type Detail struct {
	Note           *entities.SOAPNote      `json:"note"`
	ChunkSummaries []entities.ChunkSummary `json:"chunk_summaries"`
}

// Service defines the interface for the note resource use case
type Service interface {
	// Get retrieves a note and its chunk summaries by ID
	Get(ctx context.Context, id uuid.UUID) (*Detail, error)

	// List retrieves all notes, newest first
	List(ctx context.Context) ([]*entities.SOAPNote, error)

	// Update replaces all four sections atomically
	Update(ctx context.Context, id uuid.UUID, sections entities.SOAPSections) (*entities.SOAPNote, error)
}

// Ensure NoteService implements Service interface
var _ Service = (*NoteService)(nil)

// NoteService implements the note resource
type NoteService struct {
	notes  repositories.NoteRepository
	cache  Cache
	logger *zap.Logger
}

// NewNoteService creates a new note service. Cache may be nil; lookups then
// go straight to the database.
func NewNoteService(notes repositories.NoteRepository, cache Cache, logger *zap.Logger) *NoteService {
	return &NoteService{
		notes:  notes,
		cache:  cache,
		logger: logger,
	}
}

func cacheKey(id uuid.UUID) string {
	return "note:" + id.String()
}

// Get retrieves a note with its chunk summaries, read-through cached
func (s *NoteService) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, cacheKey(id)); err != nil {
			s.logger.Warn("note cache read failed", zap.String("note_id", id.String()), zap.Error(err))
		} else if ok {
			var detail Detail
			if err := json.Unmarshal([]byte(raw), &detail); err == nil && detail.Note != nil {
				return &detail, nil
			}
		}
	}

	note, err := s.notes.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("find note", err)
	}
	if note == nil {
		return nil, apperrors.ErrNotFound("note")
	}

	summaries, err := s.notes.FindChunkSummaries(ctx, id)
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("find chunk summaries", err)
	}

	detail := &Detail{Note: note, ChunkSummaries: summaries}

	if s.cache != nil {
		if raw, err := json.Marshal(detail); err == nil {
			if err := s.cache.Set(ctx, cacheKey(id), string(raw), cacheTTL); err != nil {
				s.logger.Warn("note cache write failed", zap.String("note_id", id.String()), zap.Error(err))
			}
		}
	}

	return detail, nil
}

// List retrieves all notes, newest first
func (s *NoteService) List(ctx context.Context) ([]*entities.SOAPNote, error) {
	notes, err := s.notes.List(ctx)
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("list notes", err)
	}
	return notes, nil
}

// Update replaces all four sections atomically (whole-document replace) and
// invalidates the cache entry
func (s *NoteService) Update(ctx context.Context, id uuid.UUID, sections entities.SOAPSections) (*entities.SOAPNote, error) {
	note, err := s.notes.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("find note", err)
	}
	if note == nil {
		return nil, apperrors.ErrNotFound("note")
	}

	note.ReplaceSections(sections)
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, apperrors.ErrDBQueryFailed("update note", err)
	}

	// A failed invalidation would serve the replaced sections for the rest
	// of the cache TTL, so it fails the request.
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
			return nil, apperrors.ErrCacheFailed("invalidate note", err)
		}
	}

	return note, nil
}
