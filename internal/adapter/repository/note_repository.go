package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// NoteRepository handles SOAP note data operations
type NoteRepository struct {
	db *gorm.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create creates a new SOAP note
func (r *NoteRepository) Create(ctx context.Context, note *entities.SOAPNote) error {
	if note == nil {
		return errors.New("note cannot be nil")
	}
	return r.db.WithContext(ctx).Create(note).Error
}

// FindByID retrieves a SOAP note by ID
func (r *NoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.SOAPNote, error) {
	var note entities.SOAPNote
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &note, nil
}

// List retrieves all SOAP notes, newest first
func (r *NoteRepository) List(ctx context.Context) ([]*entities.SOAPNote, error) {
	var notes []*entities.SOAPNote
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// Update updates a SOAP note
func (r *NoteRepository) Update(ctx context.Context, note *entities.SOAPNote) error {
	if note == nil {
		return errors.New("note cannot be nil")
	}
	return r.db.WithContext(ctx).Save(note).Error
}

// SaveChunkSummaries persists the rolling summaries attached to a note
func (r *NoteRepository) SaveChunkSummaries(ctx context.Context, summaries []entities.ChunkSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&summaries).Error
}

// FindChunkSummaries retrieves the rolling summaries for a note in chunk order
func (r *NoteRepository) FindChunkSummaries(ctx context.Context, noteID uuid.UUID) ([]entities.ChunkSummary, error) {
	var summaries []entities.ChunkSummary
	if err := r.db.WithContext(ctx).
		Where("soap_note_id = ?", noteID).
		Order("chunk_index ASC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}
