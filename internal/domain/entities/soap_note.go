package entities

import (
	"time"

	"github.com/google/uuid"
)

// SOAPNoteStatus represents the lifecycle of a structured note
type SOAPNoteStatus string

const (
	SOAPNoteStatusDraft     SOAPNoteStatus = "draft"
	SOAPNoteStatusFinalized SOAPNoteStatus = "finalized"
)

// SOAPNote is a structured clinical note with Subjective, Objective,
// Assessment and Plan sections, synthesized from a transcribed encounter.
type SOAPNote struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SourceSessionID string         `json:"source_session_id" gorm:"type:varchar(36);not null;index"`
	Subjective      string         `json:"subjective" gorm:"type:text"`
	Objective       string         `json:"objective" gorm:"type:text"`
	Assessment      string         `json:"assessment" gorm:"type:text"`
	Plan            string         `json:"plan" gorm:"type:text"`
	Status          SOAPNoteStatus `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	CreatedAt       time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (SOAPNote) TableName() string {
	return "soap_notes"
}

// NewSOAPNote creates a note from synthesized sections.
func NewSOAPNote(sourceSessionID string, sections SOAPSections) *SOAPNote {
	return &SOAPNote{
		ID:              uuid.New(),
		SourceSessionID: sourceSessionID,
		Subjective:      sections.Subjective,
		Objective:       sections.Objective,
		Assessment:      sections.Assessment,
		Plan:            sections.Plan,
		Status:          SOAPNoteStatusDraft,
	}
}

// Sections returns the four note sections as a value.
func (n *SOAPNote) Sections() SOAPSections {
	return SOAPSections{
		Subjective: n.Subjective,
		Objective:  n.Objective,
		Assessment: n.Assessment,
		Plan:       n.Plan,
	}
}

// ReplaceSections replaces all four sections atomically (whole-document
// update; there is no per-field patch).
func (n *SOAPNote) ReplaceSections(sections SOAPSections) {
	n.Subjective = sections.Subjective
	n.Objective = sections.Objective
	n.Assessment = sections.Assessment
	n.Plan = sections.Plan
}

// ChunkSummary is a persisted rolling summary attached to a note, kept for
// audit of what the synthesis stage saw during a live conversation.
type ChunkSummary struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SOAPNoteID   uuid.UUID `json:"soap_note_id" gorm:"type:uuid;not null;index"`
	ChunkIndex   int       `json:"chunk_index" gorm:"not null"`
	Summary      string    `json:"summary" gorm:"type:text;not null"`
	FromSequence int       `json:"from_sequence"`
	ToSequence   int       `json:"to_sequence"`
	GeneratedAt  time.Time `json:"generated_at"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (ChunkSummary) TableName() string {
	return "chunk_summaries"
}
