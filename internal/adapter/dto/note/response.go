package note

import (
	"time"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// Response is the wire shape of a SOAP note
type Response struct {
	ID              string    `json:"id"`
	SourceSessionID string    `json:"source_session_id"`
	Subjective      string    `json:"subjective"`
	Objective       string    `json:"objective"`
	Assessment      string    `json:"assessment"`
	Plan            string    `json:"plan"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ChunkSummaryResponse is the wire shape of one rolling summary attached to
// a note
type ChunkSummaryResponse struct {
	ChunkIndex   int       `json:"chunk_index"`
	Summary      string    `json:"summary"`
	FromSequence int       `json:"from_sequence,omitempty"`
	ToSequence   int       `json:"to_sequence,omitempty"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// DetailResponse is a note with the chunk summaries that fed it
type DetailResponse struct {
	Response
	ChunkSummaries []ChunkSummaryResponse `json:"chunk_summaries"`
}

// FromEntity maps a note entity to its wire shape
func FromEntity(n *entities.SOAPNote) Response {
	return Response{
		ID:              n.ID.String(),
		SourceSessionID: n.SourceSessionID,
		Subjective:      n.Subjective,
		Objective:       n.Objective,
		Assessment:      n.Assessment,
		Plan:            n.Plan,
		Status:          string(n.Status),
		CreatedAt:       n.CreatedAt,
		UpdatedAt:       n.UpdatedAt,
	}
}

// FromEntityWithSummaries maps a note and its chunk summaries to the detail
// wire shape
func FromEntityWithSummaries(n *entities.SOAPNote, summaries []entities.ChunkSummary) DetailResponse {
	out := DetailResponse{
		Response:       FromEntity(n),
		ChunkSummaries: make([]ChunkSummaryResponse, 0, len(summaries)),
	}
	for _, s := range summaries {
		out.ChunkSummaries = append(out.ChunkSummaries, ChunkSummaryResponse{
			ChunkIndex:   s.ChunkIndex,
			Summary:      s.Summary,
			FromSequence: s.FromSequence,
			ToSequence:   s.ToSequence,
			GeneratedAt:  s.GeneratedAt,
		})
	}
	return out
}
