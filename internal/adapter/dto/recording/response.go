package recording

import (
	"encoding/json"
	"time"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// Response is the wire shape of an assembled recording
type Response struct {
	ID              string          `json:"id"`
	UploadSessionID string          `json:"upload_session_id"`
	FileName        string          `json:"file_name"`
	FileSize        int64           `json:"file_size"`
	Status          string          `json:"status"`
	ProcessingError string          `json:"processing_error,omitempty"`
	NoteID          string          `json:"note_id,omitempty"`
	Utterances      json.RawMessage `json:"utterances,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// FromEntity maps a recording entity to its wire shape
func FromEntity(r *entities.Recording) Response {
	resp := Response{
		ID:              r.ID.String(),
		UploadSessionID: r.UploadSessionID,
		FileName:        r.FileName,
		FileSize:        r.FileSize,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.ProcessingError != nil {
		resp.ProcessingError = *r.ProcessingError
	}
	if r.NoteID != nil {
		resp.NoteID = r.NoteID.String()
	}
	if len(r.Utterances) > 0 {
		resp.Utterances = json.RawMessage(r.Utterances)
	}
	return resp
}
