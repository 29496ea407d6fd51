package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecordingStatus represents the status of an assembled recording
type RecordingStatus string

const (
	RecordingStatusProcessing RecordingStatus = "processing"
	RecordingStatusCompleted  RecordingStatus = "completed"
	RecordingStatusFailed     RecordingStatus = "failed"
)

// Recording represents an assembled audio recording produced by a finished
// chunked upload, tracked through the batch transcription pipeline.
type Recording struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UploadSessionID string          `json:"upload_session_id" gorm:"type:varchar(36);not null;index"`
	FileName        string          `json:"file_name" gorm:"type:varchar(255);not null"`
	ObjectKey       string          `json:"object_key" gorm:"type:text;not null"`
	FileSize        int64           `json:"file_size" gorm:"not null"`
	Status          RecordingStatus `json:"status" gorm:"type:varchar(20);not null;default:'processing';index"`
	ProcessingError *string         `json:"processing_error,omitempty" gorm:"type:text"`
	NoteID          *uuid.UUID      `json:"note_id,omitempty" gorm:"type:uuid"`
	Utterances      datatypes.JSON  `json:"utterances,omitempty" gorm:"type:jsonb;default:'[]'"`
	CreatedAt       time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Recording) TableName() string {
	return "recordings"
}

// NewRecording creates a recording row for a completed upload session.
func NewRecording(uploadSessionID, fileName, objectKey string, fileSize int64) *Recording {
	return &Recording{
		ID:              uuid.New(),
		UploadSessionID: uploadSessionID,
		FileName:        fileName,
		ObjectKey:       objectKey,
		FileSize:        fileSize,
		Status:          RecordingStatusProcessing,
	}
}

// MarkAsCompleted marks the recording's batch pipeline as completed.
func (r *Recording) MarkAsCompleted(noteID uuid.UUID) {
	r.Status = RecordingStatusCompleted
	r.NoteID = &noteID
}

// MarkAsFailed marks the recording's batch pipeline as failed.
func (r *Recording) MarkAsFailed(errorMsg string) {
	r.Status = RecordingStatusFailed
	r.ProcessingError = &errorMsg
}
