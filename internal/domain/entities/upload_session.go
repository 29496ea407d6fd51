package entities

import (
	"time"

	"github.com/google/uuid"
)

// UploadSessionStatus represents the status of a chunked upload session
type UploadSessionStatus string

const (
	UploadStatusInitiated  UploadSessionStatus = "initiated"
	UploadStatusReceiving  UploadSessionStatus = "receiving"
	UploadStatusAssembling UploadSessionStatus = "assembling"
	UploadStatusComplete   UploadSessionStatus = "complete"
	UploadStatusFailed     UploadSessionStatus = "failed"
	UploadStatusExpired    UploadSessionStatus = "expired"
)

// UploadSession tracks a chunked upload in progress. It lives in the session
// registry, not in the database; only the assembled Recording is persisted.
type UploadSession struct {
	ID          string
	FileName    string
	TotalSize   int64
	TotalChunks int
	Status      UploadSessionStatus
	CreatedAt   time.Time

	// Digest per received chunk index, used for idempotency and conflict
	// detection on duplicate uploads.
	ChunkDigests map[int][32]byte

	// Set once the session reaches complete.
	RecordingID *uuid.UUID
}

// NewUploadSession creates a new upload session
func NewUploadSession(fileName string, totalSize int64, totalChunks int) *UploadSession {
	return &UploadSession{
		ID:           uuid.NewString(),
		FileName:     fileName,
		TotalSize:    totalSize,
		TotalChunks:  totalChunks,
		Status:       UploadStatusInitiated,
		CreatedAt:    time.Now(),
		ChunkDigests: make(map[int][32]byte),
	}
}

// HasChunk reports whether the given index has been received.
func (s *UploadSession) HasChunk(index int) bool {
	_, ok := s.ChunkDigests[index]
	return ok
}

// MissingChunks returns the indices not yet received, in ascending order.
func (s *UploadSession) MissingChunks() []int {
	var missing []int
	for i := 0; i < s.TotalChunks; i++ {
		if !s.HasChunk(i) {
			missing = append(missing, i)
		}
	}
	return missing
}

// IsComplete reports whether every chunk index has been received.
func (s *UploadSession) IsComplete() bool {
	return len(s.ChunkDigests) == s.TotalChunks
}

// IsTerminal reports whether the session reached a terminal state.
func (s *UploadSession) IsTerminal() bool {
	switch s.Status {
	case UploadStatusComplete, UploadStatusFailed, UploadStatusExpired:
		return true
	}
	return false
}
