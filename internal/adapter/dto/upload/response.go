package upload

// InitResponse returns the new session id
type InitResponse struct {
	SessionID   string `json:"session_id"`
	TotalChunks int    `json:"total_chunks"`
}

// ChunkResponse acknowledges a received chunk
type ChunkResponse struct {
	Status string `json:"status"`
}

// FinishResponse returns the assembled recording id
type FinishResponse struct {
	RecordingID     string `json:"recording_id"`
	AlreadyComplete bool   `json:"already_complete,omitempty"`
}
