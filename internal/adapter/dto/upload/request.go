package upload

// InitRequest opens a chunked upload session
type InitRequest struct {
	FileName    string `json:"file_name" validate:"required"`
	TotalSize   int64  `json:"total_size" validate:"required,gt=0"`
	TotalChunks int    `json:"total_chunks" validate:"required,gt=0"`
}
