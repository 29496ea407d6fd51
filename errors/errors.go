package errors

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// AppError is the custom error type carried across service and handler layers.
type AppError struct {
	Raw      error
	HTTPCode int
	Code     ErrorCode
	Message  string
	Details  map[string]string
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General errors

func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidRequest(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_REQUEST,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

// Upload session errors

func ErrChunkConflict(sessionID string, chunkIndex int) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_CONFLICT,
		Message:  "Chunk already uploaded with different content",
	}.WithDetail("session_id", sessionID).
		WithDetail("chunk_index", strconv.Itoa(chunkIndex))
}

func ErrUploadIncomplete(sessionID string, missing []int) AppError {
	parts := make([]string, 0, len(missing))
	for _, idx := range missing {
		parts = append(parts, strconv.Itoa(idx))
	}
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_INCOMPLETE,
		Message:  "Upload is missing chunks",
	}.WithDetail("session_id", sessionID).
		WithDetail("missing", strings.Join(parts, ","))
}

func ErrAlreadyComplete(sessionID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ALREADY_COMPLETE,
		Message:  "Session already completed",
	}.WithDetail("session_id", sessionID)
}

func ErrSessionClosed(sessionID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_SESSION_CLOSED,
		Message:  "Session is closed",
	}.WithDetail("session_id", sessionID)
}

// Gateway errors

func ErrTranscriptionFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_TRANSCRIPTION_FAILED,
		Message:  "Audio transcription failed",
	}
}

func ErrSynthesisFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_SYNTHESIS_FAILED,
		Message:  "Note synthesis failed",
	}
}

func ErrSynthesisFormat(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_SYNTHESIS_FORMAT_ERROR,
		Message:  "Note synthesis returned a malformed response",
	}
}

func ErrUnsupportedAudio(format string) AppError {
	return AppError{
		HTTPCode: http.StatusUnsupportedMediaType,
		Code:     ErrorCode_UNSUPPORTED_AUDIO,
		Message:  "Unsupported audio format",
	}.WithDetail("format", format)
}

func ErrNoSpeechDetected() AppError {
	return AppError{
		HTTPCode: http.StatusOK,
		Code:     ErrorCode_NO_SPEECH_DETECTED,
		Message:  "No speech detected in audio",
	}
}

// Integration errors

func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_STORAGE,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}

func ErrCacheFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_CACHE,
		Message:  fmt.Sprintf("Cache operation failed: %s", operation),
	}
}

func ErrDBQueryFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_QUERY_FAILED,
		Message:  "Database query failed",
	}.WithDetail("operation", operation)
}
