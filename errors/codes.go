package errors

// ErrorCode identifies a failure category in API responses and logs.
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_REQUEST  ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_CONFLICT         ErrorCode = 1003
	ErrorCode_INCOMPLETE       ErrorCode = 1004
	ErrorCode_ALREADY_COMPLETE ErrorCode = 1005
	ErrorCode_SESSION_CLOSED   ErrorCode = 1006

	ErrorCode_TRANSCRIPTION_FAILED   ErrorCode = 2000
	ErrorCode_SYNTHESIS_FAILED       ErrorCode = 2001
	ErrorCode_SYNTHESIS_FORMAT_ERROR ErrorCode = 2002
	ErrorCode_INTEGRATION_STORAGE    ErrorCode = 2003
	ErrorCode_INTEGRATION_CACHE      ErrorCode = 2004
	ErrorCode_DB_QUERY_FAILED        ErrorCode = 2005
	ErrorCode_NO_SPEECH_DETECTED     ErrorCode = 2006
	ErrorCode_UNSUPPORTED_AUDIO      ErrorCode = 2007
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                "OK",
	ErrorCode_INTERNAL:               "INTERNAL",
	ErrorCode_INVALID_REQUEST:        "INVALID_REQUEST",
	ErrorCode_NOT_FOUND:              "NOT_FOUND",
	ErrorCode_CONFLICT:               "CONFLICT",
	ErrorCode_INCOMPLETE:             "INCOMPLETE",
	ErrorCode_ALREADY_COMPLETE:       "ALREADY_COMPLETE",
	ErrorCode_SESSION_CLOSED:         "SESSION_CLOSED",
	ErrorCode_TRANSCRIPTION_FAILED:   "TRANSCRIPTION_FAILED",
	ErrorCode_SYNTHESIS_FAILED:       "SYNTHESIS_FAILED",
	ErrorCode_SYNTHESIS_FORMAT_ERROR: "SYNTHESIS_FORMAT_ERROR",
	ErrorCode_INTEGRATION_STORAGE:    "INTEGRATION_STORAGE",
	ErrorCode_INTEGRATION_CACHE:      "INTEGRATION_CACHE",
	ErrorCode_DB_QUERY_FAILED:        "DB_QUERY_FAILED",
	ErrorCode_NO_SPEECH_DETECTED:     "NO_SPEECH_DETECTED",
	ErrorCode_UNSUPPORTED_AUDIO:      "UNSUPPORTED_AUDIO",
}

// String returns the symbolic name for the code.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
