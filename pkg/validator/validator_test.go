package validator

import (
	"errors"
	"testing"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
)

type initPayload struct {
	FileName    string `json:"file_name" validate:"required"`
	TotalSize   int64  `json:"total_size" validate:"required,gt=0"`
	TotalChunks int    `json:"total_chunks" validate:"required,gt=0"`
}

func TestValidate_Passes(t *testing.T) {
	cv := New()

	if err := cv.Validate(&initPayload{FileName: "visit.wav", TotalSize: 300, TotalChunks: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ReportsFieldsByWireName(t *testing.T) {
	cv := New()

	err := cv.Validate(&initPayload{FileName: "visit.wav", TotalSize: -5})
	if err == nil {
		t.Fatal("expected error")
	}

	var appErr apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError got %T", err)
	}
	if appErr.Code != apperrors.ErrorCode_INVALID_REQUEST {
		t.Fatalf("unexpected code %v", appErr.Code)
	}
	if appErr.Details["total_size"] != "gt" {
		t.Fatalf("unexpected details %v", appErr.Details)
	}
	if appErr.Details["total_chunks"] != "required" {
		t.Fatalf("unexpected details %v", appErr.Details)
	}
}
