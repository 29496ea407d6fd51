package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	recordingdto "github.com/medscribe-team/clinical-scribe/internal/adapter/dto/recording"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/recording"
)

// Recording handles assembled recording endpoints
type Recording struct {
	service recording.Service
	logger  *zap.Logger
}

// NewRecording creates a new recording handler
func NewRecording(service recording.Service, logger *zap.Logger) *Recording {
	return &Recording{
		service: service,
		logger:  logger,
	}
}

func parseRecordingID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.ErrInvalidRequest("recording id must be a UUID")
	}
	return id, nil
}

// Get handles GET /v1/recordings/:id
func (h *Recording) Get(c echo.Context) error {
	id, err := parseRecordingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	rec, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, recordingdto.FromEntity(rec))
}

// GetBySession handles GET /v1/uploads/:id/recording
func (h *Recording) GetBySession(c echo.Context) error {
	rec, err := h.service.GetBySession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, recordingdto.FromEntity(rec))
}

// Audio handles GET /v1/recordings/:id/audio, streaming the assembled bytes
func (h *Recording) Audio(c echo.Context) error {
	id, err := parseRecordingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	audio, err := h.service.Audio(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", audio.FileName))
	return c.Blob(http.StatusOK, audio.ContentType, audio.Data)
}
