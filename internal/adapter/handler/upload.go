package handler

import (
	"io"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	uploaddto "github.com/medscribe-team/clinical-scribe/internal/adapter/dto/upload"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/upload"
)

// Upload handles chunked upload endpoints
type Upload struct {
	service upload.Service
	logger  *zap.Logger
}

// NewUpload creates a new upload handler
func NewUpload(service upload.Service, logger *zap.Logger) *Upload {
	return &Upload{
		service: service,
		logger:  logger,
	}
}

// Init handles POST /v1/uploads/init
func (h *Upload) Init(c echo.Context) error {
	var req uploaddto.InitRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidRequest("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	session, err := h.service.InitSession(c.Request().Context(), req.FileName, req.TotalSize, req.TotalChunks)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, uploaddto.InitResponse{
		SessionID:   session.ID,
		TotalChunks: session.TotalChunks,
	})
}

// Chunk handles POST /v1/uploads/:id/chunks/:index with a raw body
func (h *Upload) Chunk(c echo.Context) error {
	sessionID := c.Param("id")

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidRequest("chunk index must be an integer"))
	}

	body := c.Request().Body
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidRequest("failed to read chunk body"))
	}

	if err := h.service.ReceiveChunk(c.Request().Context(), sessionID, index, data); err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, uploaddto.ChunkResponse{Status: "ok"})
}

// Finish handles POST /v1/uploads/:id/finish
func (h *Upload) Finish(c echo.Context) error {
	sessionID := c.Param("id")

	result, err := h.service.FinishUpload(c.Request().Context(), sessionID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, uploaddto.FinishResponse{
		RecordingID:     result.RecordingID.String(),
		AlreadyComplete: result.AlreadyComplete,
	})
}
