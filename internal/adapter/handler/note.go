package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	notedto "github.com/medscribe-team/clinical-scribe/internal/adapter/dto/note"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/note"
)

// Note handles SOAP note endpoints
type Note struct {
	service note.Service
	logger  *zap.Logger
}

// NewNote creates a new note handler
func NewNote(service note.Service, logger *zap.Logger) *Note {
	return &Note{
		service: service,
		logger:  logger,
	}
}

func parseNoteID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.ErrInvalidRequest("note id must be a UUID")
	}
	return id, nil
}

// Get handles GET /v1/notes/:id, returning the note together with the chunk
// summaries that fed it
func (h *Note) Get(c echo.Context) error {
	id, err := parseNoteID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	detail, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, notedto.FromEntityWithSummaries(detail.Note, detail.ChunkSummaries))
}

// List handles GET /v1/notes
func (h *Note) List(c echo.Context) error {
	notes, err := h.service.List(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	out := make([]notedto.Response, 0, len(notes))
	for _, n := range notes {
		out = append(out, notedto.FromEntity(n))
	}

	return HandleSuccess(h.logger, c, out)
}

// Update handles PUT /v1/notes/:id (whole-document section replace)
func (h *Note) Update(c echo.Context) error {
	id, err := parseNoteID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req notedto.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidRequest("invalid request body"))
	}

	updated, err := h.service.Update(c.Request().Context(), id, entities.SOAPSections{
		Subjective: req.Subjective,
		Objective:  req.Objective,
		Assessment: req.Assessment,
		Plan:       req.Plan,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, notedto.FromEntity(updated))
}
