package handler

import (
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	convdto "github.com/medscribe-team/clinical-scribe/internal/adapter/dto/conversation"
	notedto "github.com/medscribe-team/clinical-scribe/internal/adapter/dto/note"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/conversation"
)

// Conversation handles live conversation endpoints
type Conversation struct {
	service conversation.Service
	logger  *zap.Logger
}

// NewConversation creates a new conversation handler
func NewConversation(service conversation.Service, logger *zap.Logger) *Conversation {
	return &Conversation{
		service: service,
		logger:  logger,
	}
}

// Start handles POST /v1/conversations
func (h *Conversation) Start(c echo.Context) error {
	id, err := h.service.Start(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, convdto.StartResponse{ConversationID: id})
}

// Utterance handles POST /v1/conversations/:id/utterances with a multipart
// "audio" file
func (h *Conversation) Utterance(c echo.Context) error {
	conversationID := c.Param("id")

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidRequest("audio file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidRequest("failed to open audio file"))
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidRequest("failed to read audio file"))
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	result, err := h.service.AppendUtterance(c.Request().Context(), conversationID, audio, mimeType)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	resp := convdto.UtteranceResponse{
		UtteranceProcessed: result.Processed,
		Summary:            result.Summary,
		Utterances:         result.Utterances,
	}
	if len(result.Utterances) > 0 {
		resp.Speaker = result.Utterances[0].Speaker
		texts := make([]string, 0, len(result.Utterances))
		for _, u := range result.Utterances {
			texts = append(texts, u.Text)
		}
		resp.Transcription = strings.Join(texts, " ")
	}

	return HandleSuccess(h.logger, c, resp)
}

// Stats handles GET /v1/conversations/:id/stats
func (h *Conversation) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, stats)
}

// End handles POST /v1/conversations/:id/end
func (h *Conversation) End(c echo.Context) error {
	note, err := h.service.End(c.Request().Context(), c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, convdto.EndResponse{SOAPNote: notedto.FromEntity(note)})
}
