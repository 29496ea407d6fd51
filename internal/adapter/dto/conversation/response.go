package conversation

import (
	notedto "github.com/medscribe-team/clinical-scribe/internal/adapter/dto/note"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// StartResponse returns the new conversation id
type StartResponse struct {
	ConversationID string `json:"conversation_id"`
}

// UtteranceResponse describes one processed audio segment
type UtteranceResponse struct {
	UtteranceProcessed bool                 `json:"utterance_processed"`
	Speaker            string               `json:"speaker,omitempty"`
	Transcription      string               `json:"transcription,omitempty"`
	Summary            string               `json:"summary,omitempty"`
	Utterances         []entities.Utterance `json:"utterances,omitempty"`
}

// EndResponse wraps the final note
type EndResponse struct {
	SOAPNote notedto.Response `json:"soap_note"`
}
