package conversation

import (
	"context"
	"time"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
)

// Stats is a read-only projection of a conversation session, computed from
// current state without side effects.
type Stats struct {
	IsActive          bool       `json:"is_active"`
	StartTime         time.Time  `json:"start_time"`
	DurationSeconds   float64    `json:"duration_seconds"`
	TotalUtterances   int        `json:"total_utterances"`
	CurrentBufferSize int        `json:"current_buffer_size"`
	TotalSummaries    int        `json:"total_summaries"`
	LastSummaryTime   *time.Time `json:"last_summary_time,omitempty"`
	HasSOAPNote       bool       `json:"has_soap_note"`
}

// Stats returns a snapshot of the session
func (s *ConversationService) Stats(ctx context.Context, conversationID string) (*Stats, error) {
	st, ok := s.sessions.Get(conversationID)
	if !ok {
		return nil, apperrors.ErrNotFound("conversation session")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	stats := &Stats{
		IsActive:          !st.ended,
		StartTime:         st.startTime,
		TotalUtterances:   len(st.utterances),
		CurrentBufferSize: len(st.utterances) - st.lastSummarySeq,
		TotalSummaries:    len(st.summaries),
		HasSOAPNote:       st.finalNote != nil,
	}

	if st.ended {
		stats.DurationSeconds = st.endTime.Sub(st.startTime).Seconds()
	} else {
		stats.DurationSeconds = time.Since(st.startTime).Seconds()
	}

	if len(st.summaries) > 0 {
		last := st.summaries[len(st.summaries)-1].GeneratedAt
		stats.LastSummaryTime = &last
	}

	return stats, nil
}
