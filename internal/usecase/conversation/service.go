package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/internal/domain/repositories"
	"github.com/medscribe-team/clinical-scribe/internal/gateway"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/registry"
	"github.com/medscribe-team/clinical-scribe/pkg/config"
)

// AppendResult is the outcome of ingesting one audio segment.
type AppendResult struct {
	Processed  bool
	Utterances []entities.Utterance
	// Summary carries the text of the most recent rolling summary, when one
	// exists at the time of the call.
	Summary string
}

// Service defines the interface for the live conversation use case
type Service interface {
	// Start opens a new conversation session
	Start(ctx context.Context) (string, error)

	// AppendUtterance transcribes one audio segment and appends the result
	// to the session's utterance log
	AppendUtterance(ctx context.Context, conversationID string, audio []byte, mimeType string) (*AppendResult, error)

	// Stats returns a read-only snapshot of the session
	Stats(ctx context.Context, conversationID string) (*Stats, error)

	// End closes the session and synthesizes the final note from the full log
	End(ctx context.Context, conversationID string) (*entities.SOAPNote, error)
}

// Ensure ConversationService implements Service interface
var _ Service = (*ConversationService)(nil)

// conversationState is the per-session mutable state. ingestMu serializes
// utterance ingestion across the whole gateway round trip, because
// diarization continuity is stateful between segments; mu guards only the
// fields below and is never held across a gateway call.
type conversationState struct {
	ingestMu sync.Mutex
	mu       sync.Mutex

	id        string
	ended     bool
	startTime time.Time
	endTime   time.Time

	utterances      []entities.Utterance
	summaries       []entities.Summary
	lastSummaryAt   time.Time
	lastSummarySeq  int
	continuityToken []byte
	segmentCounter  int

	// generation stamps summary requests; End bumps it so in-flight rolling
	// summaries stamped with an older generation are discarded (final wins).
	generation uint64

	finalNote *entities.SOAPNote
}

// ConversationService implements the conversation buffer
type ConversationService struct {
	sessions    *registry.Registry[*conversationState]
	transcriber gateway.TranscriptionGateway
	synthesizer gateway.NoteSynthesisGateway
	notes       repositories.NoteRepository
	logger      *zap.Logger

	summaryEvery    int
	summaryInterval time.Duration
}

// NewConversationService creates the conversation service and its session
// registry
func NewConversationService(
	transcriber gateway.TranscriptionGateway,
	synthesizer gateway.NoteSynthesisGateway,
	notes repositories.NoteRepository,
	cfg *config.ConversationConfig,
	logger *zap.Logger,
) *ConversationService {
	s := &ConversationService{
		transcriber:     transcriber,
		synthesizer:     synthesizer,
		notes:           notes,
		logger:          logger,
		summaryEvery:    cfg.SummaryEvery,
		summaryInterval: cfg.SummaryInterval,
	}

	s.sessions = registry.New(cfg.SessionTTL, func(id string, st *conversationState) {
		st.mu.Lock()
		st.ended = true
		st.endTime = time.Now()
		st.generation++
		st.mu.Unlock()

		logger.Info("conversation session expired", zap.String("conversation_id", id))
	})

	return s
}

// Close stops the session registry janitor.
func (s *ConversationService) Close() {
	s.sessions.Close()
}

// Start opens a new conversation session
func (s *ConversationService) Start(ctx context.Context) (string, error) {
	now := time.Now()
	st := &conversationState{
		id:            uuid.NewString(),
		startTime:     now,
		lastSummaryAt: now,
	}
	s.sessions.Put(st.id, st)

	s.logger.Info("conversation started", zap.String("conversation_id", st.id))

	return st.id, nil
}

// AppendUtterance transcribes one segment and appends the diarized
// utterances with sequence numbers in arrival order. Calls for the same
// session are strictly serialized; sessions proceed independently.
func (s *ConversationService) AppendUtterance(ctx context.Context, conversationID string, audio []byte, mimeType string) (*AppendResult, error) {
	if len(audio) == 0 {
		return nil, apperrors.ErrInvalidRequest("audio segment is empty")
	}

	st, ok := s.sessions.Get(conversationID)
	if !ok {
		return nil, apperrors.ErrNotFound("conversation session")
	}

	st.ingestMu.Lock()
	defer st.ingestMu.Unlock()

	st.mu.Lock()
	if st.ended {
		st.mu.Unlock()
		return nil, apperrors.ErrSessionClosed(conversationID)
	}
	token := st.continuityToken
	st.segmentCounter++
	segmentID := fmt.Sprintf("%s-%d", conversationID, st.segmentCounter)
	st.mu.Unlock()

	utterances, newToken, err := s.transcriber.Transcribe(ctx, segmentID, audio, mimeType, token)
	if err != nil {
		s.logger.Error("utterance transcription failed",
			zap.String("conversation_id", conversationID),
			zap.String("segment_id", segmentID),
			zap.Error(err))
		return nil, err
	}

	st.mu.Lock()
	if st.ended {
		st.mu.Unlock()
		return nil, apperrors.ErrSessionClosed(conversationID)
	}

	next := len(st.utterances) + 1
	for i := range utterances {
		utterances[i].SequenceNumber = next + i
	}
	st.utterances = append(st.utterances, utterances...)
	st.continuityToken = newToken

	result := &AppendResult{
		Processed:  len(utterances) > 0,
		Utterances: utterances,
	}
	if n := len(st.summaries); n > 0 {
		result.Summary = st.summaries[n-1].Text
	}

	due, snapshot, gen, from, to := s.summaryDueLocked(st)
	st.mu.Unlock()

	if due {
		go s.runRollingSummary(st, snapshot, gen, from, to)
	}

	return result, nil
}

// summaryDueLocked decides whether a rolling summary should fire and, if so,
// snapshots the unsummarized slice of the log. Caller holds st.mu.
func (s *ConversationService) summaryDueLocked(st *conversationState) (bool, []entities.Utterance, uint64, int, int) {
	pending := len(st.utterances) - st.lastSummarySeq
	if pending <= 0 {
		return false, nil, 0, 0, 0
	}

	countDue := pending >= s.summaryEvery
	timeDue := time.Since(st.lastSummaryAt) >= s.summaryInterval
	if !countDue && !timeDue {
		return false, nil, 0, 0, 0
	}

	snapshot := make([]entities.Utterance, pending)
	copy(snapshot, st.utterances[st.lastSummarySeq:])

	from := st.lastSummarySeq + 1
	to := len(st.utterances)

	st.lastSummarySeq = len(st.utterances)
	st.lastSummaryAt = time.Now()

	return true, snapshot, st.generation, from, to
}

// runRollingSummary generates one rolling summary in the background. A
// failure is logged and never blocks ingestion; a result stamped with a
// stale generation is discarded because the session ended meanwhile.
func (s *ConversationService) runRollingSummary(st *conversationState, snapshot []entities.Utterance, gen uint64, from, to int) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	text, err := s.synthesizer.Summarize(ctx, entities.TranscriptText(snapshot))
	if err != nil {
		s.logger.Warn("rolling summary failed",
			zap.String("conversation_id", st.id),
			zap.Int("from_sequence", from),
			zap.Int("to_sequence", to),
			zap.Error(err))
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.generation != gen {
		s.logger.Debug("discarding stale rolling summary",
			zap.String("conversation_id", st.id),
			zap.Uint64("generation", gen))
		return
	}

	st.summaries = append(st.summaries, entities.Summary{
		SequenceNumber: len(st.summaries) + 1,
		Text:           text,
		GeneratedAt:    time.Now(),
		FromSequence:   from,
		ToSequence:     to,
		Generation:     gen,
	})

	s.logger.Info("rolling summary generated",
		zap.String("conversation_id", st.id),
		zap.Int("from_sequence", from),
		zap.Int("to_sequence", to))
}

// End closes the session and synthesizes the final note from the entire
// utterance log. Idempotent: a second call returns the note produced by the
// first instead of re-synthesizing.
func (s *ConversationService) End(ctx context.Context, conversationID string) (*entities.SOAPNote, error) {
	st, ok := s.sessions.Get(conversationID)
	if !ok {
		return nil, apperrors.ErrNotFound("conversation session")
	}

	// Serialized with ingestion: an in-flight append finishes its round
	// trip first, and a concurrent End waits here and then observes the
	// already-produced note.
	st.ingestMu.Lock()
	defer st.ingestMu.Unlock()

	st.mu.Lock()
	if st.ended && st.finalNote != nil {
		note := st.finalNote
		st.mu.Unlock()
		return note, nil
	}
	if !st.ended {
		st.ended = true
		st.endTime = time.Now()
		// Invalidate in-flight rolling summaries: the final synthesis
		// covers the full log.
		st.generation++
	}
	log := make([]entities.Utterance, len(st.utterances))
	copy(log, st.utterances)
	summaries := make([]entities.Summary, len(st.summaries))
	copy(summaries, st.summaries)
	st.mu.Unlock()

	sections := &entities.SOAPSections{}
	if len(log) > 0 {
		priorSummaries := make([]string, 0, len(summaries))
		for _, sum := range summaries {
			priorSummaries = append(priorSummaries, sum.Text)
		}

		var err error
		sections, err = s.synthesizer.Synthesize(ctx, entities.TranscriptText(log), priorSummaries)
		if err != nil {
			s.logger.Error("final synthesis failed",
				zap.String("conversation_id", conversationID),
				zap.Error(err))
			return nil, err
		}
	}

	note := entities.NewSOAPNote(conversationID, *sections)
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, apperrors.ErrDBQueryFailed("create note", err)
	}

	if len(summaries) > 0 {
		rows := make([]entities.ChunkSummary, 0, len(summaries))
		for i, sum := range summaries {
			rows = append(rows, entities.ChunkSummary{
				ID:           uuid.New(),
				SOAPNoteID:   note.ID,
				ChunkIndex:   i,
				Summary:      sum.Text,
				FromSequence: sum.FromSequence,
				ToSequence:   sum.ToSequence,
				GeneratedAt:  sum.GeneratedAt,
			})
		}
		if err := s.notes.SaveChunkSummaries(ctx, rows); err != nil {
			s.logger.Warn("failed to persist rolling summaries",
				zap.String("conversation_id", conversationID),
				zap.Error(err))
		}
	}

	st.mu.Lock()
	st.finalNote = note
	st.mu.Unlock()

	s.logger.Info("conversation ended",
		zap.String("conversation_id", conversationID),
		zap.String("note_id", note.ID.String()),
		zap.Int("utterances", len(log)))

	return note, nil
}
