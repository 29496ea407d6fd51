package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/internal/domain/repositories"
	"github.com/medscribe-team/clinical-scribe/internal/gateway"
	"github.com/medscribe-team/clinical-scribe/pkg/jobcontext"
)

// summaryChunkSize bounds how many utterances feed one chunk summary, so a
// long recording never pushes a single completion past the provider's
// context window.
const summaryChunkSize = 40

// Pipeline runs the batch path for assembled recordings: transcribe the
// whole file, summarize the transcript chunk by chunk, synthesize a SOAP
// note over the aggregated summaries, persist everything.
type Pipeline struct {
	transcriber gateway.TranscriptionGateway
	synthesizer gateway.NoteSynthesisGateway
	recordings  repositories.RecordingRepository
	notes       repositories.NoteRepository
	logger      *zap.Logger
}

// Ensure Pipeline implements Processor interface
var _ Processor = (*Pipeline)(nil)

func NewPipeline(
	transcriber gateway.TranscriptionGateway,
	synthesizer gateway.NoteSynthesisGateway,
	recordings repositories.RecordingRepository,
	notes repositories.NoteRepository,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		transcriber: transcriber,
		synthesizer: synthesizer,
		recordings:  recordings,
		notes:       notes,
		logger:      logger,
	}
}

// Process persists the recording row, then transcribes and synthesizes in
// the background. Failures are recorded on the row, never bubbled to the
// upload caller who already holds a recording id.
func (p *Pipeline) Process(recording *entities.Recording, audio []byte) {
	createCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.recordings.Create(createCtx, recording); err != nil {
		p.logger.Error("failed to persist recording",
			zap.String("recording_id", recording.ID.String()),
			zap.Error(err))
		return
	}

	go p.run(recording, audio)
}

func (p *Pipeline) run(recording *entities.Recording, audio []byte) {
	ctx, cancel := jobcontext.JobBegin(context.Background(), recording.ID, "batch_transcription")
	defer cancel()

	meta := jobcontext.GetJobMetadata(ctx)
	p.logger.Info("batch pipeline started",
		zap.String("job_id", meta.JobID.String()),
		zap.String("job_type", meta.JobType))

	err := jobcontext.Run(ctx, func(ctx context.Context) error {
		return p.transcribeAndSynthesize(ctx, recording, audio)
	})
	if err != nil {
		p.logger.Error("batch pipeline failed",
			zap.String("recording_id", recording.ID.String()),
			zap.Error(err))
		p.markFailed(recording, err)
	}
}

func (p *Pipeline) transcribeAndSynthesize(ctx context.Context, recording *entities.Recording, audio []byte) error {
	contentType := http.DetectContentType(audio)

	utterances, _, err := p.transcriber.Transcribe(ctx, recording.ID.String(), audio, contentType, nil)
	if err != nil {
		return err
	}
	if len(utterances) == 0 {
		return apperrors.ErrNoSpeechDetected()
	}

	for i := range utterances {
		utterances[i].SequenceNumber = i + 1
	}

	if raw, err := json.Marshal(utterances); err == nil {
		recording.Utterances = raw
	}

	chunks := chunkUtterances(utterances, summaryChunkSize)
	summaries := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		summary, err := p.synthesizer.Summarize(ctx, entities.TranscriptText(chunk))
		if err != nil {
			return err
		}
		summaries = append(summaries, summary)
	}

	// SOAP generation works from the aggregated chunk summaries, never the
	// raw transcript.
	sections, err := p.synthesizer.Synthesize(ctx, "", summaries)
	if err != nil {
		return err
	}

	note := entities.NewSOAPNote(recording.UploadSessionID, *sections)
	if err := p.notes.Create(ctx, note); err != nil {
		return err
	}

	rows := make([]entities.ChunkSummary, 0, len(chunks))
	for i, chunk := range chunks {
		rows = append(rows, entities.ChunkSummary{
			ID:           uuid.New(),
			SOAPNoteID:   note.ID,
			ChunkIndex:   i,
			Summary:      summaries[i],
			FromSequence: chunk[0].SequenceNumber,
			ToSequence:   chunk[len(chunk)-1].SequenceNumber,
			GeneratedAt:  time.Now(),
		})
	}
	if err := p.notes.SaveChunkSummaries(ctx, rows); err != nil {
		p.logger.Warn("failed to persist chunk summaries",
			zap.String("note_id", note.ID.String()),
			zap.Error(err))
	}

	recording.MarkAsCompleted(note.ID)
	if err := p.recordings.Update(ctx, recording); err != nil {
		return err
	}

	p.logger.Info("batch pipeline completed",
		zap.String("recording_id", recording.ID.String()),
		zap.String("note_id", note.ID.String()),
		zap.Int("utterances", len(utterances)),
		zap.Int("chunks", len(chunks)))

	return nil
}

func chunkUtterances(utterances []entities.Utterance, size int) [][]entities.Utterance {
	var chunks [][]entities.Utterance
	for start := 0; start < len(utterances); start += size {
		end := start + size
		if end > len(utterances) {
			end = len(utterances)
		}
		chunks = append(chunks, utterances[start:end])
	}
	return chunks
}

func (p *Pipeline) markFailed(recording *entities.Recording, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	recording.MarkAsFailed(cause.Error())
	if err := p.recordings.Update(ctx, recording); err != nil {
		p.logger.Error("failed to mark recording as failed",
			zap.String("recording_id", recording.ID.String()),
			zap.Error(err))
	}
}
