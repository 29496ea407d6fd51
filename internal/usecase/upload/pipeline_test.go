package upload

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

type fakeTranscriber struct {
	utterances []entities.Utterance
	err        error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, segmentID string, _ []byte, _ string, _ []byte) ([]entities.Utterance, []byte, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	out := make([]entities.Utterance, len(f.utterances))
	copy(out, f.utterances)
	for i := range out {
		out[i].SourceSegmentID = segmentID
	}
	return out, nil, nil
}

type fakeSynthesizer struct {
	sections entities.SOAPSections
	summary  string
	err      error

	mu             sync.Mutex
	summarized     []string
	synthMaterial  string
	synthSummaries []string
	synthCalls     int
}

func (f *fakeSynthesizer) Summarize(_ context.Context, conversation string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	f.summarized = append(f.summarized, conversation)
	f.mu.Unlock()
	return f.summary, nil
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, material string, priorSummaries []string) (*entities.SOAPSections, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.synthCalls++
	f.synthMaterial = material
	f.synthSummaries = append([]string(nil), priorSummaries...)
	f.mu.Unlock()
	sections := f.sections
	return &sections, nil
}

type fakeRecordingRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entities.Recording
}

func newFakeRecordingRepo() *fakeRecordingRepo {
	return &fakeRecordingRepo{records: make(map[uuid.UUID]*entities.Recording)}
}

func (f *fakeRecordingRepo) Create(_ context.Context, recording *entities.Recording) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[recording.ID] = recording
	return nil
}

func (f *fakeRecordingRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Recording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id], nil
}

func (f *fakeRecordingRepo) FindByUploadSessionID(_ context.Context, sessionID string) (*entities.Recording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.UploadSessionID == sessionID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeRecordingRepo) Update(_ context.Context, recording *entities.Recording) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[recording.ID] = recording
	return nil
}

type fakeNoteRepo struct {
	mu        sync.Mutex
	notes     map[uuid.UUID]*entities.SOAPNote
	summaries map[uuid.UUID][]entities.ChunkSummary
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{
		notes:     make(map[uuid.UUID]*entities.SOAPNote),
		summaries: make(map[uuid.UUID][]entities.ChunkSummary),
	}
}

func (f *fakeNoteRepo) Create(_ context.Context, note *entities.SOAPNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes[note.ID] = note
	return nil
}

func (f *fakeNoteRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.SOAPNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notes[id], nil
}

func (f *fakeNoteRepo) List(_ context.Context) ([]*entities.SOAPNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.SOAPNote
	for _, n := range f.notes {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNoteRepo) Update(_ context.Context, note *entities.SOAPNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes[note.ID] = note
	return nil
}

func (f *fakeNoteRepo) SaveChunkSummaries(_ context.Context, summaries []entities.ChunkSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range summaries {
		f.summaries[s.SOAPNoteID] = append(f.summaries[s.SOAPNoteID], s)
	}
	return nil
}

func (f *fakeNoteRepo) FindChunkSummaries(_ context.Context, noteID uuid.UUID) ([]entities.ChunkSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summaries[noteID], nil
}

func TestPipeline_CompletesRecording(t *testing.T) {
	transcriber := &fakeTranscriber{
		utterances: []entities.Utterance{
			{Speaker: "Speaker 0", Text: "What brings you in?"},
			{Speaker: "Speaker 1", Text: "Chest pain."},
		},
	}
	synthesizer := &fakeSynthesizer{
		summary: "Patient reports chest pain.",
		sections: entities.SOAPSections{
			Subjective: "Chest pain.",
			Assessment: "Possible angina.",
			Plan:       "ECG.",
		},
	}
	recordings := newFakeRecordingRepo()
	notes := newFakeNoteRepo()

	p := NewPipeline(transcriber, synthesizer, recordings, notes, zap.NewNop())

	recording := entities.NewRecording("session-1", "visit.wav", "recordings/r1", 1000)
	if err := recordings.Create(context.Background(), recording); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := p.transcribeAndSynthesize(context.Background(), recording, []byte("audio")); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	stored, _ := recordings.FindByID(context.Background(), recording.ID)
	if stored.Status != entities.RecordingStatusCompleted {
		t.Fatalf("unexpected status %s", stored.Status)
	}
	if stored.NoteID == nil {
		t.Fatal("expected a note id")
	}

	note, _ := notes.FindByID(context.Background(), *stored.NoteID)
	if note == nil {
		t.Fatal("note not persisted")
	}
	if note.SourceSessionID != "session-1" {
		t.Fatalf("unexpected source session %q", note.SourceSessionID)
	}
	if note.Assessment != "Possible angina." {
		t.Fatalf("unexpected assessment %q", note.Assessment)
	}

	// The transcript is summarized chunk by chunk; SOAP generation works
	// from the summaries, not the raw transcript.
	if len(synthesizer.summarized) != 1 {
		t.Fatalf("expected 1 chunk summary, got %d", len(synthesizer.summarized))
	}
	want := "Speaker 0: What brings you in?\nSpeaker 1: Chest pain.\n"
	if synthesizer.summarized[0] != want {
		t.Fatalf("unexpected summary input %q", synthesizer.summarized[0])
	}
	if synthesizer.synthMaterial != "" {
		t.Fatalf("synthesis received raw material %q", synthesizer.synthMaterial)
	}
	if len(synthesizer.synthSummaries) != 1 || synthesizer.synthSummaries[0] != "Patient reports chest pain." {
		t.Fatalf("unexpected synthesis summaries %v", synthesizer.synthSummaries)
	}

	// The chunk summary is persisted against the note.
	rows, _ := notes.FindChunkSummaries(context.Background(), note.ID)
	if len(rows) != 1 {
		t.Fatalf("expected 1 persisted chunk summary, got %d", len(rows))
	}
	if rows[0].ChunkIndex != 0 || rows[0].FromSequence != 1 || rows[0].ToSequence != 2 {
		t.Fatalf("unexpected chunk bounds %+v", rows[0])
	}
}

func TestPipeline_ChunksLongTranscript(t *testing.T) {
	utterances := make([]entities.Utterance, 85)
	for i := range utterances {
		utterances[i] = entities.Utterance{Speaker: "Speaker 0", Text: "more detail"}
	}
	transcriber := &fakeTranscriber{utterances: utterances}
	synthesizer := &fakeSynthesizer{
		summary:  "condensed segment",
		sections: entities.SOAPSections{Assessment: "Stable."},
	}
	recordings := newFakeRecordingRepo()
	notes := newFakeNoteRepo()

	p := NewPipeline(transcriber, synthesizer, recordings, notes, zap.NewNop())

	recording := entities.NewRecording("session-1", "visit.wav", "recordings/r1", 1000)
	recordings.Create(context.Background(), recording)

	if err := p.transcribeAndSynthesize(context.Background(), recording, []byte("audio")); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	// 85 utterances split into chunks of 40: three summaries.
	if len(synthesizer.summarized) != 3 {
		t.Fatalf("expected 3 chunk summaries, got %d", len(synthesizer.summarized))
	}
	if len(synthesizer.synthSummaries) != 3 {
		t.Fatalf("expected 3 summaries in synthesis, got %d", len(synthesizer.synthSummaries))
	}

	stored, _ := recordings.FindByID(context.Background(), recording.ID)
	rows, _ := notes.FindChunkSummaries(context.Background(), *stored.NoteID)
	if len(rows) != 3 {
		t.Fatalf("expected 3 persisted chunk summaries, got %d", len(rows))
	}
	bounds := [][2]int{{1, 40}, {41, 80}, {81, 85}}
	for i, row := range rows {
		if row.ChunkIndex != i {
			t.Fatalf("unexpected chunk index %d at %d", row.ChunkIndex, i)
		}
		if row.FromSequence != bounds[i][0] || row.ToSequence != bounds[i][1] {
			t.Fatalf("chunk %d has bounds %d-%d", i, row.FromSequence, row.ToSequence)
		}
	}
}

func TestPipeline_NoSpeechMarksRecording(t *testing.T) {
	transcriber := &fakeTranscriber{}
	recordings := newFakeRecordingRepo()
	notes := newFakeNoteRepo()

	p := NewPipeline(transcriber, &fakeSynthesizer{}, recordings, notes, zap.NewNop())

	recording := entities.NewRecording("session-1", "visit.wav", "recordings/r1", 1000)
	recordings.Create(context.Background(), recording)

	err := p.transcribeAndSynthesize(context.Background(), recording, []byte("audio"))
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_NO_SPEECH_DETECTED {
		t.Fatalf("expected no-speech error, got %v", err)
	}
	p.markFailed(recording, err)

	stored, _ := recordings.FindByID(context.Background(), recording.ID)
	if stored.Status != entities.RecordingStatusFailed {
		t.Fatalf("unexpected status %s", stored.Status)
	}
}

func TestPipeline_TranscriptionFailureMarksRecording(t *testing.T) {
	cause := apperrors.ErrTranscriptionFailed(errors.New("provider down"))
	transcriber := &fakeTranscriber{err: cause}
	recordings := newFakeRecordingRepo()
	notes := newFakeNoteRepo()

	p := NewPipeline(transcriber, &fakeSynthesizer{}, recordings, notes, zap.NewNop())

	recording := entities.NewRecording("session-1", "visit.wav", "recordings/r1", 1000)
	recordings.Create(context.Background(), recording)

	err := p.transcribeAndSynthesize(context.Background(), recording, []byte("audio"))
	if err == nil {
		t.Fatal("expected error")
	}
	p.markFailed(recording, err)

	stored, _ := recordings.FindByID(context.Background(), recording.ID)
	if stored.Status != entities.RecordingStatusFailed {
		t.Fatalf("unexpected status %s", stored.Status)
	}
	if stored.ProcessingError == nil {
		t.Fatal("expected processing error to be recorded")
	}
}
