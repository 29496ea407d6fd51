package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/registry"
	"github.com/medscribe-team/clinical-scribe/pkg/config"
)

// ChunkStore is the durable scratch storage consumed by the assembler.
type ChunkStore interface {
	PutChunk(ctx context.Context, sessionID string, index int, data []byte) error
	GetChunk(ctx context.Context, sessionID string, index int) ([]byte, error)
	RemoveChunks(ctx context.Context, sessionID string) error
	PutRecording(ctx context.Context, recordingID string, reader io.Reader, size int64, contentType string) (string, error)
}

// Processor consumes an assembled recording, typically kicking off the batch
// transcription pipeline in the background.
type Processor interface {
	Process(recording *entities.Recording, audio []byte)
}

// FinishResult is the outcome of finishing an upload. AlreadyComplete marks
// the non-error case where a previous finish call already won.
type FinishResult struct {
	RecordingID     uuid.UUID
	AlreadyComplete bool
}

// Service defines the interface for the chunked upload use case
type Service interface {
	// InitSession opens a new upload session
	InitSession(ctx context.Context, fileName string, totalSize int64, totalChunks int) (*entities.UploadSession, error)

	// ReceiveChunk stores one chunk; identical re-uploads are no-op successes
	ReceiveChunk(ctx context.Context, sessionID string, index int, data []byte) error

	// FinishUpload assembles the recording once all chunks are present
	FinishUpload(ctx context.Context, sessionID string) (*FinishResult, error)
}

// Ensure UploadService implements Service interface
var _ Service = (*UploadService)(nil)

// uploadState wraps a session with its lock and the assembly barrier. The
// lock guards only local state transitions; chunk bytes and the assembled
// recording are written outside it.
type uploadState struct {
	mu      sync.Mutex
	session *entities.UploadSession

	// Closed by the finish winner when assembly concludes, so concurrent
	// finish callers can wait for the outcome instead of racing it.
	done chan struct{}
}

// UploadService implements the chunk assembler
type UploadService struct {
	sessions     *registry.Registry[*uploadState]
	store        ChunkStore
	processor    Processor
	logger       *zap.Logger
	maxChunkSize int64
}

// NewUploadService creates the upload service and its session registry.
// Expired sessions release their scratch chunks on eviction.
func NewUploadService(store ChunkStore, processor Processor, cfg *config.UploadConfig, logger *zap.Logger) *UploadService {
	s := &UploadService{
		store:        store,
		processor:    processor,
		logger:       logger,
		maxChunkSize: cfg.MaxChunkSize,
	}

	s.sessions = registry.New(cfg.SessionTTL, func(id string, st *uploadState) {
		st.mu.Lock()
		terminal := st.session.IsTerminal()
		if !terminal {
			st.session.Status = entities.UploadStatusExpired
		}
		st.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.RemoveChunks(ctx, id); err != nil {
			logger.Warn("failed to release scratch chunks for expired session",
				zap.String("session_id", id),
				zap.Error(err))
		}
	})

	return s
}

// Close stops the session registry janitor.
func (s *UploadService) Close() {
	s.sessions.Close()
}

// supportedAudioExts are the audio container formats accepted for upload.
var supportedAudioExts = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".m4a":  {},
	".aac":  {},
	".ogg":  {},
	".webm": {},
	".flac": {},
}

// InitSession opens a new upload session
func (s *UploadService) InitSession(ctx context.Context, fileName string, totalSize int64, totalChunks int) (*entities.UploadSession, error) {
	if fileName == "" {
		return nil, apperrors.ErrInvalidRequest("file name is required")
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := supportedAudioExts[ext]; !ok {
		return nil, apperrors.ErrUnsupportedAudio(ext)
	}
	if totalSize <= 0 {
		return nil, apperrors.ErrInvalidRequest("total size must be positive")
	}
	if totalChunks <= 0 {
		return nil, apperrors.ErrInvalidRequest("total chunks must be positive")
	}

	session := entities.NewUploadSession(fileName, totalSize, totalChunks)
	s.sessions.Put(session.ID, &uploadState{session: session})

	s.logger.Info("upload session initiated",
		zap.String("session_id", session.ID),
		zap.String("file_name", fileName),
		zap.Int("total_chunks", totalChunks))

	return session, nil
}

// ReceiveChunk stores one chunk. The received-index set is claimed under the
// session lock before the chunk bytes are written, so concurrent uploads of
// the same index cannot disagree about which bytes won.
func (s *UploadService) ReceiveChunk(ctx context.Context, sessionID string, index int, data []byte) error {
	st, ok := s.sessions.Get(sessionID)
	if !ok {
		return apperrors.ErrNotFound("upload session")
	}

	if index < 0 || index >= st.session.TotalChunks {
		return apperrors.ErrInvalidRequest("chunk index out of range").
			WithDetail("session_id", sessionID)
	}
	if len(data) == 0 {
		return apperrors.ErrInvalidRequest("chunk body is empty")
	}
	if int64(len(data)) > s.maxChunkSize {
		return apperrors.ErrInvalidRequest("chunk exceeds maximum size")
	}

	digest := sha256.Sum256(data)

	st.mu.Lock()
	switch st.session.Status {
	case entities.UploadStatusComplete:
		st.mu.Unlock()
		return apperrors.ErrAlreadyComplete(sessionID)
	case entities.UploadStatusAssembling, entities.UploadStatusFailed, entities.UploadStatusExpired:
		st.mu.Unlock()
		return apperrors.ErrSessionClosed(sessionID)
	}

	if prev, received := st.session.ChunkDigests[index]; received {
		st.mu.Unlock()
		if prev == digest {
			// Identical re-upload: idempotent success, nothing to write.
			return nil
		}
		return apperrors.ErrChunkConflict(sessionID, index)
	}

	// Claim the index before writing so a concurrent mismatched upload of
	// the same index fails Conflict instead of racing the object write.
	st.session.ChunkDigests[index] = digest
	st.session.Status = entities.UploadStatusReceiving
	st.mu.Unlock()

	if err := s.store.PutChunk(ctx, sessionID, index, data); err != nil {
		st.mu.Lock()
		delete(st.session.ChunkDigests, index)
		st.mu.Unlock()
		return apperrors.ErrStorageFailed("store chunk", err)
	}

	return nil
}

// FinishUpload assembles the recording. Exactly one caller wins the
// receiving-to-assembling transition; concurrent callers wait for the winner
// and then observe the completed session.
func (s *UploadService) FinishUpload(ctx context.Context, sessionID string) (*FinishResult, error) {
	st, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, apperrors.ErrNotFound("upload session")
	}

	st.mu.Lock()
	switch st.session.Status {
	case entities.UploadStatusComplete:
		recordingID := *st.session.RecordingID
		st.mu.Unlock()
		return &FinishResult{RecordingID: recordingID, AlreadyComplete: true}, nil

	case entities.UploadStatusFailed, entities.UploadStatusExpired:
		st.mu.Unlock()
		return nil, apperrors.ErrSessionClosed(sessionID)

	case entities.UploadStatusAssembling:
		done := st.done
		st.mu.Unlock()
		return s.awaitAssembly(ctx, sessionID, st, done)
	}

	if !st.session.IsComplete() {
		missing := st.session.MissingChunks()
		st.mu.Unlock()
		return nil, apperrors.ErrUploadIncomplete(sessionID, missing)
	}

	// This caller wins; everyone else waits on done.
	st.session.Status = entities.UploadStatusAssembling
	st.done = make(chan struct{})
	st.mu.Unlock()

	recording, err := s.assemble(ctx, st)

	st.mu.Lock()
	if err != nil {
		st.session.Status = entities.UploadStatusFailed
	} else {
		st.session.Status = entities.UploadStatusComplete
		st.session.RecordingID = &recording.ID
	}
	close(st.done)
	st.mu.Unlock()

	if err != nil {
		s.logger.Error("upload assembly failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("upload assembled",
		zap.String("session_id", sessionID),
		zap.String("recording_id", recording.ID.String()))

	return &FinishResult{RecordingID: recording.ID}, nil
}

func (s *UploadService) awaitAssembly(ctx context.Context, sessionID string, st *uploadState, done chan struct{}) (*FinishResult, error) {
	select {
	case <-done:
	case <-ctx.Done():
		return nil, apperrors.ErrInternal(ctx.Err())
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.session.Status == entities.UploadStatusComplete {
		return &FinishResult{RecordingID: *st.session.RecordingID, AlreadyComplete: true}, nil
	}
	return nil, apperrors.ErrSessionClosed(sessionID)
}

// assemble concatenates chunks strictly in index order, stores the result
// and hands it to the batch pipeline. Scratch chunks are released whether or
// not assembly succeeds; a failed session is terminal either way.
func (s *UploadService) assemble(ctx context.Context, st *uploadState) (*entities.Recording, error) {
	sessionID := st.session.ID

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.store.RemoveChunks(cleanupCtx, sessionID); err != nil {
			s.logger.Warn("failed to release scratch chunks",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}()

	var assembled bytes.Buffer
	assembled.Grow(int(st.session.TotalSize))

	for i := 0; i < st.session.TotalChunks; i++ {
		chunk, err := s.store.GetChunk(ctx, sessionID, i)
		if err != nil {
			return nil, apperrors.ErrStorageFailed("read chunk", err)
		}
		assembled.Write(chunk)
	}

	audio := assembled.Bytes()
	contentType := http.DetectContentType(audio)

	recording := entities.NewRecording(sessionID, st.session.FileName, "", int64(len(audio)))
	objectKey, err := s.store.PutRecording(ctx, recording.ID.String(),
		bytes.NewReader(audio), int64(len(audio)), contentType)
	if err != nil {
		return nil, apperrors.ErrStorageFailed("store recording", err)
	}
	recording.ObjectKey = objectKey

	s.processor.Process(recording, audio)

	return recording, nil
}
