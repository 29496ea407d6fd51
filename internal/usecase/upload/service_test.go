package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/pkg/config"
)

// fakeStore is an in-memory ChunkStore.
type fakeStore struct {
	mu         sync.Mutex
	chunks     map[string][]byte
	recordings map[string][]byte
	putCalls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chunks:     make(map[string][]byte),
		recordings: make(map[string][]byte),
	}
}

func key(sessionID string, index int) string {
	return fmt.Sprintf("%s/%d", sessionID, index)
}

func (f *fakeStore) PutChunk(_ context.Context, sessionID string, index int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	f.chunks[key(sessionID, index)] = append([]byte(nil), data...)
	return nil
}

func (f *fakeStore) GetChunk(_ context.Context, sessionID string, index int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.chunks[key(sessionID, index)]
	if !ok {
		return nil, errors.New("chunk not found")
	}
	return data, nil
}

func (f *fakeStore) RemoveChunks(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := sessionID + "/"
	for k := range f.chunks {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(f.chunks, k)
		}
	}
	return nil
}

func (f *fakeStore) PutRecording(_ context.Context, recordingID string, reader io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordings[recordingID] = data
	return "recordings/" + recordingID, nil
}

func (f *fakeStore) chunkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chunks)
}

func (f *fakeStore) recordingBytes(recordingID string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recordings[recordingID]
}

// nopProcessor discards assembled recordings.
type nopProcessor struct {
	mu        sync.Mutex
	processed []*entities.Recording
}

func (n *nopProcessor) Process(recording *entities.Recording, _ []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.processed = append(n.processed, recording)
}

func newTestService(store *fakeStore) (*UploadService, *nopProcessor) {
	processor := &nopProcessor{}
	svc := NewUploadService(store, processor, &config.UploadConfig{
		SessionTTL:   time.Minute,
		MaxChunkSize: 1 << 20,
	}, zap.NewNop())
	return svc, processor
}

func appCode(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError got %T: %v", err, err)
	}
	return appErr.Code
}

func TestInitSession_Validation(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	defer svc.Close()
	ctx := context.Background()

	cases := []struct {
		name        string
		fileName    string
		totalSize   int64
		totalChunks int
	}{
		{"empty file name", "", 100, 3},
		{"zero size", "visit.wav", 0, 3},
		{"negative size", "visit.wav", -1, 3},
		{"zero chunks", "visit.wav", 100, 0},
		{"negative chunks", "visit.wav", 100, -2},
	}

	for _, tc := range cases {
		_, err := svc.InitSession(ctx, tc.fileName, tc.totalSize, tc.totalChunks)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if code := appCode(t, err); code != apperrors.ErrorCode_INVALID_REQUEST {
			t.Fatalf("%s: unexpected code %v", tc.name, code)
		}
	}
}

func TestInitSession_UnsupportedFormat(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	defer svc.Close()

	_, err := svc.InitSession(context.Background(), "notes.pdf", 100, 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if code := appCode(t, err); code != apperrors.ErrorCode_UNSUPPORTED_AUDIO {
		t.Fatalf("unexpected code %v", code)
	}
}

func TestReceiveChunk_UnknownSession(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	defer svc.Close()

	err := svc.ReceiveChunk(context.Background(), "missing", 0, []byte("data"))
	if code := appCode(t, err); code != apperrors.ErrorCode_NOT_FOUND {
		t.Fatalf("unexpected code %v", code)
	}
}

func TestReceiveChunk_IndexOutOfRange(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	defer svc.Close()
	ctx := context.Background()

	session, err := svc.InitSession(ctx, "visit.wav", 300, 3)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	for _, index := range []int{-1, 3, 100} {
		err := svc.ReceiveChunk(ctx, session.ID, index, []byte("data"))
		if code := appCode(t, err); code != apperrors.ErrorCode_INVALID_REQUEST {
			t.Fatalf("index %d: unexpected code %v", index, code)
		}
	}

	// Rejections must leave session state untouched.
	if len(session.ChunkDigests) != 0 {
		t.Fatalf("expected no received chunks, got %d", len(session.ChunkDigests))
	}
	if store.chunkCount() != 0 {
		t.Fatalf("expected no stored chunks, got %d", store.chunkCount())
	}
}

func TestReceiveChunk_IdempotentReupload(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	defer svc.Close()
	ctx := context.Background()

	session, _ := svc.InitSession(ctx, "visit.wav", 300, 3)

	payload := []byte("identical bytes")
	if err := svc.ReceiveChunk(ctx, session.ID, 1, payload); err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	if err := svc.ReceiveChunk(ctx, session.ID, 1, payload); err != nil {
		t.Fatalf("re-upload should be a no-op success: %v", err)
	}

	if store.putCalls != 1 {
		t.Fatalf("expected 1 store write, got %d", store.putCalls)
	}
}

func TestReceiveChunk_MismatchedDuplicateConflicts(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	defer svc.Close()
	ctx := context.Background()

	session, _ := svc.InitSession(ctx, "visit.wav", 300, 3)

	if err := svc.ReceiveChunk(ctx, session.ID, 1, []byte("original")); err != nil {
		t.Fatalf("first upload failed: %v", err)
	}

	err := svc.ReceiveChunk(ctx, session.ID, 1, []byte("different"))
	if code := appCode(t, err); code != apperrors.ErrorCode_CONFLICT {
		t.Fatalf("unexpected code %v", code)
	}
}

func TestFinish_OutOfOrderAssembly(t *testing.T) {
	store := newFakeStore()
	svc, processor := newTestService(store)
	defer svc.Close()
	ctx := context.Background()

	chunk0 := bytes.Repeat([]byte{'a'}, 100)
	chunk1 := bytes.Repeat([]byte{'b'}, 100)
	chunk2 := bytes.Repeat([]byte{'c'}, 100)

	session, err := svc.InitSession(ctx, "visit.wav", 300, 3)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	// Upload in 2, 0, 1 order; reassembly must be index order.
	for _, up := range []struct {
		index int
		data  []byte
	}{{2, chunk2}, {0, chunk0}, {1, chunk1}} {
		if err := svc.ReceiveChunk(ctx, session.ID, up.index, up.data); err != nil {
			t.Fatalf("chunk %d failed: %v", up.index, err)
		}
	}

	result, err := svc.FinishUpload(ctx, session.ID)
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if result.AlreadyComplete {
		t.Fatal("first finish should not report already complete")
	}

	want := append(append(append([]byte(nil), chunk0...), chunk1...), chunk2...)
	got := store.recordingBytes(result.RecordingID.String())
	if !bytes.Equal(got, want) {
		t.Fatalf("assembled bytes mismatch: got %d bytes", len(got))
	}

	// Scratch chunks are released after assembly.
	if store.chunkCount() != 0 {
		t.Fatalf("expected scratch cleanup, %d chunks remain", store.chunkCount())
	}

	if len(processor.processed) != 1 {
		t.Fatalf("expected pipeline handoff, got %d", len(processor.processed))
	}
}

func TestFinish_IncompleteListsMissing(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	defer svc.Close()
	ctx := context.Background()

	session, _ := svc.InitSession(ctx, "visit.wav", 300, 3)
	if err := svc.ReceiveChunk(ctx, session.ID, 1, []byte("middle")); err != nil {
		t.Fatalf("chunk failed: %v", err)
	}

	_, err := svc.FinishUpload(ctx, session.ID)
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_INCOMPLETE {
		t.Fatalf("expected incomplete error, got %v", err)
	}
	if appErr.Details["missing"] != "0,2" {
		t.Fatalf("unexpected missing detail %q", appErr.Details["missing"])
	}
}

func TestFinish_IdempotentAfterComplete(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	defer svc.Close()
	ctx := context.Background()

	session, _ := svc.InitSession(ctx, "visit.wav", 10, 1)
	if err := svc.ReceiveChunk(ctx, session.ID, 0, []byte("0123456789")); err != nil {
		t.Fatalf("chunk failed: %v", err)
	}

	first, err := svc.FinishUpload(ctx, session.ID)
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	second, err := svc.FinishUpload(ctx, session.ID)
	if err != nil {
		t.Fatalf("second finish should succeed: %v", err)
	}
	if !second.AlreadyComplete {
		t.Fatal("second finish should report already complete")
	}
	if second.RecordingID != first.RecordingID {
		t.Fatal("second finish should return the same recording id")
	}

	// Chunks after completion are rejected.
	err = svc.ReceiveChunk(ctx, session.ID, 0, []byte("0123456789"))
	if code := appCode(t, err); code != apperrors.ErrorCode_ALREADY_COMPLETE {
		t.Fatalf("unexpected code %v", code)
	}
}

func TestFinish_ConcurrentSingleWinner(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	defer svc.Close()
	ctx := context.Background()

	session, _ := svc.InitSession(ctx, "visit.wav", 30, 3)
	for i := 0; i < 3; i++ {
		if err := svc.ReceiveChunk(ctx, session.ID, i, bytes.Repeat([]byte{byte('a' + i)}, 10)); err != nil {
			t.Fatalf("chunk %d failed: %v", i, err)
		}
	}

	const callers = 8
	results := make([]*FinishResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.FinishUpload(ctx, session.ID)
		}(i)
	}
	wg.Wait()

	var winners, alreadyComplete int
	var recordingID string
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i].AlreadyComplete {
			alreadyComplete++
		} else {
			winners++
		}
		if recordingID == "" {
			recordingID = results[i].RecordingID.String()
		} else if results[i].RecordingID.String() != recordingID {
			t.Fatal("callers observed different recording ids")
		}
	}

	if winners != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", winners)
	}
	if alreadyComplete != callers-1 {
		t.Fatalf("expected %d already-complete, got %d", callers-1, alreadyComplete)
	}
}
