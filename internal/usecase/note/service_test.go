package note

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

type fakeNoteRepo struct {
	mu        sync.Mutex
	notes     map[uuid.UUID]*entities.SOAPNote
	summaries map[uuid.UUID][]entities.ChunkSummary
	findCalls int
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
	f.findCalls++
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

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
	delErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.values, key)
	return nil
}

func TestGet_ReadThroughCache(t *testing.T) {
	repo := newFakeNoteRepo()
	cache := newFakeCache()
	svc := NewNoteService(repo, cache, zap.NewNop())
	ctx := context.Background()

	note := entities.NewSOAPNote("session-1", entities.SOAPSections{Subjective: "cough"})
	repo.Create(ctx, note)

	first, err := svc.Get(ctx, note.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if first.Note.Subjective != "cough" {
		t.Fatalf("unexpected subjective %q", first.Note.Subjective)
	}

	// Second read is served from cache, not the repository.
	second, err := svc.Get(ctx, note.ID)
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if second.Note.ID != note.ID {
		t.Fatal("cache returned a different note")
	}
	if repo.findCalls != 1 {
		t.Fatalf("expected 1 repository read, got %d", repo.findCalls)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := NewNoteService(newFakeNoteRepo(), newFakeCache(), zap.NewNop())

	_, err := svc.Get(context.Background(), uuid.New())
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_NOT_FOUND {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdate_ReplacesAllSectionsAndInvalidatesCache(t *testing.T) {
	repo := newFakeNoteRepo()
	cache := newFakeCache()
	svc := NewNoteService(repo, cache, zap.NewNop())
	ctx := context.Background()

	note := entities.NewSOAPNote("session-1", entities.SOAPSections{
		Subjective: "old s",
		Objective:  "old o",
		Assessment: "old a",
		Plan:       "old p",
	})
	repo.Create(ctx, note)

	// Warm the cache.
	if _, err := svc.Get(ctx, note.ID); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	// Whole-document replace: an empty field clears the section.
	updated, err := svc.Update(ctx, note.ID, entities.SOAPSections{Subjective: "new s"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Subjective != "new s" || updated.Objective != "" || updated.Assessment != "" || updated.Plan != "" {
		t.Fatal("update was not a whole-document replace")
	}

	// The stale cache entry is gone; the next read sees the new sections.
	after, err := svc.Get(ctx, note.ID)
	if err != nil {
		t.Fatalf("get after update failed: %v", err)
	}
	if after.Note.Subjective != "new s" || after.Note.Objective != "" {
		t.Fatal("read after update returned stale sections")
	}
}

func TestGet_IncludesChunkSummaries(t *testing.T) {
	repo := newFakeNoteRepo()
	cache := newFakeCache()
	svc := NewNoteService(repo, cache, zap.NewNop())
	ctx := context.Background()

	note := entities.NewSOAPNote("session-1", entities.SOAPSections{Subjective: "cough"})
	repo.Create(ctx, note)
	repo.SaveChunkSummaries(ctx, []entities.ChunkSummary{
		{ID: uuid.New(), SOAPNoteID: note.ID, ChunkIndex: 0, Summary: "first half", FromSequence: 1, ToSequence: 40},
		{ID: uuid.New(), SOAPNoteID: note.ID, ChunkIndex: 1, Summary: "second half", FromSequence: 41, ToSequence: 62},
	})

	detail, err := svc.Get(ctx, note.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(detail.ChunkSummaries) != 2 {
		t.Fatalf("expected 2 chunk summaries, got %d", len(detail.ChunkSummaries))
	}
	if detail.ChunkSummaries[0].Summary != "first half" || detail.ChunkSummaries[1].Summary != "second half" {
		t.Fatalf("unexpected summaries %+v", detail.ChunkSummaries)
	}

	// The cached entry carries the summaries too.
	cached, err := svc.Get(ctx, note.ID)
	if err != nil {
		t.Fatalf("cached get failed: %v", err)
	}
	if len(cached.ChunkSummaries) != 2 {
		t.Fatalf("cache dropped the chunk summaries: %d", len(cached.ChunkSummaries))
	}
	if repo.findCalls != 1 {
		t.Fatalf("expected 1 repository read, got %d", repo.findCalls)
	}
}

func TestUpdate_CacheInvalidationFailure(t *testing.T) {
	repo := newFakeNoteRepo()
	cache := newFakeCache()
	svc := NewNoteService(repo, cache, zap.NewNop())
	ctx := context.Background()

	note := entities.NewSOAPNote("session-1", entities.SOAPSections{Subjective: "old"})
	repo.Create(ctx, note)
	if _, err := svc.Get(ctx, note.ID); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	cache.delErr = errors.New("connection refused")
	_, err := svc.Update(ctx, note.ID, entities.SOAPSections{Subjective: "new"})
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_INTEGRATION_CACHE {
		t.Fatalf("expected cache failure, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewNoteService(newFakeNoteRepo(), nil, zap.NewNop())

	_, err := svc.Update(context.Background(), uuid.New(), entities.SOAPSections{})
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_NOT_FOUND {
		t.Fatalf("expected not found, got %v", err)
	}
}
