package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"coursepocket/internal/domain"
	"coursepocket/internal/repository"
)

type memRepo struct {
	mu      sync.Mutex
	data    map[string]string
	failPut bool
}

func newMemRepo() *memRepo {
	return &memRepo{data: map[string]string{}}
}

func (m *memRepo) Init(ctx context.Context) error { return nil }

func (m *memRepo) Put(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return errors.New("disk full")
	}
	m.data[key] = value
	return nil
}

func (m *memRepo) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return value, nil
}

func (m *memRepo) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memRepo) stored(t *testing.T) []domain.Course {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[bookmarkKey]
	if !ok {
		return nil
	}
	var set []domain.Course
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		t.Fatalf("stored bookmarks corrupt: %v", err)
	}
	return set
}

var testCatalog = []domain.Course{
	{ID: "user-0", Title: "Course by Ada Lovelace", Instructor: "Ada Lovelace", Price: 42},
	{ID: "product-0", Title: "Clay Pottery", Description: "wheel throwing", Price: 49.5},
}

func TestToggleAddsAndRemoves(t *testing.T) {
	repo := newMemRepo()
	bookmarks := NewBookmarkService(repo, testLogger())
	bookmarks.SetCatalog(testCatalog)
	ctx := context.Background()

	bookmarks.Toggle(ctx, "product-0")
	if !bookmarks.IsBookmarked("product-0") {
		t.Fatal("expected product-0 bookmarked after first toggle")
	}

	bookmarks.Toggle(ctx, "product-0")
	if bookmarks.IsBookmarked("product-0") {
		t.Fatal("expected product-0 removed after second toggle")
	}

	bookmarks.Close()
	if set := repo.stored(t); len(set) != 0 {
		t.Errorf("expected empty persisted set, got %v", set)
	}
}

func TestTogglePersistsFullSnapshots(t *testing.T) {
	repo := newMemRepo()
	bookmarks := NewBookmarkService(repo, testLogger())
	bookmarks.SetCatalog(testCatalog)

	bookmarks.Toggle(context.Background(), "product-0")
	bookmarks.Close()

	set := repo.stored(t)
	if len(set) != 1 {
		t.Fatalf("expected 1 persisted snapshot, got %d", len(set))
	}
	if set[0].Title != "Clay Pottery" || set[0].Price != 49.5 {
		t.Errorf("expected full course snapshot, got %+v", set[0])
	}
}

func TestToggleUnknownIDIsNoop(t *testing.T) {
	repo := newMemRepo()
	bookmarks := NewBookmarkService(repo, testLogger())
	bookmarks.SetCatalog(testCatalog)

	bookmarks.Toggle(context.Background(), "product-99")

	if len(bookmarks.Bookmarked()) != 0 {
		t.Error("expected no bookmark for unknown id")
	}
	bookmarks.Close()
	if _, ok := repo.data[bookmarkKey]; ok {
		t.Error("expected no persisted write for a no-op toggle")
	}
}

func TestLoadSavedRestoresSet(t *testing.T) {
	repo := newMemRepo()
	raw, _ := json.Marshal([]domain.Course{{ID: "product-7", Title: "Gone Course", Price: 12}})
	repo.data[bookmarkKey] = string(raw)

	bookmarks := NewBookmarkService(repo, testLogger())
	defer bookmarks.Close()
	bookmarks.LoadSaved(context.Background())

	// membership survives even though product-7 is in no current catalog
	if !bookmarks.IsBookmarked("product-7") {
		t.Error("expected persisted bookmark to be restored")
	}
}

func TestLoadSavedCorruptDataYieldsEmptySet(t *testing.T) {
	repo := newMemRepo()
	repo.data[bookmarkKey] = "{not json"

	bookmarks := NewBookmarkService(repo, testLogger())
	defer bookmarks.Close()
	bookmarks.LoadSaved(context.Background())

	if len(bookmarks.Bookmarked()) != 0 {
		t.Error("expected empty set on corrupt data")
	}
}

func TestLoadSavedMissingDataYieldsEmptySet(t *testing.T) {
	bookmarks := NewBookmarkService(newMemRepo(), testLogger())
	defer bookmarks.Close()
	bookmarks.LoadSaved(context.Background())

	if len(bookmarks.Bookmarked()) != 0 {
		t.Error("expected empty set when nothing is persisted")
	}
}

func TestWriteFailureKeepsMemoryAndPublishesEvent(t *testing.T) {
	repo := newMemRepo()
	repo.failPut = true

	bookmarks := NewBookmarkService(repo, testLogger())
	defer bookmarks.Close()
	bookmarks.SetCatalog(testCatalog)

	bookmarks.Toggle(context.Background(), "user-0")

	// in-memory state is ahead of storage, not rolled back
	if !bookmarks.IsBookmarked("user-0") {
		t.Error("expected bookmark kept in memory despite write failure")
	}

	select {
	case ev := <-bookmarks.Events():
		if ev.CourseID != "user-0" || ev.Err == nil {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a durability event")
	}
}

func TestWritesApplyInToggleOrder(t *testing.T) {
	repo := newMemRepo()
	bookmarks := NewBookmarkService(repo, testLogger())
	bookmarks.SetCatalog(testCatalog)
	ctx := context.Background()

	bookmarks.Toggle(ctx, "user-0")
	bookmarks.Toggle(ctx, "product-0")
	bookmarks.Toggle(ctx, "user-0")
	bookmarks.Close()

	set := repo.stored(t)
	if len(set) != 1 || set[0].ID != "product-0" {
		t.Errorf("expected final persisted set [product-0], got %v", set)
	}
}
