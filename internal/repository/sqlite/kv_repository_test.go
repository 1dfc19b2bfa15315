package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"coursepocket/internal/repository"
)

func newTestRepo(t *testing.T) repository.KVRepository {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewKVRepository(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return repo
}

func TestPutGetRoundtrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Put(ctx, "auth_token", "tok-123"); err != nil {
		t.Fatalf("put: %v", err)
	}

	value, err := repo.Get(ctx, "auth_token")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "tok-123" {
		t.Errorf("Get = %q; expected tok-123", value)
	}
}

func TestPutOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Put(ctx, "k", "first"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, "k", "second"); err != nil {
		t.Fatalf("put: %v", err)
	}

	value, err := repo.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "second" {
		t.Errorf("Get = %q; expected second", value)
	}
}

func TestGetMissingKey(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.Get(context.Background(), "absent"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Put(ctx, "k", "v"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "k"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// deleting again is a no-op
	if err := repo.Delete(ctx, "k"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}
