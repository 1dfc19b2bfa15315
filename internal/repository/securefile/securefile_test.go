package securefile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"coursepocket/internal/repository"
)

func newTestRepo(t *testing.T, path, secret string) *Repository {
	t.Helper()

	repo, err := New(path, secret)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return repo
}

func TestRequiresSecret(t *testing.T) {
	if _, err := New("whatever.bin", ""); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestRoundtripAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secure.bin")
	ctx := context.Background()

	repo := newTestRepo(t, path, "device-secret")
	if err := repo.Put(ctx, "auth_token", "tok-123"); err != nil {
		t.Fatalf("put: %v", err)
	}

	// a fresh instance with the same secret reads the same data
	reopened := newTestRepo(t, path, "device-secret")
	value, err := reopened.Get(ctx, "auth_token")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "tok-123" {
		t.Errorf("Get = %q; expected tok-123", value)
	}
}

func TestGetMissingKey(t *testing.T) {
	repo := newTestRepo(t, filepath.Join(t.TempDir(), "secure.bin"), "s")

	if _, err := repo.Get(context.Background(), "absent"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	repo := newTestRepo(t, filepath.Join(t.TempDir(), "secure.bin"), "s")
	ctx := context.Background()

	if err := repo.Put(ctx, "auth_token", "tok"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Delete(ctx, "auth_token"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "auth_token"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, "auth_token"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestWrongSecretFailsToUnseal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secure.bin")
	ctx := context.Background()

	repo := newTestRepo(t, path, "right-secret")
	if err := repo.Put(ctx, "auth_token", "tok"); err != nil {
		t.Fatalf("put: %v", err)
	}

	attacker := newTestRepo(t, path, "wrong-secret")
	if _, err := attacker.Get(ctx, "auth_token"); err == nil || errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected unseal failure, got %v", err)
	}
}

func TestFileIsNotPlaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secure.bin")
	repo := newTestRepo(t, path, "s")

	if err := repo.Put(context.Background(), "auth_token", "super-secret-token"); err != nil {
		t.Fatalf("put: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(raw) == "super-secret-token" || containsSubslice(raw, []byte("super-secret-token")) {
		t.Error("token stored in plaintext")
	}
}

func containsSubslice(haystack, needle []byte) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return true
		}
	}
	return false
}
