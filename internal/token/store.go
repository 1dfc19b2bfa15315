package token

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"coursepocket/internal/repository"
)

const storageKey = "auth_token"

// Store persists the opaque bearer token. One backend handles store, read
// and erase alike; backend trouble degrades to "unset" and is only logged,
// never returned.
type Store struct {
	repo repository.KVRepository
	log  *logrus.Logger
}

func NewStore(repo repository.KVRepository, log *logrus.Logger) *Store {
	return &Store{repo: repo, log: log}
}

// Save overwrites the persisted token. On backend failure the caller
// proceeds as if stored.
func (s *Store) Save(ctx context.Context, token string) {
	if err := s.repo.Put(ctx, storageKey, token); err != nil {
		s.log.Warnf("token store unavailable, token not persisted: %v", err)
	}
}

// Read returns the persisted token, or false when absent or unreadable.
func (s *Store) Read(ctx context.Context) (string, bool) {
	value, err := s.repo.Get(ctx, storageKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warnf("token store unavailable, treating token as unset: %v", err)
		}
		return "", false
	}
	if value == "" {
		return "", false
	}
	return value, true
}

// Erase removes the persisted token. Idempotent; failures are swallowed.
func (s *Store) Erase(ctx context.Context) {
	if err := s.repo.Delete(ctx, storageKey); err != nil {
		s.log.Warnf("token store unavailable, token not removed: %v", err)
	}
}
