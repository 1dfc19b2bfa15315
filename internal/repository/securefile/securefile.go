package securefile

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"coursepocket/internal/repository"
)

// keySalt pins the scrypt derivation so the same secret always opens the
// same file. The secret itself comes from configuration.
const keySalt = "coursepocket.securefile.v1"

// Repository is an encrypted key-value file, standing in for the platform
// secret store. The whole map is sealed as a single XChaCha20-Poly1305
// payload: nonce followed by ciphertext.
type Repository struct {
	path string
	aead cipher.AEAD

	mu sync.Mutex
}

func New(path, secret string) (*Repository, error) {
	if secret == "" {
		return nil, errors.New("securefile: secret is required")
	}

	key, err := scrypt.Key([]byte(secret), []byte(keySalt), 1<<15, 8, 1, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("securefile: derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("securefile: init cipher: %w", err)
	}

	return &Repository{path: path, aead: aead}, nil
}

func (r *Repository) Init(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("securefile: create dir: %w", err)
	}
	return nil
}

func (r *Repository) Put(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return err
	}
	entries[key] = value
	return r.save(entries)
}

func (r *Repository) Get(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return "", err
	}
	value, ok := entries[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return value, nil
}

func (r *Repository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return r.save(entries)
}

func (r *Repository) load() (map[string]string, error) {
	sealed, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("securefile: read: %w", err)
	}

	nonceSize := r.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, errors.New("securefile: truncated payload")
	}

	plain, err := r.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("securefile: unseal: %w", err)
	}

	entries := map[string]string{}
	if err := json.Unmarshal(plain, &entries); err != nil {
		return nil, fmt.Errorf("securefile: decode: %w", err)
	}
	return entries, nil
}

func (r *Repository) save(entries map[string]string) error {
	plain, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("securefile: encode: %w", err)
	}

	nonce := make([]byte, r.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("securefile: nonce: %w", err)
	}
	sealed := r.aead.Seal(nonce, nonce, plain, nil)

	if err := os.WriteFile(r.path, sealed, 0o600); err != nil {
		return fmt.Errorf("securefile: write: %w", err)
	}
	return nil
}
