package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("key not found")

// KVRepository defines persistence operations for small key-value entries.
// Implementations back the token store and the bookmark service; one logical
// key always lives in exactly one backend.
type KVRepository interface {
	Init(ctx context.Context) error
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
