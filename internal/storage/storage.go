// Package storage keeps per-device key-value state: the server-side
// counterpart of a browser's local storage.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: key not found")

// Store is a flat key-value store partitioned by scope. Writes to the same
// scope and key overwrite each other; the last write wins.
type Store interface {
	Get(ctx context.Context, scope, key string) (string, error)
	Set(ctx context.Context, scope, key, value string) error
	Delete(ctx context.Context, scope, key string) error
}

// Bucket is a Store bound to a single scope.
type Bucket struct {
	store Store
	scope string
}

func Scoped(s Store, scope string) *Bucket {
	return &Bucket{store: s, scope: scope}
}

func (b *Bucket) Scope() string { return b.scope }

func (b *Bucket) Get(ctx context.Context, key string) (string, error) {
	return b.store.Get(ctx, b.scope, key)
}

func (b *Bucket) Set(ctx context.Context, key, value string) error {
	return b.store.Set(ctx, b.scope, key, value)
}

func (b *Bucket) Delete(ctx context.Context, key string) error {
	return b.store.Delete(ctx, b.scope, key)
}
