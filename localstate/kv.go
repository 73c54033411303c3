// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

// Package localstate holds the dashboard's locally persisted key-to-blob
// state: notification already-sent id sets and saved sender configurations.
// Values are opaque strings (JSON blobs) with no structure beyond encoding.
package localstate

import (
	"context"
	"errors"
)

// ErrKeyNotFound means the key holds no value.
var ErrKeyNotFound = errors.New("key not found")

// KV is a flat key-value store with string values and string sets.
type KV interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
	AddToSet(ctx context.Context, key, member string) error
	InSet(ctx context.Context, key, member string) (bool, error)

	// Clear removes every key with the given prefix; the logout/reset path.
	Clear(ctx context.Context, prefix string) error
}
