// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"

	"github.com/corral-io/corral/model"
)

// Conn is an open session against one remote database. All operations honor
// the supplied context; Close is idempotent.
type Conn interface {
	Get(ctx context.Context, path string, into interface{}) error
	Set(ctx context.Context, path string, value interface{}) error
	Push(ctx context.Context, path string, value interface{}) (string, error)
	Close() error
}

// Dialer opens connections to remote databases. Implementations must treat
// the config as read-only.
type Dialer interface {
	Open(ctx context.Context, config model.RemoteConfig) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, config model.RemoteConfig) (Conn, error)

func (f DialerFunc) Open(ctx context.Context, config model.RemoteConfig) (Conn, error) {
	return f(ctx, config)
}
