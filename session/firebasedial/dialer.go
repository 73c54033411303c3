// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package firebasedial

import (
	"context"
	"errors"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"github.com/corral-io/corral/model"
	"github.com/corral-io/corral/session"
)

// Dialer opens firebase realtime database sessions for registered remote
// configs. Configs without embedded service account credentials connect
// unauthenticated, which matches how the remotes are provisioned.
type Dialer struct{}

func New() *Dialer {
	return &Dialer{}
}

func (d *Dialer) Open(ctx context.Context, config model.RemoteConfig) (session.Conn, error) {
	var opts []option.ClientOption
	if config.Credentials != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(config.Credentials)))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:   config.ProjectID,
		DatabaseURL: config.DatabaseURL,
	}, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.DatabaseWithURL(ctx, config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &conn{client: client}, nil
}

// conn adapts a *db.Client to session.Conn. The admin SDK holds no sockets
// open between calls, so Close only marks the session unusable.
type conn struct {
	client *db.Client

	mu     sync.Mutex
	closed bool
}

var errClosed = errors.New("session is closed")

func (c *conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *conn) Get(ctx context.Context, path string, into interface{}) error {
	if c.isClosed() {
		return errClosed
	}
	return c.client.NewRef(path).Get(ctx, into)
}

func (c *conn) Set(ctx context.Context, path string, value interface{}) error {
	if c.isClosed() {
		return errClosed
	}
	return c.client.NewRef(path).Set(ctx, value)
}

func (c *conn) Push(ctx context.Context, path string, value interface{}) (string, error) {
	if c.isClosed() {
		return "", errClosed
	}
	ref, err := c.client.NewRef(path).Push(ctx, value)
	if err != nil {
		return "", err
	}
	return ref.Key, nil
}

func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
