// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package firebasedb

import (
	"context"
	"errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"github.com/corral-io/corral/docstore"
)

// Config describes the hub realtime database holding the registry and the
// forwarding snapshot.
type Config struct {
	DatabaseURL string
	ProjectID   string

	// CredentialsFile points at a service account JSON file. CredentialsJSON
	// takes precedence when both are set. With neither, the client connects
	// unauthenticated, which is sufficient for open development databases.
	CredentialsFile string
	CredentialsJSON string
}

// Client implements docstore.S on top of the firebase admin SDK realtime
// database client.
type Client struct {
	client *db.Client
}

func New(ctx context.Context, config Config) (*Client, error) {
	if config.DatabaseURL == "" {
		return nil, errors.New("hub databaseURL is required")
	}

	var opts []option.ClientOption
	switch {
	case config.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(config.CredentialsJSON)))
	case config.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	default:
		opts = append(opts, option.WithoutAuthentication())
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:   config.ProjectID,
		DatabaseURL: config.DatabaseURL,
	}, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, err
	}
	return &Client{client: client}, nil
}

func (c *Client) Read(ctx context.Context, path string, into interface{}) error {
	var raw interface{}
	if err := c.client.NewRef(path).Get(ctx, &raw); err != nil {
		return docstore.PathOperationError{Err: err, Path: path, Operation: docstore.ReadType}
	}
	if raw == nil {
		return docstore.PathOperationError{Err: docstore.ErrPathNotFound, Path: path, Operation: docstore.ReadType}
	}
	if err := remarshal(raw, into); err != nil {
		return docstore.PathOperationError{Err: err, Path: path, Operation: docstore.ReadType}
	}
	return nil
}

func (c *Client) Write(ctx context.Context, path string, value interface{}) error {
	if err := c.client.NewRef(path).Set(ctx, value); err != nil {
		return docstore.PathOperationError{Err: err, Path: path, Operation: docstore.WriteType}
	}
	return nil
}

func (c *Client) Push(ctx context.Context, path string, value interface{}) (string, error) {
	ref, err := c.client.NewRef(path).Push(ctx, value)
	if err != nil {
		return "", docstore.PathOperationError{Err: err, Path: path, Operation: docstore.PushType}
	}
	return ref.Key, nil
}

func (c *Client) Delete(ctx context.Context, path string) error {
	if err := c.client.NewRef(path).Delete(ctx); err != nil {
		return docstore.PathOperationError{Err: err, Path: path, Operation: docstore.DeleteType}
	}
	return nil
}
