// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/corral-io/corral/docstore"
	"github.com/corral-io/corral/model"
)

// ErrDuplicateConfig means a submitted config collides with a registered one
// on databaseURL, projectId or appId.
var ErrDuplicateConfig = DuplicateConfigError{}

type DuplicateConfigError struct{}

func (DuplicateConfigError) Error() string {
	return "a config with the same databaseURL, projectId or appId already exists"
}

func (DuplicateConfigError) StatusCode() int {
	return http.StatusConflict
}

// Reader lists registered remote configs out of the hub store, normalizing
// every entry and dropping the unusable ones.
type Reader struct {
	store    docstore.S
	logger   *zap.Logger
	validate *validator.Validate
}

func NewReader(store docstore.S, logger *zap.Logger) *Reader {
	return &Reader{
		store:    store,
		logger:   logger,
		validate: validator.New(),
	}
}

// Entry is one registry row as stored. Err carries the normalization failure
// for rows that cannot produce a usable config.
type Entry struct {
	Key    string
	Config model.RemoteConfig
	Err    error
}

// ListEntries reads the full registry once and normalizes every row in stable
// key order, keeping unusable rows with their errors so aggregate operations
// can report them per target. Only the registry read itself can fail the call.
func (r *Reader) ListEntries(ctx context.Context) ([]Entry, error) {
	raw, err := r.readAll(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(raw))
	for _, key := range keys {
		entry := Entry{Key: key}
		config, err := ParseEntry(key, raw[key])
		switch {
		case err != nil:
			entry.Err = err
		case config.DatabaseURL == "":
			entry.Err = ParseError{Reason: "missing databaseURL"}
		default:
			entry.Config = config
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ListConfigs returns every usable config in stable key order. Entries that
// fail to parse or lack a databaseURL are skipped with a warning.
func (r *Reader) ListConfigs(ctx context.Context) ([]model.RemoteConfig, error) {
	entries, err := r.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	configs := make([]model.RemoteConfig, 0, len(entries))
	for _, entry := range entries {
		if entry.Err != nil {
			r.logger.Warn("skipping unusable registry entry",
				zap.String("key", entry.Key), zap.Error(entry.Err))
			continue
		}
		configs = append(configs, entry.Config)
	}
	return configs, nil
}

// Count returns the number of registry entries, usable or not.
func (r *Reader) Count(ctx context.Context) (int, error) {
	raw, err := r.readAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}

// Add parses an operator-submitted config, validates it, rejects duplicates
// and pushes it into the registry. Returns the new registry key.
func (r *Reader) Add(ctx context.Context, raw []byte) (string, error) {
	config, err := ParseRaw(raw)
	if err != nil {
		return "", err
	}
	if err := r.validate.Struct(config); err != nil {
		return "", ParseError{Reason: "databaseURL is required: " + err.Error()}
	}

	existing, err := r.ListConfigs(ctx)
	if err != nil {
		return "", err
	}
	if IsDuplicate(config, existing) {
		return "", ErrDuplicateConfig
	}
	return r.store.Push(ctx, docstore.ConfigsPath, config)
}

func (r *Reader) readAll(ctx context.Context) (map[string]interface{}, error) {
	var raw map[string]interface{}
	err := r.store.Read(ctx, docstore.ConfigsPath, &raw)
	if errors.Is(err, docstore.ErrPathNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}
