// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

// Package forwarding implements the broadcast write, backup and restore
// workflow for the shared "forward" field across every registered remote,
// plus the per-target field editor. The fleet-wide operations are
// best-effort: a failing target is recorded and the operation moves on, so a
// partial run leaves some targets updated and others not.
package forwarding

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/corral-io/corral/docstore"
	"github.com/corral-io/corral/metric"
	"github.com/corral-io/corral/model"
	"github.com/corral-io/corral/registry"
	"github.com/corral-io/corral/session"
)

// Field is the shared remote field every operation here reads and writes.
const Field = "forward"

const (
	purposeBroadcast = "forward"
	purposeBackup    = "backup"
	purposeRestore   = "restore"
	purposePush      = "push"
	purposeUpdate    = "update"
)

// ErrNoSnapshot guards restore: no remote I/O happens without a prior backup.
var ErrNoSnapshot = NoSnapshotError{}

type NoSnapshotError struct{}

func (NoSnapshotError) Error() string {
	return "no forwarding backup exists; run a backup before restoring"
}

func (NoSnapshotError) StatusCode() int {
	return http.StatusConflict
}

// UnknownTargetError means the named registry key has no entry.
type UnknownTargetError struct {
	Key string
}

func (e UnknownTargetError) Error() string {
	return "no registered config under key " + e.Key
}

func (UnknownTargetError) StatusCode() int {
	return http.StatusNotFound
}

// EntryLister is the slice of the registry reader these workflows need.
type EntryLister interface {
	ListEntries(ctx context.Context) ([]registry.Entry, error)
}

// PushEntry is one forwarding rule appended to every remote database.
type PushEntry struct {
	Default  string `json:"default"`
	Forward  string `json:"forward"`
	Password string `json:"password"`
}

type Service struct {
	lister   EntryLister
	sessions *session.Manager
	store    docstore.S
	timeout  time.Duration
	logger   *zap.Logger
	measures metric.Measures
	now      func() time.Time
}

type Config struct {
	// Timeout bounds each per-target read or write. Defaults to 10s.
	Timeout time.Duration
}

func NewService(config Config, lister EntryLister, sessions *session.Manager,
	store docstore.S, logger *zap.Logger, measures metric.Measures) *Service {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Service{
		lister:   lister,
		sessions: sessions,
		store:    store,
		timeout:  config.Timeout,
		logger:   logger,
		measures: measures,
		now:      time.Now,
	}
}

// BroadcastForward writes the new forward value into every registered remote,
// merging it over each remote's current root record. The per-target result
// list always covers every registry entry.
func (s *Service) BroadcastForward(ctx context.Context, value string) ([]model.TargetResult, error) {
	entries, err := s.lister.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]model.TargetResult, 0, len(entries))
	for _, entry := range entries {
		result := s.eachTarget(ctx, entry, purposeBroadcast, func(opCtx context.Context, conn session.Conn) error {
			root, err := readRoot(opCtx, conn)
			if err != nil {
				return err
			}
			root[Field] = value
			return conn.Set(opCtx, "/", root)
		})
		results = append(results, result)
	}
	s.report(purposeBroadcast, results)
	return results, nil
}

// Backup captures every remote's current forward value into one snapshot
// document, overwriting the previous snapshot in full once all targets have
// settled.
func (s *Service) Backup(ctx context.Context) (model.ForwardingSnapshot, []model.TargetResult, error) {
	entries, err := s.lister.ListEntries(ctx)
	if err != nil {
		return model.ForwardingSnapshot{}, nil, err
	}

	snapshot := model.ForwardingSnapshot{
		Entries: map[string]model.SnapshotEntry{},
		Taken:   s.now().UnixMilli(),
	}

	results := make([]model.TargetResult, 0, len(entries))
	for _, entry := range entries {
		entry := entry
		result := s.eachTarget(ctx, entry, purposeBackup, func(opCtx context.Context, conn session.Conn) error {
			root, err := readRoot(opCtx, conn)
			if err != nil {
				return err
			}
			snapshot.Entries[SanitizeKey(entry.Key)] = model.SnapshotEntry{
				Forward:     cast.ToString(root[Field]),
				ProjectID:   entry.Config.Source(),
				DatabaseURL: entry.Config.DatabaseURL,
				CapturedAt:  s.now().UnixMilli(),
			}
			return nil
		})
		results = append(results, result)
	}
	snapshot.Count = len(snapshot.Entries)

	if err := s.store.Write(ctx, docstore.SnapshotPath, snapshot); err != nil {
		return snapshot, results, err
	}
	s.report(purposeBackup, results)
	return snapshot, results, nil
}

// Restore writes each target's snapshotted forward value back. It refuses to
// touch any remote when no snapshot document exists; targets without a
// snapshot entry, or with an empty captured value, are skipped with a
// warning result.
func (s *Service) Restore(ctx context.Context) ([]model.TargetResult, error) {
	var snapshot model.ForwardingSnapshot
	err := s.store.Read(ctx, docstore.SnapshotPath, &snapshot)
	if errors.Is(err, docstore.ErrPathNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	if len(snapshot.Entries) == 0 {
		return nil, ErrNoSnapshot
	}

	entries, err := s.lister.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]model.TargetResult, 0, len(entries))
	for _, entry := range entries {
		saved, ok := snapshot.Entries[SanitizeKey(entry.Key)]
		if !ok || saved.Forward == "" {
			s.logger.Warn("no snapshot entry for target; skipping restore",
				zap.String("key", entry.Key))
			results = append(results, model.TargetResult{
				Key:         entry.Key,
				ProjectID:   entry.Config.Source(),
				DatabaseURL: entry.Config.DatabaseURL,
				Err:         "skipped: no captured forward value",
			})
			continue
		}
		result := s.eachTarget(ctx, entry, purposeRestore, func(opCtx context.Context, conn session.Conn) error {
			root, err := readRoot(opCtx, conn)
			if err != nil {
				return err
			}
			root[Field] = saved.Forward
			return conn.Set(opCtx, "/", root)
		})
		results = append(results, result)
	}
	s.report(purposeRestore, results)
	return results, nil
}

// UpdateTarget merges the given fields over one registered remote's root
// record, leaving sibling fields in place. The key names a registry entry;
// an unknown key fails with UnknownTargetError before any remote I/O.
func (s *Service) UpdateTarget(ctx context.Context, key string, fields map[string]interface{}) (model.TargetResult, error) {
	entries, err := s.lister.ListEntries(ctx)
	if err != nil {
		return model.TargetResult{}, err
	}

	for _, entry := range entries {
		if entry.Key != key {
			continue
		}
		result := s.eachTarget(ctx, entry, purposeUpdate, func(opCtx context.Context, conn session.Conn) error {
			root, err := readRoot(opCtx, conn)
			if err != nil {
				return err
			}
			for field, value := range fields {
				root[field] = value
			}
			return conn.Set(opCtx, "/", root)
		})
		s.report(purposeUpdate, []model.TargetResult{result})
		return result, nil
	}
	return model.TargetResult{}, UnknownTargetError{Key: key}
}

// PushAll appends a forwarding rule to every remote database root.
func (s *Service) PushAll(ctx context.Context, rule PushEntry) ([]model.TargetResult, error) {
	entries, err := s.lister.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]model.TargetResult, 0, len(entries))
	for _, entry := range entries {
		result := s.eachTarget(ctx, entry, purposePush, func(opCtx context.Context, conn session.Conn) error {
			_, err := conn.Push(opCtx, "/", rule)
			return err
		})
		results = append(results, result)
	}
	s.report(purposePush, results)
	return results, nil
}

// eachTarget runs one per-target unit: skip unusable entries, acquire a
// handle, run the operation under the per-target deadline, release the
// handle on every exit path.
func (s *Service) eachTarget(ctx context.Context, entry registry.Entry, purpose string,
	op func(ctx context.Context, conn session.Conn) error) model.TargetResult {

	result := model.TargetResult{
		Key:         entry.Key,
		ProjectID:   entry.Config.Source(),
		DatabaseURL: entry.Config.DatabaseURL,
	}
	if entry.Err != nil {
		result.Err = entry.Err.Error()
		return result
	}

	handle, err := s.sessions.Acquire(ctx, entry.Config, purpose)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	defer s.sessions.Release(handle)

	opCtx, cancel := context.WithTimeout(handle.Context(), s.timeout)
	defer cancel()

	if err := op(opCtx, handle.Conn()); err != nil {
		result.Err = err.Error()
	}
	return result
}

// report logs an aggregate summary and counts per-target outcomes.
func (s *Service) report(op string, results []model.TargetResult) {
	var merr *multierror.Error
	for _, result := range results {
		outcome := metric.OutcomeSuccess
		if !result.OK() {
			outcome = metric.OutcomeFailure
			merr = multierror.Append(merr, errors.New(result.Key+": "+result.Err))
		}
		s.measures.BroadcastCount.WithLabelValues(op, outcome).Inc()
	}
	if summary := merr.ErrorOrNil(); summary != nil {
		s.logger.Warn("aggregate operation finished with per-target failures",
			zap.String("op", op), zap.Int("targets", len(results)), zap.Error(summary))
	} else {
		s.logger.Info("aggregate operation finished",
			zap.String("op", op), zap.Int("targets", len(results)))
	}
}

func readRoot(ctx context.Context, conn session.Conn) (map[string]interface{}, error) {
	var root map[string]interface{}
	if err := conn.Get(ctx, "/", &root); err != nil {
		return nil, err
	}
	if root == nil {
		root = map[string]interface{}{}
	}
	return root, nil
}
