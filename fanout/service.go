// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"context"
	"sync"

	"github.com/corral-io/corral/model"
)

// Service drives full fetch cycles and maintains one long-lived accumulator
// per target path, so the refresh policy applies across cycles.
type Service struct {
	fetcher *Fetcher
	cache   *Cache
	policy  RefreshPolicy

	lock sync.Mutex
	accs map[string]*Accumulator
}

func NewService(fetcher *Fetcher, cache *Cache, policy RefreshPolicy) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		policy:  policy,
		accs:    map[string]*Accumulator{},
	}
}

// Combined runs one full fetch cycle for the target path and returns the
// merged, sorted records plus a per-target result list. refresh purges the
// TTL cache first so every target is re-read. The call returns only after
// every per-target unit has settled.
func (s *Service) Combined(ctx context.Context, targetPath string, refresh bool) ([]model.Record, []model.TargetResult, error) {
	if refresh {
		s.cache.Purge()
	}

	acc := s.accumulator(targetPath)
	acc.Begin()

	batches, err := s.fetcher.FetchAll(ctx, targetPath)
	if err != nil {
		return nil, nil, err
	}

	var results []model.TargetResult
	for batch := range batches {
		result := model.TargetResult{
			Key:         batch.Key,
			ProjectID:   batch.ProjectID,
			DatabaseURL: batch.DatabaseURL,
		}
		if batch.Err != nil {
			result.Err = batch.Err.Error()
		} else {
			acc.Merge(batch.ProjectID, batch.Records)
		}
		results = append(results, result)
	}
	return acc.Snapshot(), results, nil
}

func (s *Service) accumulator(targetPath string) *Accumulator {
	s.lock.Lock()
	defer s.lock.Unlock()
	acc, ok := s.accs[targetPath]
	if !ok {
		acc = NewAccumulator(s.policy)
		s.accs[targetPath] = acc
	}
	return acc
}
