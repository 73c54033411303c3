// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/corral-io/corral/metric"
	"github.com/corral-io/corral/model"
	"github.com/corral-io/corral/session"
)

// DefaultTimeout is the per-target read deadline. A target slower than this
// contributes a failure batch, never a stalled pipeline.
const DefaultTimeout = 10 * time.Second

const fetchPurpose = "fetch"

// ConfigLister is the slice of the registry reader the pipeline needs.
type ConfigLister interface {
	ListConfigs(ctx context.Context) ([]model.RemoteConfig, error)
}

// Batch is one target's settled contribution to a fetch cycle.
type Batch struct {
	Key         string
	ProjectID   string
	DatabaseURL string
	Records     []model.Record
	Err         error
}

// Fetcher runs the fan-out fetch pipeline: one concurrent unit per registered
// config, each reading a target sub-path through a short-lived session.
type Fetcher struct {
	lister   ConfigLister
	sessions *session.Manager
	cache    *Cache
	pool     *ants.Pool
	timeout  time.Duration
	logger   *zap.Logger
	measures metric.Measures
}

type FetcherConfig struct {
	// Timeout bounds each per-target read. Defaults to DefaultTimeout.
	Timeout time.Duration

	// PoolSize caps concurrently running per-target units. Defaults to 32.
	PoolSize int
}

func NewFetcher(config FetcherConfig, lister ConfigLister, sessions *session.Manager,
	cache *Cache, logger *zap.Logger, measures metric.Measures) (*Fetcher, error) {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.PoolSize <= 0 {
		config.PoolSize = 32
	}
	pool, err := ants.NewPool(config.PoolSize)
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		lister:   lister,
		sessions: sessions,
		cache:    cache,
		pool:     pool,
		timeout:  config.Timeout,
		logger:   logger,
		measures: measures,
	}, nil
}

// Close releases the worker pool and sweeps any handle the pipeline left open.
func (f *Fetcher) Close() {
	f.pool.Release()
	f.sessions.SweepPrefix(fetchPurpose)
}

// FetchAll starts one unit per valid config and returns a channel carrying
// one Batch per unit as it settles. The channel closes once every unit has
// settled; that close is the pipeline's "loading cleared" point. A fresh call
// re-executes fully. Only the registry read can fail the call itself.
func (f *Fetcher) FetchAll(ctx context.Context, targetPath string) (<-chan Batch, error) {
	configs, err := f.lister.ListConfigs(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Batch, len(configs))
	var wg sync.WaitGroup
	for _, config := range configs {
		config := config
		wg.Add(1)
		run := func() {
			defer wg.Done()
			out <- f.fetchOne(ctx, config, targetPath)
		}
		if err := f.pool.Submit(run); err != nil {
			// pool saturated or released; fall back to running inline
			run()
		}
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, config model.RemoteConfig, targetPath string) Batch {
	batch := Batch{
		Key:         config.ID,
		ProjectID:   config.Source(),
		DatabaseURL: config.DatabaseURL,
	}

	key := CacheKey{ID: config.ID, DatabaseURL: config.DatabaseURL}
	if records, ok := f.cache.Get(key); ok {
		f.measures.CacheHitCount.Inc()
		batch.Records = records
		return batch
	}
	f.measures.CacheMissCount.Inc()

	started := time.Now()
	handle, err := f.sessions.Acquire(ctx, config, fetchPurpose)
	if err != nil {
		return f.fail(batch, err)
	}
	defer f.sessions.Release(handle)

	readCtx, cancel := context.WithTimeout(handle.Context(), f.timeout)
	defer cancel()

	var raw map[string]interface{}
	if err := handle.Conn().Get(readCtx, targetPath, &raw); err != nil {
		return f.fail(batch, err)
	}

	batch.Records = normalizeRecords(raw, config)
	f.cache.Put(key, batch.Records, started)
	f.measures.FetchCount.WithLabelValues(metric.OutcomeSuccess).Inc()
	f.measures.FetchDuration.Observe(time.Since(started).Seconds())
	return batch
}

func (f *Fetcher) fail(batch Batch, err error) Batch {
	f.logger.Warn("remote fetch failed",
		zap.String("key", batch.Key),
		zap.String("databaseURL", batch.DatabaseURL),
		zap.Error(err))
	f.measures.FetchCount.WithLabelValues(metric.OutcomeFailure).Inc()
	batch.Err = err
	return batch
}

// normalizeRecords flattens a raw sub-path map into provenance-tagged
// records. Scalar children are wrapped as a single "value" field.
func normalizeRecords(raw map[string]interface{}, config model.RemoteConfig) []model.Record {
	if len(raw) == 0 {
		return nil
	}
	records := make([]model.Record, 0, len(raw))
	for id, value := range raw {
		fields, ok := value.(map[string]interface{})
		if !ok {
			fields = map[string]interface{}{"value": value}
		}
		records = append(records, model.Record{
			ID:              id,
			Fields:          fields,
			SourceProjectID: config.Source(),
			SourceURL:       config.DatabaseURL,
			Timestamp:       cast.ToInt64(fields["timestamp"]),
		})
	}
	return records
}
