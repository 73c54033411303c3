// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"

	"github.com/spf13/viper"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/corral-io/corral/docstore"
	"github.com/corral-io/corral/docstore/db"
	"github.com/corral-io/corral/fanout"
	"github.com/corral-io/corral/forwarding"
	"github.com/corral-io/corral/localstate"
	"github.com/corral-io/corral/localstate/inmemkv"
	"github.com/corral-io/corral/localstate/rediskv"
	"github.com/corral-io/corral/metric"
	"github.com/corral-io/corral/notify"
	"github.com/corral-io/corral/registry"
	"github.com/corral-io/corral/session"
	"github.com/corral-io/corral/session/firebasedial"
)

type fanoutConfig struct {
	Timeout        time.Duration
	PoolSize       int
	CacheTTL       time.Duration
	ClearOnRefresh bool
}

type localStateConfig struct {
	Redis *rediskv.Config
}

type notifyConfig struct {
	BaseURL string
	Watcher *notify.WatcherConfig
}

// provideCore wires every domain component out of the application
// configuration.
func provideCore() fx.Option {
	return fx.Provide(
		func(v *viper.Viper) (touchstone.Config, error) {
			var c touchstone.Config
			err := v.UnmarshalKey("prometheus", &c)
			return c, err
		},
		func(v *viper.Viper) (db.Configs, error) {
			var c db.Configs
			err := v.UnmarshalKey("store", &c)
			return c, err
		},
		func(store docstore.S, logger *zap.Logger) *registry.Reader {
			return registry.NewReader(store, logger)
		},
		func(logger *zap.Logger, measures metric.Measures) *session.Manager {
			return session.NewManager(firebasedial.New(), logger, measures.LiveHandles)
		},
		func(v *viper.Viper) (fanoutConfig, error) {
			var c fanoutConfig
			err := v.UnmarshalKey("fanout", &c)
			return c, err
		},
		func(c fanoutConfig) *fanout.Cache {
			return fanout.NewCache(c.CacheTTL)
		},
		newFetcher,
		func(c fanoutConfig, fetcher *fanout.Fetcher, cache *fanout.Cache) *fanout.Service {
			policy := fanout.KeepStaleWhileRevalidating
			if c.ClearOnRefresh {
				policy = fanout.ClearOnRefresh
			}
			return fanout.NewService(fetcher, cache, policy)
		},
		func(v *viper.Viper, reader *registry.Reader, sessions *session.Manager,
			store docstore.S, logger *zap.Logger, measures metric.Measures) (*forwarding.Service, error) {
			var c forwarding.Config
			if err := v.UnmarshalKey("forwarding", &c); err != nil {
				return nil, err
			}
			return forwarding.NewService(c, reader, sessions, store, logger, measures), nil
		},
		newLocalState,
		func(v *viper.Viper) (notifyConfig, error) {
			var c notifyConfig
			err := v.UnmarshalKey("notify", &c)
			return c, err
		},
		func(c notifyConfig, logger *zap.Logger, measures metric.Measures) *notify.Client {
			return notify.NewClient(notify.ClientConfig{BaseURL: c.BaseURL}, logger, measures)
		},
		func(kv localstate.KV) *notify.ConfigStore {
			return notify.NewConfigStore(kv)
		},
	)
}

func newFetcher(lc fx.Lifecycle, c fanoutConfig, reader *registry.Reader, sessions *session.Manager,
	cache *fanout.Cache, logger *zap.Logger, measures metric.Measures) (*fanout.Fetcher, error) {

	fetcher, err := fanout.NewFetcher(fanout.FetcherConfig{
		Timeout:  c.Timeout,
		PoolSize: c.PoolSize,
	}, reader, sessions, cache, logger, measures)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			fetcher.Close()
			return nil
		},
	})
	return fetcher, nil
}

func newLocalState(lc fx.Lifecycle, v *viper.Viper, logger *zap.Logger) (localstate.KV, error) {
	var c localStateConfig
	if err := v.UnmarshalKey("localstate", &c); err != nil {
		return nil, err
	}
	if c.Redis == nil {
		logger.Info("using in memory local state")
		return inmemkv.New(), nil
	}

	logger.Info("using redis local state", zap.String("host", c.Redis.Host))
	kv, err := rediskv.New(*c.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return kv.Close()
		},
	})
	return kv, nil
}

// provideWatcher starts the notification watcher with the server when one is
// configured.
func provideWatcher() fx.Option {
	return fx.Invoke(
		func(lc fx.Lifecycle, c notifyConfig, service *fanout.Service, client *notify.Client,
			kv localstate.KV, logger *zap.Logger) error {
			if c.Watcher == nil || c.Watcher.Sender.Token == "" {
				logger.Info("no notification watcher configured")
				return nil
			}
			watcher, err := notify.NewWatcher(*c.Watcher, service, client, kv, logger)
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStart: watcher.Start,
				OnStop:  watcher.Stop,
			})
			return nil
		},
	)
}
