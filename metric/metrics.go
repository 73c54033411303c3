// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

const (
	FetchCounter         = "fanout_fetch_count"
	FetchDurationSeconds = "fanout_fetch_duration_seconds"
	CacheHitCounter      = "fanout_cache_hit_count"
	CacheMissCounter     = "fanout_cache_miss_count"
	BroadcastCounter     = "broadcast_target_count"
	LiveHandlesGauge     = "live_session_handles"
	NotificationCounter  = "notification_send_count"

	OutcomeLabel   = "outcome"
	OperationLabel = "op"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Measures bundles every domain metric for the fan-out engine and the
// broadcast workflows.
type Measures struct {
	FetchCount     *prometheus.CounterVec
	FetchDuration  prometheus.Observer
	CacheHitCount  prometheus.Counter
	CacheMissCount prometheus.Counter
	BroadcastCount *prometheus.CounterVec
	LiveHandles    prometheus.Gauge
	SendCount      *prometheus.CounterVec
}

// Provide builds the application measures from the touchstone factory.
func Provide() fx.Option {
	return fx.Provide(NewMeasures)
}

func NewMeasures(f *touchstone.Factory) (Measures, error) {
	var (
		m   Measures
		err error
	)

	if m.FetchCount, err = f.NewCounterVec(prometheus.CounterOpts{
		Name: FetchCounter,
		Help: "per-target fetch outcomes across all fan-out cycles",
	}, OutcomeLabel); err != nil {
		return Measures{}, err
	}
	if m.FetchDuration, err = f.NewHistogram(prometheus.HistogramOpts{
		Name:    FetchDurationSeconds,
		Help:    "latency of per-target remote reads",
		Buckets: []float64{0.0625, 0.125, .25, .5, 1, 5, 10, 20},
	}); err != nil {
		return Measures{}, err
	}
	if m.CacheHitCount, err = f.NewCounter(prometheus.CounterOpts{
		Name: CacheHitCounter,
		Help: "fetches served from the TTL cache",
	}); err != nil {
		return Measures{}, err
	}
	if m.CacheMissCount, err = f.NewCounter(prometheus.CounterOpts{
		Name: CacheMissCounter,
		Help: "fetches that required network reads",
	}); err != nil {
		return Measures{}, err
	}
	if m.BroadcastCount, err = f.NewCounterVec(prometheus.CounterOpts{
		Name: BroadcastCounter,
		Help: "per-target outcomes of broadcast, backup and restore operations",
	}, OperationLabel, OutcomeLabel); err != nil {
		return Measures{}, err
	}
	if m.LiveHandles, err = f.NewGauge(prometheus.GaugeOpts{
		Name: LiveHandlesGauge,
		Help: "number of currently open remote session handles",
	}); err != nil {
		return Measures{}, err
	}
	if m.SendCount, err = f.NewCounterVec(prometheus.CounterOpts{
		Name: NotificationCounter,
		Help: "outbound notification outcomes",
	}, OutcomeLabel); err != nil {
		return Measures{}, err
	}
	return m, nil
}
