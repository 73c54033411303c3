// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"github.com/xmidt-org/httpaux"
	"github.com/xmidt-org/httpaux/recovery"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/corral-io/corral/records"
)

const (
	defaultPrimaryAddress = ":6600"
	defaultMetricsAddress = ":6601"
	defaultHealthAddress  = ":6602"
)

type serverConfig struct {
	Address string
}

type PrimaryHandlersIn struct {
	fx.In
	GetRecords       records.Handler `name:"get_records_handler"`
	AddConfig        records.Handler `name:"add_config_handler"`
	CountConfigs     records.Handler `name:"count_configs_handler"`
	BroadcastForward records.Handler `name:"broadcast_forward_handler"`
	Backup           records.Handler `name:"backup_handler"`
	Restore          records.Handler `name:"restore_handler"`
	PushRule         records.Handler `name:"push_rule_handler"`
	UpdateTarget     records.Handler `name:"update_target_handler"`
	NotifyTest       records.Handler `name:"notify_test_handler"`
	ListSenders      records.Handler `name:"list_senders_handler"`
	SaveSender       records.Handler `name:"save_sender_handler"`
	DeleteSender     records.Handler `name:"delete_sender_handler"`
}

type RoutesIn struct {
	fx.In
	Lifecycle fx.Lifecycle
	Viper     *viper.Viper
	Logger    *zap.Logger
	Handlers  PrimaryHandlersIn
}

func BuildPrimaryRoutes(in RoutesIn) error {
	var c serverConfig
	if err := in.Viper.UnmarshalKey("servers.primary", &c); err != nil {
		return err
	}
	if c.Address == "" {
		c.Address = defaultPrimaryAddress
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/" + apiBase).Subrouter()
	api.Handle("/records/{path}", in.Handlers.GetRecords).Methods(http.MethodGet)
	api.Handle("/configs", in.Handlers.AddConfig).Methods(http.MethodPost)
	api.Handle("/configs/count", in.Handlers.CountConfigs).Methods(http.MethodGet)
	api.Handle("/forwarding", in.Handlers.BroadcastForward).Methods(http.MethodPost)
	api.Handle("/forwarding/backup", in.Handlers.Backup).Methods(http.MethodPost)
	api.Handle("/forwarding/restore", in.Handlers.Restore).Methods(http.MethodPost)
	api.Handle("/forwarding/push", in.Handlers.PushRule).Methods(http.MethodPost)
	api.Handle("/targets/{key}/fields", in.Handlers.UpdateTarget).Methods(http.MethodPut)
	api.Handle("/notify/test", in.Handlers.NotifyTest).Methods(http.MethodPost)
	api.Handle("/notify/configs", in.Handlers.ListSenders).Methods(http.MethodGet)
	api.Handle("/notify/configs", in.Handlers.SaveSender).Methods(http.MethodPost)
	api.Handle("/notify/configs/{id}", in.Handlers.DeleteSender).Methods(http.MethodDelete)

	chain := alice.New(recovery.Middleware(
		recovery.WithStatusCode(http.StatusInternalServerError),
	))
	runServer(in.Lifecycle, in.Logger, "primary", c.Address, chain.Then(router))
	return nil
}

func BuildMetricsRoutes(lc fx.Lifecycle, v *viper.Viper, logger *zap.Logger, gatherer prometheus.Gatherer) error {
	var c serverConfig
	if err := v.UnmarshalKey("servers.metrics", &c); err != nil {
		return err
	}
	if c.Address == "" {
		c.Address = defaultMetricsAddress
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)

	runServer(lc, logger, "metrics", c.Address, router)
	return nil
}

func BuildHealthRoutes(lc fx.Lifecycle, v *viper.Viper, logger *zap.Logger) error {
	var c serverConfig
	if err := v.UnmarshalKey("servers.health", &c); err != nil {
		return err
	}
	if c.Address == "" {
		c.Address = defaultHealthAddress
	}

	router := mux.NewRouter()
	router.Handle("/health", httpaux.ConstantHandler{
		StatusCode: http.StatusOK,
	}).Methods(http.MethodGet)

	runServer(lc, logger, "health", c.Address, router)
	return nil
}
