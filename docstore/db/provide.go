// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/corral-io/corral/docstore"
	"github.com/corral-io/corral/docstore/firebasedb"
	"github.com/corral-io/corral/docstore/inmem"
)

// Configs selects the hub store implementation. Only one backend should be
// configured; firebase wins when both are present.
type Configs struct {
	Firebase *firebasedb.Config
}

type SetupIn struct {
	fx.In
	Configs Configs
	Logger  *zap.Logger
}

func Provide() fx.Option {
	return fx.Provide(
		SetupStore,
	)
}

func SetupStore(in SetupIn) (docstore.S, error) {
	if in.Configs.Firebase != nil {
		in.Logger.Info("using firebase hub store implementation",
			zap.String("databaseURL", in.Configs.Firebase.DatabaseURL))
		return firebasedb.New(context.Background(), *in.Configs.Firebase)
	}
	in.Logger.Info("using in memory hub store implementation")
	return inmem.NewInMem(), nil
}
