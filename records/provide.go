// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"go.uber.org/fx"

	"github.com/corral-io/corral/fanout"
	"github.com/corral-io/corral/forwarding"
	"github.com/corral-io/corral/notify"
	"github.com/corral-io/corral/registry"
)

// ProvideHandlers fetches all dependencies and builds the named handlers for
// the dashboard API.
func ProvideHandlers() fx.Option {
	return fx.Provide(
		func(s *fanout.Service) Combiner { return s },
		func(r *registry.Reader) Registry { return r },
		func(s *forwarding.Service) Forwarder { return s },
		func(c *notify.Client) Notifier { return c },
		func(s *notify.ConfigStore) SenderConfigs { return s },

		fx.Annotated{
			Name:   "get_records_handler",
			Target: newGetRecordsHandler,
		},
		fx.Annotated{
			Name:   "add_config_handler",
			Target: newAddConfigHandler,
		},
		fx.Annotated{
			Name:   "count_configs_handler",
			Target: newCountConfigsHandler,
		},
		fx.Annotated{
			Name:   "broadcast_forward_handler",
			Target: newBroadcastForwardHandler,
		},
		fx.Annotated{
			Name:   "backup_handler",
			Target: newBackupHandler,
		},
		fx.Annotated{
			Name:   "restore_handler",
			Target: newRestoreHandler,
		},
		fx.Annotated{
			Name:   "push_rule_handler",
			Target: newPushRuleHandler,
		},
		fx.Annotated{
			Name:   "update_target_handler",
			Target: newUpdateTargetHandler,
		},
		fx.Annotated{
			Name:   "notify_test_handler",
			Target: newNotifyTestHandler,
		},
		fx.Annotated{
			Name:   "list_senders_handler",
			Target: newListSendersHandler,
		},
		fx.Annotated{
			Name:   "save_sender_handler",
			Target: newSaveSenderHandler,
		},
		fx.Annotated{
			Name:   "delete_sender_handler",
			Target: newDeleteSenderHandler,
		},
	)
}
