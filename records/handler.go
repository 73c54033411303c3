// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"
)

type Handler http.Handler

func newGetRecordsHandler(combiner Combiner) Handler {
	return kithttp.NewServer(
		newGetRecordsEndpoint(combiner),
		decodeGetRecordsRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newAddConfigHandler(registry Registry) Handler {
	return kithttp.NewServer(
		newAddConfigEndpoint(registry),
		decodeAddConfigRequest,
		encodeAddConfigResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newCountConfigsHandler(registry Registry) Handler {
	return kithttp.NewServer(
		newCountConfigsEndpoint(registry),
		decodeCountConfigsRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newBroadcastForwardHandler(forwarder Forwarder) Handler {
	return kithttp.NewServer(
		newBroadcastForwardEndpoint(forwarder),
		decodeBroadcastForwardRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newBackupHandler(forwarder Forwarder) Handler {
	return kithttp.NewServer(
		newBackupEndpoint(forwarder),
		decodeBackupRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newRestoreHandler(forwarder Forwarder) Handler {
	return kithttp.NewServer(
		newRestoreEndpoint(forwarder),
		decodeRestoreRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newPushRuleHandler(forwarder Forwarder) Handler {
	return kithttp.NewServer(
		newPushRuleEndpoint(forwarder),
		decodePushRuleRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newUpdateTargetHandler(forwarder Forwarder) Handler {
	return kithttp.NewServer(
		newUpdateTargetEndpoint(forwarder),
		decodeUpdateTargetRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newNotifyTestHandler(notifier Notifier) Handler {
	return kithttp.NewServer(
		newNotifyTestEndpoint(notifier),
		decodeNotifyTestRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newListSendersHandler(configs SenderConfigs) Handler {
	return kithttp.NewServer(
		newListSendersEndpoint(configs),
		decodeListSendersRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newSaveSenderHandler(configs SenderConfigs) Handler {
	return kithttp.NewServer(
		newSaveSenderEndpoint(configs),
		decodeSaveSenderRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newDeleteSenderHandler(configs SenderConfigs) Handler {
	return kithttp.NewServer(
		newDeleteSenderEndpoint(configs),
		decodeDeleteSenderRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}
