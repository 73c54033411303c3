// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"

	"github.com/corral-io/corral/forwarding"
	"github.com/corral-io/corral/model"
	"github.com/corral-io/corral/notify"
)

// request URL path keys
const (
	pathVarKey = "path"
	idVarKey   = "id"
	keyVarKey  = "key"
)

const (
	pathVarMissingMsg = "{path} URL path parameter missing"
	idVarMissingMsg   = "{id} URL path parameter missing"
	keyVarMissingMsg  = "{key} URL path parameter missing"
)

// CorralErrorHeaderKey carries the terse error reason on failed responses.
const CorralErrorHeaderKey = "X-Corral-Error"

type getRecordsRequest struct {
	path    string
	search  string
	page    int
	refresh bool
}

type recordRow struct {
	Serial    int                    `json:"serial"`
	ID        string                 `json:"id"`
	Source    string                 `json:"source"`
	SourceURL string                 `json:"sourceUrl,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Fields    map[string]interface{} `json:"fields"`
}

type getRecordsResponse struct {
	Records    []recordRow          `json:"records"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	TotalPages int                  `json:"totalPages"`
	Filtered   int                  `json:"filtered"`
	Total      int                  `json:"total"`
	Targets    []model.TargetResult `json:"targets"`
}

type addConfigRequest struct {
	raw []byte
}

type addConfigResponse struct {
	Key string `json:"key"`
}

type countConfigsResponse struct {
	Count int `json:"count"`
}

type broadcastForwardRequest struct {
	value string
}

type pushRuleRequest struct {
	rule forwarding.PushEntry
}

type updateTargetRequest struct {
	key    string
	fields map[string]interface{}
}

type notifyTestRequest struct {
	message notify.Message
}

type saveSenderRequest struct {
	config notify.SenderConfig
}

type deleteSenderRequest struct {
	id string
}

type deleteSenderResponse struct {
	Deleted string `json:"deleted"`
}

type targetReport struct {
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Targets   []model.TargetResult `json:"targets"`
}

type backupResponse struct {
	Captured int   `json:"captured"`
	Taken    int64 `json:"taken"`
	targetReport
}

func decodeGetRecordsRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	path, ok := vars[pathVarKey]
	if !ok || path == "" {
		return nil, &BadRequestErr{Message: pathVarMissingMsg}
	}

	query := r.URL.Query()
	page := 1
	if raw := query.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return nil, &BadRequestErr{Message: "page must be a positive integer"}
		}
		page = parsed
	}

	return &getRecordsRequest{
		path:    path,
		search:  query.Get("search"),
		page:    page,
		refresh: query.Get("refresh") == "true",
	}, nil
}

func decodeAddConfigRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &BadRequestErr{Message: "failed to read body"}
	}
	if len(data) == 0 {
		return nil, &BadRequestErr{Message: "a config payload is required"}
	}
	return &addConfigRequest{raw: data}, nil
}

func decodeCountConfigsRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

func decodeBroadcastForwardRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, &BadRequestErr{Message: "failed to unmarshal json"}
	}
	if body.Value == "" {
		return nil, &BadRequestErr{Message: "the value field must be set"}
	}
	return &broadcastForwardRequest{value: body.Value}, nil
}

func decodeBackupRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

// decodeRestoreRequest requires explicit confirmation so a stray request
// cannot overwrite every remote's forward value.
func decodeRestoreRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	if r.URL.Query().Get("confirm") != "true" {
		return nil, &BadRequestErr{Message: "restore requires the confirm=true query parameter"}
	}
	return nil, nil
}

func decodePushRuleRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	var rule forwarding.PushEntry
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		return nil, &BadRequestErr{Message: "failed to unmarshal json"}
	}
	if rule.Forward == "" {
		return nil, &BadRequestErr{Message: "the forward field must be set"}
	}
	return &pushRuleRequest{rule: rule}, nil
}

// decodeUpdateTargetRequest accepts the editable per-target fields. Absent
// fields stay untouched on the remote, so an empty body is rejected rather
// than silently doing nothing.
func decodeUpdateTargetRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	key, ok := mux.Vars(r)[keyVarKey]
	if !ok || key == "" {
		return nil, &BadRequestErr{Message: keyVarMissingMsg}
	}

	var body struct {
		Default  *string `json:"default"`
		Forward  *string `json:"forward"`
		Password *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, &BadRequestErr{Message: "failed to unmarshal json"}
	}

	fields := map[string]interface{}{}
	if body.Default != nil {
		fields["default"] = *body.Default
	}
	if body.Forward != nil {
		fields["forward"] = *body.Forward
	}
	if body.Password != nil {
		fields["password"] = *body.Password
	}
	if len(fields) == 0 {
		return nil, &BadRequestErr{Message: "at least one of default, forward or password must be set"}
	}
	return &updateTargetRequest{key: key, fields: fields}, nil
}

func decodeNotifyTestRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	var body struct {
		Token  string `json:"token"`
		ChatID string `json:"chatId"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, &BadRequestErr{Message: "failed to unmarshal json"}
	}
	if body.Token == "" || body.ChatID == "" || body.Text == "" {
		return nil, &BadRequestErr{Message: "token, chatId and text must all be set"}
	}
	return &notifyTestRequest{message: notify.Message{
		Token:  body.Token,
		ChatID: body.ChatID,
		Text:   body.Text,
	}}, nil
}

func decodeListSendersRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

func decodeSaveSenderRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	var config notify.SenderConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		return nil, &BadRequestErr{Message: "failed to unmarshal json"}
	}
	if config.Token == "" || config.ChatID == "" {
		return nil, &BadRequestErr{Message: "token and chatId must both be set"}
	}
	return &saveSenderRequest{config: config}, nil
}

func decodeDeleteSenderRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)[idVarKey]
	if !ok || id == "" {
		return nil, &BadRequestErr{Message: idVarMissingMsg}
	}
	return &deleteSenderRequest{id: id}, nil
}

func encodeJSONResponse(ctx context.Context, rw http.ResponseWriter, response interface{}) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	rw.Header().Add("Content-Type", "application/json")
	rw.Write(data)
	return nil
}

func encodeAddConfigResponse(ctx context.Context, rw http.ResponseWriter, response interface{}) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	rw.Header().Add("Content-Type", "application/json")
	rw.WriteHeader(http.StatusCreated)
	rw.Write(data)
	return nil
}

func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	w.Header().Set(CorralErrorHeaderKey, err.Error())
	if headerer, ok := err.(kithttp.Headerer); ok {
		for k, values := range headerer.Headers() {
			for _, v := range values {
				w.Header().Add(k, v)
			}
		}
	}
	code := http.StatusInternalServerError
	if sc, ok := err.(kithttp.StatusCoder); ok {
		code = sc.StatusCode()
	}
	w.WriteHeader(code)
}
