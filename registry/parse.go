// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/spf13/cast"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/corral-io/corral/model"
)

// ParseError is a typed failure for a single registry entry or pasted config.
type ParseError struct {
	Reason string
}

func (e ParseError) Error() string {
	return "config parse error: " + e.Reason
}

func (e ParseError) StatusCode() int {
	return http.StatusBadRequest
}

// Operators paste configs straight out of source files, so inputs may carry a
// variable declaration and a trailing semicolon around the object literal.
var assignmentRe = regexp.MustCompile(`(?s)\A\s*(?:const|let|var)?\s*\w+\s*=\s*(.*)\z`)

// ParseEntry normalizes one registry value into a RemoteConfig. The stored
// form is either a structured mapping or a JSON string of one; shape is
// decided by a fixed table:
//
//	map with "project_info"  -> admin export shape (google-services.json)
//	any other map            -> web SDK shape
//	string                   -> stripped of assignment/semicolon, parsed
//	                            as JSON or a JS object literal, then
//	                            re-dispatched as a map
//
// A value that fits none of these produces a ParseError, never a partially
// shaped config.
func ParseEntry(id string, raw interface{}) (model.RemoteConfig, error) {
	switch v := raw.(type) {
	case string:
		m, err := parseObjectLiteral(v)
		if err != nil {
			return model.RemoteConfig{}, err
		}
		return fromMap(id, m)
	case map[string]interface{}:
		return fromMap(id, v)
	default:
		return model.RemoteConfig{}, ParseError{Reason: fmt.Sprintf("unsupported entry type %T", raw)}
	}
}

// ParseRaw parses operator-pasted bytes, tolerating a leading variable
// declaration, a trailing semicolon and JS object-literal syntax.
func ParseRaw(data []byte) (model.RemoteConfig, error) {
	m, err := parseObjectLiteral(string(data))
	if err != nil {
		return model.RemoteConfig{}, err
	}
	return fromMap("", m)
}

func parseObjectLiteral(s string) (map[string]interface{}, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	if match := assignmentRe.FindStringSubmatch(s); match != nil {
		s = match[1]
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s), &m); err == nil {
		return m, nil
	}
	// console pastes are JS object literals: unquoted keys, single quotes,
	// trailing commas
	m = nil
	if err := json5.Unmarshal([]byte(s), &m); err != nil {
		return nil, ParseError{Reason: err.Error()}
	}
	return m, nil
}

func fromMap(id string, m map[string]interface{}) (model.RemoteConfig, error) {
	if _, alternate := m["project_info"]; alternate {
		return fromAdminExport(id, m)
	}
	return fromWebShape(id, m)
}

func fromWebShape(id string, m map[string]interface{}) (model.RemoteConfig, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return model.RemoteConfig{}, ParseError{Reason: err.Error()}
	}
	var config model.RemoteConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return model.RemoteConfig{}, ParseError{Reason: err.Error()}
	}
	config.ID = id
	return config, nil
}

// fromAdminExport converts the google-services.json export shape via an
// explicit field mapping:
//
//	project_info.project_id                  -> projectId
//	project_info.firebase_url                -> databaseURL
//	project_info.storage_bucket              -> storageBucket
//	client[0].client_info.mobilesdk_app_id   -> appId
//	client[0].api_key[0].current_key         -> apiKey
func fromAdminExport(id string, m map[string]interface{}) (model.RemoteConfig, error) {
	info, ok := m["project_info"].(map[string]interface{})
	if !ok {
		return model.RemoteConfig{}, ParseError{Reason: "project_info is not an object"}
	}

	config := model.RemoteConfig{
		ID:            id,
		ProjectID:     cast.ToString(info["project_id"]),
		DatabaseURL:   cast.ToString(info["firebase_url"]),
		StorageBucket: cast.ToString(info["storage_bucket"]),
	}

	clients := cast.ToSlice(m["client"])
	if len(clients) > 0 {
		client := cast.ToStringMap(clients[0])
		clientInfo := cast.ToStringMap(client["client_info"])
		config.AppID = cast.ToString(clientInfo["mobilesdk_app_id"])
		keys := cast.ToSlice(client["api_key"])
		if len(keys) > 0 {
			config.APIKey = cast.ToString(cast.ToStringMap(keys[0])["current_key"])
		}
	}
	return config, nil
}
