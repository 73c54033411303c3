// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corral-io/corral/model"
)

func TestParseEntry(t *testing.T) {
	testCases := []struct {
		Name           string
		Raw            interface{}
		ExpectedConfig model.RemoteConfig
		ExpectParseErr bool
	}{
		{
			Name: "web shape map",
			Raw: map[string]interface{}{
				"databaseURL": "https://herd-a.firebaseio.com",
				"projectId":   "herd-a",
				"apiKey":      "key-a",
				"appId":       "1:111:web:aaa",
			},
			ExpectedConfig: model.RemoteConfig{
				ID:          "entry1",
				DatabaseURL: "https://herd-a.firebaseio.com",
				ProjectID:   "herd-a",
				APIKey:      "key-a",
				AppID:       "1:111:web:aaa",
			},
		},
		{
			Name: "admin export shape",
			Raw: map[string]interface{}{
				"project_info": map[string]interface{}{
					"project_id":     "herd-b",
					"firebase_url":   "https://herd-b.firebaseio.com",
					"storage_bucket": "herd-b.appspot.com",
				},
				"client": []interface{}{
					map[string]interface{}{
						"client_info": map[string]interface{}{
							"mobilesdk_app_id": "1:222:android:bbb",
						},
						"api_key": []interface{}{
							map[string]interface{}{"current_key": "key-b"},
						},
					},
				},
			},
			ExpectedConfig: model.RemoteConfig{
				ID:            "entry1",
				DatabaseURL:   "https://herd-b.firebaseio.com",
				ProjectID:     "herd-b",
				StorageBucket: "herd-b.appspot.com",
				AppID:         "1:222:android:bbb",
				APIKey:        "key-b",
			},
		},
		{
			Name: "json string entry",
			Raw:  `{"databaseURL": "https://herd-c.firebaseio.com", "projectId": "herd-c"}`,
			ExpectedConfig: model.RemoteConfig{
				ID:          "entry1",
				DatabaseURL: "https://herd-c.firebaseio.com",
				ProjectID:   "herd-c",
			},
		},
		{
			Name: "string with assignment and semicolon",
			Raw:  `const firebaseConfig = {"databaseURL": "https://herd-d.firebaseio.com", "projectId": "herd-d"};`,
			ExpectedConfig: model.RemoteConfig{
				ID:          "entry1",
				DatabaseURL: "https://herd-d.firebaseio.com",
				ProjectID:   "herd-d",
			},
		},
		{
			Name: "js object literal string",
			Raw:  `const firebaseConfig = {databaseURL: "https://herd-e.firebaseio.com", projectId: "herd-e"};`,
			ExpectedConfig: model.RemoteConfig{
				ID:          "entry1",
				DatabaseURL: "https://herd-e.firebaseio.com",
				ProjectID:   "herd-e",
			},
		},
		{
			Name:           "malformed string",
			Raw:            "not a config at all",
			ExpectParseErr: true,
		},
		{
			Name:           "unsupported type",
			Raw:            42,
			ExpectParseErr: true,
		},
		{
			Name: "admin export with corrupt project_info",
			Raw: map[string]interface{}{
				"project_info": "oops",
			},
			ExpectParseErr: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert := assert.New(t)
			config, err := ParseEntry("entry1", testCase.Raw)
			if testCase.ExpectParseErr {
				assert.Error(err)
				var parseErr ParseError
				assert.ErrorAs(err, &parseErr)
				assert.Equal(400, parseErr.StatusCode())
				return
			}
			assert.NoError(err)
			assert.Equal(testCase.ExpectedConfig, config)
		})
	}
}

func TestParseRaw(t *testing.T) {
	testCases := []struct {
		Name        string
		Data        string
		ExpectedURL string
		ExpectErr   bool
	}{
		{
			Name:        "plain json",
			Data:        `{"databaseURL": "https://pasture.firebaseio.com"}`,
			ExpectedURL: "https://pasture.firebaseio.com",
		},
		{
			Name:        "let declaration",
			Data:        `let config = {"databaseURL": "https://pasture.firebaseio.com"}`,
			ExpectedURL: "https://pasture.firebaseio.com",
		},
		{
			// the web console hands out exactly this shape
			Name: "console paste with unquoted keys",
			Data: `const firebaseConfig = {
  apiKey: "AIzaSyA111",
  authDomain: "herd-a.firebaseapp.com",
  databaseURL: "https://herd-a.firebaseio.com",
  projectId: "herd-a",
  storageBucket: "herd-a.appspot.com",
  messagingSenderId: "234",
  appId: "1:234:web:abc",
};`,
			ExpectedURL: "https://herd-a.firebaseio.com",
		},
		{
			Name:        "single quotes and trailing comma",
			Data:        `{databaseURL: 'https://pasture.firebaseio.com',}`,
			ExpectedURL: "https://pasture.firebaseio.com",
		},
		{
			Name:      "empty body",
			Data:      ``,
			ExpectErr: true,
		},
		{
			Name:      "not an object",
			Data:      `[1, 2, 3]`,
			ExpectErr: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert := assert.New(t)
			config, err := ParseRaw([]byte(testCase.Data))
			if testCase.ExpectErr {
				assert.Error(err)
				return
			}
			require.NoError(t, err)
			assert.Equal(testCase.ExpectedURL, config.DatabaseURL)
		})
	}
}
