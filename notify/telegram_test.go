// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/zap"

	"github.com/corral-io/corral/metric"
)

func testMeasures(t *testing.T) metric.Measures {
	f := touchstone.NewFactory(touchstone.Config{}, zap.NewNop(), prometheus.NewPedanticRegistry())
	m, err := metric.NewMeasures(f)
	require.NoError(t, err)
	return m
}

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(ClientConfig{BaseURL: server.URL}, zap.NewNop(), testMeasures(t))
	return client, server
}

func TestSend(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var gotPath string
	var gotBody map[string]interface{}
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))

	result, err := client.Send(context.Background(), Message{
		Token:  "bot-token",
		ChatID: "12345",
		Text:   "<b>hello</b>",
	})
	require.NoError(err)
	assert.True(result.OK)

	assert.Equal("/botbot-token/sendMessage", gotPath)
	assert.Equal("12345", gotBody["chat_id"])
	assert.Equal("<b>hello</b>", gotBody["text"])
	assert.Equal("HTML", gotBody["parse_mode"])
}

func TestSendRejected(t *testing.T) {
	assert := assert.New(t)

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"description": "Unauthorized",
		})
	}))

	result, err := client.Send(context.Background(), Message{
		Token:  "bad-token",
		ChatID: "12345",
		Text:   "hello",
	})
	assert.Error(err)
	assert.False(result.OK)
	assert.Equal("Unauthorized", result.Description)
}

func TestSendIncompleteMessage(t *testing.T) {
	testCases := []struct {
		Name    string
		Message Message
	}{
		{Name: "missing token", Message: Message{ChatID: "1", Text: "t"}},
		{Name: "missing chat id", Message: Message{Token: "tok", Text: "t"}},
		{Name: "missing text", Message: Message{Token: "tok", ChatID: "1"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert := assert.New(t)
			called := false
			client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			_, err := client.Send(context.Background(), testCase.Message)
			assert.ErrorIs(err, ErrIncompleteMessage)
			// incomplete messages fail locally
			assert.False(called)
		})
	}
}

func TestMe(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/botbot-token/getMe", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true,
			"result": map[string]interface{}{
				"id":         99,
				"username":   "corral_bot",
				"first_name": "Corral",
			},
		})
	}))

	info, err := client.Me(context.Background(), "bot-token")
	require.NoError(err)
	assert.Equal(int64(99), info.ID)
	assert.Equal("corral_bot", info.Username)
}

func TestMeBadToken(t *testing.T) {
	assert := assert.New(t)

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"description": "Not Found",
		})
	}))

	_, err := client.Me(context.Background(), "nope")
	assert.Error(err)
}
