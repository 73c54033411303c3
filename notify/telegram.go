// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/corral-io/corral/metric"
)

const defaultAPIBase = "https://api.telegram.org"

var (
	ErrIncompleteMessage = errors.New("token, chat id and text are all required")

	errNonSuccessResponse = errors.New("telegram responded with a non-success status code")
	errSendRejected       = errors.New("telegram rejected the message")
)

// Message is one outbound notification.
type Message struct {
	Token  string `json:"-"`
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Result is the telegram API verdict for a send.
type Result struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// BotInfo describes a verified bot.
type BotInfo struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	FirstName     string `json:"first_name"`
	CanJoinGroups bool   `json:"can_join_groups"`
}

// Client sends messages through the telegram bot API. Each Send is one
// stateless outbound call.
type Client struct {
	client   *http.Client
	baseURL  string
	logger   *zap.Logger
	measures metric.Measures
}

type ClientConfig struct {
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// BaseURL overrides the telegram API host; tests point it at a local
	// server.
	BaseURL string
}

func NewClient(config ClientConfig, logger *zap.Logger, measures metric.Measures) *Client {
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultAPIBase
	}
	return &Client{
		client:   config.HTTPClient,
		baseURL:  config.BaseURL,
		logger:   logger,
		measures: measures,
	}
}

// Send posts one message with HTML parse mode. Incomplete messages fail
// locally; no call is issued.
func (c *Client) Send(ctx context.Context, msg Message) (Result, error) {
	if msg.Token == "" || msg.ChatID == "" || msg.Text == "" {
		return Result{OK: false, Description: ErrIncompleteMessage.Error()}, ErrIncompleteMessage
	}

	payload := struct {
		ChatID    string `json:"chat_id"`
		Text      string `json:"text"`
		ParseMode string `json:"parse_mode"`
	}{
		ChatID:    msg.ChatID,
		Text:      msg.Text,
		ParseMode: "HTML",
	}

	var result Result
	err := c.call(ctx, http.MethodPost, fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, msg.Token), payload, &result)
	if err != nil {
		c.measures.SendCount.WithLabelValues(metric.OutcomeFailure).Inc()
		return result, err
	}
	if !result.OK {
		c.measures.SendCount.WithLabelValues(metric.OutcomeFailure).Inc()
		return result, fmt.Errorf("%w: %s", errSendRejected, result.Description)
	}
	c.measures.SendCount.WithLabelValues(metric.OutcomeSuccess).Inc()
	return result, nil
}

// Me verifies a bot token against getMe.
func (c *Client) Me(ctx context.Context, token string) (BotInfo, error) {
	var reply struct {
		OK          bool    `json:"ok"`
		Description string  `json:"description,omitempty"`
		Result      BotInfo `json:"result"`
	}
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("%s/bot%s/getMe", c.baseURL, token), nil, &reply)
	if err != nil {
		return BotInfo{}, err
	}
	if !reply.OK {
		return BotInfo{}, fmt.Errorf("%w: %s", errSendRejected, reply.Description)
	}
	return reply.Result, nil
}

func (c *Client) call(ctx context.Context, method, url string, payload, into interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("%w: received status %d", errNonSuccessResponse, response.StatusCode)
	}
	return nil
}
