// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/corral-io/corral/localstate"
)

const (
	senderConfigsKey = "telegramBotConfigs"

	// MaxSavedSenders caps the recent-sender list; older entries roll off.
	MaxSavedSenders = 5
)

// SenderConfig is one saved bot token and chat id pair an operator can reuse
// without re-entering credentials.
type SenderConfig struct {
	ID      string `json:"id"`
	Token   string `json:"token"`
	ChatID  string `json:"chatId"`
	Label   string `json:"label,omitempty"`
	SavedAt int64  `json:"savedAt"`
}

// ConfigStore persists saved sender configurations in local state, newest
// first.
type ConfigStore struct {
	kv  localstate.KV
	now func() time.Time
}

func NewConfigStore(kv localstate.KV) *ConfigStore {
	return &ConfigStore{kv: kv, now: time.Now}
}

func (s *ConfigStore) List(ctx context.Context) ([]SenderConfig, error) {
	raw, err := s.kv.GetString(ctx, senderConfigsKey)
	if errors.Is(err, localstate.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var configs []SenderConfig
	if err := json.Unmarshal([]byte(raw), &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// Save records a sender configuration. A config with the same token and chat
// id updates the existing entry in place; a new pair is prepended and the list
// is trimmed to MaxSavedSenders.
func (s *ConfigStore) Save(ctx context.Context, config SenderConfig) (SenderConfig, error) {
	configs, err := s.List(ctx)
	if err != nil {
		return SenderConfig{}, err
	}

	config.SavedAt = s.now().UnixMilli()
	for i, existing := range configs {
		if existing.Token == config.Token && existing.ChatID == config.ChatID {
			config.ID = existing.ID
			configs[i] = config
			return config, s.persist(ctx, configs)
		}
	}

	config.ID = uuid.NewString()
	configs = append([]SenderConfig{config}, configs...)
	if len(configs) > MaxSavedSenders {
		configs = configs[:MaxSavedSenders]
	}
	return config, s.persist(ctx, configs)
}

func (s *ConfigStore) Delete(ctx context.Context, id string) error {
	configs, err := s.List(ctx)
	if err != nil {
		return err
	}
	kept := configs[:0]
	for _, config := range configs {
		if config.ID != id {
			kept = append(kept, config)
		}
	}
	return s.persist(ctx, kept)
}

func (s *ConfigStore) persist(ctx context.Context, configs []SenderConfig) error {
	data, err := json.Marshal(configs)
	if err != nil {
		return err
	}
	return s.kv.SetString(ctx, senderConfigsKey, string(data))
}
