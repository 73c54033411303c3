// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/corral-io/corral/localstate"
	"github.com/corral-io/corral/model"
)

// watcher states
const (
	stopped int32 = iota
	running
	transitioning
)

const (
	defaultWatchPath    = "Milk"
	defaultPullInterval = time.Minute
)

var (
	ErrWatcherNotStopped = errors.New("watcher is either running or being started")
	ErrWatcherNotRunning = errors.New("watcher is either stopped or being stopped")

	errNoSender = errors.New("a sender token and chat id are required to start the watcher")
)

// Combiner is the slice of the fan-out service the watcher needs.
type Combiner interface {
	Combined(ctx context.Context, targetPath string, refresh bool) ([]model.Record, []model.TargetResult, error)
}

type WatcherConfig struct {
	// Path is the record collection to watch. Defaults to the message
	// collection.
	Path string

	// PullInterval controls how often the watched path is re-read.
	// Defaults to one minute.
	PullInterval time.Duration

	// Sender receives a notification for every record not seen before.
	Sender SenderConfig
}

// Watcher periodically re-reads a record collection across every registered
// remote and notifies the configured sender about records it has not sent
// before. Sent ids are persisted in local state so restarts do not re-notify.
type Watcher struct {
	config   WatcherConfig
	combiner Combiner
	client   *Client
	kv       localstate.KV
	logger   *zap.Logger

	state    int32
	shutdown chan struct{}
}

func NewWatcher(config WatcherConfig, combiner Combiner, client *Client, kv localstate.KV, logger *zap.Logger) (*Watcher, error) {
	if config.Sender.Token == "" || config.Sender.ChatID == "" {
		return nil, errNoSender
	}
	if config.Path == "" {
		config.Path = defaultWatchPath
	}
	if config.PullInterval <= 0 {
		config.PullInterval = defaultPullInterval
	}
	return &Watcher{
		config:   config,
		combiner: combiner,
		client:   client,
		kv:       kv,
		logger:   logger,
		shutdown: make(chan struct{}),
	}, nil
}

// Start begins the polling loop. It returns an error if the watcher is not
// currently stopped.
func (w *Watcher) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&w.state, stopped, transitioning) {
		w.logger.Error("start called on a watcher that is not stopped")
		return ErrWatcherNotStopped
	}

	go w.loop()

	atomic.SwapInt32(&w.state, running)
	return nil
}

// Stop ends the polling loop. It returns an error if the watcher is not
// currently running.
func (w *Watcher) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&w.state, running, transitioning) {
		w.logger.Error("stop called on a watcher that is not running")
		return ErrWatcherNotRunning
	}

	w.shutdown <- struct{}{}
	atomic.SwapInt32(&w.state, stopped)
	return nil
}

func (w *Watcher) loop() {
	ticker := time.NewTicker(w.config.PullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), w.config.PullInterval)
	defer cancel()

	records, _, err := w.combiner.Combined(ctx, w.config.Path, false)
	if err != nil {
		w.logger.Error("watch poll failed", zap.String("path", w.config.Path), zap.Error(err))
		return
	}

	setKey := w.sentSetKey()
	for _, record := range records {
		member := record.SourceProjectID + "/" + record.ID
		seen, err := w.kv.InSet(ctx, setKey, member)
		if err != nil {
			w.logger.Error("sent-set lookup failed", zap.String("member", member), zap.Error(err))
			continue
		}
		if seen {
			continue
		}

		_, err = w.client.Send(ctx, Message{
			Token:  w.config.Sender.Token,
			ChatID: w.config.Sender.ChatID,
			Text:   formatRecord(record),
		})
		if err != nil {
			w.logger.Warn("notification send failed",
				zap.String("source", record.SourceProjectID),
				zap.String("id", record.ID),
				zap.Error(err))
			continue
		}
		if err := w.kv.AddToSet(ctx, setKey, member); err != nil {
			w.logger.Error("failed to mark record as sent", zap.String("member", member), zap.Error(err))
		}
	}
}

func (w *Watcher) sentSetKey() string {
	return "sent:" + w.config.Sender.Token + ":" + w.config.Sender.ChatID
}

// formatRecord renders a record as an HTML notification body with one line
// per field, in stable field order.
func formatRecord(record model.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>New message</b> from %s\n", record.SourceProjectID)

	keys := make([]string, 0, len(record.Fields))
	for key := range record.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "%s: %s\n", key, cast.ToString(record.Fields[key]))
	}
	return strings.TrimRight(b.String(), "\n")
}
