// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corral-io/corral/model"
)

// Handle is a named, live connection tracked by a Manager. Its context is
// canceled on release so an abandoned in-flight read fails instead of
// delivering a stale result.
type Handle struct {
	name    string
	purpose string
	conn    Conn
	ctx     context.Context
	cancel  context.CancelFunc
}

// Name returns the derived unique handle name.
func (h *Handle) Name() string {
	return h.name
}

// Context is canceled when the handle is released. Pass it (or a context
// derived from it) to every operation on Conn.
func (h *Handle) Context() context.Context {
	return h.ctx
}

func (h *Handle) Conn() Conn {
	return h.conn
}

// Manager owns the process-wide table of live handles. It is an injected
// instance rather than package state so tests can create and tear down
// isolated managers.
type Manager struct {
	dialer Dialer
	logger *zap.Logger
	gauge  LiveGauge
	nonce  func() string

	lock sync.Mutex
	live map[string]*Handle
}

// LiveGauge tracks the number of currently open handles. A nil gauge is
// valid and ignored.
type LiveGauge interface {
	Inc()
	Dec()
}

func NewManager(dialer Dialer, logger *zap.Logger, gauge LiveGauge) *Manager {
	return &Manager{
		dialer: dialer,
		logger: logger,
		gauge:  gauge,
		nonce:  func() string { return uuid.NewString()[:8] },
		live:   map[string]*Handle{},
	}
}

// Acquire opens a connection for the given config under a derived name of the
// form purpose-identity-nonce. If a handle with a colliding name is already
// live it is closed first, so a half-torn-down session can never be reused.
func (m *Manager) Acquire(ctx context.Context, config model.RemoteConfig, purpose string) (*Handle, error) {
	name := fmt.Sprintf("%s-%s-%s", purpose, config.Source(), m.nonce())

	m.lock.Lock()
	stale, collided := m.live[name]
	if collided {
		delete(m.live, name)
	}
	m.lock.Unlock()
	if collided {
		m.close(stale)
		if m.gauge != nil {
			m.gauge.Dec()
		}
	}

	conn, err := m.dialer.Open(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("opening session %q: %w", name, err)
	}

	handleCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		name:    name,
		purpose: purpose,
		conn:    conn,
		ctx:     handleCtx,
		cancel:  cancel,
	}

	m.lock.Lock()
	m.live[name] = h
	m.lock.Unlock()
	if m.gauge != nil {
		m.gauge.Inc()
	}
	return h, nil
}

// Release closes the handle's connection and drops it from the live table.
// Close failures are logged and swallowed; they never reach the caller.
// Releasing an already-released handle is a no-op.
func (m *Manager) Release(h *Handle) {
	if h == nil {
		return
	}
	m.lock.Lock()
	_, ok := m.live[h.name]
	if ok {
		delete(m.live, h.name)
	}
	m.lock.Unlock()
	if !ok {
		return
	}
	m.close(h)
	if m.gauge != nil {
		m.gauge.Dec()
	}
}

// SweepPrefix forcibly releases every live handle whose purpose tag matches
// the prefix. Used at component teardown.
func (m *Manager) SweepPrefix(prefix string) {
	m.lock.Lock()
	var swept []*Handle
	for name, h := range m.live {
		if strings.HasPrefix(h.purpose, prefix) {
			delete(m.live, name)
			swept = append(swept, h)
		}
	}
	m.lock.Unlock()

	for _, h := range swept {
		m.close(h)
		if m.gauge != nil {
			m.gauge.Dec()
		}
	}
}

// LiveCount returns the number of currently open handles.
func (m *Manager) LiveCount() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.live)
}

func (m *Manager) close(h *Handle) {
	h.cancel()
	if err := h.conn.Close(); err != nil {
		m.logger.Warn("failed to close remote session",
			zap.String("handle", h.name), zap.Error(err))
	}
}
